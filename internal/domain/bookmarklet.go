package domain

import (
	"fmt"
	"strings"
)

// Bookmarklet returns the javascript: URL that, dragged to a browser toolbar,
// opens the add form of the app at appURL prefilled with the current page's
// title, location and description (meta description, else the selection).
func Bookmarklet(appURL string) string {
	appURL = strings.TrimRight(strings.TrimSpace(appURL), "/")
	script := fmt.Sprintf(`(function(){`+
		`var d=document,m=d.querySelector('meta[name="description"]'),`+
		`s=window.getSelection?String(window.getSelection()):'',`+
		`c=function(v){return (v||'').replace(/\s+/g,' ').trim();},`+
		`desc=c(m&&m.getAttribute('content'))||c(s);`+
		`window.open(%q+'/add?title='+encodeURIComponent(c(d.title))+`+
		`'&url='+encodeURIComponent(location.href)+`+
		`'&description='+encodeURIComponent(desc),'_blank');`+
		`})();`, appURL)
	return "javascript:" + script
}
