// Package netscape reads the NETSCAPE-Bookmark-file-1 HTML that Chrome,
// Firefox and Safari export.
package netscape

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

const Format = "netscape"

// Parse returns one draft per <A HREF>. The nearest enclosing folder (<H3>)
// becomes the category, ADD_DATE the date added and a TAGS attribute the
// comma separated tag names.
func Parse(r io.Reader) ([]domain.BookmarkDraft, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks html: %w", err)
	}

	var drafts []domain.BookmarkDraft
	walk(doc, nil, &drafts)
	return drafts, nil
}

// walk descends the tree. A folder's <H3> is followed by a <DL> sibling
// holding its entries; the HTML parser may nest that <DL> inside the <DT>.
func walk(n *html.Node, folders []string, out *[]domain.BookmarkDraft) {
	pending := ""
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.H3:
			pending = strings.TrimSpace(text(c))
		case atom.A:
			if d, ok := draft(c, folders); ok {
				*out = append(*out, d)
			}
		case atom.Dl:
			if pending != "" {
				walk(c, append(folders[:len(folders):len(folders)], pending), out)
				pending = ""
				continue
			}
			walk(c, folders, out)
		default:
			walk(c, folders, out)
			if c.DataAtom == atom.Dt {
				if h := folderTitle(c); h != "" {
					pending = h
				}
			}
		}
	}
}

// folderTitle returns the title of a <DT><H3> whose <DL> was not nested in it.
func folderTitle(dt *html.Node) string {
	var title string
	for c := dt.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.H3:
			title = strings.TrimSpace(text(c))
		case atom.Dl:
			return ""
		}
	}
	return title
}

func draft(a *html.Node, folders []string) (domain.BookmarkDraft, bool) {
	href := strings.TrimSpace(attr(a, "href"))
	if href == "" {
		return domain.BookmarkDraft{}, false
	}
	d := domain.BookmarkDraft{
		URL:   href,
		Title: strings.TrimSpace(text(a)),
	}
	if sec, err := strconv.ParseInt(attr(a, "add_date"), 10, 64); err == nil && sec > 0 {
		d.DateAdded = time.Unix(sec, 0).UTC()
	}
	for _, t := range strings.Split(attr(a, "tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			d.TagNames = append(d.TagNames, t)
		}
	}
	if len(folders) > 0 {
		d.CategoryName = folders[len(folders)-1]
	}
	return d, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
