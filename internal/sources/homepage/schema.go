package homepage

// BookmarkEntry is one entry of a bookmarks.yaml group.
type BookmarkEntry struct {
	Icon        string `yaml:"icon"`
	Abbr        string `yaml:"abbr"`
	Href        string `yaml:"href"`
	Description string `yaml:"description"`
}

// BookmarkGroup maps a group name to its bookmarks. Each bookmark name maps
// to a list holding a single entry:
//
//	- Developer:
//	    - Github:
//	        - abbr: GH
//	          href: https://github.com/
type BookmarkGroup map[string][]map[string][]BookmarkEntry

// BookmarksConfig is the root of bookmarks.yaml.
type BookmarksConfig []BookmarkGroup

// ServicesConfig is the root of services.yaml: group -> list of service
// name -> props.
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps are the service fields worth importing; widgets and
// monitoring settings are ignored.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
