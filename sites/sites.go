// Package sites proxies the Sophos Central web-control "local sites"
// collection: list with full pagination, create, and delete. The remote
// system is the only source of truth; nothing is cached locally.
package sites

// LocalSite is a remote-owned entry in the local-sites collection. The id is
// assigned upstream and never generated here. Exactly one of Tags or
// CategoryID is meaningful per the remote contract; the proxy forwards
// whichever the caller supplied and leaves enforcement to the remote side.
type LocalSite struct {
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	Tags       []string `json:"tags,omitempty"`
	CategoryID *int     `json:"categoryId,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

// NewSite is the caller-supplied payload for a create call.
type NewSite struct {
	URL        string   `json:"url"`
	Tags       []string `json:"tags,omitempty"`
	CategoryID *int     `json:"categoryId,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

// ListOptions selects between a single-page fetch and the default
// all-pages aggregation.
type ListOptions struct {
	All       bool
	Page      int
	PageTotal bool
}

// DefaultListOptions fetches every page and reports the total page count.
func DefaultListOptions() ListOptions {
	return ListOptions{All: true, Page: 1, PageTotal: true}
}

// ListResult holds items in upstream order: within-page order preserved,
// pages concatenated ascending.
type ListResult struct {
	Items      []LocalSite
	TotalPages int
}
