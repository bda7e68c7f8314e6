// Package source holds the two site adapters the pipeline crawls. Each
// adapter implements the same list/detail contract but encodes its own
// markup assumptions; the sites are uncontrolled, so extraction is tolerant
// pattern matching per source, not a shared parser.
package source

import (
	"context"
	"time"

	"notice-feed/internal/domain"
)

// ListedItem is one candidate row from a listing page. Title may be a
// low-confidence guess and PostedAt is usually unknown until detail fetch.
type ListedItem struct {
	RemoteID string
	Title    string
	PostedAt *time.Time
	URL      string
}

// DetailedItem is a ListedItem enriched with body text. Content and Excerpt
// are nil for link-only records (upstream 5xx on the detail page).
type DetailedItem struct {
	ListedItem
	Content *string
	Excerpt *string
}

// Source is the capability contract both adapters implement.
type Source interface {
	ID() domain.Source
	Label() string
	List(ctx context.Context, c *Client) ([]ListedItem, error)
	Detail(ctx context.Context, c *Client, item ListedItem) (DetailedItem, error)
}

// All returns the configured adapters in crawl order.
func All() []Source {
	return []Source{NewSojoong(), NewAicoss()}
}

// linkOnly degrades a listed item to a record without body content. Used when
// the detail page 5xxes: the post still shows up in the feed with a working
// outbound link.
func linkOnly(item ListedItem) DetailedItem {
	return DetailedItem{ListedItem: item}
}

const (
	listWindow    = 30  // most recent items kept per listing fetch
	maxTitleRunes = 200 // listing titles are clipped to this
	minTitleRunes = 2   // anything shorter is markup noise, dropped

	detailTitleRunes   = 300
	detailContentRunes = 10000 // raw markup window fed to StripHTML
	excerptRunes       = 180
)
