package source

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"notice-feed/internal/domain"
	"notice-feed/internal/extract"
)

const (
	sojoongBase    = "https://sojoong.kr"
	sojoongListURL = "https://sojoong.kr/notice/notice-board/"
)

var (
	sojoongTrRe     = regexp.MustCompile(`(?is)<tr([^>]*)>(.*?)</tr>`)
	sojoongHrefRe   = regexp.MustCompile(`(?i)href=["']([^"']*uid=(\d+)[^"']*)["']`)
	sojoongAnchorRe = regexp.MustCompile(`(?is)<a\s[^>]*href=["'][^"']*uid=\d+[^"']*["'][^>]*>(.*?)</a>`)
	sojoongDivRe    = regexp.MustCompile(`(?is)<div([^>]*)>(.*?)</div>`)
	sojoongClassRe  = regexp.MustCompile(`(?i)class=["']([^"']*)["']`)
	sojoongDateRe   = regexp.MustCompile(`(?is)<span[^>]*class=["'][^"']*(?:kboard-date|custom-date)[^"']*["'][^>]*>([^<]+)</span>`)
	sojoongLineRe   = regexp.MustCompile(`^(\d{1,6})\b`)

	sojoongTitleRe   = regexp.MustCompile(`(?is)<div[^>]*class=["'][^"']*kboard-title[^"']*["'][^>]*>.*?<h[12][^>]*>(.*?)</h[12]>`)
	sojoongDetailRe  = regexp.MustCompile(`(?is)<div[^>]*class=["'][^"']*detail-date[^"']*["'][^>]*>.*?<div[^>]*class=["'][^"']*detail-value[^"']*["'][^>]*>([^<]+)</div>`)
	sojoongContentRe = regexp.MustCompile(`(?i)<div[^>]*class=["'][^"']*kboard-content[^"']*["'][^>]*>`)
	sojoongArtRe     = regexp.MustCompile(`(?is)<article[^>]*>(.*?)</article>`)
)

// Sojoong crawls the SW중심사업단 KBoard notice list. Rows are table rows
// whose anchor carries a uid query parameter; pinned notices are marked with
// a kboard-list-notice row class and excluded so the window stays recent.
type Sojoong struct {
	base    string
	listURL string
}

func NewSojoong() *Sojoong {
	return &Sojoong{base: sojoongBase, listURL: sojoongListURL}
}

// NewSojoongWithBaseURL points the adapter at another origin. Test hook.
func NewSojoongWithBaseURL(base string) *Sojoong {
	base = strings.TrimRight(base, "/")
	return &Sojoong{base: base, listURL: base + "/notice/notice-board/"}
}

func (s *Sojoong) ID() domain.Source { return domain.SourceSojoong }

func (s *Sojoong) Label() string { return "전남대학교 소프트웨어중심사업단" }

func (s *Sojoong) List(ctx context.Context, c *Client) ([]ListedItem, error) {
	html, err := c.FetchTextWithRetry(ctx, s.listURL, koreanBoardHeaders())
	if err != nil {
		return nil, err
	}

	byUID := map[string]ListedItem{}

	for _, tr := range sojoongTrRe.FindAllStringSubmatch(html, -1) {
		attrs, inner := tr[1], tr[2]
		if strings.Contains(strings.ToLower(attrs), "kboard-list-notice") {
			continue // pinned notice
		}

		href := sojoongHrefRe.FindStringSubmatch(inner)
		if href == nil {
			continue
		}
		uid := href[2]
		url := sojoongAbsURL(s.base, href[1])

		title := ""
		if a := sojoongAnchorRe.FindStringSubmatch(inner); a != nil {
			title = sojoongAnchorTitle(a[1])
		}
		if len([]rune(title)) < minTitleRunes {
			continue
		}

		item := ListedItem{
			RemoteID: uid,
			Title:    extract.TruncateRunes(title, maxTitleRunes),
			URL:      url,
		}
		if d := sojoongDateRe.FindStringSubmatch(inner); d != nil {
			if ts, ok := extract.ParseKoreanDateLoose(strings.TrimSpace(d[1])); ok {
				item.PostedAt = &ts
			}
		}

		if prev, ok := byUID[uid]; !ok || len([]rune(item.Title)) > len([]rune(prev.Title)) {
			byUID[uid] = item
		}
	}

	// Line-scan fallback for the day the theme drops the table markup
	// entirely. Only consulted when the row pass found nothing.
	if len(byUID) == 0 {
		for _, line := range strings.Split(extract.StripHTML(html), "\n") {
			line = strings.TrimSpace(line)
			m := sojoongLineRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			title := extract.TruncateRunes(strings.TrimSpace(strings.TrimPrefix(line, m[0])), maxTitleRunes)
			if len([]rune(title)) < minTitleRunes {
				continue
			}
			byUID[m[1]] = ListedItem{
				RemoteID: m[1],
				Title:    title,
				URL:      s.listURL + "?uid=" + m[1] + "&mod=document",
			}
		}
	}

	items := make([]ListedItem, 0, len(byUID))
	for _, it := range byUID {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		a, _ := strconv.Atoi(items[i].RemoteID)
		b, _ := strconv.Atoi(items[j].RemoteID)
		return a > b
	})
	if len(items) > listWindow {
		items = items[:listWindow]
	}
	return items, nil
}

func (s *Sojoong) Detail(ctx context.Context, c *Client, item ListedItem) (DetailedItem, error) {
	html, err := c.FetchTextWithRetry(ctx, item.URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		if IsServerError(err) {
			return linkOnly(item), nil
		}
		return DetailedItem{}, err
	}

	out := DetailedItem{ListedItem: item}

	if out.Title == "" {
		if m := sojoongTitleRe.FindStringSubmatch(html); m != nil {
			out.Title = extract.TruncateRunes(strings.TrimSpace(extract.StripHTML(m[1])), detailTitleRunes)
		}
	}

	if out.PostedAt == nil {
		if m := sojoongDetailRe.FindStringSubmatch(html); m != nil {
			if ts, ok := extract.ParseKoreanDateLoose(strings.TrimSpace(m[1])); ok {
				out.PostedAt = &ts
			}
		}
	}

	// Body: the kboard-content container, clipped to a bounded window from
	// the opening tag (the div is rarely closed cleanly), then the generic
	// fallbacks.
	body := html
	if loc := sojoongContentRe.FindStringIndex(html); loc != nil {
		body = html[loc[0]:]
	} else if m := sojoongArtRe.FindStringSubmatch(html); m != nil {
		body = m[1]
	}
	content := extract.StripHTML(extract.TruncateRunes(body, detailContentRunes))
	if content != "" {
		out.Content = &content
		excerpt := extract.TruncateRunes(content, excerptRunes)
		out.Excerpt = &excerpt
	}
	return out, nil
}

// sojoongAbsURL normalizes an href to an absolute URL. KBoard escapes
// ampersands two different ways in list markup.
func sojoongAbsURL(base, href string) string {
	clean := strings.NewReplacer("&#038;", "&", "&amp;", "&").Replace(strings.TrimSpace(href))
	switch {
	case strings.HasPrefix(clean, "http"):
		return clean
	case strings.HasPrefix(clean, "/"):
		return base + clean
	default:
		return base + "/" + clean
	}
}

// sojoongAnchorTitle digs the title text out of the anchor's inner divs. The
// first div is usually an empty status badge; the one carrying a
// custom-title class holds the real text.
func sojoongAnchorTitle(anchorInner string) string {
	type div struct {
		class string
		text  string
	}
	var found []div
	for _, m := range sojoongDivRe.FindAllStringSubmatch(anchorInner, -1) {
		cls := ""
		if cm := sojoongClassRe.FindStringSubmatch(m[1]); cm != nil {
			cls = cm[1]
		}
		found = append(found, div{class: cls, text: strings.TrimSpace(extract.StripHTML(m[2]))})
	}
	for _, d := range found {
		if strings.Contains(d.class, "custom-title") && len([]rune(d.text)) >= 3 {
			return d.text
		}
	}
	for _, d := range found {
		if len([]rune(d.text)) >= 3 {
			return d.text
		}
	}
	return ""
}
