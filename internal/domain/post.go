// Package domain defines the persisted shapes of the notice feed and the pure
// derivations (id, category, content hash) every write path shares.
package domain

import (
	"errors"
	"regexp"
	"time"

	"notice-feed/internal/extract"
)

// Source identifies one crawled notice board. Closed set; the pipeline
// supports exactly these two hand-tuned adapters.
type Source string

const (
	SourceSojoong Source = "sojoong"
	SourceAicoss  Source = "aicoss"
)

func (s Source) Valid() bool {
	return s == SourceSojoong || s == SourceAicoss
}

// Category is the keyword-derived post category. Values are the Korean labels
// the feed exposes directly.
type Category string

const (
	CategoryEvent   Category = "행사"
	CategoryRecruit Category = "모집"
	CategoryNotice  Category = "안내"
	CategoryEtc     Category = "기타"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEvent, CategoryRecruit, CategoryNotice, CategoryEtc:
		return true
	}
	return false
}

var (
	wsRe      = regexp.MustCompile(`\s+`)
	eventRe   = regexp.MustCompile(`행사|특강|설명회|세미나|워크숍|워크샵|경진대회|대회|캠프|해커톤|콘테스트|컨퍼런스|포럼|심포지엄|부트캠프|발표회|시연|데모|전시`)
	recruitRe = regexp.MustCompile(`모집|선발|신청|접수|지원|채용|구인|인턴|공모|선정|뽑|뽑습|등록`)
	noticeRe  = regexp.MustCompile(`안내|공지|발표|결과|알림|소식|변경|업데이트|안내사항|일정|중단|휴무|폐지|개편`)
)

// Classify maps a title to its category. Pure; the rule sets are checked in
// fixed order (행사, 모집, 안내) and the first hit wins, so "해커톤 참가 안내"
// is an event, not a notice. Whitespace is removed first so keywords split
// across spaces still match.
func Classify(title string) Category {
	t := wsRe.ReplaceAllString(title, "")
	switch {
	case eventRe.MatchString(t):
		return CategoryEvent
	case recruitRe.MatchString(t):
		return CategoryRecruit
	case noticeRe.MatchString(t):
		return CategoryNotice
	default:
		return CategoryEtc
	}
}

// ComposeID builds the globally unique post id from the source and the
// source-native remote id. Stable across runs; re-crawling the same remote
// item always maps to the same id.
func ComposeID(src Source, remoteID string) string {
	return string(src) + ":" + remoteID
}

// hashContentWindow bounds how much body text participates in the change
// hash. Edits past this window do not count as a change.
const hashContentWindow = 2000

// Post is the persisted, query-facing record of one crawled notice.
type Post struct {
	ID        string     `json:"id"`
	Source    Source     `json:"source"`
	RemoteID  string     `json:"remote_id"`
	Title     string     `json:"title"`
	PostedAt  *time.Time `json:"posted_at"`
	URL       string     `json:"url"`
	Excerpt   *string    `json:"excerpt"`
	Content   *string    `json:"content"`
	Category  Category   `json:"category"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PostRecord is a Post plus the write-side fields the query surface never
// exposes.
type PostRecord struct {
	Post
	Hash      string
	CreatedAt time.Time
}

// BuildRecord derives the storable record for one detailed item: composite
// id, classified category and the change-detection hash over title, posted
// date, url and the first part of the body. now is used for both timestamps;
// the store keeps the stored created_at on conflict.
func BuildRecord(src Source, remoteID, title string, postedAt *time.Time, url string, content, excerpt *string, now time.Time) PostRecord {
	postedISO := ""
	if postedAt != nil {
		postedISO = postedAt.UTC().Format(time.RFC3339)
	}
	body := ""
	if content != nil {
		body = *content
	}

	rec := PostRecord{
		Post: Post{
			ID:        ComposeID(src, remoteID),
			Source:    src,
			RemoteID:  remoteID,
			Title:     title,
			PostedAt:  postedAt,
			URL:       url,
			Excerpt:   excerpt,
			Content:   content,
			Category:  Classify(title),
			UpdatedAt: now,
		},
		CreatedAt: now,
	}
	rec.Hash = extract.ContentHash(title, postedISO, url, extract.TruncateRunes(body, hashContentWindow))
	return rec
}

var ErrPostNotFound = errors.New("post not found")
