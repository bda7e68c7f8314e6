package extract

import (
	"testing"
	"time"
)

func TestParseKoreanDateLoose(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-23", "2024-01-23", true},
		{"2024.02.09", "2024-02-09", true},
		{"2024/03/05", "2024-03-05", true},
		{"2024년 1월 23일", "2024-01-23", true},
		{"작성일 2025.11.30 조회수 123", "2025-11-30", true},
		{"2024년13월1일", "", false},   // month out of range
		{"2024.01.32", "", false},    // day out of range
		{"1999-01-23", "", false},    // year must start with 20
		{"등록일 없음", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseKoreanDateLoose(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if !ok {
			continue
		}
		want, err := time.Parse("2006-01-02", tc.want)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("%q: got %v, want %v UTC", tc.in, got, want)
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Fatalf("%q: not anchored at midnight: %v", tc.in, got)
		}
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash("제목", "2024-02-09T00:00:00Z", "https://example.com/1", "본문")
	b := ContentHash("제목", "2024-02-09T00:00:00Z", "https://example.com/1", "본문")
	if a != b {
		t.Fatalf("hash not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	c := ContentHash("제목", "2024-02-09T00:00:00Z", "https://example.com/2", "본문")
	if a == c {
		t.Fatalf("hash insensitive to url change")
	}
}
