package domain

import (
	"strings"
	"testing"
	"time"
)

func TestClassify_FirstMatchWins(t *testing.T) {
	cases := []struct {
		title string
		want  Category
	}{
		{"2024 AI 해커톤 참가 안내", CategoryEvent}, // 행사 beats 안내
		{"SW 캠프 참가자 모집", CategoryEvent},     // 행사 beats 모집
		{"동계 인턴십 모집 공지", CategoryRecruit},   // 모집 beats 안내
		{"튜터링 신청 접수", CategoryRecruit},
		{"학사 일정 변경 안내", CategoryNotice},
		{"시스템 점검 공지", CategoryNotice},
		{"제3회 특 강 안내", CategoryEvent}, // keyword split by whitespace
		{"무제", CategoryEtc},
		{"", CategoryEtc},
	}
	for _, tc := range cases {
		if got := Classify(tc.title); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestClassify_Pure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Classify("해커톤 안내"); got != CategoryEvent {
			t.Fatalf("call %d: got %q", i, got)
		}
	}
}

func TestComposeID_Stable(t *testing.T) {
	a := ComposeID(SourceAicoss, "1234")
	b := ComposeID(SourceAicoss, "1234")
	if a != b || a != "aicoss:1234" {
		t.Fatalf("got %q / %q", a, b)
	}
	if a == ComposeID(SourceSojoong, "1234") {
		t.Fatalf("ids must differ across sources")
	}
}

func strptr(s string) *string { return &s }

func TestBuildRecord_HashSensitivity(t *testing.T) {
	posted := time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	content := strings.Repeat("가", 2500)

	base := BuildRecord(SourceSojoong, "10", "제목", &posted, "https://sojoong.kr/?uid=10", strptr(content), strptr("가"), now)

	// Each hashed field flips the hash.
	other := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	muts := []PostRecord{
		BuildRecord(SourceSojoong, "10", "제목!", &posted, "https://sojoong.kr/?uid=10", strptr(content), strptr("가"), now),
		BuildRecord(SourceSojoong, "10", "제목", &other, "https://sojoong.kr/?uid=10", strptr(content), strptr("가"), now),
		BuildRecord(SourceSojoong, "10", "제목", &posted, "https://sojoong.kr/?uid=11", strptr(content), strptr("가"), now),
		BuildRecord(SourceSojoong, "10", "제목", &posted, "https://sojoong.kr/?uid=10", strptr("나"+content[3:]), strptr("가"), now),
		BuildRecord(SourceSojoong, "10", "제목", &posted, "https://sojoong.kr/?uid=10", nil, nil, now),
	}
	for i, m := range muts {
		if m.Hash == base.Hash {
			t.Fatalf("mutation %d did not change hash", i)
		}
	}

	// Changes past the first 2000 runes do not count.
	tail := content[:len(content)-len("가")] + "나"
	same := BuildRecord(SourceSojoong, "10", "제목", &posted, "https://sojoong.kr/?uid=10", strptr(tail), strptr("가"), now)
	if same.Hash != base.Hash {
		t.Fatalf("change beyond hash window flipped the hash")
	}
}

func TestBuildRecord_CategoryRecomputed(t *testing.T) {
	now := time.Now().UTC()
	a := BuildRecord(SourceAicoss, "1", "해커톤 개최", nil, "u", nil, nil, now)
	if a.Category != CategoryEvent {
		t.Fatalf("got %q", a.Category)
	}
	b := BuildRecord(SourceAicoss, "1", "결과 발표", nil, "u", nil, nil, now)
	if b.Category != CategoryNotice {
		t.Fatalf("got %q", b.Category)
	}
	if a.ID != b.ID {
		t.Fatalf("same (source, remoteId) must share an id")
	}
}
