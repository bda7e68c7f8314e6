package extract

import (
	"regexp"
	"strconv"
	"time"
)

// Accepts 2024-01-23, 2024.01.23, 2024/01/23, "2024년 1월 23일" and similar
// mixtures. The year must be a 4-digit 20xx value so stray phone numbers and
// post ids do not parse as dates.
var looseDateRe = regexp.MustCompile(`(20\d{2})[-./년\s](\d{1,2})[-./월\s](\d{1,2})`)

// ParseKoreanDateLoose scans text for the first year/month/day pattern and
// returns it anchored at UTC midnight. No timezone inference beyond that; the
// boards only publish calendar dates. Returns false when nothing plausible
// matches or month/day are out of range.
func ParseKoreanDateLoose(text string) (time.Time, bool) {
	m := looseDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])

	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}

	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
}
