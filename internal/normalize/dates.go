package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zonamobi/zonamobi/internal/upstream"
)

// russianMonths maps genitive month names, as used in "15 марта 2020".
var russianMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// ParseRussianDate converts "D MonthName YYYY" to "YYYY-MM-DD". Inputs
// already in ISO form are accepted too. Anything else yields "".
func ParseRussianDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if iso := isoPrefix(s); iso != "" {
		return iso
	}

	parts := strings.Fields(s)
	if len(parts) != 3 {
		return ""
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return ""
	}
	month, ok := russianMonths[cases.Lower(language.Russian).String(parts[1])]
	if !ok {
		return ""
	}
	year, err := strconv.Atoi(strings.TrimSuffix(parts[2], "г."))
	if err != nil || year < 1000 || year > 9999 {
		return ""
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// isoPrefix returns the leading YYYY-MM-DD of s when it is a valid date.
func isoPrefix(s string) string {
	if len(s) < 10 {
		return ""
	}
	if _, err := time.Parse(time.DateOnly, s[:10]); err != nil {
		return ""
	}
	return s[:10]
}

// PremiereDate derives the premiere date of a title. The international
// release date wins over the Russian one when it parses.
func PremiereDate(t *upstream.Title) string {
	if d := ParseRussianDate(string(t.ReleaseDateInt)); d != "" {
		return d
	}
	return ParseRussianDate(string(t.ReleaseDateRus))
}

// DateAdded returns the date the title was added to the catalog.
func DateAdded(t *upstream.Title) string {
	return isoPrefix(strings.TrimSpace(string(t.MobiLinkDate)))
}

// AiredDate returns the air date of an episode.
func AiredDate(ep upstream.Episode) string {
	return isoPrefix(strings.TrimSpace(string(ep.ReleaseDate)))
}
