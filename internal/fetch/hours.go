package fetch

import (
	"regexp"
	"strings"

	"github.com/sells-group/leadscan/internal/model"
)

// thinSpaces are the Unicode space variants Google embeds in weekday text
// (U+2000 through U+200A). They are dropped outright; U+202F (narrow
// no-break space) becomes a plain space instead.
const thinSpaces = "\u2000\u2001\u2002\u2003\u2004\u2005\u2006\u2007\u2008\u2009\u200a"

var ampmRe = regexp.MustCompile(`(?i)\b(AM|PM)\b`)

// dayOrder fixes the serialization order of normalized hours.
var dayOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseWeekdayText splits "Monday: 9 AM - 5 PM" segments into a day→times
// map. Segments without a separator are dropped silently.
func ParseWeekdayText(items []string) model.Hours {
	out := model.Hours{}
	for _, seg := range items {
		day, times, found := strings.Cut(seg, ":")
		if !found {
			continue
		}
		out[strings.TrimSpace(day)] = strings.TrimSpace(times)
	}
	return out
}

// NormalizeHours rewrites raw time ranges to a canonical en-dash, explicit
// AM/PM form: "9 AM - 5 pm" becomes "9 AM – 5 PM". A trailing AM/PM is
// carried back onto the start time when the start lacks one. Day names are
// truncated to three characters; empty entries are skipped; entries without
// a dash are kept as-is.
func NormalizeHours(hours model.Hours) model.Hours {
	out := model.Hours{}
	for day, raw := range hours {
		if raw == "" {
			continue
		}
		s := cleanSpaces(raw)
		key := truncateRunes(day, 3)
		start, end, found := strings.Cut(s, "-")
		if !found {
			out[key] = s
			continue
		}
		start = strings.TrimSpace(start)
		end = strings.TrimSpace(end)
		if m := ampmRe.FindString(end); m != "" && !ampmRe.MatchString(start) {
			start = start + " " + strings.ToUpper(m)
		}
		out[key] = start + " – " + strings.ToUpper(end)
	}
	return out
}

// FormatHours serializes normalized hours to "Mon: …; Tue: …" in weekday
// order, so the stored form is stable across runs.
func FormatHours(hours model.Hours) string {
	if len(hours) == 0 {
		return ""
	}
	var parts []string
	for _, day := range dayOrder {
		if v, ok := hours[day]; ok {
			parts = append(parts, day+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}

func cleanSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u202f", " ")
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(thinSpaces, r) {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
