package dedupe

import (
	"sort"
	"strings"

	"github.com/sells-group/leadscan/internal/model"
)

// IdentityKey derives the dedupe grouping key for a record: the normalized
// street fragment plus the first 25 runes of the normalized name. Known
// heuristic; priority and tie-break rules below are the stable contract.
func IdentityKey(r model.RawRecord) string {
	return Normalize(streetFragment(r)) + "|" + truncateRunes(Normalize(r.Name), nameKeyLen)
}

// streetFragment prefers the structured street address and falls back to
// the first comma segment of the formatted address.
func streetFragment(r model.RawRecord) string {
	if r.Street != "" {
		return r.Street
	}
	frag, _, _ := strings.Cut(r.FormattedAddress, ",")
	return frag
}

// Merge collapses record sets from multiple sources into one record per
// physical business. Within a group the highest-priority source wins;
// ties go to the most recently seen record. The winner carries the sorted
// union of contributing source tags and a verification flag that is set
// when no Google-sourced record backed the group.
func Merge(sets ...[]model.RawRecord) []model.Merged {
	groups := map[string][]model.RawRecord{}
	var order []string

	for _, set := range sets {
		for _, rec := range set {
			key := IdentityKey(rec)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], rec)
		}
	}

	out := make([]model.Merged, 0, len(order))
	for _, key := range order {
		group := groups[key]
		winner := group[0]
		for _, rec := range group[1:] {
			if better(rec, winner) {
				winner = rec
			}
		}

		tags := map[string]bool{}
		for _, rec := range group {
			if rec.Source != "" {
				tags[rec.Source] = true
			}
		}
		appearedIn := make([]string, 0, len(tags))
		verified := false
		for tag := range tags {
			appearedIn = append(appearedIn, tag)
			if model.SourcePriority(tag) > 0 {
				verified = true
			}
		}
		sort.Strings(appearedIn)

		out = append(out, model.Merged{
			RawRecord:         winner,
			AppearedIn:        appearedIn,
			NeedsVerification: !verified,
		})
	}
	return out
}

func better(a, b model.RawRecord) bool {
	pa, pb := model.SourcePriority(a.Source), model.SourcePriority(b.Source)
	if pa != pb {
		return pa > pb
	}
	return a.LastSeen.After(b.LastSeen)
}
