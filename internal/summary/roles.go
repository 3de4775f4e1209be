package summary

import (
	"sort"
	"strings"

	"callsight/internal/types"
)

// Roles fixes which diarized speakers the report treats as the customer and
// the representative.
type Roles struct {
	Customer       string
	Representative string
}

// AssignRoles picks the two most frequent speakers by turn count; ties
// break in order of first appearance. The first becomes the customer, the
// second the representative. Diarization emits the caller first in
// practice, which is why the most frequent speaker maps to the customer.
// Additional speakers stay in the table and charts but do not feed the
// summaries.
func AssignRoles(t types.Table) Roles {
	speakers := t.Speakers()
	counts := t.SpeakerCounts()

	firstSeen := map[string]int{}
	for i, s := range speakers {
		firstSeen[s] = i
	}
	sort.SliceStable(speakers, func(i, j int) bool {
		if counts[speakers[i]] != counts[speakers[j]] {
			return counts[speakers[i]] > counts[speakers[j]]
		}
		return firstSeen[speakers[i]] < firstSeen[speakers[j]]
	})

	r := Roles{}
	if len(speakers) > 0 {
		r.Customer = speakers[0]
	}
	if len(speakers) > 1 {
		r.Representative = speakers[1]
	}
	return r
}

// SpeakerText concatenates a speaker's turns in conversation order.
func SpeakerText(t types.Table, speaker string) string {
	var parts []string
	for _, u := range t {
		if u.Speaker == speaker {
			parts = append(parts, u.Text)
		}
	}
	return strings.Join(parts, " ")
}
