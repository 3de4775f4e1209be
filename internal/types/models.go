package types

import "fmt"

// Sentiment is the normalized polarity vocabulary. Every annotated
// utterance carries exactly one of these.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

// Score maps polarity to the numeric scale used by the timeline chart.
func (s Sentiment) Score() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// Utterance is one speaking turn. Diarization fills the first four fields;
// the annotators fill the rest. IntentErr/SentimentErr record why a row got
// its sentinel value, so "classified as Unknown" and "classifier
// unavailable" stay distinguishable.
type Utterance struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`

	Intent         string    `json:"intent,omitempty"`
	IntentCategory string    `json:"intent_category,omitempty"`
	IntentErr      string    `json:"intent_err,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	SentimentErr   string    `json:"sentiment_err,omitempty"`
}

// Timestamp renders the turn's span the way reports display it.
func (u Utterance) Timestamp() string {
	return fmt.Sprintf("%.2fs - %.2fs", u.Start, u.End)
}

// Table is an ordered sequence of turns. Row identity is fixed once the
// table exists: annotation stages return a table with the same length and
// order, only with more fields populated.
type Table []Utterance

// Speakers returns distinct speaker labels in order of first appearance.
func (t Table) Speakers() []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range t {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			out = append(out, u.Speaker)
		}
	}
	return out
}

// SpeakerCounts returns turns per speaker.
func (t Table) SpeakerCounts() map[string]int {
	counts := map[string]int{}
	for _, u := range t {
		counts[u.Speaker]++
	}
	return counts
}
