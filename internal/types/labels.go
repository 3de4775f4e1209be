package types

import "strings"

// IntentUnknown is the sentinel substituted when a row's classification
// fails or comes back empty.
const IntentUnknown = "Unknown"

// CandidateIntents is the closed label set sent with every zero-shot
// classification request.
var CandidateIntents = []string{
	"Greeting", "Identification", "Request_Refill", "Express_Issue",
	"Clarification_Request", "Provide_Information", "Acknowledge",
	"Close_Conversation", "Check_Record", "Offer_Solution",
}

// IntentToCategory groups fine-grained intents for aggregate reporting.
// Intents absent from the map (including Unknown) get no category.
var IntentToCategory = map[string]string{
	"Greeting":              "Greeting Intent",
	"Identification":        "Informational Intent",
	"Request_Refill":        "Transactional Intent",
	"Express_Issue":         "Complaint Intent",
	"Clarification_Request": "Support Intent",
	"Provide_Information":   "Informational Intent",
	"Acknowledge":           "Acknowledgment Intent",
	"Close_Conversation":    "Closing Intent",
	"Check_Record":          "Navigational Intent",
	"Offer_Solution":        "Assurance Intent",
}

// NormalizeSentiment uppercases a model label and folds it into the closed
// vocabulary. The second return reports whether the label was recognized.
func NormalizeSentiment(label string) (Sentiment, bool) {
	switch Sentiment(strings.ToUpper(strings.TrimSpace(label))) {
	case SentimentPositive:
		return SentimentPositive, true
	case SentimentNegative:
		return SentimentNegative, true
	case SentimentNeutral:
		return SentimentNeutral, true
	default:
		return SentimentNeutral, false
	}
}
