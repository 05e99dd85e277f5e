package booking

import "strings"

// IntentClassifier decides whether a free-form message is asking to book
// an appointment.
type IntentClassifier interface {
	IsBookingIntent(text string) bool
}

// KeywordClassifier is a substring-match classifier. Multi-word phrases
// are checked before single words so "book appointment" wins over "book".
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier returns a classifier with the default keyword set.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: []string{
		"book appointment",
		"schedule",
		"call me",
		"contact me",
		"reach out",
		"appointment",
		"meeting",
		"book",
		"call",
		"phone",
		"contact",
	}}
}

// IsBookingIntent reports whether any keyword appears in the message.
// Matching is case-insensitive.
func (c *KeywordClassifier) IsBookingIntent(text string) bool {
	t := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
