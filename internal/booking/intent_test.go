package booking

import "testing"

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	booking := []string{
		"I'd like to book an appointment",
		"Can you SCHEDULE me for next week?",
		"please call me back",
		"someone should reach out",
		"lets set up a meeting",
	}
	for _, msg := range booking {
		if !c.IsBookingIntent(msg) {
			t.Errorf("IsBookingIntent(%q) = false, want true", msg)
		}
	}

	other := []string{
		"what are your opening hours?",
		"tell me about your services",
		"",
	}
	for _, msg := range other {
		if c.IsBookingIntent(msg) {
			t.Errorf("IsBookingIntent(%q) = true, want false", msg)
		}
	}
}
