package booking

import (
	"reflect"
	"testing"
)

func candidateMap(cands []Candidate) map[Field]string {
	m := make(map[Field]string, len(cands))
	for _, c := range cands {
		m[c.Field] = c.RawText
	}
	return m
}

func TestRegexExtractorMultiField(t *testing.T) {
	x := NewRegexExtractor()
	utterance := "My name is Ana, ana@mail.com and you can reach me at +34 600 111 222"

	got := candidateMap(x.Extract(utterance, AllFields(), FieldName))
	want := map[Field]string{
		FieldName:  "Ana",
		FieldEmail: "ana@mail.com",
		FieldPhone: "+34 600 111 222",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}

func TestRegexExtractorHonorsMissingSet(t *testing.T) {
	x := NewRegexExtractor()
	utterance := "I'm John Smith, john@example.com"

	var missing FieldSet
	missing.Add(FieldPhone)
	missing.Add(FieldDate)

	for _, c := range x.Extract(utterance, missing, FieldPhone) {
		if !missing.Has(c.Field) {
			t.Errorf("candidate for already-filled field %s", c.Field)
		}
	}
}

func TestRegexExtractorNameFallback(t *testing.T) {
	x := NewRegexExtractor()

	// Whole utterance offered for name only while name is current and
	// nothing structural matched.
	got := candidateMap(x.Extract("John Smith", AllFields(), FieldName))
	if got[FieldName] != "John Smith" {
		t.Errorf("name candidate = %q, want %q", got[FieldName], "John Smith")
	}

	// An email in the utterance suppresses the fallback.
	got = candidateMap(x.Extract("john@example.com", AllFields(), FieldName))
	if _, ok := got[FieldName]; ok {
		t.Errorf("unexpected name candidate %q from email-only input", got[FieldName])
	}

	// No fallback when name is not the current target.
	got = candidateMap(x.Extract("John Smith", AllFields(), FieldPhone))
	if _, ok := got[FieldName]; ok {
		t.Errorf("unexpected name candidate %q when phone is current", got[FieldName])
	}
}

func TestRegexExtractorNamePhrases(t *testing.T) {
	x := NewRegexExtractor()
	tests := []struct {
		utterance string
		want      string
	}{
		{"my name is John Smith", "John Smith"},
		{"I'm Maria Lopez and I need an appointment", "Maria Lopez"},
		{"this is Dr Watson", "Dr Watson"},
		{"call me Bob", "Bob"},
	}
	for _, tt := range tests {
		got := candidateMap(x.Extract(tt.utterance, AllFields(), FieldReason))
		if got[FieldName] != tt.want {
			t.Errorf("Extract(%q) name = %q, want %q", tt.utterance, got[FieldName], tt.want)
		}
	}
}

func TestRegexExtractorPhoneNotFooledByEmail(t *testing.T) {
	x := NewRegexExtractor()

	// Digits inside the email address must not surface as a phone number.
	got := candidateMap(x.Extract("reach me at john1234567@example.com", AllFields(), FieldEmail))
	if _, ok := got[FieldPhone]; ok {
		t.Errorf("unexpected phone candidate %q from email digits", got[FieldPhone])
	}
	if got[FieldEmail] != "john1234567@example.com" {
		t.Errorf("email candidate = %q", got[FieldEmail])
	}
}

func TestRegexExtractorPhoneSkipsDateShapedRuns(t *testing.T) {
	x := NewRegexExtractor()

	// A calendar date typed while phone is still missing must not be
	// mistaken for a phone number.
	for _, utterance := range []string{"I prefer 2024-12-25", "how about 25/12/2024"} {
		got := candidateMap(x.Extract(utterance, AllFields(), FieldName))
		if _, ok := got[FieldPhone]; ok {
			t.Errorf("Extract(%q) phone candidate = %q, want none", utterance, got[FieldPhone])
		}
	}

	// A real grouped phone number still comes through.
	got := candidateMap(x.Extract("123-456-7890", AllFields(), FieldPhone))
	if got[FieldPhone] != "123-456-7890" {
		t.Errorf("phone candidate = %q, want %q", got[FieldPhone], "123-456-7890")
	}
}

func TestRegexExtractorDateAndReasonOnlyWhenCurrent(t *testing.T) {
	x := NewRegexExtractor()

	got := candidateMap(x.Extract("next Tuesday at 3 PM", AllFields(), FieldDate))
	if got[FieldDate] != "next Tuesday at 3 PM" {
		t.Errorf("date candidate = %q", got[FieldDate])
	}

	got = candidateMap(x.Extract("next Tuesday at 3 PM", AllFields(), FieldName))
	if _, ok := got[FieldDate]; ok {
		t.Errorf("unexpected date candidate %q when name is current", got[FieldDate])
	}
}
