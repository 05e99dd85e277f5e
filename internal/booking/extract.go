package booking

import (
	"regexp"
	"strings"
)

// Candidate is an unvalidated value proposed for a specific field. It is
// produced by extraction and consumed by the matching validator within the
// same turn.
type Candidate struct {
	Field   Field
	RawText string
}

// Extractor proposes candidates for still-missing fields from one raw
// utterance. Implementations only propose; validation is the engine's job.
// The heuristics are pluggable: the engine depends on this interface, so a
// model-based extractor can replace the regex one without touching the
// state machine.
type Extractor interface {
	Extract(utterance string, missing FieldSet, current Field) []Candidate
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{5,}\d`)
	digitsOnlyRE = regexp.MustCompile(`\D`)
	dateShapedRE = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}$`)
)

// Captured name words must start uppercase so trailing prose ("I'm Maria
// Lopez and I need...") is not swallowed into the name. The lead-in phrase
// itself matches case-insensitively.
const nameWordPattern = `\p{Lu}[\p{L}'\-]*`

var namePhrasePattern = nameWordPattern + `(?:\s+` + nameWordPattern + `){0,2}`

var namePhrases = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:my name is)\s+(` + namePhrasePattern + `)`),
	regexp.MustCompile(`\b(?i:i'?m)\s+(` + namePhrasePattern + `)(?:\s|,|\.|!|$)`),
	regexp.MustCompile(`\b(?i:i am)\s+(` + namePhrasePattern + `)(?:\s|,|\.|!|$)`),
	regexp.MustCompile(`\b(?i:this is)\s+(` + namePhrasePattern + `)`),
	regexp.MustCompile(`\b(?i:call me)\s+(` + namePhrasePattern + `)`),
	regexp.MustCompile(`\b(?i:name'?s)\s+(` + namePhrasePattern + `)`),
}

// RegexExtractor is the default pattern-matching extractor.
type RegexExtractor struct{}

// NewRegexExtractor creates the default extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract scans the utterance for candidates, one per field at most, in
// field collection order. It never returns a candidate for a field outside
// missing, and raises no validation errors.
//
// Per-field strategy: email by pattern; phone by a digit-run heuristic that
// must not overlap the email span; name by self-introduction phrases, with
// the whole remaining text as a fallback only while Name is the current
// target and nothing structural matched; date and reason take the whole
// trimmed utterance, only while current (date phrases are rarely isolatable
// by pattern alone).
func (x *RegexExtractor) Extract(utterance string, missing FieldSet, current Field) []Candidate {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return nil
	}

	var out []Candidate

	emailSpan := emailPattern.FindStringIndex(utterance)
	masked := utterance
	if emailSpan != nil {
		masked = utterance[:emailSpan[0]] + strings.Repeat(" ", emailSpan[1]-emailSpan[0]) + utterance[emailSpan[1]:]
	}
	phoneRaw := findPhoneRun(masked)

	if missing.Has(FieldName) {
		if name := findNamePhrase(utterance); name != "" {
			out = append(out, Candidate{Field: FieldName, RawText: name})
		} else if current == FieldName && emailSpan == nil && phoneRaw == "" {
			out = append(out, Candidate{Field: FieldName, RawText: trimmed})
		}
	}
	if missing.Has(FieldPhone) && phoneRaw != "" {
		out = append(out, Candidate{Field: FieldPhone, RawText: phoneRaw})
	}
	if missing.Has(FieldEmail) && emailSpan != nil {
		out = append(out, Candidate{Field: FieldEmail, RawText: utterance[emailSpan[0]:emailSpan[1]]})
	}
	if missing.Has(FieldDate) && current == FieldDate {
		out = append(out, Candidate{Field: FieldDate, RawText: trimmed})
	}
	if missing.Has(FieldReason) && current == FieldReason {
		out = append(out, Candidate{Field: FieldReason, RawText: trimmed})
	}
	return out
}

// findPhoneRun returns the first run of digits and phone punctuation whose
// digit count is plausible for a phone number (7-15, E.164 range). Runs
// shaped like calendar dates (2024-12-25, 25/12/2024) are skipped; those
// belong to date extraction.
func findPhoneRun(text string) string {
	for _, m := range phonePattern.FindAllString(text, -1) {
		run := strings.TrimSpace(m)
		if dateShapedRE.MatchString(run) {
			continue
		}
		digits := digitsOnlyRE.ReplaceAllString(run, "")
		if len(digits) >= 7 && len(digits) <= 15 {
			return run
		}
	}
	return ""
}

func findNamePhrase(text string) string {
	for _, re := range namePhrases {
		if m := re.FindStringSubmatch(text); len(m) >= 2 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
