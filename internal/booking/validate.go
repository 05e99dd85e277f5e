package booking

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validation error taxonomy. ErrPastDate and ErrDateParse wrap
// ErrInvalidDate so callers can match the broad kind with errors.Is while
// still distinguishing the sub-cases for messaging.
var (
	ErrInvalidName    = errors.New("booking: invalid name")
	ErrInvalidPhone   = errors.New("booking: invalid phone")
	ErrInvalidEmail   = errors.New("booking: invalid email")
	ErrInvalidReason  = errors.New("booking: invalid reason")
	ErrInvalidDate    = errors.New("booking: invalid date")
	ErrPastDate       = fmt.Errorf("%w: date is in the past", ErrInvalidDate)
	ErrDateParse      = fmt.Errorf("%w: unparseable date text", ErrInvalidDate)
	ErrRetryExhausted = errors.New("booking: retry budget exhausted")
	ErrStorage        = errors.New("booking: storage failure")
)

func isPastDate(err error) bool { return errors.Is(err, ErrPastDate) }

// DateValue is the resolved output of the date field: an absolute calendar
// date plus an optional 24-hour time of day.
type DateValue struct {
	Date      time.Time
	TimeOfDay string
}

var (
	nameRE  = regexp.MustCompile(`^[\p{L}][\p{L} '\-]{1,99}$`)
	emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)+$`)
	phoneRE = regexp.MustCompile(`^\+?\d{7,15}$`)

	phoneStripper = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// ValidateName accepts letters, spaces, hyphens and apostrophes, 2-100
// characters after trimming. Already-normalized values pass through
// unchanged.
func ValidateName(value string) (string, error) {
	v := strings.TrimSpace(value)
	if !nameRE.MatchString(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, value)
	}
	return v, nil
}

// ValidatePhone strips spacing punctuation, keeps a leading "+", and
// requires 7-15 digits (the E.164-compatible range).
func ValidatePhone(value string) (string, error) {
	v := phoneStripper.Replace(strings.TrimSpace(value))
	if !phoneRE.MatchString(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, value)
	}
	return v, nil
}

// ValidateEmail requires a structural local-part@domain with a dotted
// domain and no consecutive dots. The normalized form is lowercase.
func ValidateEmail(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if strings.Contains(v, "..") || !emailRE.MatchString(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, value)
	}
	return v, nil
}

// ValidateReason requires non-empty free text within a sane length bound.
func ValidateReason(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" || len(v) > 500 {
		return "", fmt.Errorf("%w: %q", ErrInvalidReason, value)
	}
	return v, nil
}

// ValidateDate resolves free-form date text against now and rejects
// resolutions strictly before the current moment. now is injected, never
// read from the ambient clock.
func ValidateDate(text string, now time.Time) (DateValue, error) {
	date, timeOfDay, err := ResolveDate(text, now)
	if err != nil {
		return DateValue{}, err
	}
	if date.Before(startOfDay(now)) {
		return DateValue{}, fmt.Errorf("%w: %s", ErrPastDate, date.Format("2006-01-02"))
	}
	return DateValue{Date: date, TimeOfDay: timeOfDay}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
