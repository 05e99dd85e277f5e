package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ResolveDate converts free-form date/time text into an absolute calendar
// date (midnight in ref's location) and an optional 24-hour "HH:MM" time of
// day. Strategies are layered and the first success wins: absolute formats,
// relative keywords, weekday expressions. A trailing time expression is
// split off first and attached to whichever date resolves.
//
// The function is pure over its two inputs; ref is never read from the
// ambient clock. A resolution landing on ref's date with a time of day
// already behind ref fails with ErrPastDate rather than advancing a day.
func ResolveDate(text string, ref time.Time) (time.Time, string, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return time.Time{}, "", fmt.Errorf("%w: empty input", ErrDateParse)
	}

	rest, tod, err := splitTimeOfDay(t)
	if err != nil {
		return time.Time{}, "", err
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "on "))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "the "))

	date, ok, err := resolveAbsolute(rest, ref)
	if err != nil {
		return time.Time{}, "", err
	}
	if !ok {
		date, ok = resolveRelative(rest, ref)
	}
	if !ok {
		date, ok = resolveWeekday(rest, ref, tod)
	}
	if !ok {
		return time.Time{}, "", fmt.Errorf("%w: %q", ErrDateParse, text)
	}

	if tod != "" && date.Equal(startOfDay(ref)) && !timeOfDayAfter(tod, ref) {
		return time.Time{}, "", fmt.Errorf("%w: %s %s", ErrPastDate, date.Format("2006-01-02"), tod)
	}
	return date, tod, nil
}

var (
	clockTimeRE  = regexp.MustCompile(`(?:\bat\s+)?(\d{1,2}):(\d{2})\s*(am|pm)?$`)
	hourTimeRE   = regexp.MustCompile(`(?:\bat\s+)?(\d{1,2})\s*(am|pm)$`)
	bareAtHourRE = regexp.MustCompile(`\bat\s+(\d{1,2})$`)
)

// splitTimeOfDay detaches a trailing time expression and normalizes it to
// 24-hour "HH:MM". 12-hour values require an am/pm marker; bare "HH:MM" is
// read as 24-hour. Out-of-range hours or minutes are an error, not a miss.
func splitTimeOfDay(text string) (rest, tod string, err error) {
	if m := clockTimeRE.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute, _ := strconv.Atoi(text[m[4]:m[5]])
		meridiem := ""
		if m[6] >= 0 {
			meridiem = text[m[6]:m[7]]
		}
		tod, err = to24Hour(hour, minute, meridiem)
		if err != nil {
			return "", "", err
		}
		return strings.TrimSpace(text[:m[0]]), tod, nil
	}
	if m := hourTimeRE.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		tod, err = to24Hour(hour, 0, text[m[4]:m[5]])
		if err != nil {
			return "", "", err
		}
		return strings.TrimSpace(text[:m[0]]), tod, nil
	}
	if bareAtHourRE.MatchString(text) {
		// "at 3" with no am/pm marker and no minutes is ambiguous.
		return "", "", fmt.Errorf("%w: 12-hour time needs am/pm: %q", ErrDateParse, text)
	}
	return text, "", nil
}

func to24Hour(hour, minute int, meridiem string) (string, error) {
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: minute out of range", ErrDateParse)
	}
	switch meridiem {
	case "":
		if hour < 0 || hour > 23 {
			return "", fmt.Errorf("%w: hour out of range", ErrDateParse)
		}
	case "am":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("%w: hour out of range", ErrDateParse)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("%w: hour out of range", ErrDateParse)
		}
		if hour != 12 {
			hour += 12
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

func timeOfDayAfter(tod string, ref time.Time) bool {
	hour, _ := strconv.Atoi(tod[:2])
	minute, _ := strconv.Atoi(tod[3:])
	return hour*60+minute > ref.Hour()*60+ref.Minute()
}

var (
	isoDateRE    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDateRE  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	dayOfMonthRE = regexp.MustCompile(`^(?:(?:next\s+|this\s+)?([a-z]+)\s+)?(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)$`)
	ordSuffixRE  = regexp.MustCompile(`(?:st|nd|rd|th)$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// resolveAbsolute parses explicit date forms. A matched-but-invalid form
// (month 13, Feb 30) is an error; an unmatched form is a miss so later
// strategies get a chance. The numeric day form takes precedence over a
// weekday name appearing in the same text ("friday 25th" means the 25th).
func resolveAbsolute(rest string, ref time.Time) (time.Time, bool, error) {
	if m := isoDateRE.FindStringSubmatch(rest); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		d, err := makeDate(year, time.Month(month), day, ref.Location())
		return d, err == nil, err
	}

	if m := slashDateRE.FindStringSubmatch(rest); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			year, _ := strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
			d, err := makeDate(year, time.Month(month), day, ref.Location())
			return d, err == nil, err
		}
		d, err := dateWithDefaultYear(time.Month(month), day, ref)
		return d, err == nil, err
	}

	// "january 5", "jan 5, 2026", "5 january", "5th of march"
	words := strings.Fields(strings.ReplaceAll(rest, ",", " "))
	if len(words) >= 2 && len(words) <= 4 {
		if d, ok, err := parseMonthDayWords(words, ref); ok || err != nil {
			return d, ok, err
		}
	}

	// "25th", "the 25th", "friday 25th": nearest future day-of-month
	if m := dayOfMonthRE.FindStringSubmatch(rest); m != nil {
		if m[1] != "" {
			if _, isWeekday := weekdayNames[m[1]]; !isWeekday {
				return time.Time{}, false, nil
			}
		}
		day, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 {
			return time.Time{}, false, fmt.Errorf("%w: day out of range", ErrDateParse)
		}
		d, err := makeDate(ref.Year(), ref.Month(), day, ref.Location())
		if err != nil || d.Before(startOfDay(ref)) {
			d, err = makeDate(ref.Year(), ref.Month()+1, day, ref.Location())
		}
		return d, err == nil, err
	}

	return time.Time{}, false, nil
}

func parseMonthDayWords(words []string, ref time.Time) (time.Time, bool, error) {
	var monthWord, dayWord, yearWord string
	if _, ok := monthNames[words[0]]; ok {
		monthWord, dayWord = words[0], words[1]
		if len(words) == 3 {
			yearWord = words[2]
		}
	} else if _, ok := monthNames[lastWord(words)]; ok && len(words) <= 3 {
		// "5 january" / "5th of march"
		dayWord, monthWord = words[0], lastWord(words)
		if len(words) == 3 && words[1] != "of" {
			return time.Time{}, false, nil
		}
	} else if len(words) >= 3 {
		if _, ok := monthNames[words[1]]; ok {
			// "5 march 2026"
			dayWord, monthWord, yearWord = words[0], words[1], words[2]
		}
	}
	if monthWord == "" || dayWord == "" {
		return time.Time{}, false, nil
	}

	month := monthNames[monthWord]
	day, err := strconv.Atoi(ordSuffixRE.ReplaceAllString(dayWord, ""))
	if err != nil {
		return time.Time{}, false, nil
	}
	if yearWord != "" {
		year, err := strconv.Atoi(yearWord)
		if err != nil {
			return time.Time{}, false, nil
		}
		d, mkErr := makeDate(year, month, day, ref.Location())
		return d, mkErr == nil, mkErr
	}
	d, mkErr := dateWithDefaultYear(month, day, ref)
	return d, mkErr == nil, mkErr
}

func lastWord(words []string) string { return words[len(words)-1] }

// makeDate builds a date and rejects values time.Date would normalize away.
func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: no such date %d-%02d-%02d", ErrDateParse, year, month, day)
	}
	return t, nil
}

// dateWithDefaultYear applies the single year-rollover rule: an omitted year
// defaults to ref's year, rolled once to the next year if the date is
// already past.
func dateWithDefaultYear(month time.Month, day int, ref time.Time) (time.Time, error) {
	d, err := makeDate(ref.Year(), month, day, ref.Location())
	if err == nil && !d.Before(startOfDay(ref)) {
		return d, nil
	}
	return makeDate(ref.Year()+1, month, day, ref.Location())
}

var inDaysRE = regexp.MustCompile(`^in\s+(\d+)\s+days?$`)

func resolveRelative(rest string, ref time.Time) (time.Time, bool) {
	switch rest {
	case "today":
		return startOfDay(ref), true
	case "tomorrow":
		return startOfDay(ref).AddDate(0, 0, 1), true
	}
	if m := inDaysRE.FindStringSubmatch(rest); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return startOfDay(ref).AddDate(0, 0, n), true
		}
	}
	return time.Time{}, false
}

var weekdayExprRE = regexp.MustCompile(`^(?:(next|this)\s+)?([a-z]+)$`)

// resolveWeekday handles "next friday" (strictly after ref) and bare
// weekday names, which include today only when the time-of-day portion is
// still ahead of ref.
func resolveWeekday(rest string, ref time.Time, tod string) (time.Time, bool) {
	m := weekdayExprRE.FindStringSubmatch(rest)
	if m == nil {
		return time.Time{}, false
	}
	target, ok := weekdayNames[m[2]]
	if !ok {
		return time.Time{}, false
	}

	delta := (int(target) - int(ref.Weekday()) + 7) % 7
	if delta == 0 {
		sameDayOK := m[1] != "next" && tod != "" && timeOfDayAfter(tod, ref)
		if !sameDayOK {
			delta = 7
		}
	}
	return startOfDay(ref).AddDate(0, 0, delta), true
}
