package booking

// Field identifies one slot of the appointment record. The set is closed:
// prompt selection, validation, and extraction all dispatch on it.
type Field int

const (
	FieldName Field = iota
	FieldPhone
	FieldEmail
	FieldDate
	FieldReason
)

// fieldOrder is the fixed collection order: structurally-verifiable fields
// first, free-text fields last.
var fieldOrder = [...]Field{FieldName, FieldPhone, FieldEmail, FieldDate, FieldReason}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldPhone:
		return "phone"
	case FieldEmail:
		return "email"
	case FieldDate:
		return "date"
	case FieldReason:
		return "reason"
	default:
		return "unknown"
	}
}

// FieldSet is a small value-type set of fields.
type FieldSet uint8

func (s FieldSet) Has(f Field) bool { return s&(1<<uint(f)) != 0 }

func (s *FieldSet) Add(f Field) { *s |= 1 << uint(f) }

func (s *FieldSet) Remove(f Field) { *s &^= 1 << uint(f) }

func (s FieldSet) Empty() bool { return s == 0 }

// AllFields returns the set containing every record field.
func AllFields() FieldSet {
	var s FieldSet
	for _, f := range fieldOrder {
		s.Add(f)
	}
	return s
}

// prompt returns the request line shown when a field becomes current.
func prompt(f Field) string {
	switch f {
	case FieldName:
		return "What's your full name?"
	case FieldPhone:
		return "Please provide your phone number (with country code if international):"
	case FieldEmail:
		return "Please provide your email address:"
	case FieldDate:
		return "When would you like to schedule the appointment? (e.g., 'next Monday', 'tomorrow', '2024-12-25'):"
	case FieldReason:
		return "What's the purpose of your appointment?"
	default:
		return ""
	}
}

// corrective returns the field-named re-prompt after a rejected input.
// Date messaging distinguishes the past-date case from unparseable text.
func corrective(f Field, err error) string {
	switch f {
	case FieldName:
		return "Please enter a valid name (letters, spaces, hyphens and apostrophes, 2-100 characters):"
	case FieldPhone:
		return "Please enter a valid phone number (7-15 digits, optionally starting with +):"
	case FieldEmail:
		return "Please enter a valid email address:"
	case FieldDate:
		if isPastDate(err) {
			return "That date or time has already passed. Please choose a future date:"
		}
		return "Please provide a valid date (e.g., 'next Monday', 'tomorrow', '2024-12-25'):"
	case FieldReason:
		return "Please tell me briefly what the appointment is about:"
	default:
		return ""
	}
}

// ack returns the acknowledgement prefix after a field is accepted.
func ack(f Field) string {
	switch f {
	case FieldName:
		return "Great! "
	case FieldPhone:
		return "Perfect! "
	case FieldEmail:
		return "Excellent! "
	case FieldDate:
		return "Great! "
	default:
		return "Got it. "
	}
}
