package booking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment record.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusAbandoned Status = "abandoned"
)

// Record is the appointment under construction. Fields are filled
// incrementally by the form engine; AppointmentDate is a calendar date at
// midnight in the reference location and AppointmentTime an optional
// 24-hour "HH:MM".
type Record struct {
	Name            string
	Phone           string
	Email           string
	AppointmentDate time.Time
	AppointmentTime string
	Reason          string
	Status          Status
	CreatedAt       time.Time
}

// Has reports whether the slot for f holds a validated value.
func (r *Record) Has(f Field) bool {
	switch f {
	case FieldName:
		return r.Name != ""
	case FieldPhone:
		return r.Phone != ""
	case FieldEmail:
		return r.Email != ""
	case FieldDate:
		return !r.AppointmentDate.IsZero()
	case FieldReason:
		return r.Reason != ""
	default:
		return false
	}
}

// Missing returns the set of fields still to be collected.
func (r *Record) Missing() FieldSet {
	var s FieldSet
	for _, f := range fieldOrder {
		if !r.Has(f) {
			s.Add(f)
		}
	}
	return s
}

// Complete reports whether every required field holds a value.
func (r *Record) Complete() bool {
	return r.Missing().Empty()
}

func (r *Record) set(f Field, normalized string, dv DateValue) {
	switch f {
	case FieldName:
		r.Name = normalized
	case FieldPhone:
		r.Phone = normalized
	case FieldEmail:
		r.Email = normalized
	case FieldDate:
		r.AppointmentDate = dv.Date
		r.AppointmentTime = dv.TimeOfDay
	case FieldReason:
		r.Reason = normalized
	}
}

// clearFields drops collected values while keeping status and creation time,
// used when the user rejects the confirmation summary and restarts.
func (r *Record) clearFields() {
	r.Name = ""
	r.Phone = ""
	r.Email = ""
	r.AppointmentDate = time.Time{}
	r.AppointmentTime = ""
	r.Reason = ""
}

// DateDisplay renders the appointment date, with time when present.
func (r *Record) DateDisplay() string {
	if r.AppointmentDate.IsZero() {
		return ""
	}
	s := r.AppointmentDate.Format("2006-01-02")
	if r.AppointmentTime != "" {
		s += " at " + r.AppointmentTime
	}
	return s
}

// Summary renders the human-readable confirmation summary.
func (r *Record) Summary() string {
	var b strings.Builder
	b.WriteString("Here's what I have for your appointment:\n")
	fmt.Fprintf(&b, "- Name: %s\n", r.Name)
	fmt.Fprintf(&b, "- Phone: %s\n", r.Phone)
	fmt.Fprintf(&b, "- Email: %s\n", r.Email)
	fmt.Fprintf(&b, "- Date: %s\n", r.DateDisplay())
	fmt.Fprintf(&b, "- Reason: %s", r.Reason)
	return b.String()
}

// MarshalJSON emits the stable persisted shape: name, phone, email,
// appointment_date (ISO 8601 date), appointment_time (24-hour HH:MM,
// optional), reason, created_at, status.
func (r Record) MarshalJSON() ([]byte, error) {
	out := struct {
		Name            string `json:"name"`
		Phone           string `json:"phone"`
		Email           string `json:"email"`
		AppointmentDate string `json:"appointment_date,omitempty"`
		AppointmentTime string `json:"appointment_time,omitempty"`
		Reason          string `json:"reason"`
		CreatedAt       string `json:"created_at"`
		Status          string `json:"status"`
	}{
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		AppointmentTime: r.AppointmentTime,
		Reason:          r.Reason,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		Status:          string(r.Status),
	}
	if !r.AppointmentDate.IsZero() {
		out.AppointmentDate = r.AppointmentDate.Format("2006-01-02")
	}
	return json.Marshal(out)
}
