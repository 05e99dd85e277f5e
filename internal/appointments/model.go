package appointments

import (
	"time"

	"github.com/docchat/bookingbot/internal/booking"
)

// Appointment is a persisted booking request.
type Appointment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Date      time.Time `json:"appointment_date"`
	TimeOfDay string    `json:"appointment_time,omitempty"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func fromRecord(id string, rec booking.Record) Appointment {
	return Appointment{
		ID:        id,
		Name:      rec.Name,
		Phone:     rec.Phone,
		Email:     rec.Email,
		Date:      rec.AppointmentDate,
		TimeOfDay: rec.AppointmentTime,
		Reason:    rec.Reason,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt.UTC(),
	}
}
