package appointments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/docchat/bookingbot/internal/booking"
	"github.com/docchat/bookingbot/pkg/logging"
)

var appointmentsTracer = otel.Tracer("docchat.internal.appointments")

// Store is the persistence surface the service writes to. Repository and
// FileStore both satisfy it.
type Store interface {
	Insert(ctx context.Context, apt Appointment) error
}

// Service turns confirmed booking records into stored appointments. It is
// the booking engine's Saver.
type Service struct {
	store  Store
	logger *logging.Logger
}

// NewService constructs an appointments service.
func NewService(store Store, logger *logging.Logger) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger.Component("appointments")}
}

// Save persists a confirmed record and returns its new identifier.
func (s *Service) Save(ctx context.Context, rec booking.Record) (string, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.save")
	defer span.End()

	apt := fromRecord(uuid.NewString(), rec)
	span.SetAttributes(
		attribute.String("docchat.appointment_id", apt.ID),
		attribute.String("docchat.appointment_date", apt.Date.Format("2006-01-02")),
	)

	if err := s.store.Insert(ctx, apt); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("appointments: save: %w", err)
	}
	s.logger.Info("appointment saved", "appointment_id", apt.ID, "date", apt.Date.Format("2006-01-02"))
	return apt.ID, nil
}
