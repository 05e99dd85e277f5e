package appointments

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func testAppointment() Appointment {
	return Appointment{
		ID:        "apt-1",
		Name:      "John Smith",
		Phone:     "+12345678901",
		Email:     "john@example.com",
		Date:      time.Date(2024, time.January, 16, 0, 0, 0, 0, time.UTC),
		TimeOfDay: "15:00",
		Reason:    "discuss AI services",
		Status:    "confirmed",
		CreatedAt: time.Date(2024, time.January, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestRepositoryInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	apt := testAppointment()
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(apt.ID, apt.Name, apt.Phone, apt.Email, apt.Date, apt.TimeOfDay, apt.Reason, apt.Status, apt.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepository(mock)
	if err := repo.Insert(context.Background(), apt); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	apt := testAppointment()
	rows := pgxmock.NewRows([]string{"id", "name", "phone", "email", "appointment_date", "appointment_time", "reason", "status", "created_at"}).
		AddRow(apt.ID, apt.Name, apt.Phone, apt.Email, apt.Date, apt.TimeOfDay, apt.Reason, apt.Status, apt.CreatedAt)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(2).
		WillReturnRows(rows)

	repo := NewRepository(mock)
	got, err := repo.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != apt.ID || got[0].TimeOfDay != "15:00" {
		t.Errorf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryListRecentDefaultLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "email", "appointment_date", "appointment_time", "reason", "status", "created_at"}))

	repo := NewRepository(mock)
	if _, err := repo.ListRecent(context.Background(), 0); err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
