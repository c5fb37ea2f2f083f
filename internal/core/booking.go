package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"argo-assistant/internal/schedule"
	"argo-assistant/pkg"
)

// AppointmentStore is the durable one-record-per-patient booking store.
// A missing record is reported as (nil, nil).
type AppointmentStore interface {
	UpsertAppointment(ctx context.Context, a pkg.Appointment) error
	GetAppointment(ctx context.Context, patientKey string) (*pkg.Appointment, error)
}

// Notifier delivers one outbound WhatsApp message and returns a gateway id.
type Notifier interface {
	Send(ctx context.Context, message, to string) (string, error)
}

// ErrNeedsContact reports a first-time booking that arrived without a
// WhatsApp number.  The caller re-prompts the user; nothing was written.
var ErrNeedsContact = errors.New("booking needs a contact number")

// ErrBadDateTime reports a booking whose date or time could not be parsed.
// The original behaviour silently booked "now" in that case; here it is a
// validation error and the user is asked to restate the date.
var ErrBadDateTime = errors.New("booking date/time is invalid")

// BookingService books appointments: it resolves the patient's contact,
// upserts the stored record, sends the confirmation and registers the 24h
// and 3h reminders.
type BookingService struct {
	Store     AppointmentStore
	Notifier  Notifier
	Scheduler schedule.Scheduler
	Log       *slog.Logger

	// Now is the clock reminders are measured against; tests replace it.
	Now func() time.Time
}

// NewBookingService wires a BookingService with the real clock.
func NewBookingService(store AppointmentStore, notifier Notifier, scheduler schedule.Scheduler, log *slog.Logger) *BookingService {
	if log == nil {
		log = slog.Default()
	}
	return &BookingService{
		Store:     store,
		Notifier:  notifier,
		Scheduler: scheduler,
		Log:       log,
		Now:       time.Now,
	}
}

// Book processes a schedule_appointment command end to end and returns the
// confirmation text for the chat.  It returns ErrBadDateTime or
// ErrNeedsContact without having written anything; any other error means the
// store rejected the upsert.
func (s *BookingService) Book(ctx context.Context, cmd ScheduleAppointment) (string, error) {
	at, err := parseClinicDateTime(cmd.Date, cmd.Time)
	if err != nil {
		s.Log.Warn("booking rejected, unparseable date/time",
			"patient", cmd.PatientName, "date", cmd.Date, "time", cmd.Time, "error", err)
		return "", ErrBadDateTime
	}
	patientKey := strings.ToLower(strings.TrimSpace(cmd.PatientName))
	contact, err := s.resolveContact(ctx, patientKey, cmd.WhatsApp)
	if err != nil {
		return "", err
	}
	return s.scheduleAppointment(ctx, patientKey, cmd.PatientName, contact, at)
}

// resolveContact picks the WhatsApp number for a booking.  A stored record
// is authoritative: a freshly parsed number never overwrites a known-good
// contact.  An unknown patient with no supplied number is ErrNeedsContact.
func (s *BookingService) resolveContact(ctx context.Context, patientKey, supplied string) (string, error) {
	existing, err := s.Store.GetAppointment(ctx, patientKey)
	if err != nil {
		return "", fmt.Errorf("look up appointment for %q: %w", patientKey, err)
	}
	if existing != nil && existing.WhatsApp != "" {
		return existing.WhatsApp, nil
	}
	if strings.TrimSpace(supplied) == "" {
		return "", ErrNeedsContact
	}
	return supplied, nil
}

func (s *BookingService) scheduleAppointment(ctx context.Context, patientKey, patientName, contact string, at time.Time) (string, error) {
	err := s.Store.UpsertAppointment(ctx, pkg.Appointment{
		PatientKey:  patientKey,
		PatientName: patientName,
		WhatsApp:    contact,
		ScheduledAt: at,
	})
	if err != nil {
		return "", fmt.Errorf("store appointment for %q: %w", patientKey, err)
	}

	// Confirmation is best effort; the booking stands even if delivery fails.
	if _, err := s.Notifier.Send(ctx, fmt.Sprintf(confirmationText, patientName), contact); err != nil {
		s.Log.Warn("confirmation send failed", "patient_key", patientKey, "error", err)
	}

	now := s.Now().In(clinicZone)
	s.registerReminder("recordatorio_24h", patientKey, at.Add(-24*time.Hour), now,
		fmt.Sprintf(reminder24hText, patientName), contact, at)
	s.registerReminder("recordatorio_3h", patientKey, at.Add(-3*time.Hour), now,
		fmt.Sprintf(reminder3hText, patientName), contact, at)

	return fmt.Sprintf(confirmationReplyText, patientName, at.Format("02/01/2006 a las 15:04")), nil
}

// registerReminder schedules one reminder job unless its fire time has
// already elapsed.  The job id is deterministic over (kind, patient key,
// appointment instant) so rebooking the same appointment replaces the
// pending job instead of duplicating it.
func (s *BookingService) registerReminder(kind, patientKey string, fireAt, now time.Time, message, to string, at time.Time) {
	if !fireAt.After(now) {
		s.Log.Info("reminder skipped, time already elapsed",
			"kind", kind, "patient_key", patientKey, "fire_at", fireAt)
		return
	}
	id := ReminderJobID(kind, patientKey, at)
	s.Scheduler.Schedule(id, fireAt, schedule.Job{Message: message, To: to})
	s.Log.Info("reminder registered", "id", id, "fire_at", fireAt)
}

// ReminderJobID builds the deterministic job id for a reminder.
func ReminderJobID(kind, patientKey string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", kind, patientKey, at.Unix())
}

// parseClinicDateTime combines the command's date ("2006-01-02") and time
// ("15:04") in the clinic zone.
func parseClinicDateTime(date, tm string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+tm, clinicZone)
}
