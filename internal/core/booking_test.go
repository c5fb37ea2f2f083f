package core

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argo-assistant/internal/schedule"
	"argo-assistant/pkg"
)

type fakeStore struct {
	records map[string]pkg.Appointment
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]pkg.Appointment)}
}

func (f *fakeStore) UpsertAppointment(_ context.Context, a pkg.Appointment) error {
	if f.failing {
		return errors.New("store down")
	}
	f.records[a.PatientKey] = a
	return nil
}

func (f *fakeStore) GetAppointment(_ context.Context, key string) (*pkg.Appointment, error) {
	if f.failing {
		return nil, errors.New("store down")
	}
	a, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type sentMessage struct {
	Message string
	To      string
}

type fakeNotifier struct {
	sent    []sentMessage
	failing bool
}

func (f *fakeNotifier) Send(_ context.Context, message, to string) (string, error) {
	if f.failing {
		return "", errors.New("gateway down")
	}
	f.sent = append(f.sent, sentMessage{Message: message, To: to})
	return "SM123", nil
}

type scheduledJob struct {
	FireAt time.Time
	Job    schedule.Job
}

type fakeScheduler struct {
	jobs map[string]scheduledJob
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]scheduledJob)}
}

func (f *fakeScheduler) Schedule(id string, fireAt time.Time, job schedule.Job) bool {
	f.jobs[id] = scheduledJob{FireAt: fireAt, Job: job}
	return true
}

func (f *fakeScheduler) Cancel(id string) bool {
	_, ok := f.jobs[id]
	delete(f.jobs, id)
	return ok
}

type bookingFixture struct {
	store     *fakeStore
	notifier  *fakeNotifier
	scheduler *fakeScheduler
	svc       *BookingService
}

func newBookingFixture(now time.Time) *bookingFixture {
	f := &bookingFixture{
		store:     newFakeStore(),
		notifier:  &fakeNotifier{},
		scheduler: newFakeScheduler(),
	}
	f.svc = NewBookingService(f.store, f.notifier, f.scheduler, slog.Default())
	f.svc.Now = func() time.Time { return now }
	return f
}

var bookingNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, ClinicZone())

func miaCommand() ScheduleAppointment {
	return ScheduleAppointment{
		PatientName: "Mia",
		WhatsApp:    "+5491100000000",
		Date:        "2025-06-10",
		Time:        "15:00",
	}
}

func TestBookStoresRecordAndSchedulesBothReminders(t *testing.T) {
	f := newBookingFixture(bookingNow)

	answer, err := f.svc.Book(context.Background(), miaCommand())
	require.NoError(t, err)
	assert.Contains(t, answer, "Mia")
	assert.Contains(t, answer, "10/06/2025 a las 15:00")

	at := time.Date(2025, time.June, 10, 15, 0, 0, 0, ClinicZone())
	require.Len(t, f.store.records, 1)
	stored := f.store.records["mia"]
	assert.Equal(t, "Mia", stored.PatientName)
	assert.Equal(t, "+5491100000000", stored.WhatsApp)
	assert.True(t, stored.ScheduledAt.Equal(at))

	require.Len(t, f.scheduler.jobs, 2)
	j24, ok := f.scheduler.jobs[ReminderJobID("recordatorio_24h", "mia", at)]
	require.True(t, ok)
	assert.True(t, j24.FireAt.Equal(time.Date(2025, time.June, 9, 15, 0, 0, 0, ClinicZone())))
	assert.Equal(t, "+5491100000000", j24.Job.To)
	assert.Contains(t, j24.Job.Message, "24 horas")

	j3, ok := f.scheduler.jobs[ReminderJobID("recordatorio_3h", "mia", at)]
	require.True(t, ok)
	assert.True(t, j3.FireAt.Equal(time.Date(2025, time.June, 10, 12, 0, 0, 0, ClinicZone())))
	assert.Contains(t, j3.Job.Message, "falta poco")

	// Immediate confirmation went out once.
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "+5491100000000", f.notifier.sent[0].To)
	assert.Contains(t, f.notifier.sent[0].Message, "Mia")
}

func TestBookNeedsContactWritesNothing(t *testing.T) {
	f := newBookingFixture(bookingNow)
	cmd := miaCommand()
	cmd.WhatsApp = ""

	_, err := f.svc.Book(context.Background(), cmd)
	require.ErrorIs(t, err, ErrNeedsContact)
	assert.Empty(t, f.store.records)
	assert.Empty(t, f.scheduler.jobs)
	assert.Empty(t, f.notifier.sent)
}

func TestBookStoredContactIsAuthoritative(t *testing.T) {
	f := newBookingFixture(bookingNow)
	f.store.records["mia"] = pkg.Appointment{
		PatientKey:  "mia",
		PatientName: "Mia",
		WhatsApp:    "+5491199999999",
		ScheduledAt: bookingNow,
	}

	cmd := miaCommand()
	cmd.WhatsApp = "+5400000000000" // ignored: the stored contact wins

	_, err := f.svc.Book(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "+5491199999999", f.store.records["mia"].WhatsApp)
	require.NotEmpty(t, f.notifier.sent)
	assert.Equal(t, "+5491199999999", f.notifier.sent[0].To)
}

func TestBookReminderWindows(t *testing.T) {
	cases := []struct {
		name    string
		lead    time.Duration
		wantJob int
	}{
		{"under 3h", 2 * time.Hour, 0},
		{"between 3h and 24h", 10 * time.Hour, 1},
		{"beyond 24h", 48 * time.Hour, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(bookingNow)
			at := bookingNow.Add(tc.lead)
			cmd := miaCommand()
			cmd.Date = at.Format("2006-01-02")
			cmd.Time = at.Format("15:04")

			_, err := f.svc.Book(context.Background(), cmd)
			require.NoError(t, err)
			assert.Len(t, f.scheduler.jobs, tc.wantJob)
		})
	}
}

func TestRebookReplacesRecordAndReminders(t *testing.T) {
	f := newBookingFixture(bookingNow)

	_, err := f.svc.Book(context.Background(), miaCommand())
	require.NoError(t, err)
	_, err = f.svc.Book(context.Background(), miaCommand())
	require.NoError(t, err)

	// Same appointment, same deterministic ids: still one record, two jobs.
	assert.Len(t, f.store.records, 1)
	assert.Len(t, f.scheduler.jobs, 2)
}

func TestBookBadDateTimeIsRejected(t *testing.T) {
	f := newBookingFixture(bookingNow)
	cmd := miaCommand()
	cmd.Date = "mañana"

	_, err := f.svc.Book(context.Background(), cmd)
	require.ErrorIs(t, err, ErrBadDateTime)
	assert.Empty(t, f.store.records)
	assert.Empty(t, f.scheduler.jobs)
	assert.Empty(t, f.notifier.sent)
}

func TestBookSurvivesConfirmationFailure(t *testing.T) {
	f := newBookingFixture(bookingNow)
	f.notifier.failing = true

	answer, err := f.svc.Book(context.Background(), miaCommand())
	require.NoError(t, err)
	assert.Contains(t, answer, "Mia")
	assert.Len(t, f.store.records, 1)
	assert.Len(t, f.scheduler.jobs, 2)
}

func TestBookStoreFailureSurfaces(t *testing.T) {
	f := newBookingFixture(bookingNow)
	f.store.failing = true

	_, err := f.svc.Book(context.Background(), miaCommand())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNeedsContact)
	assert.NotErrorIs(t, err, ErrBadDateTime)
}
