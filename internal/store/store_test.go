package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/testutil"
	"github.com/starford/dagaz/internal/view"
)

const tenant = "acme"

func newActivity(title string, start time.Time, dur time.Duration) *models.Activity {
	a := &models.Activity{TenantID: tenant, Title: title, StartAt: start}
	if dur > 0 {
		end := start.Add(dur)
		a.EndAt = &end
	}
	return a
}

func TestActivityLifecycle(t *testing.T) {
	db := testutil.TestDB(t)

	start := time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC)
	a := newActivity("standup", start, 30*time.Minute)
	if err := db.CreateActivity(a); err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := db.GetActivity(tenant, a.ID)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if got.Title != "standup" || !got.StartAt.Equal(start) {
		t.Errorf("got = %+v", got)
	}
	if got.EndAt == nil || !got.EndAt.Equal(start.Add(30*time.Minute)) {
		t.Errorf("end = %v", got.EndAt)
	}

	got.Title = "daily standup"
	if err := db.UpdateActivity(got); err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}

	if err := db.DeleteActivity(tenant, a.ID); err != nil {
		t.Fatalf("DeleteActivity: %v", err)
	}
	if _, err := db.GetActivity(tenant, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestGetActivity_TenantIsolation(t *testing.T) {
	db := testutil.TestDB(t)

	a := newActivity("private", time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC), time.Hour)
	if err := db.CreateActivity(a); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetActivity("other-tenant", a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-tenant read err = %v, want ErrNotFound", err)
	}
}

func TestUpdateActivityTime_OptimisticToken(t *testing.T) {
	db := testutil.TestDB(t)

	a := newActivity("consult", time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC), time.Hour)
	if err := db.CreateActivity(a); err != nil {
		t.Fatal(err)
	}

	newStart := time.Date(2026, time.August, 26, 13, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(time.Hour)
	tok, err := db.UpdateActivityTime(tenant, a.ID, newStart, &newEnd, a.UpdatedAt)
	if err != nil {
		t.Fatalf("UpdateActivityTime: %v", err)
	}
	if !tok.After(a.UpdatedAt) && !tok.Equal(a.UpdatedAt) {
		t.Errorf("token = %v, want >= %v", tok, a.UpdatedAt)
	}

	// Replaying with the stale token must conflict.
	if _, err := db.UpdateActivityTime(tenant, a.ID, newStart, &newEnd, a.UpdatedAt); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale token err = %v, want ErrConflict", err)
	}

	// A zero token skips the check.
	if _, err := db.UpdateActivityTime(tenant, a.ID, newStart, nil, time.Time{}); err != nil {
		t.Errorf("zero token err = %v", err)
	}

	got, err := db.GetActivity(tenant, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.StartAt.Equal(newStart) || got.EndAt != nil {
		t.Errorf("after moves: start=%v end=%v", got.StartAt, got.EndAt)
	}
}

func TestUpdateActivityTime_UnknownID(t *testing.T) {
	db := testutil.TestDB(t)
	if _, err := db.UpdateActivityTime(tenant, "nope", time.Now(), nil, time.Time{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateAppointment_MirrorsActivity(t *testing.T) {
	db := testutil.TestDB(t)

	ap := &models.Appointment{TenantID: tenant, Patient: "J. Doe", Treatment: "checkup",
		Date: "2026-08-26", StartTime: "10:00", EndTime: "10:45"}
	mirror, err := db.CreateAppointment(ap)
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if mirror.ModuleRef == nil || mirror.ModuleRef.ModuleID != models.ModuleClinic || mirror.ModuleRef.EntityID != ap.ID {
		t.Fatalf("mirror ref = %+v", mirror.ModuleRef)
	}

	got, err := db.GetActivity(tenant, mirror.ID)
	if err != nil {
		t.Fatalf("mirror not stored: %v", err)
	}
	if got.Metadata[models.MetaAppointmentID] != ap.ID {
		t.Errorf("mirror metadata = %v", got.Metadata)
	}
	wantStart := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC)
	if !got.StartAt.Equal(wantStart) {
		t.Errorf("mirror start = %v, want %v", got.StartAt, wantStart)
	}
	if got.EndAt == nil || !got.EndAt.Equal(wantStart.Add(45*time.Minute)) {
		t.Errorf("mirror end = %v", got.EndAt)
	}
}

func TestDeleteAppointment_RemovesMirror(t *testing.T) {
	db := testutil.TestDB(t)

	ap := &models.Appointment{TenantID: tenant, Patient: "J. Doe",
		Date: "2026-08-26", StartTime: "10:00"}
	mirror, err := db.CreateAppointment(ap)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteAppointment(tenant, ap.ID); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	if _, err := db.GetActivity(tenant, mirror.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("mirror still present, err = %v", err)
	}
}

func TestUpdateAppointmentSlot(t *testing.T) {
	db := testutil.TestDB(t)

	ap := &models.Appointment{TenantID: tenant, Patient: "J. Doe",
		Date: "2026-08-26", StartTime: "10:00", EndTime: "10:30"}
	if _, err := db.CreateAppointment(ap); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateAppointmentSlot(tenant, ap.ID, "2026-08-27", "14:00", "14:30"); err != nil {
		t.Fatalf("UpdateAppointmentSlot: %v", err)
	}
	got, err := db.GetAppointment(tenant, ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2026-08-27" || got.StartTime != "14:00" || got.EndTime != "14:30" {
		t.Errorf("slot = %s %s-%s", got.Date, got.StartTime, got.EndTime)
	}

	if err := db.UpdateAppointmentSlot(tenant, ap.ID, "not-a-date", "14:00", ""); err == nil {
		t.Error("expected parse error for malformed date")
	}
}

func TestEventsInWindow_ContainmentAndFilter(t *testing.T) {
	db := testutil.TestDB(t)

	mk := func(title string, day int, hour int) {
		t.Helper()
		a := newActivity(title, time.Date(2026, time.August, day, hour, 0, 0, 0, time.UTC), time.Hour)
		if err := db.CreateActivity(a); err != nil {
			t.Fatal(err)
		}
	}
	mk("in month before", 23, 9) // Sunday before the week
	mk("monday", 24, 9)
	mk("wednesday", 26, 15)
	mk("sunday", 30, 9)
	mk("next monday", 31, 9)

	ap := &models.Appointment{TenantID: tenant, Patient: "J. Doe", Date: "2026-08-26", StartTime: "10:00", EndTime: "10:30"}
	if _, err := db.CreateAppointment(ap); err != nil {
		t.Fatal(err)
	}

	w := view.WindowFor(time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC), view.ModeWeek)

	all, err := db.EventsInWindow(tenant, w, store.FilterAll)
	if err != nil {
		t.Fatalf("EventsInWindow: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}
	for _, ev := range all {
		if !w.Contains(ev.StartAt) {
			t.Errorf("event %q at %v outside window", ev.Title, ev.StartAt)
		}
	}

	native, err := db.EventsInWindow(tenant, w, store.FilterNative)
	if err != nil {
		t.Fatal(err)
	}
	if len(native) != 3 {
		t.Errorf("len(native) = %d, want 3", len(native))
	}

	clinic, err := db.EventsInWindow(tenant, w, store.FilterClinic)
	if err != nil {
		t.Fatal(err)
	}
	if len(clinic) != 1 || clinic[0].ModuleRef == nil {
		t.Errorf("clinic = %+v", clinic)
	}

	if _, err := store.ParseModuleFilter("bogus"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestSlotToInstants(t *testing.T) {
	start, end, err := store.SlotToInstants("2026-08-26", "09:15", "10:00")
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2026, time.August, 26, 9, 15, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if end == nil || !end.Equal(time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}

	_, end, err = store.SlotToInstants("2026-08-26", "09:15", "")
	if err != nil || end != nil {
		t.Errorf("open slot: end=%v err=%v", end, err)
	}
}

func TestUpdateActivity_ModuleOwnedGuards(t *testing.T) {
	db := testutil.TestDB(t)

	ap := &models.Appointment{TenantID: tenant, Patient: "J. Doe", Treatment: "checkup",
		Date: "2026-08-26", StartTime: "10:00", EndTime: "10:45"}
	mirror, err := db.CreateAppointment(ap)
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	// Moving a mirror through the generic update is refused; the instants
	// belong to the appointment.
	moved := *mirror
	moved.StartAt = mirror.StartAt.Add(48 * time.Hour)
	movedEnd := mirror.EndAt.Add(48 * time.Hour)
	moved.EndAt = &movedEnd
	if err := db.UpdateActivity(&moved); !errors.Is(err, apperr.ErrModuleOwned) {
		t.Fatalf("err = %v, want ErrModuleOwned", err)
	}
	gotAp, err := db.GetAppointment(tenant, ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotAp.Date != "2026-08-26" || gotAp.StartTime != "10:00" {
		t.Errorf("appointment changed: %s %s", gotAp.Date, gotAp.StartTime)
	}

	// A rename that keeps the instants goes through, and the module
	// metadata survives a body that omitted it.
	renamed := *mirror
	renamed.Title = "J. Doe - follow-up"
	renamed.Metadata = nil
	if err := db.UpdateActivity(&renamed); err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}
	got, err := db.GetActivity(tenant, mirror.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "J. Doe - follow-up" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Metadata[models.MetaAppointmentID] != ap.ID {
		t.Errorf("mirror lost its appointment link: %v", got.Metadata)
	}
	if got.ModuleRef == nil || got.ModuleRef.EntityID != ap.ID {
		t.Errorf("module ref = %+v", got.ModuleRef)
	}
}
