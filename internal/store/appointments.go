package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

const appointmentColumns = `id, tenant_id, patient, treatment, date, start_time, end_time, notes, updated_at, created_at`

// CreateAppointment inserts a clinic appointment together with its mirror
// activity in one transaction. The mirror carries the module ref and the
// appointment id in metadata, which is what the reschedule protocol later
// uses to keep the two rows in sync. Returns the mirror activity.
func (db *DB) CreateAppointment(ap *models.Appointment) (*models.Activity, error) {
	if ap.ID == "" {
		ap.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	ap.CreatedAt = now
	ap.UpdatedAt = now

	start, end, err := SlotToInstants(ap.Date, ap.StartTime, ap.EndTime)
	if err != nil {
		return nil, err
	}

	mirror := &models.Activity{
		ID:       uuid.NewString(),
		TenantID: ap.TenantID,
		Title:    appointmentTitle(ap),
		StartAt:  start,
		EndAt:    end,
		ModuleRef: &models.ModuleRef{
			ModuleID:   models.ModuleClinic,
			EntityType: "appointment",
			EntityID:   ap.ID,
		},
		Metadata:  map[string]string{models.MetaAppointmentID: ap.ID},
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO appointments (id, tenant_id, patient, treatment, date, start_time, end_time, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ap.ID, ap.TenantID, ap.Patient, ap.Treatment, ap.Date, ap.StartTime, ap.EndTime, ap.Notes,
		toMillis(now), toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("store: insert appointment: %w", err)
	}

	meta := fmt.Sprintf(`{"%s":%q}`, models.MetaAppointmentID, ap.ID)
	_, err = tx.Exec(`
		INSERT INTO activities (id, tenant_id, title, start_at, end_at, completed, module_id, entity_type, entity_id, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)
	`, mirror.ID, mirror.TenantID, mirror.Title, toMillis(start), toNullMillis(end),
		models.ModuleClinic, "appointment", ap.ID, meta, toMillis(now), toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("store: insert mirror activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit appointment: %w", err)
	}
	return mirror, nil
}

// GetAppointment returns one appointment scoped to the tenant.
func (db *DB) GetAppointment(tenant, id string) (*models.Appointment, error) {
	row := db.conn.QueryRow(`SELECT `+appointmentColumns+` FROM appointments WHERE tenant_id = ? AND id = ?`, tenant, id)
	ap, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get appointment: %w", err)
	}
	return ap, nil
}

// ListAppointments returns the tenant's appointments ordered by date and
// start time, with the total count for pagination.
func (db *DB) ListAppointments(tenant string, limit, offset int) ([]models.Appointment, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM appointments WHERE tenant_id = ?`, tenant).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count appointments: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT `+appointmentColumns+` FROM appointments
		WHERE tenant_id = ?
		ORDER BY date, start_time, id
		LIMIT ? OFFSET ?
	`, tenant, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		ap, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *ap)
	}
	return out, total, rows.Err()
}

// UpdateAppointmentSlot rewrites the appointment's native scheduling
// fields. It deliberately does NOT touch the mirror activity: the ordered
// primary-then-secondary protocol in the scheduler owns that pairing.
func (db *DB) UpdateAppointmentSlot(tenant, id, date, startTime, endTime string) error {
	if _, _, err := SlotToInstants(date, startTime, endTime); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := db.conn.Exec(`
		UPDATE appointments SET date = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`, date, startTime, endTime, toMillis(now), tenant, id)
	if err != nil {
		return fmt.Errorf("store: update appointment slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteAppointment removes an appointment and its mirror activity in one
// transaction.
func (db *DB) DeleteAppointment(tenant, id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM appointments WHERE tenant_id = ? AND id = ?`, tenant, id)
	if err != nil {
		return fmt.Errorf("store: delete appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	_, _ = tx.Exec(`DELETE FROM activities WHERE tenant_id = ? AND module_id = ? AND entity_id = ?`,
		tenant, models.ModuleClinic, id)

	return tx.Commit()
}

// SlotToInstants converts the clinic's native date and clock-time strings
// into absolute instants. An empty end time yields a nil end.
func SlotToInstants(date, startTime, endTime string) (time.Time, *time.Time, error) {
	start, err := time.Parse("2006-01-02 15:04", date+" "+startTime)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("store: parse slot start: %w", err)
	}
	if endTime == "" {
		return start, nil, nil
	}
	end, err := time.Parse("2006-01-02 15:04", date+" "+endTime)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("store: parse slot end: %w", err)
	}
	return start, &end, nil
}

func appointmentTitle(ap *models.Appointment) string {
	if ap.Treatment == "" {
		return ap.Patient
	}
	return ap.Patient + " - " + ap.Treatment
}

func scanAppointment(r rowScanner) (*models.Appointment, error) {
	var (
		ap        models.Appointment
		updatedAt int64
		createdAt int64
	)
	if err := r.Scan(&ap.ID, &ap.TenantID, &ap.Patient, &ap.Treatment, &ap.Date,
		&ap.StartTime, &ap.EndTime, &ap.Notes, &updatedAt, &createdAt); err != nil {
		return nil, err
	}
	ap.UpdatedAt = fromMillis(updatedAt)
	ap.CreatedAt = fromMillis(createdAt)
	return &ap, nil
}
