package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

const activityColumns = `id, tenant_id, title, start_at, end_at, completed, module_id, entity_type, entity_id, metadata, updated_at, created_at`

// CreateActivity inserts a new activity. A missing ID is generated; the
// caller's CreatedAt/UpdatedAt are overwritten with now.
func (db *DB) CreateActivity(a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	a.CreatedAt = now
	a.UpdatedAt = now

	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}
	var moduleID, entityType, entityID sql.NullString
	if a.ModuleRef != nil {
		moduleID = sql.NullString{String: a.ModuleRef.ModuleID, Valid: true}
		entityType = sql.NullString{String: a.ModuleRef.EntityType, Valid: true}
		entityID = sql.NullString{String: a.ModuleRef.EntityID, Valid: true}
	}

	_, err = db.conn.Exec(`
		INSERT INTO activities (id, tenant_id, title, start_at, end_at, completed, module_id, entity_type, entity_id, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.TenantID, a.Title, toMillis(a.StartAt), toNullMillis(a.EndAt), a.Completed,
		moduleID, entityType, entityID, string(meta), toMillis(a.CreatedAt), toMillis(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("store: insert activity: %w", err)
	}
	return nil
}

// GetActivity returns one activity scoped to the tenant.
func (db *DB) GetActivity(tenant, id string) (*models.Activity, error) {
	row := db.conn.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE tenant_id = ? AND id = ?`, tenant, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get activity: %w", err)
	}
	return a, nil
}

// ListActivities returns the tenant's activities ordered by start instant,
// newest window first, with the total count for pagination.
func (db *DB) ListActivities(tenant string, limit, offset int) ([]models.Activity, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM activities WHERE tenant_id = ?`, tenant).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count activities: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT `+activityColumns+` FROM activities
		WHERE tenant_id = ?
		ORDER BY start_at DESC, id
		LIMIT ? OFFSET ?
	`, tenant, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list activities: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

// UpdateActivity rewrites the mutable fields of an activity.
//
// Mirror activities stay consistent with the module record they represent:
// their instants may only change through the reschedule protocol or the
// owning module's endpoints, and their module metadata survives the update
// regardless of what the caller passes.
func (db *DB) UpdateActivity(a *models.Activity) error {
	current, err := db.GetActivity(a.TenantID, a.ID)
	if err != nil {
		return err
	}
	if current.ModuleRef != nil {
		if !a.StartAt.Equal(current.StartAt) || !endEqual(a.EndAt, current.EndAt) {
			return fmt.Errorf("store: activity %s: %w", a.ID, apperr.ErrModuleOwned)
		}
		a.Metadata = current.Metadata
	}

	a.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}

	res, err := db.conn.Exec(`
		UPDATE activities
		SET title = ?, start_at = ?, end_at = ?, completed = ?, metadata = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`, a.Title, toMillis(a.StartAt), toNullMillis(a.EndAt), a.Completed, string(meta),
		toMillis(a.UpdatedAt), a.TenantID, a.ID)
	if err != nil {
		return fmt.Errorf("store: update activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// UpdateActivityTime moves an activity to new instants with an optimistic
// token: when token is non-zero the write only succeeds if updated_at still
// matches, so concurrent drags of the same event surface as a conflict
// instead of silently last-write-wins.
func (db *DB) UpdateActivityTime(tenant, id string, start time.Time, end *time.Time, token time.Time) (time.Time, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	// Keep the token strictly monotonic even within one millisecond.
	if !now.After(token) {
		now = token.Add(time.Millisecond)
	}

	var (
		res sql.Result
		err error
	)
	if token.IsZero() {
		res, err = db.conn.Exec(`
			UPDATE activities SET start_at = ?, end_at = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ?
		`, toMillis(start), toNullMillis(end), toMillis(now), tenant, id)
	} else {
		res, err = db.conn.Exec(`
			UPDATE activities SET start_at = ?, end_at = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ? AND updated_at = ?
		`, toMillis(start), toNullMillis(end), toMillis(now), tenant, id, toMillis(token))
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("store: update activity time: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a stale token.
		if _, getErr := db.GetActivity(tenant, id); getErr != nil {
			return time.Time{}, getErr
		}
		return time.Time{}, apperr.ErrConflict
	}
	return now, nil
}

// DeleteActivity removes an activity.
func (db *DB) DeleteActivity(tenant, id string) error {
	res, err := db.conn.Exec(`DELETE FROM activities WHERE tenant_id = ? AND id = ?`, tenant, id)
	if err != nil {
		return fmt.Errorf("store: delete activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(r rowScanner) (*models.Activity, error) {
	var (
		a          models.Activity
		startAt    int64
		endAt      sql.NullInt64
		moduleID   sql.NullString
		entityType sql.NullString
		entityID   sql.NullString
		meta       string
		updatedAt  int64
		createdAt  int64
	)
	if err := r.Scan(&a.ID, &a.TenantID, &a.Title, &startAt, &endAt, &a.Completed,
		&moduleID, &entityType, &entityID, &meta, &updatedAt, &createdAt); err != nil {
		return nil, err
	}
	a.StartAt = fromMillis(startAt)
	a.EndAt = fromNullMillis(endAt)
	a.UpdatedAt = fromMillis(updatedAt)
	a.CreatedAt = fromMillis(createdAt)
	if moduleID.Valid {
		a.ModuleRef = &models.ModuleRef{
			ModuleID:   moduleID.String,
			EntityType: entityType.String,
			EntityID:   entityID.String,
		}
	}
	if meta != "" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &a.Metadata); err != nil {
			return nil, fmt.Errorf("store: decode metadata for %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func endEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
