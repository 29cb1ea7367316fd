package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPartialUpdate marks a reschedule whose generic record was written
	// but whose module-owned secondary record was not. The two
	// representations are out of sync until the next successful write.
	ErrPartialUpdate = errors.New("partial update")

	// ErrModuleOwned rejects generic writes that would desync a mirror
	// activity from the module record it represents. Times move through
	// the reschedule path or the owning module's own endpoints.
	ErrModuleOwned = errors.New("record is module-owned")
)
