// Package grid implements the time grid mapper: pure conversions between
// clock time and vertical pixel offsets on the day column, with
// snap-to-granularity rounding for drag interactions.
package grid

import (
	"fmt"
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Default grid settings.
const (
	DefaultStartHour   = 7
	DefaultEndHour     = 21
	DefaultHourHeight  = 60
	DefaultSnapMinutes = 15
)

// MinEventHeight is the smallest rendered height in pixels. Zero or
// negative durations clamp to it visually; interval logic still uses the
// raw extent.
const MinEventHeight = 20.0

// Config describes the vertical time grid of a day column.
type Config struct {
	StartHour   int `yaml:"start_hour" json:"start_hour"`
	EndHour     int `yaml:"end_hour" json:"end_hour"`
	HourHeight  int `yaml:"hour_height" json:"hour_height"`
	SnapMinutes int `yaml:"snap_minutes" json:"snap_minutes"`
}

// DefaultConfig returns the standard 07:00–21:00 grid at 60 px per hour
// with 15-minute snapping.
func DefaultConfig() Config {
	return Config{
		StartHour:   DefaultStartHour,
		EndHour:     DefaultEndHour,
		HourHeight:  DefaultHourHeight,
		SnapMinutes: DefaultSnapMinutes,
	}
}

// Validate validates the grid configuration.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.StartHour, validation.Min(0), validation.Max(23)),
		validation.Field(&c.EndHour, validation.Required, validation.Min(1), validation.Max(24)),
		validation.Field(&c.HourHeight, validation.Required, validation.Min(1)),
		validation.Field(&c.SnapMinutes, validation.Required, validation.Min(1), validation.Max(60)),
	); err != nil {
		return err
	}
	if c.EndHour <= c.StartHour {
		return fmt.Errorf("grid: end_hour %d must be after start_hour %d", c.EndHour, c.StartHour)
	}
	return nil
}

// Mapper converts between clock time and pixel offsets for one grid
// configuration. All methods are pure.
type Mapper struct {
	cfg Config
}

// NewMapper creates a Mapper. It panics if the configuration does not
// validate; a broken grid is a programmer error, not a runtime condition.
func NewMapper(cfg Config) *Mapper {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("grid: invalid config: %v", err))
	}
	return &Mapper{cfg: cfg}
}

// Config returns the mapper's grid configuration.
func (m *Mapper) Config() Config { return m.cfg }

// Height returns the total pixel height of the grid.
func (m *Mapper) Height() float64 {
	return float64(m.cfg.EndHour-m.cfg.StartHour) * float64(m.cfg.HourHeight)
}

// TimeToOffset converts a clock time to the pixel offset of its grid line.
// The top of the grid maps to exactly StartHour:00 at offset 0.
func (m *Mapper) TimeToOffset(hour, minute int) float64 {
	h := float64(m.cfg.HourHeight)
	return float64(hour-m.cfg.StartHour)*h + float64(minute)/60.0*h
}

// OffsetToClock converts a pixel offset back to a clock time, snapped to
// the configured granularity and clamped to the grid bounds.
func (m *Mapper) OffsetToClock(pixelY float64) (hour, minute int) {
	rawMinutes := pixelY / float64(m.cfg.HourHeight) * 60.0
	snapped := SnapToGrid(rawMinutes, m.cfg.SnapMinutes)

	total := m.cfg.StartHour*60 + snapped
	if total < m.cfg.StartHour*60 {
		total = m.cfg.StartHour * 60
	}
	if total > m.cfg.EndHour*60 {
		total = m.cfg.EndHour * 60
	}
	return total / 60, total % 60
}

// EventHeight returns the rendered pixel height for a duration, clamped to
// MinEventHeight.
func (m *Mapper) EventHeight(d time.Duration) float64 {
	px := d.Minutes() / 60.0 * float64(m.cfg.HourHeight)
	if px < MinEventHeight {
		return MinEventHeight
	}
	return px
}

// SnapToGrid rounds minutes-from-grid-start to the nearest multiple of
// granularity, round half up. It panics on a non-positive granularity.
func SnapToGrid(minutes float64, granularity int) int {
	if granularity <= 0 {
		panic(fmt.Sprintf("grid: non-positive snap granularity %d", granularity))
	}
	g := float64(granularity)
	return int(math.Floor(minutes/g+0.5)) * granularity
}
