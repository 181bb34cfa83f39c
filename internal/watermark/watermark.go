// Package watermark tracks how far external batch jobs have processed
// the event log. The collector never waits on a watermark; live
// aggregations read the raw log directly.
package watermark

import (
	"time"

	"gorm.io/gorm"
)

// Watermark is a named progress marker.
type Watermark struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"uniqueIndex;not null"`
	LastEventID uint   `gorm:"not null;default:0"`
	LastEventAt time.Time
	UpdatedAt   time.Time
}

// Get returns the marker for a job name. A never-advanced marker comes
// back zero-valued rather than as an error.
func Get(db *gorm.DB, name string) (*Watermark, error) {
	var w Watermark
	err := db.Where("name = ?", name).First(&w).Error
	if err == gorm.ErrRecordNotFound {
		return &Watermark{Name: name}, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Advance moves a marker forward to the given event. Markers never
// move backward; a stale advance is a no-op.
func Advance(db *gorm.DB, name string, lastEventID uint, lastEventAt time.Time) error {
	return db.Exec(`
		INSERT INTO watermarks (name, last_event_id, last_event_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			last_event_id = excluded.last_event_id,
			last_event_at = excluded.last_event_at,
			updated_at = excluded.updated_at
		WHERE excluded.last_event_id > watermarks.last_event_id
	`, name, lastEventID, lastEventAt.UTC(), time.Now().UTC()).Error
}

// Lag returns how far the marker trails the newest event, as the
// number of unprocessed events. Zero events means zero lag.
func Lag(db *gorm.DB, name string) (int64, error) {
	w, err := Get(db, name)
	if err != nil {
		return 0, err
	}
	var lag int64
	err = db.Raw(`SELECT COUNT(*) FROM events WHERE id > ?`, w.LastEventID).Scan(&lag).Error
	return lag, err
}
