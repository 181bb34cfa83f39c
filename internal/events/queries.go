package events

import (
	"time"

	"gorm.io/gorm"
)

// EventsInWindow returns all events for the given sites with
// created_at in [from, to), ordered by creation. This is the scan the
// in-memory aggregation stages reduce over; cost is O(events-in-window).
func EventsInWindow(db *gorm.DB, siteIDs []string, from, to time.Time) ([]Event, error) {
	var result []Event
	err := db.Where("site_id IN ? AND created_at >= ? AND created_at < ?", siteIDs, from, to).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountEventsOfType counts events of one type across the given sites in
// [from, to).
func CountEventsOfType(db *gorm.DB, siteIDs []string, eventType string, from, to time.Time) (int64, error) {
	var count int64
	err := db.Model(&Event{}).
		Where("site_id IN ? AND event_type = ? AND created_at >= ? AND created_at < ?",
			siteIDs, eventType, from, to).
		Count(&count).Error
	return count, err
}

// CountDistinctVisitors counts distinct visitors with at least one event
// across the given sites in [from, to).
func CountDistinctVisitors(db *gorm.DB, siteIDs []string, from, to time.Time) (int64, error) {
	var count int64
	err := db.Model(&Event{}).
		Where("site_id IN ? AND created_at >= ? AND created_at < ?", siteIDs, from, to).
		Distinct("visitor_id").
		Count(&count).Error
	return count, err
}

// EventFilters represents filtering options for the raw event listing
type EventFilters struct {
	SiteIDs   []string
	FromDate  time.Time
	ToDate    time.Time
	URLFilter string
	Type      string
	Limit     int
	Offset    int
}

// EventsResult represents a paginated events result
type EventsResult struct {
	Events []Event
	Total  int64
}

// GetFilteredEvents retrieves filtered and paginated raw events, newest
// first. Used by the management listing, not by the aggregations.
func GetFilteredEvents(db *gorm.DB, filters EventFilters) (EventsResult, error) {
	query := db.Model(&Event{}).
		Where("site_id IN ?", filters.SiteIDs).
		Where("created_at >= ? AND created_at < ?", filters.FromDate, filters.ToDate)

	if filters.URLFilter != "" {
		query = query.Where("page_url LIKE ?", "%"+filters.URLFilter+"%")
	}
	if filters.Type != "" {
		query = query.Where("event_type = ?", filters.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return EventsResult{}, err
	}

	var page []Event
	if err := query.Order("created_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&page).Error; err != nil {
		return EventsResult{}, err
	}

	return EventsResult{Events: page, Total: total}, nil
}
