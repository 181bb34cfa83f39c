package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/settings"
	"sitepulse/internal/sites"
	"sitepulse/internal/visitors"
)

// MalformedPayloadError represents a collect request missing required fields
type MalformedPayloadError struct {
	Field string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: missing %s", e.Field)
}

// NewMalformedPayloadError creates a new MalformedPayloadError
func NewMalformedPayloadError(field string) *MalformedPayloadError {
	return &MalformedPayloadError{Field: field}
}

// CollectEventInput defines the input required to collect an event.
type CollectEventInput struct {
	SiteID        string
	VisitorID     string
	EventType     string
	PageURL       string
	PageTitle     string
	Referrer      string
	UserAgent     string
	IPAddress     string
	Language      string
	Platform      string
	ScreenSize    string
	Timezone      string
	ClickedURL    string
	IsExternal    bool
	ScrollPercent *int
}

// CollectEvent validates the payload and persists it: one visitor upsert and
// one event append in a single transaction, so either both land or neither
// does. Returns the stored event on success, nil when the event was filtered
// (excluded IP).
func CollectEvent(dbManager cartridge.DBManager, logger *slog.Logger, input *CollectEventInput) (*Event, error) {
	if input.SiteID == "" {
		return nil, NewMalformedPayloadError("siteId")
	}
	if input.VisitorID == "" {
		return nil, NewMalformedPayloadError("visitorId")
	}

	db := dbManager.GetConnection()

	exists, err := sites.SiteExists(db, input.SiteID)
	if err != nil {
		logger.Error("Failed to validate site", slog.Any("error", err))
		return nil, err
	}
	if !exists {
		return nil, sites.NewSiteNotFoundError(input.SiteID)
	}

	excluded, err := settings.IsIPExcluded(db, input.IPAddress)
	if err != nil {
		logger.Error("Error checking IP exclusion", slog.Any("error", err))
	} else if excluded {
		logger.Debug("Skipping event for excluded IP", slog.String("ip", input.IPAddress))
		return nil, nil
	}

	event := buildEvent(input, time.Now().UTC())

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := visitors.Upsert(tx, input.SiteID, input.VisitorID, event.CreatedAt); err != nil {
			return err
		}
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to store event", slog.Any("error", err))
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	return event, nil
}

func buildEvent(input *CollectEventInput, now time.Time) *Event {
	eventType := input.EventType
	if eventType == "" {
		eventType = EventTypePageView
	}

	userAgent := input.UserAgent
	if userAgent == "" {
		userAgent = "Unknown User Agent"
	}

	scrollPercent := input.ScrollPercent
	if scrollPercent != nil {
		clamped := *scrollPercent
		if clamped < 0 {
			clamped = 0
		}
		if clamped > 100 {
			clamped = 100
		}
		scrollPercent = &clamped
	}

	return &Event{
		SiteID:        input.SiteID,
		VisitorID:     input.VisitorID,
		EventType:     eventType,
		PageURL:       input.PageURL,
		PageTitle:     input.PageTitle,
		Referrer:      input.Referrer,
		UserAgent:     userAgent,
		IPAddress:     input.IPAddress,
		Language:      input.Language,
		Platform:      input.Platform,
		ScreenSize:    input.ScreenSize,
		Timezone:      input.Timezone,
		ClickedURL:    input.ClickedURL,
		IsExternal:    input.IsExternal,
		ScrollPercent: scrollPercent,
		CreatedAt:     now,
	}
}
