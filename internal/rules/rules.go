// Package rules stores the DOM-selector tracking rules a site
// configures for custom interaction tracking, and correlates those
// rules against the raw event log.
package rules

import (
	"fmt"
	"time"

	"sitepulse/internal/sites"

	"gorm.io/gorm"
)

// RuleNotFoundError indicates a missing tracking rule.
type RuleNotFoundError struct {
	RuleID uint
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("tracking rule not found: %d", e.RuleID)
}

// NotOwnerError indicates a rule mutation attempted by a caller who
// does not own the site.
type NotOwnerError struct {
	SiteID string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("caller does not own site: %s", e.SiteID)
}

// TrackingRule maps a DOM selector to a user-assigned event name.
// Rules relate to events by event_type/event_name equality only; there
// is no referential integrity, so renaming event_name orphans the
// rule's historical trigger counts.
type TrackingRule struct {
	ID        uint   `gorm:"primarykey"`
	SiteID    string `gorm:"size:64;index;not null"`
	Selector  string `gorm:"not null"`
	EventType string `gorm:"not null;default:click"`
	EventName string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}

// AddRule creates a rule after verifying the caller owns the site.
func AddRule(db *gorm.DB, userID uint, siteID, selector, eventType, eventName string) (*TrackingRule, error) {
	owner, err := sites.IsOwner(db, siteID, userID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, &NotOwnerError{SiteID: siteID}
	}

	if eventType == "" {
		eventType = "click"
	}
	rule := &TrackingRule{
		SiteID:    siteID,
		Selector:  selector,
		EventType: eventType,
		EventName: eventName,
		Active:    true,
	}
	if err := db.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("error creating tracking rule: %w", err)
	}
	return rule, nil
}

// SetActive toggles a rule's active flag under the same ownership
// check as AddRule.
func SetActive(db *gorm.DB, userID uint, ruleID uint, active bool) error {
	var rule TrackingRule
	if err := db.First(&rule, ruleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &RuleNotFoundError{RuleID: ruleID}
		}
		return err
	}
	owner, err := sites.IsOwner(db, rule.SiteID, userID)
	if err != nil {
		return err
	}
	if !owner {
		return &NotOwnerError{SiteID: rule.SiteID}
	}
	return db.Model(&rule).Update("active", active).Error
}

// ListActiveRules returns the active rules for a site. This feeds the
// public snippet endpoint and requires no authentication.
func ListActiveRules(db *gorm.DB, siteID string) ([]TrackingRule, error) {
	var result []TrackingRule
	err := db.Where("site_id = ? AND active = ?", siteID, true).
		Order("id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListRules returns all rules for a site, active or not, for the
// management UI.
func ListRules(db *gorm.DB, siteID string) ([]TrackingRule, error) {
	var result []TrackingRule
	err := db.Where("site_id = ?", siteID).Order("id ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RuleAnalysis is one rule's trigger correlation against the raw log.
type RuleAnalysis struct {
	Rule        TrackingRule `json:"rule"`
	Triggers    int64        `json:"triggers"`
	LastTrigger *time.Time   `json:"last_trigger"`
}

// AnalyzeRules joins each rule's event_name against the event log's
// event_type to count triggers and find the most recent one. The join
// is name equality, best effort.
func AnalyzeRules(db *gorm.DB, siteID string) ([]RuleAnalysis, error) {
	ruleList, err := ListRules(db, siteID)
	if err != nil {
		return nil, err
	}

	analyses := make([]RuleAnalysis, len(ruleList))
	for i, rule := range ruleList {
		var row struct {
			Triggers    int64
			LastTrigger *time.Time
		}
		err := db.Raw(`
            SELECT COUNT(*) AS triggers, MAX(created_at) AS last_trigger
            FROM events
            WHERE site_id = ? AND event_type = ?
        `, siteID, rule.EventName).Scan(&row).Error
		if err != nil {
			return nil, fmt.Errorf("error analyzing rule %d: %w", rule.ID, err)
		}
		analyses[i] = RuleAnalysis{
			Rule:        rule,
			Triggers:    row.Triggers,
			LastTrigger: row.LastTrigger,
		}
	}

	return analyses, nil
}
