package analytics

import (
	"context"
	"fmt"
	"time"

	"sitepulse/internal/pkg/async"

	"github.com/pariz/gountries"
	"gorm.io/gorm"
)

// TechReport carries the device/browser breakdowns served by the tech
// endpoint.
type TechReport struct {
	Browsers         []MetricCountResult `json:"browsers"`
	OperatingSystems []MetricCountResult `json:"operating_systems"`
	DeviceTypes      []MetricCountResult `json:"device_types"`
	ScreenSizes      []MetricCountResult `json:"screen_sizes"`
	Countries        []MetricCountResult `json:"countries"`
}

const techBreakdownLimit = 20

var countryQuery = gountries.New()

func topTechColumn(db *gorm.DB, scope Scope, from, to time.Time, column string) ([]MetricCountResult, error) {
	var rows []struct {
		Name  string
		Count int64
	}

	query := fmt.Sprintf(`
        SELECT %s AS name, COUNT(DISTINCT visitor_id) AS count
        FROM tech_snapshots
        WHERE site_id IN ?
            AND created_at >= ? AND created_at < ?
            AND %s != ''
        GROUP BY %s
        ORDER BY count DESC
        LIMIT ?
    `, column, column, column)

	err := db.Raw(query, []string(scope), from.UTC(), to.UTC(), techBreakdownLimit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top %s: %w", column, err)
	}

	results := make([]MetricCountResult, len(rows))
	for i, r := range rows {
		results[i] = MetricCountResult{Name: r.Name, Count: r.Count}
	}
	return results, nil
}

// TopBrowsers returns distinct-visitor counts per browser.
func TopBrowsers(db *gorm.DB, scope Scope, from, to time.Time) ([]MetricCountResult, error) {
	return topTechColumn(db, scope, from, to, "browser")
}

// TopOperatingSystems returns distinct-visitor counts per OS.
func TopOperatingSystems(db *gorm.DB, scope Scope, from, to time.Time) ([]MetricCountResult, error) {
	return topTechColumn(db, scope, from, to, "operating_system")
}

// TopDeviceTypes returns distinct-visitor counts per device category.
func TopDeviceTypes(db *gorm.DB, scope Scope, from, to time.Time) ([]MetricCountResult, error) {
	return topTechColumn(db, scope, from, to, "device_type")
}

// TopScreenSizes returns distinct-visitor counts per screen resolution.
func TopScreenSizes(db *gorm.DB, scope Scope, from, to time.Time) ([]MetricCountResult, error) {
	return topTechColumn(db, scope, from, to, "screen_size")
}

// TopCountries returns distinct-visitor counts per country, resolving
// stored ISO alpha-2 codes to display names.
func TopCountries(db *gorm.DB, scope Scope, from, to time.Time) ([]MetricCountResult, error) {
	rows, err := topTechColumn(db, scope, from, to, "country")
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if country, err := countryQuery.FindCountryByAlpha(r.Name); err == nil {
			rows[i].Name = country.Name.Common
		}
	}
	return rows, nil
}

// GetTechReport computes all breakdowns concurrently. Any failure
// fails the whole call.
func GetTechReport(ctx context.Context, db *gorm.DB, scope Scope, from, to time.Time) (*TechReport, error) {
	tasks := []async.Task{
		{Name: "browsers", Execute: func() (interface{}, error) {
			return TopBrowsers(db, scope, from, to)
		}},
		{Name: "operating_systems", Execute: func() (interface{}, error) {
			return TopOperatingSystems(db, scope, from, to)
		}},
		{Name: "device_types", Execute: func() (interface{}, error) {
			return TopDeviceTypes(db, scope, from, to)
		}},
		{Name: "screen_sizes", Execute: func() (interface{}, error) {
			return TopScreenSizes(db, scope, from, to)
		}},
		{Name: "countries", Execute: func() (interface{}, error) {
			return TopCountries(db, scope, from, to)
		}},
	}

	results := pool().Execute(ctx, tasks)
	if len(results) != len(tasks) {
		return nil, ctx.Err()
	}
	if err := async.FirstError(results); err != nil {
		return nil, fmt.Errorf("error computing tech report: %w", err)
	}

	return &TechReport{
		Browsers:         results["browsers"].Data.([]MetricCountResult),
		OperatingSystems: results["operating_systems"].Data.([]MetricCountResult),
		DeviceTypes:      results["device_types"].Data.([]MetricCountResult),
		ScreenSizes:      results["screen_sizes"].Data.([]MetricCountResult),
		Countries:        results["countries"].Data.([]MetricCountResult),
	}, nil
}
