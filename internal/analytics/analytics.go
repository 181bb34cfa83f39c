// Package analytics reconstructs sessions from the raw event log and
// computes the derived metrics served by the stats endpoints. Nothing
// here persists state: every aggregation is a pure function of the
// events in its window, recomputed on each call.
package analytics

import "fmt"

// Scope is the set of site tokens a caller is authorized to query.
// It is resolved by the access layer and treated here as an opaque
// filter.
type Scope []string

// UnauthorizedSiteError indicates a requested site filter outside the
// caller's authorized scope.
type UnauthorizedSiteError struct {
	SiteID string
}

func (e *UnauthorizedSiteError) Error() string {
	return fmt.Sprintf("site not in authorized scope: %s", e.SiteID)
}

func NewUnauthorizedSiteError(siteID string) *UnauthorizedSiteError {
	return &UnauthorizedSiteError{SiteID: siteID}
}

// Contains reports whether the scope includes the given site token.
func (s Scope) Contains(siteID string) bool {
	for _, id := range s {
		if id == siteID {
			return true
		}
	}
	return false
}

// Narrow restricts the scope to a single requested site. An empty
// request leaves the scope unchanged; a site outside the scope fails
// with UnauthorizedSiteError.
func (s Scope) Narrow(siteID string) (Scope, error) {
	if siteID == "" {
		return s, nil
	}
	if !s.Contains(siteID) {
		return nil, NewUnauthorizedSiteError(siteID)
	}
	return Scope{siteID}, nil
}

// MetricCountResult is a generic name/count pair used across the
// breakdown reports.
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
