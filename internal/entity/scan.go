package entity

import (
	"encoding/json"
	"time"
)

// ScanStatus is the state of a Scan record.
type ScanStatus string

const (
	ScanStatusQueued  ScanStatus = "queued"
	ScanStatusRunning ScanStatus = "running"
	ScanStatusDone    ScanStatus = "done"
	ScanStatusFailed  ScanStatus = "failed"
)

// Scan mirrors the `scans` table. PageID is nil for ad-hoc scans made outside
// a crawl. A Scan is immutable once it reaches ScanStatusDone.
type Scan struct {
	ID             int64           `json:"id"`
	SiteID         int64           `json:"site_id"`
	PageID         *int64          `json:"page_id,omitempty"`
	URL            string          `json:"url"`
	Status         ScanStatus      `json:"status"`
	Score          int             `json:"score"`
	Issues         int             `json:"issues"`
	ImpactCritical int             `json:"impact_critical"`
	ImpactSerious  int             `json:"impact_serious"`
	ImpactModerate int             `json:"impact_moderate"`
	ImpactMinor    int             `json:"impact_minor"`
	Raw            json.RawMessage `json:"raw,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ApplyResult copies the metrics of a finished scan onto the record and marks
// it done.
func (s *Scan) ApplyResult(r *ScanResult) error {
	raw, err := json.Marshal(r.Violations)
	if err != nil {
		return err
	}
	s.Status = ScanStatusDone
	s.Score = r.Score
	s.Issues = r.Issues
	s.ImpactCritical = r.ImpactCritical
	s.ImpactSerious = r.ImpactSerious
	s.ImpactModerate = r.ImpactModerate
	s.ImpactMinor = r.ImpactMinor
	s.Raw = raw
	s.FailureReason = ""
	return nil
}
