package entity

// Impact is the severity axe-core assigns to a violated rule.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

// Penalty weights subtracted from a perfect score, per violated rule.
const (
	WeightCritical = 10
	WeightSerious  = 5
	WeightModerate = 2
	WeightMinor    = 1

	MaxScore = 100
)

// ViolationNode is one DOM node affected by a violation.
type ViolationNode struct {
	Target         []string `json:"target"`
	HTML           string   `json:"html"`
	FailureSummary string   `json:"failureSummary,omitempty"`
}

// Violation is a single violated accessibility rule as reported by axe-core.
type Violation struct {
	ID          string          `json:"id"`
	Impact      Impact          `json:"impact"`
	Description string          `json:"description,omitempty"`
	Help        string          `json:"help"`
	HelpURL     string          `json:"helpUrl,omitempty"`
	Nodes       []ViolationNode `json:"nodes"`
}

// ScanResult is what the page scanner hands back for one URL.
type ScanResult struct {
	Score          int
	Issues         int
	ImpactCritical int
	ImpactSerious  int
	ImpactModerate int
	ImpactMinor    int
	Violations     []Violation
	Title          string
}

// NewScanResult tallies violations by impact and computes the score.
func NewScanResult(title string, violations []Violation) *ScanResult {
	if violations == nil {
		violations = []Violation{}
	}
	r := &ScanResult{
		Title:      title,
		Violations: violations,
		Issues:     len(violations),
	}
	for _, v := range violations {
		switch v.Impact {
		case ImpactCritical:
			r.ImpactCritical++
		case ImpactSerious:
			r.ImpactSerious++
		case ImpactModerate:
			r.ImpactModerate++
		case ImpactMinor:
			r.ImpactMinor++
		}
	}
	r.Score = ComputeScore(r.ImpactCritical, r.ImpactSerious, r.ImpactModerate, r.ImpactMinor)
	return r
}

// ComputeScore returns 100 minus the weighted penalty, floored at 0.
func ComputeScore(critical, serious, moderate, minor int) int {
	penalty := critical*WeightCritical + serious*WeightSerious + moderate*WeightModerate + minor*WeightMinor
	if penalty > MaxScore {
		penalty = MaxScore
	}
	if penalty < 0 {
		penalty = 0
	}
	return MaxScore - penalty
}
