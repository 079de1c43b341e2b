package lead

import "strings"

// AllIndustries is the industry token that matches every lead.
const AllIndustries = "All"

// LeadQuery selects leads by case-insensitive substring match.
// Empty fields match everything.
type LeadQuery struct {
	Industry string
	Location string
	Source   string
	// Limit caps the number of results; zero or negative means no cap.
	Limit int
}

// Matches reports whether l satisfies the query.
func (q LeadQuery) Matches(l Lead) bool {
	return matchIndustry(l.Industry, q.Industry) &&
		ContainsFold(l.Location, q.Location) &&
		ContainsFold(l.SourceName, q.Source)
}

// TargetQuery selects targets with the same rules as LeadQuery.
type TargetQuery struct {
	Industry string
	Location string
	Source   string
}

// Matches reports whether t satisfies the query.
func (q TargetQuery) Matches(t Target) bool {
	return matchIndustry(t.Industry, q.Industry) &&
		ContainsFold(t.Location, q.Location) &&
		ContainsFold(t.SourceName, q.Source)
}

func matchIndustry(value, want string) bool {
	if want == AllIndustries {
		return true
	}
	return ContainsFold(value, want)
}

// ContainsFold reports whether substr is within s, ignoring case.
// An empty substr always matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
