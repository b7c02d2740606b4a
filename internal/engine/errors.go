package engine

import (
	"fmt"
	"strings"
)

// SectionIssue names a section that cannot enter the scheduler and why.
type SectionIssue struct {
	SectionID  string `json:"section_id"`
	CourseCode string `json:"course_code"`
	Reason     string `json:"reason"`
}

// ValidationError reports infeasible input data before a run starts.
type ValidationError struct {
	Issues []SectionIssue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "invalid scheduling input"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", issue.SectionID, issue.CourseCode, issue.Reason))
	}
	return "infeasible sections: " + strings.Join(parts, "; ")
}

// ConfigurationError reports a run configuration that leaves zero valid slots.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "invalid scheduling configuration"
	}
	return "scheduling configuration: " + e.Reason
}

// UnplaceableSectionError reports demand units the search could not place.
// The run still completes; Result carries the partial solution.
type UnplaceableSectionError struct {
	Unplaced []UnplacedUnit
}

func (e *UnplaceableSectionError) Error() string {
	if e == nil || len(e.Unplaced) == 0 {
		return "no unplaceable sections"
	}
	parts := make([]string, 0, len(e.Unplaced))
	for _, u := range e.Unplaced {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", u.SectionID, u.Type, u.Reason))
	}
	return "unplaceable demand units: " + strings.Join(parts, "; ")
}
