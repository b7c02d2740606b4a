package engine

import (
	"fmt"
	"sort"
)

const defaultMaxBlockHours = 3

// BuildModel transforms validated catalog records into the immutable
// constraint model consumed by Solve. It fails fast: a configuration
// with zero valid slots or a section with no feasible room never
// reaches the search.
func BuildModel(rooms []Room, sections []Section, faculty []Faculty, cfg Config) (*Model, error) {
	if cfg.OperatingEnd <= cfg.OperatingStart {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("operating hours %d-%d contain no teachable time", cfg.OperatingStart, cfg.OperatingEnd)}
	}
	if cfg.MaxBlockHours <= 0 {
		cfg.MaxBlockHours = defaultMaxBlockHours
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}

	days := teachableDays(cfg.Days, cfg.OnlineDays)
	if len(days) == 0 {
		return nil, &ConfigurationError{Reason: "every teaching day is flagged online-only"}
	}

	activeRooms := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Active {
			activeRooms = append(activeRooms, room)
		}
	}
	if len(activeRooms) == 0 {
		return nil, &ConfigurationError{Reason: "no active rooms available"}
	}
	sort.Slice(activeRooms, func(i, j int) bool { return activeRooms[i].ID < activeRooms[j].ID })

	facultyIndex := make(map[string]Faculty, len(faculty))
	for _, f := range faculty {
		facultyIndex[f.ID] = f
	}

	var units []DemandUnit
	var issues []SectionIssue
	for _, section := range sections {
		if section.LectureHours+section.LabHours <= 0 {
			issues = append(issues, SectionIssue{
				SectionID:  section.ID,
				CourseCode: section.CourseCode,
				Reason:     "section requests zero instructional hours",
			})
			continue
		}

		sectionUnits := splitSection(section, cfg.MaxBlockHours)
		feasible := true
		for i := range sectionUnits {
			unit := &sectionUnits[i]
			if unit.Hours > cfg.OperatingEnd-cfg.OperatingStart {
				issues = append(issues, SectionIssue{
					SectionID:  section.ID,
					CourseCode: section.CourseCode,
					Reason:     fmt.Sprintf("%d-hour block exceeds the operating window", unit.Hours),
				})
				feasible = false
				break
			}
			unit.candidateRooms = candidateRooms(activeRooms, *unit)
			if len(unit.candidateRooms) == 0 {
				issues = append(issues, SectionIssue{
					SectionID:  section.ID,
					CourseCode: section.CourseCode,
					Reason:     fmt.Sprintf("no room satisfies capacity %d and required features for %s block", unit.StudentCount, unit.Type),
				})
				feasible = false
				break
			}
		}
		if !feasible {
			continue
		}
		units = append(units, sectionUnits...)
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	if len(units) == 0 {
		return nil, &ConfigurationError{Reason: "no demand units to schedule"}
	}
	for i := range units {
		units[i].Index = i
	}

	return &Model{
		Rooms:   activeRooms,
		Units:   units,
		Faculty: facultyIndex,
		Days:    days,
		Start:   cfg.OperatingStart,
		End:     cfg.OperatingEnd,
		Config:  cfg,
	}, nil
}

// splitSection converts a section's weekly hours into contiguous demand
// units. Each block type yields one block, split in two near-equal
// halves when it exceeds maxBlock hours.
func splitSection(section Section, maxBlock int) []DemandUnit {
	var units []DemandUnit
	appendBlocks := func(hours int, blockType BlockType, features Feature) {
		if hours <= 0 {
			return
		}
		blocks := []int{hours}
		if hours > maxBlock {
			first := (hours + 1) / 2
			blocks = []int{first, hours - first}
		}
		for _, h := range blocks {
			units = append(units, DemandUnit{
				SectionID:    section.ID,
				CourseCode:   section.CourseCode,
				Label:        section.Label,
				Type:         blockType,
				Hours:        h,
				StudentCount: section.StudentCount,
				Features:     features,
				FacultyID:    section.FacultyID,
			})
		}
	}
	appendBlocks(section.LectureHours, BlockLecture, section.LectureFeatures)
	appendBlocks(section.LabHours, BlockLab, section.LabFeatures)
	return units
}

func candidateRooms(rooms []Room, unit DemandUnit) []int {
	var candidates []int
	for i, room := range rooms {
		if room.Capacity < unit.StudentCount {
			continue
		}
		if !room.Features.HasAll(unit.Features) {
			continue
		}
		candidates = append(candidates, i)
	}
	return candidates
}

func teachableDays(days, onlineDays []Day) []Day {
	if len(days) == 0 {
		days = []Day{1, 2, 3, 4, 5}
	}
	online := make(map[Day]struct{}, len(onlineDays))
	for _, d := range onlineDays {
		online[d] = struct{}{}
	}
	seen := make(map[Day]struct{}, len(days))
	var result []Day
	for _, d := range days {
		if d < 1 || d > 7 {
			continue
		}
		if _, blocked := online[d]; blocked {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
