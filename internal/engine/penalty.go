package engine

import "sort"

// Penalty computes the weighted soft-constraint cost of a full
// assignment. Lower is better; zero means every preference is met.
// The components never block a solution, they only rank candidates.
func Penalty(m *Model, placements []Placement) float64 {
	w := m.Config.Weights
	total := 0.0
	total += w.Preference * preferencePenalty(m, placements)
	total += w.Gap * gapPenalty(placements)
	total += w.Balance * balancePenalty(m, placements)
	total += w.Continuity * continuityPenalty(placements)
	return total
}

// preferencePenalty charges each placed hour falling outside every
// declared preferred window of its faculty.
func preferencePenalty(m *Model, placements []Placement) float64 {
	penalty := 0.0
	for _, p := range placements {
		if p.FacultyID == "" {
			continue
		}
		faculty, ok := m.Faculty[p.FacultyID]
		if !ok || len(faculty.Preferred) == 0 {
			continue
		}
		matched := false
		for _, window := range faculty.Preferred {
			if window.Contains(p.Day, p.StartHour, p.EndHour) {
				matched = true
				break
			}
		}
		if !matched {
			penalty += float64(p.EndHour - p.StartHour)
		}
	}
	return penalty
}

// gapPenalty sums idle hours between a faculty's first and last block
// of each day.
func gapPenalty(placements []Placement) float64 {
	type facultyDay struct {
		faculty string
		day     Day
	}
	byDay := make(map[facultyDay][]Placement)
	var keys []facultyDay
	for _, p := range placements {
		if p.FacultyID == "" {
			continue
		}
		key := facultyDay{faculty: p.FacultyID, day: p.Day}
		if _, seen := byDay[key]; !seen {
			keys = append(keys, key)
		}
		byDay[key] = append(byDay[key], p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].faculty == keys[j].faculty {
			return keys[i].day < keys[j].day
		}
		return keys[i].faculty < keys[j].faculty
	})

	penalty := 0.0
	for _, key := range keys {
		blocks := byDay[key]
		if len(blocks) < 2 {
			continue
		}
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].StartHour < blocks[j].StartHour })
		for i := 0; i < len(blocks)-1; i++ {
			gap := blocks[i+1].StartHour - blocks[i].EndHour
			if gap > 0 {
				penalty += float64(gap)
			}
		}
	}
	return penalty
}

// balancePenalty measures how unevenly teaching hours spread across
// buildings, as total deviation from the per-building mean.
func balancePenalty(m *Model, placements []Placement) float64 {
	buildings := make(map[string]struct{})
	for _, room := range m.Rooms {
		buildings[room.Building] = struct{}{}
	}
	if len(buildings) < 2 {
		return 0
	}

	hours := make(map[string]float64, len(buildings))
	total := 0.0
	for _, p := range placements {
		h := float64(p.EndHour - p.StartHour)
		hours[p.Building] += h
		total += h
	}
	mean := total / float64(len(buildings))

	names := make([]string, 0, len(buildings))
	for name := range buildings {
		names = append(names, name)
	}
	sort.Strings(names)

	penalty := 0.0
	for _, name := range names {
		diff := hours[name] - mean
		if diff < 0 {
			diff = -diff
		}
		penalty += diff
	}
	return penalty / 2
}

// continuityPenalty charges each extra distinct room a section meets in
// beyond its first.
func continuityPenalty(placements []Placement) float64 {
	rooms := make(map[string]map[string]struct{})
	var sections []string
	for _, p := range placements {
		if rooms[p.SectionID] == nil {
			rooms[p.SectionID] = make(map[string]struct{})
			sections = append(sections, p.SectionID)
		}
		rooms[p.SectionID][p.RoomID] = struct{}{}
	}
	sort.Strings(sections)

	penalty := 0.0
	for _, section := range sections {
		if extra := len(rooms[section]) - 1; extra > 0 {
			penalty += float64(extra)
		}
	}
	return penalty
}
