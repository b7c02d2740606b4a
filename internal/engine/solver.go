package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

const (
	defaultIterationBudget = 20000
	defaultInitialTemp     = 12.0
	defaultCoolingRate     = 0.997
	cancelCheckInterval    = 128
)

// Solve assigns every demand unit a (room, day, hour range) honouring
// all hard constraints, then lowers the soft-constraint penalty with a
// seeded annealing pass. The search is deterministic for an identical
// (model, seed) pair and returns the best state found so far when the
// context is cancelled.
func Solve(ctx context.Context, m *Model) (*Result, error) {
	if m == nil || len(m.Units) == 0 {
		return nil, &ConfigurationError{Reason: "empty model"}
	}

	cfg := m.Config
	if cfg.IterationBudget <= 0 {
		cfg.IterationBudget = defaultIterationBudget
	}
	if cfg.InitialTemp <= 0 {
		cfg.InitialTemp = defaultInitialTemp
	}
	if cfg.CoolingRate <= 0 || cfg.CoolingRate >= 1 {
		cfg.CoolingRate = defaultCoolingRate
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))
	state := newSolverState(m)

	state.greedyConstruct()
	iterations := state.anneal(ctx, rng, cfg)

	result := state.export()
	result.Iterations = iterations
	result.Seed = cfg.Seed
	result.Elapsed = time.Since(start)
	return result, nil
}

type solverState struct {
	model    *Model
	assigned []*Placement
	occ      *Occupancy
	reasons  []map[string]int

	bestAssigned []*Placement
	bestPlaced   int
	bestPenalty  float64
}

func newSolverState(m *Model) *solverState {
	return &solverState{
		model:    m,
		assigned: make([]*Placement, len(m.Units)),
		occ:      NewOccupancy(),
		reasons:  make([]map[string]int, len(m.Units)),
	}
}

// greedyConstruct places units most-constrained-first: fewest candidate
// rooms, then largest enrolment and longest blocks.
func (s *solverState) greedyConstruct() {
	order := make([]int, len(s.model.Units))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ua, ub := s.model.Units[order[a]], s.model.Units[order[b]]
		if len(ua.candidateRooms) != len(ub.candidateRooms) {
			return len(ua.candidateRooms) < len(ub.candidateRooms)
		}
		if ua.StudentCount != ub.StudentCount {
			return ua.StudentCount > ub.StudentCount
		}
		if ua.Hours != ub.Hours {
			return ua.Hours > ub.Hours
		}
		return ua.Index < ub.Index
	})

	for _, idx := range order {
		s.placeFirstFeasible(idx)
	}
	s.snapshot()
}

func (s *solverState) placeFirstFeasible(idx int) bool {
	unit := s.model.Units[idx]
	for _, roomIdx := range unit.candidateRooms {
		room := s.model.Rooms[roomIdx]
		for _, day := range s.model.Days {
			for hour := s.model.Start; hour+unit.Hours <= s.model.End; hour++ {
				if s.tryPlace(idx, room, day, hour) {
					return true
				}
			}
		}
	}
	return false
}

func (s *solverState) tryPlace(idx int, room Room, day Day, hour int) bool {
	unit := s.model.Units[idx]
	tr := TimeRange{StartHour: hour, EndHour: hour + unit.Hours}
	if violation := CheckPlacement(s.model, s.occ, unit, room, day, tr); violation != nil {
		s.recordReason(idx, violation.Dimension)
		return false
	}
	placement := &Placement{
		Unit:       idx,
		SectionID:  unit.SectionID,
		CourseCode: unit.CourseCode,
		Type:       unit.Type,
		RoomID:     room.ID,
		Building:   room.Building,
		Day:        day,
		StartHour:  tr.StartHour,
		EndHour:    tr.EndHour,
		FacultyID:  unit.FacultyID,
	}
	s.assigned[idx] = placement
	s.occ.Add(entryFor(placement))
	return true
}

func (s *solverState) unplace(idx int) {
	placement := s.assigned[idx]
	if placement == nil {
		return
	}
	s.occ.Remove(entryFor(placement))
	s.assigned[idx] = nil
}

func (s *solverState) recordReason(idx int, dimension string) {
	if s.reasons[idx] == nil {
		s.reasons[idx] = make(map[string]int)
	}
	s.reasons[idx][dimension]++
}

// anneal runs the iterated local search: random reassignments accepted
// when they shrink the penalty, or probabilistically while the
// temperature is high. Placing a previously unplaced unit always wins.
func (s *solverState) anneal(ctx context.Context, rng *rand.Rand, cfg Config) int {
	temp := cfg.InitialTemp
	penalty := Penalty(s.model, s.placements())
	s.bestPenalty = penalty

	iterations := 0
	for ; iterations < cfg.IterationBudget; iterations++ {
		if iterations%cancelCheckInterval == 0 && ctx.Err() != nil {
			break
		}

		if unplaced := s.unplacedIndexes(); len(unplaced) > 0 && iterations%4 == 0 {
			idx := unplaced[rng.Intn(len(unplaced))]
			if s.placeFirstFeasible(idx) {
				penalty = Penalty(s.model, s.placements())
				s.snapshot()
			}
			temp *= cfg.CoolingRate
			continue
		}

		placed := s.placedIndexes()
		if len(placed) == 0 {
			break
		}
		idx := placed[rng.Intn(len(placed))]
		unit := s.model.Units[idx]
		previous := *s.assigned[idx]
		s.unplace(idx)

		room := s.model.Rooms[unit.candidateRooms[rng.Intn(len(unit.candidateRooms))]]
		day := s.model.Days[rng.Intn(len(s.model.Days))]
		span := s.model.End - s.model.Start - unit.Hours
		if span < 0 {
			span = 0
		}
		hour := s.model.Start
		if span > 0 {
			hour += rng.Intn(span + 1)
		}

		if !s.tryPlace(idx, room, day, hour) {
			s.restore(idx, previous)
			temp *= cfg.CoolingRate
			continue
		}

		candidate := Penalty(s.model, s.placements())
		delta := candidate - penalty
		if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
			penalty = candidate
			if s.placedCount() > s.bestPlaced || (s.placedCount() == s.bestPlaced && penalty < s.bestPenalty) {
				s.snapshot()
			}
		} else {
			s.unplace(idx)
			s.restore(idx, previous)
		}
		temp *= cfg.CoolingRate
	}
	return iterations
}

func (s *solverState) restore(idx int, placement Placement) {
	restored := placement
	s.assigned[idx] = &restored
	s.occ.Add(entryFor(&restored))
}

func (s *solverState) placements() []Placement {
	result := make([]Placement, 0, len(s.assigned))
	for _, p := range s.assigned {
		if p != nil {
			result = append(result, *p)
		}
	}
	return result
}

func (s *solverState) placedIndexes() []int {
	var result []int
	for i, p := range s.assigned {
		if p != nil {
			result = append(result, i)
		}
	}
	return result
}

func (s *solverState) unplacedIndexes() []int {
	var result []int
	for i, p := range s.assigned {
		if p == nil {
			result = append(result, i)
		}
	}
	return result
}

func (s *solverState) placedCount() int {
	count := 0
	for _, p := range s.assigned {
		if p != nil {
			count++
		}
	}
	return count
}

func (s *solverState) snapshot() {
	s.bestAssigned = make([]*Placement, len(s.assigned))
	for i, p := range s.assigned {
		if p != nil {
			clone := *p
			s.bestAssigned[i] = &clone
		}
	}
	s.bestPlaced = s.placedCount()
	s.bestPenalty = Penalty(s.model, s.placements())
}

// export builds the immutable result from the best snapshot. Every
// demand unit appears exactly once, placed or reported unplaced.
func (s *solverState) export() *Result {
	assigned := s.bestAssigned
	if assigned == nil {
		assigned = s.assigned
	}

	result := &Result{}
	for i, p := range assigned {
		if p != nil {
			result.Placements = append(result.Placements, *p)
			continue
		}
		unit := s.model.Units[i]
		result.Unplaced = append(result.Unplaced, UnplacedUnit{
			Unit:       i,
			SectionID:  unit.SectionID,
			CourseCode: unit.CourseCode,
			Type:       unit.Type,
			Hours:      unit.Hours,
			Reason:     s.dominantReason(i),
		})
	}
	sort.Slice(result.Placements, func(a, b int) bool {
		pa, pb := result.Placements[a], result.Placements[b]
		if pa.Day != pb.Day {
			return pa.Day < pb.Day
		}
		if pa.StartHour != pb.StartHour {
			return pa.StartHour < pb.StartHour
		}
		if pa.RoomID != pb.RoomID {
			return pa.RoomID < pb.RoomID
		}
		return pa.Unit < pb.Unit
	})
	sort.Slice(result.Unplaced, func(a, b int) bool { return result.Unplaced[a].Unit < result.Unplaced[b].Unit })
	result.Penalty = s.bestPenalty
	return result
}

func (s *solverState) dominantReason(idx int) string {
	tally := s.reasons[idx]
	if len(tally) == 0 {
		return "no feasible slot within the configured grid"
	}
	dimensions := make([]string, 0, len(tally))
	for dimension := range tally {
		dimensions = append(dimensions, dimension)
	}
	sort.Strings(dimensions)
	best := dimensions[0]
	for _, dimension := range dimensions[1:] {
		if tally[dimension] > tally[best] {
			best = dimension
		}
	}
	switch best {
	case DimensionRoom:
		return "every candidate room is occupied in all remaining slots"
	case DimensionFaculty:
		return "assigned faculty is booked in all remaining slots"
	case DimensionBlocked:
		return "assigned faculty is unavailable in all remaining slots"
	case DimensionWorkload:
		return "assigned faculty has reached the weekly hour limit"
	case DimensionHours:
		return "block does not fit the operating window"
	default:
		return fmt.Sprintf("blocked by %s constraint", best)
	}
}

func entryFor(p *Placement) Entry {
	return Entry{
		Ref:       "unit-" + strconv.Itoa(p.Unit),
		SectionID: p.SectionID,
		RoomID:    p.RoomID,
		FacultyID: p.FacultyID,
		Day:       p.Day,
		Time:      TimeRange{StartHour: p.StartHour, EndHour: p.EndHour},
	}
}
