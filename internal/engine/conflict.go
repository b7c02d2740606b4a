package engine

// Conflict dimensions reported by CheckPlacement. The override layer
// reuses the same predicate so live checks can never diverge from the
// solver's notion of a collision.
const (
	DimensionRoom     = "ROOM"
	DimensionFaculty  = "FACULTY"
	DimensionHours    = "OPERATING_HOURS"
	DimensionBlocked  = "FACULTY_UNAVAILABLE"
	DimensionWorkload = "FACULTY_WEEKLY_HOURS"
	DimensionCapacity = "CAPACITY"
	DimensionFeatures = "FEATURES"
)

// Entry is one occupied slot inside an Occupancy index.
type Entry struct {
	Ref       string
	SectionID string
	RoomID    string
	FacultyID string
	Day       Day
	Time      TimeRange
}

type occupancyKey struct {
	owner string
	day   Day
}

// Occupancy indexes busy time ranges by room and by faculty. It backs
// both the solver's incremental placement checks and the live override
// conflict checker.
type Occupancy struct {
	rooms   map[occupancyKey][]Entry
	faculty map[occupancyKey][]Entry
}

// NewOccupancy returns an empty index.
func NewOccupancy() *Occupancy {
	return &Occupancy{
		rooms:   make(map[occupancyKey][]Entry),
		faculty: make(map[occupancyKey][]Entry),
	}
}

// Add records an occupied slot.
func (o *Occupancy) Add(e Entry) {
	roomKey := occupancyKey{owner: e.RoomID, day: e.Day}
	o.rooms[roomKey] = append(o.rooms[roomKey], e)
	if e.FacultyID != "" {
		facultyKey := occupancyKey{owner: e.FacultyID, day: e.Day}
		o.faculty[facultyKey] = append(o.faculty[facultyKey], e)
	}
}

// Remove drops a previously added slot, matched by Ref.
func (o *Occupancy) Remove(e Entry) {
	roomKey := occupancyKey{owner: e.RoomID, day: e.Day}
	o.rooms[roomKey] = removeEntry(o.rooms[roomKey], e.Ref)
	if e.FacultyID != "" {
		facultyKey := occupancyKey{owner: e.FacultyID, day: e.Day}
		o.faculty[facultyKey] = removeEntry(o.faculty[facultyKey], e.Ref)
	}
}

func removeEntry(entries []Entry, ref string) []Entry {
	for i, entry := range entries {
		if entry.Ref == ref {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

// RoomConflict returns the first entry overlapping the range in the room.
func (o *Occupancy) RoomConflict(roomID string, day Day, tr TimeRange) (Entry, bool) {
	for _, entry := range o.rooms[occupancyKey{owner: roomID, day: day}] {
		if entry.Time.Overlaps(tr) {
			return entry, true
		}
	}
	return Entry{}, false
}

// FacultyConflict returns the first entry overlapping the range for the faculty.
func (o *Occupancy) FacultyConflict(facultyID string, day Day, tr TimeRange) (Entry, bool) {
	if facultyID == "" {
		return Entry{}, false
	}
	for _, entry := range o.faculty[occupancyKey{owner: facultyID, day: day}] {
		if entry.Time.Overlaps(tr) {
			return entry, true
		}
	}
	return Entry{}, false
}

// FacultyHours sums occupied hours for a faculty across the indexed week.
func (o *Occupancy) FacultyHours(facultyID string) int {
	total := 0
	for key, entries := range o.faculty {
		if key.owner != facultyID {
			continue
		}
		for _, entry := range entries {
			total += entry.Time.EndHour - entry.Time.StartHour
		}
	}
	return total
}

// Violation describes a failed hard constraint for a proposed placement.
type Violation struct {
	Dimension string
	Colliding *Entry
}

// CheckPlacement validates every hard constraint for placing the demand
// unit in the room at (day, tr). A nil return means the slot is legal.
func CheckPlacement(m *Model, occ *Occupancy, unit DemandUnit, room Room, day Day, tr TimeRange) *Violation {
	if tr.StartHour < m.Start || tr.EndHour > m.End {
		return &Violation{Dimension: DimensionHours}
	}
	if !containsDay(m.Days, day) {
		return &Violation{Dimension: DimensionHours}
	}
	if room.Capacity < unit.StudentCount {
		return &Violation{Dimension: DimensionCapacity}
	}
	if !room.Features.HasAll(unit.Features) {
		return &Violation{Dimension: DimensionFeatures}
	}
	if unit.FacultyID != "" {
		if faculty, ok := m.Faculty[unit.FacultyID]; ok {
			for _, window := range faculty.Unavailable {
				if window.Day == day && tr.Overlaps(TimeRange{StartHour: window.StartHour, EndHour: window.EndHour}) {
					return &Violation{Dimension: DimensionBlocked}
				}
			}
			if faculty.MaxWeeklyHours > 0 && !m.Config.IgnoreWeeklyHours {
				if occ.FacultyHours(unit.FacultyID)+tr.EndHour-tr.StartHour > faculty.MaxWeeklyHours {
					return &Violation{Dimension: DimensionWorkload}
				}
			}
		}
	}
	if entry, ok := occ.RoomConflict(room.ID, day, tr); ok {
		colliding := entry
		return &Violation{Dimension: DimensionRoom, Colliding: &colliding}
	}
	if entry, ok := occ.FacultyConflict(unit.FacultyID, day, tr); ok {
		colliding := entry
		return &Violation{Dimension: DimensionFaculty, Colliding: &colliding}
	}
	return nil
}

func containsDay(days []Day, day Day) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
