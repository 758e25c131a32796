package ai

import "fmt"

// Schedule is an ordered task list plus the conditions that interrupt it.
// Modules declare schedules with local ids; AddModule stores them translated.
type Schedule struct {
	ID         ScheduleID
	Name       string
	Tasks      []Task
	Interrupts []ConditionID
}

// ScheduleBook maps global schedule ids to definitions.
type ScheduleBook struct {
	byID map[ScheduleID]*Schedule
}

// NewScheduleBook creates an empty book.
func NewScheduleBook() *ScheduleBook {
	return &ScheduleBook{byID: make(map[ScheduleID]*Schedule)}
}

// Define adds a schedule. Defining the same id twice is a setup mistake and panics.
func (b *ScheduleBook) Define(s Schedule) {
	if s.ID == SchedNone {
		panic(fmt.Sprintf("ai: schedule %q defined with id none", s.Name))
	}
	if prev, ok := b.byID[s.ID]; ok {
		panic(fmt.Sprintf("ai: schedule %d defined twice (%q and %q)", s.ID, prev.Name, s.Name))
	}
	b.byID[s.ID] = &s
}

// Lookup returns the schedule with the given global id.
func (b *ScheduleBook) Lookup(id ScheduleID) (*Schedule, bool) {
	s, ok := b.byID[id]
	return s, ok
}

// Len returns number of defined schedules.
func (b *ScheduleBook) Len() int {
	return len(b.byID)
}
