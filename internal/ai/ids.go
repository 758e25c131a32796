package ai

import "github.com/udisondev/npcmind/internal/idspace"

// ScheduleID identifies a schedule. Values below idspace.LocalBase form the
// base NPC vocabulary; module-local values are translated to global ones
// before they reach the NPC.
type ScheduleID int

// TaskID identifies a task inside a schedule.
type TaskID int

// ConditionID identifies a condition bit gathered each tick.
type ConditionID int

// SchedNone means "no schedule selected".
const SchedNone ScheduleID = 0

// TaskNone means "no task".
const TaskNone TaskID = 0

// Task is one step of a schedule. Data is a task-specific argument
// (seconds to wait, distance, sentence index).
type Task struct {
	ID   TaskID
	Data float64
}

// FailCode is an expected, data-driven task failure reason.
// It is routed through SelectFailSchedule, never treated as fatal.
type FailCode int

const (
	FailNone FailCode = iota
	FailNoRoute
	FailNoTarget
	FailTargetInvalid
	FailNoLineOfSight
	FailTimeout
	FailInterrupted
)

// String returns human-readable failure name
func (f FailCode) String() string {
	switch f {
	case FailNone:
		return "NONE"
	case FailNoRoute:
		return "NO_ROUTE"
	case FailNoTarget:
		return "NO_TARGET"
	case FailTargetInvalid:
		return "TARGET_INVALID"
	case FailNoLineOfSight:
		return "NO_LINE_OF_SIGHT"
	case FailTimeout:
		return "TIMEOUT"
	case FailInterrupted:
		return "INTERRUPTED"
	default:
		return "UNKNOWN"
	}
}

func (c *BehaviorController) schedToGlobal(m Module, id ScheduleID) ScheduleID {
	return ScheduleID(c.ids.ToGlobal(idspace.KindSchedule, m.ClassTag(), int(id)))
}

func (c *BehaviorController) schedToLocal(m Module, id ScheduleID) ScheduleID {
	return ScheduleID(c.ids.ToLocal(idspace.KindSchedule, m.ClassTag(), int(id)))
}

func (c *BehaviorController) taskToGlobal(m Module, id TaskID) TaskID {
	return TaskID(c.ids.ToGlobal(idspace.KindTask, m.ClassTag(), int(id)))
}

func (c *BehaviorController) taskToLocal(m Module, id TaskID) TaskID {
	return TaskID(c.ids.ToLocal(idspace.KindTask, m.ClassTag(), int(id)))
}

func (c *BehaviorController) condToGlobal(m Module, id ConditionID) ConditionID {
	return ConditionID(c.ids.ToGlobal(idspace.KindCondition, m.ClassTag(), int(id)))
}
