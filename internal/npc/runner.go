package npc

import (
	"log/slog"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/idspace"
)

// maxTasksPerTick bounds how many instantly completing tasks run in one tick.
const maxTasksPerTick = 8

type taskStatus int

const (
	taskIdle taskStatus = iota
	taskRunning
	taskComplete
	taskFailed
)

// runner walks the current schedule's task list.
type runner struct {
	sched   *ai.Schedule
	index   int
	started bool
	status  taskStatus
	fail    ai.FailCode
	done    bool

	waitUntil time.Duration
}

// CurrentSchedule returns the global id of the running schedule.
func (n *NPC) CurrentSchedule() ai.ScheduleID {
	if n.run.sched == nil {
		return ai.SchedNone
	}
	return n.run.sched.ID
}

// CurrentTask returns the running task, false between schedules.
func (n *NPC) CurrentTask() (ai.Task, bool) {
	r := &n.run
	if r.sched == nil || r.index >= len(r.sched.Tasks) {
		return ai.Task{}, false
	}
	return r.sched.Tasks[r.index], true
}

// ClearSchedule drops the current schedule; the next tick reselects.
func (n *NPC) ClearSchedule(reason string) {
	if n.run.sched == nil {
		return
	}
	if ai.IsDebugEnabled() {
		slog.Debug("schedule cleared",
			"npc", n.name,
			"schedule", n.run.sched.Name,
			"reason", reason)
	}
	n.run = runner{}
}

// TaskComplete marks the running task as finished.
func (n *NPC) TaskComplete() {
	n.run.status = taskComplete
}

// TaskFail marks the running task as failed.
func (n *NPC) TaskFail(code ai.FailCode) {
	n.run.status = taskFailed
	n.run.fail = code
}

// TaskRunning reports whether the current task is still in progress.
func (n *NPC) TaskRunning() bool {
	return n.run.status == taskRunning
}

func (n *NPC) shouldReselect() bool {
	r := &n.run
	switch {
	case r.sched == nil, r.done:
		return true
	case n.Conditions().HasAny(r.sched.Interrupts):
		if ai.IsDebugEnabled() {
			slog.Debug("schedule interrupted", "npc", n.name, "schedule", r.sched.Name)
		}
		return true
	}
	return false
}

func (n *NPC) selectNewSchedule() {
	id := n.SelectSchedule()
	n.setSchedule(n.TranslateSchedule(id))
}

func (n *NPC) setSchedule(id ai.ScheduleID) {
	s, ok := n.ScheduleBook().Lookup(id)
	if !ok {
		slog.Warn("unknown schedule, using idle",
			"npc", n.name,
			"schedule", n.IDs().Describe(idspace.KindSchedule, int(id)))
		s, _ = n.ScheduleBook().Lookup(SchedIdleStand)
	}
	n.run = runner{sched: s}

	if ai.IsDebugEnabled() {
		slog.Debug("schedule selected",
			"npc", n.name,
			"schedule", s.Name,
			"id", n.IDs().Describe(idspace.KindSchedule, int(s.ID)))
	}
}

func (n *NPC) runSchedule() {
	r := &n.run
	for range maxTasksPerTick {
		s := r.sched
		if s == nil || r.done {
			return
		}
		if r.index >= len(s.Tasks) {
			r.done = true
			return
		}

		task := s.Tasks[r.index]
		if !r.started {
			r.started = true
			r.status = taskRunning
			n.StartTask(task)
		} else {
			n.RunTask(task)
		}
		if r.sched != s {
			// The task replaced or cleared the schedule.
			return
		}

		switch r.status {
		case taskComplete:
			r.index++
			r.started = false
			r.status = taskIdle
		case taskFailed:
			n.failSchedule(task, r.fail)
			return
		default:
			return
		}
	}
}

func (n *NPC) failSchedule(task ai.Task, code ai.FailCode) {
	failed := n.run.sched

	if ai.IsDebugEnabled() {
		slog.Debug("task failed",
			"npc", n.name,
			"schedule", failed.Name,
			"task", n.describeTask(task.ID),
			"code", code)
	}

	id := n.SelectFailSchedule(failed.ID, task.ID, code)
	n.setSchedule(n.TranslateSchedule(id))
}

func (n *NPC) describeTask(id ai.TaskID) string {
	if name, ok := taskNames[id]; ok {
		return name
	}
	return n.IDs().Describe(idspace.KindTask, int(id))
}
