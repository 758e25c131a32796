package npc

import (
	"log/slog"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/speech"
)

// The NPC's own decision logic. ai.BehaviorController reaches it whenever
// no module is active or the active module leaves a call alone.

var _ ai.BackBridge = (*NPC)(nil)

// BaseGatherConditions senses the enemy, damage and schedule state.
func (n *NPC) BaseGatherConditions() {
	conds := n.Conditions()

	if n.run.done {
		conds.Set(CondScheduleDone)
	}
	if n.lightDamage {
		conds.Set(CondLightDamage)
	}
	if n.heavyDamage {
		conds.Set(CondHeavyDamage)
	}

	if n.enemy.Valid() {
		e, ok := n.world.Entity(n.enemy)
		if !ok || !e.IsAlive() {
			conds.Set(CondEnemyDead)
			n.ClearEnemy()
		} else {
			if n.enemy != n.lastEnemy {
				conds.Set(CondNewEnemy)
			}
			dist := n.pos.Distance(e.Position())
			seen := dist <= n.p.SightRange && n.world.CanSee(n.EyePosition(), n.enemy)
			if seen {
				conds.Set(CondSeeEnemy)
			}
			switch {
			case dist > n.p.MeleeRange:
				conds.Set(CondEnemyTooFar)
			case seen:
				conds.Set(CondCanMeleeAttack)
			}
		}
	}
	n.lastEnemy = n.enemy

	if n.state == model.StateAlert && !n.enemy.Valid() && n.clock.Now() >= n.alertUntil {
		n.state = model.StateIdle
	}
}

// BaseSelectSchedule picks a schedule from the coarse state.
func (n *NPC) BaseSelectSchedule() ai.ScheduleID {
	conds := n.Conditions()
	switch {
	case n.state == model.StateScript:
		return SchedWaitForScript
	case n.enemy.Valid():
		switch {
		case conds.Has(CondCanMeleeAttack):
			return SchedMeleeAttack
		case conds.Has(CondEnemyTooFar), !conds.Has(CondSeeEnemy):
			return SchedChaseEnemy
		default:
			return SchedCombatFace
		}
	case n.state == model.StateAlert:
		return SchedAlertStand
	default:
		return SchedIdleStand
	}
}

// BaseTranslateSchedule runs schedules as selected.
func (n *NPC) BaseTranslateSchedule(id ai.ScheduleID) ai.ScheduleID {
	return id
}

// BaseSelectFailSchedule always falls back to the generic fail schedule.
func (n *NPC) BaseSelectFailSchedule(ai.ScheduleID, ai.TaskID, ai.FailCode) ai.ScheduleID {
	return SchedFail
}

// BaseStartTask starts a base-vocabulary task.
func (n *NPC) BaseStartTask(task ai.Task) {
	switch task.ID {
	case TaskWait:
		n.run.waitUntil = n.clock.Now() + time.Duration(task.Data*float64(time.Second))

	case TaskStopMoving:
		n.nav.ClearGoal()
		n.TaskComplete()

	case TaskFaceEnemy:
		if !n.enemy.Valid() || !n.FaceEntity(n.enemy) {
			n.TaskFail(ai.FailNoTarget)
			return
		}
		n.TaskComplete()

	case TaskGetPathToEnemy:
		e, ok := n.enemyEntity()
		if !ok {
			n.TaskFail(ai.FailNoTarget)
			return
		}
		n.pathTo(e.Position())

	case TaskGetPathToGoal:
		n.pathTo(n.goal)

	case TaskWaitForMovement:
		if !n.nav.HasRoute() {
			n.TaskComplete()
		}

	case TaskMeleeAttack:
		n.meleeAttack()

	case TaskPlaySentence:
		if n.MayMakeSound(speech.PriorityNormal) {
			_, length := n.PlaySentence(int(task.Data))
			n.JustMadeSound(speech.PriorityNormal, length)
		}
		n.TaskComplete()

	default:
		slog.Warn("no handler for task, skipping",
			"npc", n.name,
			"task", n.describeTask(task.ID))
		n.TaskComplete()
	}
}

// BaseRunTask advances a base-vocabulary task.
func (n *NPC) BaseRunTask(task ai.Task) {
	switch task.ID {
	case TaskWait:
		if n.clock.Now() >= n.run.waitUntil {
			n.TaskComplete()
		}

	case TaskWaitForMovement:
		if !n.nav.HasRoute() {
			n.TaskFail(ai.FailNoRoute)
			return
		}
		pos, arrived := n.nav.Step(n.pos, n.dt)
		n.pos = pos
		if arrived {
			n.nav.ClearGoal()
			n.TaskComplete()
		}

	default:
		n.TaskComplete()
	}
}

func (n *NPC) enemyEntity() (model.Entity, bool) {
	if !n.enemy.Valid() {
		return nil, false
	}
	e, ok := n.world.Entity(n.enemy)
	if !ok || !e.IsAlive() {
		return nil, false
	}
	return e, true
}

func (n *NPC) pathTo(goal model.Vector) {
	if !n.nav.SetGoal(n.pos, goal) {
		n.TaskFail(ai.FailNoRoute)
		return
	}
	n.TaskComplete()
}

// damageable is an entity that can be hit.
type damageable interface {
	TakeDamage(amount int, attacker model.EntityID)
}

func (n *NPC) meleeAttack() {
	e, ok := n.enemyEntity()
	if !ok {
		n.TaskFail(ai.FailNoTarget)
		return
	}
	if n.pos.Distance(e.Position()) > n.p.MeleeRange {
		n.TaskFail(ai.FailTargetInvalid)
		return
	}
	n.attacks++
	if d, ok := e.(damageable); ok {
		d.TakeDamage(n.p.MeleeDamage, n.id)
	}
	n.TaskComplete()
}
