package npc

import "github.com/udisondev/npcmind/internal/ai"

// Base schedules. They sit below idspace.LocalBase and pass through
// module translation untouched.
const (
	SchedIdleStand ai.ScheduleID = iota + 1
	SchedAlertStand
	SchedCombatFace
	SchedChaseEnemy
	SchedMeleeAttack
	SchedFail
	SchedWaitForScript
)

// Base tasks.
const (
	TaskWait ai.TaskID = iota + 1
	TaskStopMoving
	TaskFaceEnemy
	TaskGetPathToEnemy
	TaskGetPathToGoal
	TaskWaitForMovement
	TaskMeleeAttack
	TaskPlaySentence
)

// Base conditions.
const (
	CondSeeEnemy ai.ConditionID = iota + 1
	CondNewEnemy
	CondEnemyDead
	CondEnemyTooFar
	CondCanMeleeAttack
	CondLightDamage
	CondHeavyDamage
	CondScheduleDone
)

var taskNames = map[ai.TaskID]string{
	TaskWait:            "wait",
	TaskStopMoving:      "stop_moving",
	TaskFaceEnemy:       "face_enemy",
	TaskGetPathToEnemy:  "get_path_to_enemy",
	TaskGetPathToGoal:   "get_path_to_goal",
	TaskWaitForMovement: "wait_for_movement",
	TaskMeleeAttack:     "melee_attack",
	TaskPlaySentence:    "play_sentence",
}

// baseSchedules returns the NPC's own schedule definitions.
func baseSchedules() []ai.Schedule {
	return []ai.Schedule{
		{
			ID:    SchedIdleStand,
			Name:  "idle_stand",
			Tasks: []ai.Task{{ID: TaskStopMoving}, {ID: TaskWait, Data: 2}},
			Interrupts: []ai.ConditionID{
				CondNewEnemy, CondSeeEnemy, CondLightDamage, CondHeavyDamage,
			},
		},
		{
			ID:         SchedAlertStand,
			Name:       "alert_stand",
			Tasks:      []ai.Task{{ID: TaskStopMoving}, {ID: TaskWait, Data: 3}},
			Interrupts: []ai.ConditionID{CondNewEnemy, CondSeeEnemy, CondHeavyDamage},
		},
		{
			ID:         SchedCombatFace,
			Name:       "combat_face",
			Tasks:      []ai.Task{{ID: TaskStopMoving}, {ID: TaskFaceEnemy}, {ID: TaskWait, Data: 0.5}},
			Interrupts: []ai.ConditionID{CondNewEnemy, CondEnemyDead, CondCanMeleeAttack},
		},
		{
			ID:   SchedChaseEnemy,
			Name: "chase_enemy",
			Tasks: []ai.Task{
				{ID: TaskGetPathToEnemy},
				{ID: TaskWaitForMovement},
				{ID: TaskFaceEnemy},
			},
			Interrupts: []ai.ConditionID{CondNewEnemy, CondEnemyDead, CondCanMeleeAttack},
		},
		{
			ID:         SchedMeleeAttack,
			Name:       "melee_attack",
			Tasks:      []ai.Task{{ID: TaskFaceEnemy}, {ID: TaskMeleeAttack}},
			Interrupts: []ai.ConditionID{CondEnemyDead, CondEnemyTooFar, CondHeavyDamage},
		},
		{
			ID:    SchedFail,
			Name:  "fail",
			Tasks: []ai.Task{{ID: TaskStopMoving}, {ID: TaskWait, Data: 1}},
		},
		{
			ID:    SchedWaitForScript,
			Name:  "wait_for_script",
			Tasks: []ai.Task{{ID: TaskStopMoving}, {ID: TaskWait, Data: 0.5}},
		},
	}
}
