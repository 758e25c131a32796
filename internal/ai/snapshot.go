package ai

import (
	"encoding/json"
	"fmt"
)

// NoActive is the saved active index when the NPC's own logic was in control.
const NoActive = -1

// ModuleState is the serialized private state of one module.
type ModuleState struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Snapshot is the persisted part of a controller: module states in
// installation order and the active index.
type Snapshot struct {
	Active  int           `json:"active"`
	Modules []ModuleState `json:"modules"`
}

// Save captures the controller state.
func (c *BehaviorController) Save() (Snapshot, error) {
	snap := Snapshot{
		Active:  c.ActiveIndex(),
		Modules: make([]ModuleState, 0, len(c.modules)),
	}

	for _, m := range c.modules {
		st := ModuleState{Name: m.Name()}
		if sm, ok := m.(StatefulModule); ok {
			data, err := sm.SaveState()
			if err != nil {
				return Snapshot{}, fmt.Errorf("saving module %s: %w", m.Name(), err)
			}
			st.Data = data
		}
		snap.Modules = append(snap.Modules, st)
	}
	return snap, nil
}

// Restore applies a snapshot. Modules must already be installed in the same
// order by the NPC's setup routine. The active module is re-established from
// the saved index without running eligibility.
func (c *BehaviorController) Restore(snap Snapshot) error {
	if len(snap.Modules) != len(c.modules) {
		return fmt.Errorf("restoring %s: snapshot has %d modules, npc has %d", c.owner, len(snap.Modules), len(c.modules))
	}
	if snap.Active < NoActive || snap.Active >= len(c.modules) {
		return fmt.Errorf("restoring %s: active index %d out of range", c.owner, snap.Active)
	}

	for i, st := range snap.Modules {
		m := c.modules[i]
		if st.Name != m.Name() {
			return fmt.Errorf("restoring %s: module %d is %s, snapshot has %s", c.owner, i, m.Name(), st.Name)
		}
		sm, ok := m.(StatefulModule)
		if !ok || len(st.Data) == 0 {
			continue
		}
		if err := sm.RestoreState(st.Data); err != nil {
			return fmt.Errorf("restoring module %s: %w", m.Name(), err)
		}
	}

	c.active = nil
	if snap.Active != NoActive {
		c.active = c.modules[snap.Active]
	}

	for _, m := range c.modules {
		m.OnRestore()
	}
	return nil
}
