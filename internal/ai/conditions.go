package ai

import "slices"

// Conditions is the set of conditions gathered for an NPC this tick,
// keyed by global condition id.
type Conditions struct {
	set map[ConditionID]struct{}
}

// NewConditions creates an empty condition set.
func NewConditions() *Conditions {
	return &Conditions{set: make(map[ConditionID]struct{})}
}

// Set marks condition as present.
func (c *Conditions) Set(id ConditionID) {
	c.set[id] = struct{}{}
}

// Clear removes condition.
func (c *Conditions) Clear(id ConditionID) {
	delete(c.set, id)
}

// Has reports whether condition is present.
func (c *Conditions) Has(id ConditionID) bool {
	_, ok := c.set[id]
	return ok
}

// HasAny reports whether at least one of ids is present.
func (c *Conditions) HasAny(ids []ConditionID) bool {
	for _, id := range ids {
		if c.Has(id) {
			return true
		}
	}
	return false
}

// Reset removes all conditions.
func (c *Conditions) Reset() {
	clear(c.set)
}

// Len returns number of present conditions.
func (c *Conditions) Len() int {
	return len(c.set)
}

// IDs returns present conditions in ascending order.
func (c *Conditions) IDs() []ConditionID {
	ids := make([]ConditionID, 0, len(c.set))
	for id := range c.set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
