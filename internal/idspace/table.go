package idspace

import (
	"fmt"
	"sync"
)

type classKey struct {
	class string
	local int
}

type owner struct {
	class string
	local int
}

// space is one kind's bijection between (class, local) pairs and global ids.
type space struct {
	toGlobal map[classKey]int
	toLocal  map[int]owner
	next     int
}

// Table translates ids for one NPC leaf class.
// Global ids are allocated lazily the first time a (class, local) pair is seen
// and cached thereafter, so translation is a bijection within a class.
type Table struct {
	registry  *Registry
	leafClass string

	mu     sync.Mutex
	spaces [3]space
}

func newTable(r *Registry, leafClass string) *Table {
	t := &Table{registry: r, leafClass: leafClass}
	for i := range t.spaces {
		t.spaces[i] = space{
			toGlobal: make(map[classKey]int),
			toLocal:  make(map[int]owner),
			next:     GlobalBase,
		}
	}
	return t
}

// LeafClass returns the NPC leaf class this table belongs to.
func (t *Table) LeafClass() string {
	return t.leafClass
}

// Registry returns the registry holding the module class ranges.
func (t *Table) Registry() *Registry {
	return t.registry
}

// BelongsToClass reports whether id lies in the local range of class.
func (t *Table) BelongsToClass(class string, id int) bool {
	return t.registry.BelongsToClass(class, id)
}

// LocalToGlobal converts a class-local id into this table's global numbering.
// Panics if id is not in the class's local range or the class is unknown.
func (t *Table) LocalToGlobal(kind Kind, class string, local int) int {
	if !t.registry.BelongsToClass(class, local) {
		panic(fmt.Sprintf("idspace: %s %d is not local to class %q (leaf %q)", kind, local, class, t.leafClass))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	sp := &t.spaces[kind]
	key := classKey{class: class, local: local}
	if g, ok := sp.toGlobal[key]; ok {
		return g
	}

	g := sp.next
	sp.next++
	sp.toGlobal[key] = g
	sp.toLocal[g] = owner{class: class, local: local}
	return g
}

// GlobalToLocal converts a global id back to the local id of class.
// Panics if the global id was never allocated for class.
func (t *Table) GlobalToLocal(kind Kind, class string, global int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.spaces[kind].toLocal[global]
	if !ok || o.class != class {
		panic(fmt.Sprintf("idspace: global %s %d was never registered for class %q (leaf %q)", kind, global, class, t.leafClass))
	}
	return o.local
}

// OwnsGlobal reports whether a global id was allocated for class.
// The controller uses it to decide if an incoming id needs translation.
func (t *Table) OwnsGlobal(kind Kind, class string, global int) bool {
	if global < GlobalBase {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.spaces[kind].toLocal[global]
	return ok && o.class == class
}

// ToGlobal translates id when it is local to class and passes it through otherwise.
func (t *Table) ToGlobal(kind Kind, class string, id int) int {
	if t.BelongsToClass(class, id) {
		return t.LocalToGlobal(kind, class, id)
	}
	return id
}

// ToLocal translates id when it was allocated for class and passes it through otherwise.
func (t *Table) ToLocal(kind Kind, class string, id int) int {
	if t.OwnsGlobal(kind, class, id) {
		return t.GlobalToLocal(kind, class, id)
	}
	return id
}

// Describe returns "class:local" for a global id, used in debug logging.
func (t *Table) Describe(kind Kind, global int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if o, ok := t.spaces[kind].toLocal[global]; ok {
		return fmt.Sprintf("%s:%d", o.class, o.local)
	}
	return fmt.Sprintf("base:%d", global)
}
