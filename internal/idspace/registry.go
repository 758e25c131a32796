// Package idspace maps module-private task, schedule and condition ids
// onto a global numbering shared by one NPC leaf class.
//
// Every behavior module class declares its ids as local constants starting
// at its base (LocalBase unless registered otherwise). Different module
// classes reuse the same local numbers, so the numbers must be translated
// into a per-NPC-class global range before they can be stored on an NPC.
package idspace

import (
	"fmt"
	"sync"
)

const (
	// Span is the number of local ids reserved for a module class.
	Span = 10000

	// LocalBase is the default first local id of a module class.
	// Ids below it belong to the base NPC vocabulary and are never translated.
	LocalBase = 1000

	// GlobalBase is the first id handed out by a Table.
	// It sits above every local range so a global id can never be mistaken for a local one.
	GlobalBase = 100000
)

// Kind separates the three numbering spaces. A schedule id and a task id
// with the same value are unrelated.
type Kind int

const (
	KindSchedule Kind = iota
	KindTask
	KindCondition
)

// String returns human-readable kind name
func (k Kind) String() string {
	switch k {
	case KindSchedule:
		return "schedule"
	case KindTask:
		return "task"
	case KindCondition:
		return "condition"
	default:
		return "unknown"
	}
}

// Registry holds module class ranges and the per-leaf-class translation tables.
// Thread-safe: NPCs may be constructed from several goroutines.
type Registry struct {
	mu      sync.Mutex
	classes map[string]int    // module class tag → base
	tables  map[string]*Table // NPC leaf class tag → table
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]int),
		tables:  make(map[string]*Table),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by NPC leaf classes.
func Default() *Registry {
	return defaultRegistry
}

// Register declares a module class and the base of its local range.
// Registering the same class twice with the same base is a no-op;
// a different base is a programming fault and panics.
func (r *Registry) Register(class string, base int) {
	if class == "" {
		panic("idspace: empty module class tag")
	}
	if base < LocalBase || base+Span > GlobalBase {
		panic(fmt.Sprintf("idspace: base %d for class %q outside [%d, %d]", base, class, LocalBase, GlobalBase-Span))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.classes[class]; ok {
		if prev != base {
			panic(fmt.Sprintf("idspace: class %q re-registered with base %d (was %d)", class, base, prev))
		}
		return
	}
	r.classes[class] = base
}

// Base returns the registered base of a module class.
func (r *Registry) Base(class string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	base, ok := r.classes[class]
	return base, ok
}

// BelongsToClass reports whether id lies in the local range of class.
// Pure range check; must be evaluated before any blind translation.
// Unknown classes own nothing.
func (r *Registry) BelongsToClass(class string, id int) bool {
	base, ok := r.Base(class)
	if !ok {
		return false
	}
	return id >= base && id < base+Span
}

// Table returns the translation table of an NPC leaf class, creating it on first use.
func (r *Registry) Table(leafClass string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tables[leafClass]; ok {
		return t
	}
	t := newTable(r, leafClass)
	r.tables[leafClass] = t
	return t
}
