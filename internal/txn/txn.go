// Package txn provides savepoints for in-memory state that must be restored
// when a pool transaction fails.
package txn

// Savepoint marks the state of one component at the start of a transaction.
// Exactly one of Rollback or Release is called.
type Savepoint interface {
	Rollback()
	Release()
}

// Checkpointer is implemented by every component whose state takes part in a
// transaction.
type Checkpointer interface {
	Savepoint() Savepoint
}

type funcSavepoint struct {
	rollback func()
	release  func()
}

func (s funcSavepoint) Rollback() {
	if s.rollback != nil {
		s.rollback()
	}
}

func (s funcSavepoint) Release() {
	if s.release != nil {
		s.release()
	}
}

// New builds a Savepoint from two callbacks. Either may be nil.
func New(rollback, release func()) Savepoint {
	return funcSavepoint{rollback: rollback, release: release}
}

// Snapshot captures a copy of *v and restores it on rollback. It suits plain
// value structs without shared references.
func Snapshot[T any](v *T) Savepoint {
	saved := *v
	return New(func() { *v = saved }, nil)
}

// Group is the set of savepoints taken for one transaction.
type Group []Savepoint

// Begin takes a savepoint of every non-nil checkpointer, in order.
func Begin(cps ...Checkpointer) Group {
	g := make(Group, 0, len(cps))
	for _, cp := range cps {
		if cp == nil {
			continue
		}
		g = append(g, cp.Savepoint())
	}
	return g
}

// Add appends an extra savepoint to the group.
func (g *Group) Add(s Savepoint) {
	*g = append(*g, s)
}

// Rollback restores every savepoint, latest first.
func (g Group) Rollback() {
	for i := len(g) - 1; i >= 0; i-- {
		g[i].Rollback()
	}
}

// Release discards every savepoint, latest first.
func (g Group) Release() {
	for i := len(g) - 1; i >= 0; i-- {
		g[i].Release()
	}
}
