package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	n int
}

func (c *counter) Savepoint() Savepoint {
	return Snapshot(c)
}

func TestGroupRollbackRestoresState(t *testing.T) {
	a, b := &counter{n: 1}, &counter{n: 2}
	g := Begin(a, b)
	a.n, b.n = 10, 20

	g.Rollback()
	require.Equal(t, 1, a.n)
	require.Equal(t, 2, b.n)
}

func TestGroupReleaseKeepsState(t *testing.T) {
	a := &counter{n: 1}
	g := Begin(a)
	a.n = 5
	g.Release()
	require.Equal(t, 5, a.n)
}

func TestGroupOrder(t *testing.T) {
	var order []string
	g := Group{
		New(func() { order = append(order, "first") }, nil),
		New(func() { order = append(order, "second") }, nil),
	}
	g.Add(New(func() { order = append(order, "third") }, nil))

	g.Rollback()
	require.Equal(t, []string{"third", "second", "first"}, order)
}

func TestBeginSkipsNil(t *testing.T) {
	var missing Checkpointer
	g := Begin(missing, &counter{})
	require.Len(t, g, 1)
}
