package tree

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys[V any](tr *Tree[int, V]) []int {
	var out []int
	for k := range tr.All() {
		out = append(out, k)
	}
	return out
}

func TestEmptyTree(t *testing.T) {
	var tr Tree[int, string]

	require.True(t, tr.Empty())
	require.Equal(t, 0, tr.Count())
	require.Equal(t, 0, tr.Height())
	require.NoError(t, tr.Validate())

	_, ok := tr.PopMin()
	require.False(t, ok)
	_, ok = tr.PopMax()
	require.False(t, ok)
	_, ok = tr.PopRandom(rand.New(rand.NewSource(1)))
	require.False(t, ok)
	require.False(t, tr.Remove(3, nil))

	it := tr.NewIterator()
	require.False(t, it.Valid())
	require.Equal(t, 0, it.Key())
	require.Equal(t, "", it.Value())
	require.Equal(t, Nil, it.Next())
	require.Equal(t, Nil, it.Prev())
}

func TestAddReplacesValue(t *testing.T) {
	tr := New[int, string]()
	a := tr.Add(7, "a")
	b := tr.Add(7, "b")

	require.Equal(t, a, b)
	require.Equal(t, 1, tr.Count())
	v, ok := tr.LookupValue(7)
	require.True(t, ok)
	require.Equal(t, "b", v)

	n := tr.Upsert(9)
	require.Equal(t, "", tr.Value(n))
	tr.SetValue(n, "nine")
	v, _ = tr.LookupValue(9)
	require.Equal(t, "nine", v)

	_, ok = tr.Lookup(8)
	require.False(t, ok)
}

func TestAscendingInsertShape(t *testing.T) {
	tr := New[int, int]()
	for k := 1; k <= 7; k++ {
		tr.Add(k, k*10)
		require.NoError(t, tr.Validate())
	}

	root := tr.Root()
	require.Equal(t, 4, tr.Key(root))
	require.Equal(t, 2, tr.Key(tr.Left(root)))
	require.Equal(t, 6, tr.Key(tr.Right(root)))
	require.Equal(t, 1, tr.Key(tr.Left(tr.Left(root))))
	require.Equal(t, 7, tr.Key(tr.Right(tr.Right(root))))
	require.Equal(t, 3, tr.Height())
	require.Equal(t, 3, tr.Depth(tr.Min()))
}

func TestDoubleRotationOnInsert(t *testing.T) {
	tr := New[int, int]()
	tr.Add(1, 0)
	tr.Add(3, 0)
	tr.Add(2, 0)

	root := tr.Root()
	require.Equal(t, 2, tr.Key(root))
	require.Equal(t, 1, tr.Key(tr.Left(root)))
	require.Equal(t, 3, tr.Key(tr.Right(root)))
	require.Equal(t, 0, tr.Balance(root))
	require.Equal(t, Nil, tr.Parent(root))
	require.NoError(t, tr.Validate())

	tr.Clear(nil)
	tr.Add(3, 0)
	tr.Add(1, 0)
	tr.Add(2, 0)
	require.Equal(t, 2, tr.Key(tr.Root()))
	require.NoError(t, tr.Validate())
}

// link builds a node by hand with a stored balance, bypassing rebalancing.
func link(t *Tree[int, int], key, balance int, parent Node, left bool) Node {
	n := t.alloc(key, parent)
	t.nodes[n].balance = balance
	switch {
	case parent == Nil:
		t.root = n
	case left:
		t.nodes[parent].left = n
	default:
		t.nodes[parent].right = n
	}
	return n
}

func TestRotationTable(t *testing.T) {
	tests := []struct {
		name        string
		build       func(tr *Tree[int, int]) Node
		rootKey     int
		nodeBalance int
		rootBalance int
	}{
		{
			name: "left, node -2 pivot -1",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 1, -2, Nil, false)
				b := link(tr, 2, -1, a, false)
				link(tr, 3, 0, b, false)
				return a
			},
			rootKey: 2, nodeBalance: 0, rootBalance: 0,
		},
		{
			name: "left, node -2 pivot 0",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 1, -2, Nil, false)
				b := link(tr, 3, 0, a, false)
				link(tr, 2, 0, b, true)
				link(tr, 4, 0, b, false)
				return a
			},
			rootKey: 3, nodeBalance: -1, rootBalance: 1,
		},
		{
			name: "left, node -1 pivot 1",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 2, -1, Nil, false)
				link(tr, 1, 0, a, true)
				b := link(tr, 4, 1, a, false)
				link(tr, 3, 0, b, true)
				return a
			},
			rootKey: 4, nodeBalance: 0, rootBalance: 2,
		},
		{
			name: "left, node -1 pivot -1",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 2, -1, Nil, false)
				link(tr, 1, 0, a, true)
				b := link(tr, 3, -1, a, false)
				link(tr, 4, 0, b, false)
				return a
			},
			rootKey: 3, nodeBalance: 1, rootBalance: 1,
		},
		{
			name: "right, node 2 pivot 1",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 3, 2, Nil, false)
				b := link(tr, 2, 1, a, true)
				link(tr, 1, 0, b, true)
				return a
			},
			rootKey: 2, nodeBalance: 0, rootBalance: 0,
		},
		{
			name: "right, node 2 pivot 0",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 4, 2, Nil, false)
				b := link(tr, 2, 0, a, true)
				link(tr, 1, 0, b, true)
				link(tr, 3, 0, b, false)
				return a
			},
			rootKey: 2, nodeBalance: 1, rootBalance: -1,
		},
		{
			name: "right, node 1 pivot -1",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 3, 1, Nil, false)
				link(tr, 4, 0, a, false)
				b := link(tr, 1, -1, a, true)
				link(tr, 2, 0, b, false)
				return a
			},
			rootKey: 1, nodeBalance: 0, rootBalance: -2,
		},
		{
			name: "right, node 1 pivot 1",
			build: func(tr *Tree[int, int]) Node {
				a := link(tr, 3, 1, Nil, false)
				link(tr, 4, 0, a, false)
				b := link(tr, 2, 1, a, true)
				link(tr, 1, 0, b, true)
				return a
			},
			rootKey: 2, nodeBalance: -1, rootBalance: -1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New[int, int]()
			n := tc.build(tr)

			pivot := tr.rotateAt(n)
			require.Equal(t, pivot, tr.Root())
			require.Equal(t, tc.rootKey, tr.Key(pivot))
			require.Equal(t, tc.nodeBalance, tr.Balance(n), "rotated node balance")
			require.Equal(t, tc.rootBalance, tr.Balance(pivot), "pivot balance")
			require.Equal(t, pivot, tr.Parent(n))
			require.Equal(t, Nil, tr.Parent(pivot))

			// Stored balances must match the real heights whenever they are
			// within range.
			if tc.rootBalance >= -1 && tc.rootBalance <= 1 {
				require.NoError(t, tr.Validate())
			}
		})
	}
}

func TestDoubleRotationBalances(t *testing.T) {
	for _, grand := range []int{-1, 0, 1} {
		tr := New[int, int]()
		// 10 is right heavy by two, its right child 30 leans left onto 20.
		a := link(tr, 10, -2, Nil, false)
		link(tr, 5, 0, a, true)
		b := link(tr, 30, 1, a, false)
		link(tr, 40, 0, b, false)
		c := link(tr, 20, grand, b, true)
		switch grand {
		case 1:
			link(tr, 15, 0, c, true)
		case -1:
			link(tr, 25, 0, c, false)
		default:
			link(tr, 15, 0, c, true)
			link(tr, 25, 0, c, false)
		}

		root := tr.rotateAt(a)
		require.Equal(t, 20, tr.Key(root), "grand balance %d", grand)
		require.Equal(t, 0, tr.Balance(root))
		require.NoError(t, tr.Validate(), "grand balance %d", grand)
	}
}

func TestDuplicateOrder(t *testing.T) {
	tr := New[int, string]()
	tr.Add(55, "first")
	tr.InsertDuplicate(55, "second")
	tr.InsertDuplicate(55, "third")
	require.NoError(t, tr.Validate())
	require.Equal(t, 3, tr.Count())

	var got []string
	for k, v := range tr.All() {
		require.Equal(t, 55, k)
		got = append(got, v)
	}
	require.Equal(t, []string{"first", "second", "third"}, got)

	// The middle duplicate became the root after a left rotation.
	require.Equal(t, "second", tr.Value(tr.Root()))
	v, ok := tr.LookupValue(55)
	require.True(t, ok)
	require.Equal(t, "second", v)
}

func TestDuplicatesStayContiguous(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := New[int, int]()
	for i := 0; i < 500; i++ {
		tr.InsertDuplicate(rng.Intn(20), i)
	}
	require.NoError(t, tr.Validate())

	ks := keys(tr)
	require.Len(t, ks, 500)
	seen := map[int]bool{}
	for i, k := range ks {
		if i > 0 {
			require.LessOrEqual(t, ks[i-1], k)
			if ks[i-1] != k {
				require.False(t, seen[k], "key %d appears in two runs", k)
			}
		}
		seen[k] = true
	}

	// Equal keys keep arrival order.
	last := map[int]int{}
	for k, v := range tr.All() {
		if prev, ok := last[k]; ok {
			require.Greater(t, v, prev)
		}
		last[k] = v
	}
}

func TestRemove(t *testing.T) {
	tr := New[int, string]()
	for i, k := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6} {
		tr.Add(k, string(rune('a'+i)))
	}
	want, _ := tr.LookupValue(3)

	var finalized []string
	fin := func(v string) { finalized = append(finalized, v) }

	require.True(t, tr.Remove(3, fin))
	require.Equal(t, []string{want}, finalized)
	require.Equal(t, 8, tr.Count())
	require.NoError(t, tr.Validate())
	_, ok := tr.Lookup(3)
	require.False(t, ok)

	require.False(t, tr.Remove(42, fin))
	require.Len(t, finalized, 1)
	require.Equal(t, 8, tr.Count())

	require.Equal(t, []int{1, 2, 4, 5, 6, 7, 8, 9}, keys(tr))
}

func TestRemoveFinalizerBoundParameter(t *testing.T) {
	tr := New[int, *int]()
	vals := make([]int, 4)
	for i := range vals {
		tr.Add(i, &vals[i])
	}

	bucket := map[*int]int{}
	finalizer := func(param string) Finalizer[*int] {
		return func(v *int) { bucket[v] += len(param) }
	}

	require.True(t, tr.Remove(2, finalizer("xyz")))
	require.Equal(t, map[*int]int{&vals[2]: 3}, bucket)
}

func TestPopMin(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{11, 30110, 55, 72, 104} {
		tr.Add(k, "v"+strconv.Itoa(k))
	}

	var got []string
	for i := 0; i < 5; i++ {
		v, ok := tr.PopMin()
		require.True(t, ok)
		got = append(got, v)
		require.NoError(t, tr.Validate())
	}
	require.Equal(t, []string{"v11", "v55", "v72", "v104", "v30110"}, got)
	require.True(t, tr.Empty())

	_, ok := tr.PopMin()
	require.False(t, ok)
}

func TestPopMax(t *testing.T) {
	tr := New[float64, int]()
	for i, k := range []float64{2.5, -1, 9, 0, 9} {
		tr.InsertDuplicate(k, i)
	}

	var got []float64
	for !tr.Empty() {
		k := tr.Key(tr.Max())
		_, ok := tr.PopMax()
		require.True(t, ok)
		got = append(got, k)
	}
	require.Equal(t, []float64{9, 9, 2.5, 0, -1}, got)
}

type script []uint32

func (s *script) Uint32() uint32 {
	v := (*s)[0]
	*s = (*s)[1:]
	return v
}

func TestPopRandomScripted(t *testing.T) {
	build := func() *Tree[int, int] {
		tr := New[int, int]()
		for k := 1; k <= 7; k++ {
			tr.Add(k, k*100)
		}
		return tr
	}

	tests := []struct {
		name  string
		draws script
		want  int
	}{
		// right to 6, left to 5, left is missing; no climb.
		{"descend right left", script{0b001, 0b0}, 500},
		// left to 2, left to 1, left is missing; climb to 2 then 4.
		{"descend then climb to root", script{0b000, 0b011}, 400},
		// right, right, right is missing at 7; climb once to 6.
		{"descend right then climb", script{0b111, 0b01}, 600},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := build()
			draws := tc.draws
			v, ok := tr.PopRandom(&draws)
			require.True(t, ok)
			require.Equal(t, tc.want, v)
			require.Empty(t, draws)
			require.Equal(t, 6, tr.Count())
			require.NoError(t, tr.Validate())
			_, found := tr.Lookup(tc.want / 100)
			require.False(t, found)
		})
	}
}

func TestPopRandomDrainsTree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tr := New[int, int]()
	for i := 0; i < 300; i++ {
		tr.InsertDuplicate(rng.Intn(50), i)
	}

	seen := map[int]bool{}
	for !tr.Empty() {
		v, ok := tr.PopRandom(rng)
		require.True(t, ok)
		require.False(t, seen[v])
		seen[v] = true
		require.NoError(t, tr.Validate())
	}
	require.Len(t, seen, 300)
}

func TestHeightBound(t *testing.T) {
	const n = 2000
	rng := rand.New(rand.NewSource(11))
	perm := rng.Perm(n * 10)[:n]
	bound := func(size int) float64 { return 1.5 * math.Log2(float64(size)+1) }

	tr := New[int, int]()
	for i, k := range perm {
		tr.Add(k, k)
		require.LessOrEqual(t, float64(tr.Height()), bound(i+1))
	}
	require.NoError(t, tr.Validate())
	for i, k := range perm {
		require.True(t, tr.Remove(k, nil))
		require.LessOrEqual(t, float64(tr.Height()), bound(n-i-1))
	}
	require.True(t, tr.Empty())
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := New[int, int]()
	live := map[int]int{}
	fin := func(v int) { live[v]-- }

	next := 0
	for i := 0; i < 5000; i++ {
		switch op := rng.Intn(10); {
		case op < 5:
			tr.InsertDuplicate(rng.Intn(64), next)
			live[next]++
			next++
		case op < 7:
			tr.Remove(rng.Intn(64), fin)
		case op < 8:
			if v, ok := tr.PopRandom(rng); ok {
				live[v]--
			}
		case op < 9:
			if v, ok := tr.PopMin(); ok {
				live[v]--
			}
		default:
			if v, ok := tr.PopMax(); ok {
				live[v]--
			}
		}
		require.NoError(t, tr.Validate(), "step %d", i)
	}

	remaining := 0
	for _, c := range live {
		require.True(t, c == 0 || c == 1)
		remaining += c
	}
	require.Equal(t, remaining, tr.Count())

	tr.Clear(fin)
	require.True(t, tr.Empty())
	for v, c := range live {
		require.Zero(t, c, "value %d finalized %d extra times", v, -c)
	}
}

func TestClearFinalizesOnceAndReuses(t *testing.T) {
	tr := New[int, int]()
	for i := 0; i < 100; i++ {
		tr.InsertDuplicate(i%10, i)
	}
	calls := map[int]int{}
	tr.Clear(func(v int) { calls[v]++ })
	require.Len(t, calls, 100)
	for _, c := range calls {
		require.Equal(t, 1, c)
	}
	require.True(t, tr.Empty())

	tr.Add(1, 1)
	assert.Equal(t, 1, tr.Count())
	assert.NoError(t, tr.Validate())
}

func TestBackward(t *testing.T) {
	tr := New[int, int]()
	for _, k := range []int{4, 2, 9, 7} {
		tr.Add(k, k)
	}
	var got []int
	for k := range tr.Backward() {
		got = append(got, k)
		if len(got) == 3 {
			break
		}
	}
	require.Equal(t, []int{9, 7, 4}, got)
}
