package tree

import (
	"errors"
	"fmt"
	"iter"

	"golang.org/x/exp/constraints"
)

// ErrInvariant is wrapped by every error returned from Validate.
var ErrInvariant = errors.New("tree invariant violated")

// Node addresses a node in the arena of a Tree. The zero value is Nil.
//
// A Node stays valid until the entry it addresses is removed. Slots of removed
// nodes are reused by later insertions, so holding a Node across a removal of
// that node is a bug.
type Node uint32

// Nil is the absent node.
const Nil Node = 0

// randomBits is the number of bits PopRandom consumes from each draw.
const randomBits = 15

// Finalizer releases a value the tree is about to forget.
type Finalizer[V any] func(V)

// RandomSource feeds PopRandom.
type RandomSource interface {
	Uint32() uint32
}

type node[K constraints.Ordered, V any] struct {
	key     K
	value   V
	left    Node
	right   Node
	parent  Node
	balance int
}

// Tree is an AVL tree that allows duplicate keys. Nodes live in an arena
// addressed by index; slot 0 is reserved so that Nil reads as an empty node
// with a zero balance.
//
// A Tree is not safe for concurrent use.
type Tree[K constraints.Ordered, V any] struct {
	root  Node
	nodes []node[K, V]
	free  []Node
}

// New returns an empty tree. The zero Tree is also ready to use.
func New[K constraints.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{nodes: make([]node[K, V], 1)}
}

func (t *Tree[K, V]) alloc(key K, parent Node) Node {
	if len(t.nodes) == 0 {
		t.nodes = append(t.nodes, node[K, V]{})
	}

	var n Node
	if last := len(t.free) - 1; last >= 0 {
		n = t.free[last]
		t.free = t.free[:last]
	} else {
		n = Node(len(t.nodes))
		t.nodes = append(t.nodes, node[K, V]{})
	}
	t.nodes[n] = node[K, V]{key: key, parent: parent}
	return n
}

func (t *Tree[K, V]) release(n Node) {
	t.nodes[n] = node[K, V]{}
	t.free = append(t.free, n)
}

func (t *Tree[K, V]) at(n Node) *node[K, V] {
	if int(n) >= len(t.nodes) {
		// Only reachable for Nil on a zero Tree.
		return &node[K, V]{}
	}
	return &t.nodes[n]
}

// Root returns the root node, or Nil for an empty tree.
func (t *Tree[K, V]) Root() Node { return t.root }

func (t *Tree[K, V]) Key(n Node) K { return t.at(n).key }

func (t *Tree[K, V]) Value(n Node) V { return t.at(n).value }

func (t *Tree[K, V]) SetValue(n Node, value V) {
	if n == Nil {
		return
	}
	t.nodes[n].value = value
}

func (t *Tree[K, V]) Left(n Node) Node { return t.at(n).left }

func (t *Tree[K, V]) Right(n Node) Node { return t.at(n).right }

func (t *Tree[K, V]) Parent(n Node) Node { return t.at(n).parent }

// Balance returns height(left) - height(right) as stored on n.
func (t *Tree[K, V]) Balance(n Node) int { return t.at(n).balance }

// Next returns the in-order successor of n, or Nil.
func (t *Tree[K, V]) Next(n Node) Node {
	if n == Nil {
		return Nil
	}

	if right := t.nodes[n].right; right != Nil {
		n = right
		for t.nodes[n].left != Nil {
			n = t.nodes[n].left
		}
		return n
	}

	for {
		child := n
		n = t.nodes[n].parent
		if n == Nil || t.nodes[n].left == child {
			return n
		}
	}
}

// Prev returns the in-order predecessor of n, or Nil.
func (t *Tree[K, V]) Prev(n Node) Node {
	if n == Nil {
		return Nil
	}

	if left := t.nodes[n].left; left != Nil {
		n = left
		for t.nodes[n].right != Nil {
			n = t.nodes[n].right
		}
		return n
	}

	for {
		child := n
		n = t.nodes[n].parent
		if n == Nil || t.nodes[n].right == child {
			return n
		}
	}
}

// Depth returns the number of nodes on the path from n up to the root,
// both included.
func (t *Tree[K, V]) Depth(n Node) int {
	depth := 0
	for n != Nil {
		n = t.nodes[n].parent
		depth++
	}
	return depth
}

func (t *Tree[K, V]) min(n Node) Node {
	if n == Nil {
		return Nil
	}
	for t.nodes[n].left != Nil {
		n = t.nodes[n].left
	}
	return n
}

func (t *Tree[K, V]) max(n Node) Node {
	if n == Nil {
		return Nil
	}
	for t.nodes[n].right != Nil {
		n = t.nodes[n].right
	}
	return n
}

// Min returns the leftmost node, or Nil.
func (t *Tree[K, V]) Min() Node { return t.min(t.root) }

// Max returns the rightmost node, or Nil.
func (t *Tree[K, V]) Max() Node { return t.max(t.root) }

// lookup descends from the root and stops on the first node whose key equals
// key. When it finds none it reports where key would be linked in.
func (t *Tree[K, V]) lookup(key K) (n, parent Node, left bool) {
	n = t.root
	left = true
	for n != Nil {
		nd := &t.nodes[n]
		if key == nd.key {
			break
		}
		parent = n
		if key < nd.key {
			left = true
			n = nd.left
		} else {
			left = false
			n = nd.right
		}
	}
	return n, parent, left
}

// Lookup returns the first node holding key met on the descent from the root.
// With duplicates this is not necessarily the oldest one.
func (t *Tree[K, V]) Lookup(key K) (Node, bool) {
	n, _, _ := t.lookup(key)
	return n, n != Nil
}

func (t *Tree[K, V]) LookupValue(key K) (V, bool) {
	n, _, _ := t.lookup(key)
	if n == Nil {
		var zero V
		return zero, false
	}
	return t.nodes[n].value, true
}

func (t *Tree[K, V]) addNode(key K, parent Node, left bool) Node {
	n := t.alloc(key, parent)

	if parent == Nil {
		t.root = n
	} else if left {
		t.nodes[parent].left = n
		t.nodes[parent].balance++
	} else {
		t.nodes[parent].right = n
		t.nodes[parent].balance--
	}

	t.rebalanceInsert(parent)
	t.check()
	return n
}

// Upsert returns the node holding key, creating one with a zero value if the
// key is absent.
func (t *Tree[K, V]) Upsert(key K) Node {
	n, parent, left := t.lookup(key)
	if n != Nil {
		return n
	}
	return t.addNode(key, parent, left)
}

// Add stores value under key, replacing the value of an existing equal key.
// The replaced value is not finalized.
func (t *Tree[K, V]) Add(key K, value V) Node {
	n := t.Upsert(key)
	t.nodes[n].value = value
	return n
}

// InsertDuplicate always adds a new node. Equal keys descend right, so the new
// node follows every entry with an equal key in key order. Which of the equal
// nodes Lookup reaches first still depends on the shape of the tree.
func (t *Tree[K, V]) InsertDuplicate(key K, value V) Node {
	var parent Node
	n := t.root
	left := true
	for n != Nil {
		parent = n
		if key < t.nodes[n].key {
			left = true
			n = t.nodes[n].left
		} else {
			left = false
			n = t.nodes[n].right
		}
	}

	n = t.addNode(key, parent, left)
	t.nodes[n].value = value
	return n
}

// removeNode unlinks the entry at n and returns the node now holding its
// in-order successor. A node with two children takes over the key and value
// of its successor, which is then unlinked in its place.
func (t *Tree[K, V]) removeNode(n Node, fin Finalizer[V]) Node {
	if n == Nil {
		return Nil
	}

	var victim, next Node
	nd := &t.nodes[n]
	if nd.left == Nil || nd.right == Nil {
		victim = n
		next = t.Next(n)
		if fin != nil {
			fin(nd.value)
		}
	} else {
		victim = t.Next(n)
		next = n
		if fin != nil {
			fin(nd.value)
		}
		nd.key = t.nodes[victim].key
		nd.value = t.nodes[victim].value
	}

	vd := t.nodes[victim]
	child := vd.left
	if child == Nil {
		child = vd.right
	}
	if child != Nil {
		t.nodes[child].parent = vd.parent
	}

	var parent Node
	if victim == t.root {
		t.root = child
	} else {
		parent = vd.parent
		pd := &t.nodes[parent]
		if victim == pd.left {
			pd.left = child
			pd.balance--
		} else {
			pd.right = child
			pd.balance++
		}
	}

	t.release(victim)
	t.rebalanceRemove(parent)
	t.check()
	return next
}

// Remove deletes the first node holding key met on the descent from the root.
// fin, when non-nil, is called once with the removed value.
func (t *Tree[K, V]) Remove(key K, fin Finalizer[V]) bool {
	n, _, _ := t.lookup(key)
	if n == Nil {
		return false
	}
	t.removeNode(n, fin)
	return true
}

// RemoveNode deletes the entry at n and returns the node holding the next
// entry in order, or Nil.
func (t *Tree[K, V]) RemoveNode(n Node, fin Finalizer[V]) Node {
	return t.removeNode(n, fin)
}

func (t *Tree[K, V]) pop(n Node) (V, bool) {
	if n == Nil {
		var zero V
		return zero, false
	}
	value := t.nodes[n].value
	t.removeNode(n, nil)
	return value, true
}

// PopMin removes the entry with the lowest key and hands its value to the
// caller.
func (t *Tree[K, V]) PopMin() (V, bool) { return t.pop(t.Min()) }

// PopMax removes the entry with the highest key and hands its value to the
// caller.
func (t *Tree[K, V]) PopMax() (V, bool) { return t.pop(t.Max()) }

// PopRandom removes the entry reached by a random walk and hands its value to
// the caller. The walk descends one random bit per level until the chosen
// child is missing, then climbs toward the root while the next random bit is
// one. Each draw from src supplies 15 bits.
//
// The result is not uniformly distributed over the entries.
func (t *Tree[K, V]) PopRandom(src RandomSource) (V, bool) {
	n := t.root
	if n == Nil {
		var zero V
		return zero, false
	}

	for {
		whereto := src.Uint32()
		done := false
		for step := 0; step < randomBits; step++ {
			done = true
			child := t.nodes[n].left
			if whereto&1 != 0 {
				child = t.nodes[n].right
			}
			if child == Nil {
				break
			}
			n = child
			whereto >>= 1
			done = false
		}
		if done {
			break
		}
	}

	for {
		whereto := src.Uint32()
		done := false
		for step := 0; step < randomBits; step++ {
			done = true
			if whereto&1 == 0 {
				break
			}
			parent := t.nodes[n].parent
			if parent == Nil {
				break
			}
			n = parent
			whereto >>= 1
			done = false
		}
		if done {
			break
		}
	}

	return t.pop(n)
}

func (t *Tree[K, V]) destroy(n Node, fin Finalizer[V]) {
	if n == Nil {
		return
	}
	t.destroy(t.nodes[n].left, fin)
	t.destroy(t.nodes[n].right, fin)
	if fin != nil {
		fin(t.nodes[n].value)
	}
}

// Clear finalizes every value in post-order and empties the tree. The arena
// keeps its capacity.
func (t *Tree[K, V]) Clear(fin Finalizer[V]) {
	t.destroy(t.root, fin)
	t.root = Nil
	if len(t.nodes) > 0 {
		clear(t.nodes)
		t.nodes = t.nodes[:1]
	}
	t.free = t.free[:0]
}

func (t *Tree[K, V]) Empty() bool { return t.root == Nil }

// Count walks the whole tree.
func (t *Tree[K, V]) Count() int { return t.count(t.root) }

func (t *Tree[K, V]) count(n Node) int {
	if n == Nil {
		return 0
	}
	return 1 + t.count(t.nodes[n].left) + t.count(t.nodes[n].right)
}

// Height walks the whole tree. An empty tree has height 0.
func (t *Tree[K, V]) Height() int { return t.height(t.root) }

func (t *Tree[K, V]) height(n Node) int {
	if n == Nil {
		return 0
	}
	return 1 + max(t.height(t.nodes[n].left), t.height(t.nodes[n].right))
}

// All yields entries in ascending key order. The tree must not be modified
// during the iteration.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := t.Min(); n != Nil; n = t.Next(n) {
			if !yield(t.nodes[n].key, t.nodes[n].value) {
				return
			}
		}
	}
}

// Backward yields entries in descending key order.
func (t *Tree[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := t.Max(); n != Nil; n = t.Prev(n) {
			if !yield(t.nodes[n].key, t.nodes[n].value) {
				return
			}
		}
	}
}

// Validate checks ordering, parent links and balance factors of every node.
// It is meant for tests and diagnostics.
func (t *Tree[K, V]) Validate() error {
	if t.root == Nil {
		return nil
	}
	_, err := t.validate(t.root, Nil, nil, nil)
	return err
}

func (t *Tree[K, V]) validate(n, parent Node, lo, hi *K) (int, error) {
	if n == Nil {
		return 0, nil
	}

	nd := &t.nodes[n]
	if nd.parent != parent {
		return 0, fmt.Errorf("%w: node %d has parent %d, want %d", ErrInvariant, n, nd.parent, parent)
	}
	if lo != nil && nd.key < *lo {
		return 0, fmt.Errorf("%w: node %d key %v below lower bound %v", ErrInvariant, n, nd.key, *lo)
	}
	if hi != nil && nd.key > *hi {
		return 0, fmt.Errorf("%w: node %d key %v above upper bound %v", ErrInvariant, n, nd.key, *hi)
	}

	key := nd.key
	hl, err := t.validate(nd.left, n, lo, &key)
	if err != nil {
		return 0, err
	}
	hr, err := t.validate(nd.right, n, &key, hi)
	if err != nil {
		return 0, err
	}

	balance := hl - hr
	if nd.balance != balance {
		return 0, fmt.Errorf("%w: node %d stores balance %d, heights give %d", ErrInvariant, n, nd.balance, balance)
	}
	if balance < -1 || balance > 1 {
		return 0, fmt.Errorf("%w: node %d out of balance (%d)", ErrInvariant, n, balance)
	}
	return 1 + max(hl, hr), nil
}

// check panics on a broken tree in builds tagged treedebug.
func (t *Tree[K, V]) check() {
	if !debugChecks {
		return
	}
	if err := t.Validate(); err != nil {
		panic(err)
	}
}
