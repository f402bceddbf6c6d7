package tree

import "golang.org/x/exp/constraints"

// Iterator is a cursor over a Tree. It walks in key order in both directions
// and can remove the entry under it without losing its place.
type Iterator[K constraints.Ordered, V any] struct {
	tree *Tree[K, V]
	node Node
}

// NewIterator returns an iterator positioned on the lowest key.
func (t *Tree[K, V]) NewIterator() *Iterator[K, V] {
	return &Iterator[K, V]{tree: t, node: t.Min()}
}

// NewIteratorFromEnd returns an iterator positioned on the highest key.
func (t *Tree[K, V]) NewIteratorFromEnd() *Iterator[K, V] {
	return &Iterator[K, V]{tree: t, node: t.Max()}
}

func (it *Iterator[K, V]) ToStart() Node {
	it.node = it.tree.Min()
	return it.node
}

func (it *Iterator[K, V]) ToEnd() Node {
	it.node = it.tree.Max()
	return it.node
}

// Next advances to the successor and returns it. Past the last entry the
// iterator holds Nil and stays there.
func (it *Iterator[K, V]) Next() Node {
	it.node = it.tree.Next(it.node)
	return it.node
}

// Prev moves to the predecessor and returns it.
func (it *Iterator[K, V]) Prev() Node {
	it.node = it.tree.Prev(it.node)
	return it.node
}

func (it *Iterator[K, V]) Node() Node { return it.node }

func (it *Iterator[K, V]) Valid() bool { return it.node != Nil }

// Key returns the zero key when the iterator is exhausted.
func (it *Iterator[K, V]) Key() K { return it.tree.Key(it.node) }

// Value returns the zero value when the iterator is exhausted.
func (it *Iterator[K, V]) Value() V { return it.tree.Value(it.node) }

// Remove deletes the current entry, finalizing its value with fin when fin is
// non-nil, and moves to the entry that followed it.
func (it *Iterator[K, V]) Remove(fin Finalizer[V]) Node {
	it.node = it.tree.removeNode(it.node, fin)
	return it.node
}
