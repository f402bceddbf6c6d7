// Package tree implements an ordered multiset on top of an AVL tree.
//
// Keys may repeat. Values are opaque to the tree; whenever the tree drops a
// value without handing it back to the caller it passes it to a Finalizer so
// that reference counted payloads can be released.
package tree
