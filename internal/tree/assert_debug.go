//go:build treedebug

package tree

// debugChecks makes every mutation validate the whole tree.
const debugChecks = true
