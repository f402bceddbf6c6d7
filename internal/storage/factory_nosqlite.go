//go:build !sqlite

package storage

import "errors"

// ErrSQLiteUnavailable is returned when the binary was built without the
// sqlite tag.
var ErrSQLiteUnavailable = errors.New(KindSQLite + " store not compiled in; build with -tags sqlite")

func newSQLiteStore(path string) (Store, error) {
	log.Warnf("Cannot open %s: %v", path, ErrSQLiteUnavailable)
	return nil, ErrSQLiteUnavailable
}
