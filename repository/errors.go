package repository

import "errors"

// ErrAlreadyPersisted is returned when an entity that already carries a
// database identifier is passed to an insert operation. Re-inserting a
// persisted entity is always a programming error and is never retried.
var ErrAlreadyPersisted = errors.New("entity already has an id, re-inserting a persisted entity is forbidden")
