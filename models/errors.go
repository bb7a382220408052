package models

import "github.com/pkg/errors"

// ErrNotFound is returned by storage lookups that match no row.
var ErrNotFound = errors.New("record not found")
