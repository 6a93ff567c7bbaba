// Package storage provides durable workflow-state persistence with a
// pluggable backend.
package storage

import "github.com/bobmcallan/finsight/internal/interfaces"

// ErrNotFound is returned when a scoped state key does not exist.
// Coordination guards depend on distinguishing absent from empty.
// It is the same value as interfaces.ErrNotFound, which is where
// backend packages reference it to avoid an import cycle.
var ErrNotFound = interfaces.ErrNotFound
