package model

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionSession is the registry's bookkeeping entry for one live
// connection. Created on successful authentication, touched on every
// inbound message, destroyed on disconnect or idle eviction.
//
// Invariant: at most one live ConnectionSession per principal. Admitting a
// new session for a principal evicts the prior one (last connection wins).
type ConnectionSession struct {
	ConnID         uuid.UUID
	PrincipalID    string
	Kind           PrincipalKind
	ConnectedAt    time.Time
	LastActivityAt time.Time
}
