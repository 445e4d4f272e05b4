package replset

import "errors"

var (
    ErrInvalidConfig      = errors.New("replset: invalid config")
    ErrAlreadyInitialized = errors.New("replset: already initialized")
    ErrNotYetInitialized  = errors.New("replset: not yet initialized")
    ErrNoMembers          = errors.New("replset: status has no members")
    ErrUnavailable        = errors.New("replset: server unavailable")
    ErrTimeout            = errors.New("replset: timed out waiting for primary")
)
