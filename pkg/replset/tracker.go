package replset

import (
    "context"
    "encoding/json"
    "sync"
    "time"
)

// Tracker keeps the most recent status observed by WaitForPrimary so it can
// be served while the wait is in progress. Its Observe method fits
// WaitOptions.OnStatus.
type Tracker struct {
    mu   sync.RWMutex
    last *Status
    at   time.Time
}

// Snapshot is the JSON document served for the tracked status.
type Snapshot struct {
    Ready      bool      `json:"ready"`
    ObservedAt *time.Time `json:"observedAt,omitempty"`
    Status     *Status   `json:"status,omitempty"`
}

// Observe records st as the latest status.
func (t *Tracker) Observe(st *Status) {
    t.mu.Lock()
    t.last, t.at = st, time.Now()
    t.mu.Unlock()
}

// Snapshot returns the latest status; ObservedAt is nil before the first poll.
func (t *Tracker) Snapshot() Snapshot {
    t.mu.RLock()
    defer t.mu.RUnlock()
    snap := Snapshot{Ready: t.last.PrimaryReady(), Status: t.last}
    if !t.at.IsZero() {
        at := t.at
        snap.ObservedAt = &at
    }
    return snap
}

// Ready reports whether the last observed status had a primary first member.
func (t *Tracker) Ready() bool { return t.Snapshot().Ready }

// JSON encodes the current snapshot.
func (t *Tracker) JSON(context.Context) ([]byte, error) {
    return json.Marshal(t.Snapshot())
}
