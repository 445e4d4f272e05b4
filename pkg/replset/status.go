package replset

// State is the member state string reported by replSetGetStatus (stateStr).
type State string

const (
    StatePrimary    State = "PRIMARY"
    StateSecondary  State = "SECONDARY"
    StateStartup    State = "STARTUP"
    StateStartup2   State = "STARTUP2"
    StateRecovering State = "RECOVERING"
    StateArbiter    State = "ARBITER"
    StateDown       State = "DOWN"
    StateRollback   State = "ROLLBACK"
    StateRemoved    State = "REMOVED"
    StateUnknown    State = "UNKNOWN"
)

// Numeric reports the numeric state code for s, or -1 if s is not known.
func (s State) Numeric() int {
    switch s {
    case StateStartup:
        return 0
    case StatePrimary:
        return 1
    case StateSecondary:
        return 2
    case StateRecovering:
        return 3
    case StateStartup2:
        return 5
    case StateUnknown:
        return 6
    case StateArbiter:
        return 7
    case StateDown:
        return 8
    case StateRollback:
        return 9
    case StateRemoved:
        return 10
    }
    return -1
}

// MemberStatus is one entry of the members array of replSetGetStatus.
type MemberStatus struct {
    ID       int     `bson:"_id" json:"_id"`
    Name     string  `bson:"name" json:"name"`
    Health   float64 `bson:"health" json:"health"`
    State    int     `bson:"state" json:"state"`
    StateStr State   `bson:"stateStr" json:"stateStr"`
    Self     bool    `bson:"self,omitempty" json:"self,omitempty"`
}

// Status is the subset of the replSetGetStatus document this tool reads.
type Status struct {
    Set     string         `bson:"set" json:"set"`
    MyState int            `bson:"myState" json:"myState"`
    Members []MemberStatus `bson:"members" json:"members"`
}

// First returns the first reported member.
func (s *Status) First() (MemberStatus, bool) {
    if s == nil || len(s.Members) == 0 {
        return MemberStatus{}, false
    }
    return s.Members[0], true
}

// PrimaryReady reports whether the first member's state string is PRIMARY.
// Other members are ignored.
func (s *Status) PrimaryReady() bool {
    m, ok := s.First()
    return ok && m.StateStr == StatePrimary
}
