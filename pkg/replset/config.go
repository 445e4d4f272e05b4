package replset

import (
    "fmt"
    "strings"
)

const (
    DefaultSetID = "rs0"
    DefaultHost  = "mongo:27017"
)

// Member is one entry of the topology handed to replSetInitiate.
type Member struct {
    ID       int      `bson:"_id" json:"_id"`
    Host     string   `bson:"host" json:"host"`
    Priority *float64 `bson:"priority,omitempty" json:"priority,omitempty"`
    Arbiter  bool     `bson:"arbiterOnly,omitempty" json:"arbiterOnly,omitempty"`
}

// Config is the replica-set topology descriptor: a set identifier and its
// member list.
type Config struct {
    ID      string   `bson:"_id" json:"_id"`
    Members []Member `bson:"members" json:"members"`
}

// DefaultConfig returns the single-node topology used by the compose setup.
func DefaultConfig() Config {
    return Config{ID: DefaultSetID, Members: []Member{{ID: 0, Host: DefaultHost}}}
}

// NewConfig builds a topology with sequential member ids starting at 0.
func NewConfig(setID string, hosts []string) (Config, error) {
    cfg := Config{ID: strings.TrimSpace(setID)}
    for i, h := range hosts {
        cfg.Members = append(cfg.Members, Member{ID: i, Host: strings.TrimSpace(h)})
    }
    if err := cfg.Validate(); err != nil { return Config{}, err }
    return cfg, nil
}

// Validate checks the set id and member list without contacting the server.
func (c Config) Validate() error {
    if c.ID == "" {
        return fmt.Errorf("%w: empty set id", ErrInvalidConfig)
    }
    if len(c.Members) == 0 {
        return fmt.Errorf("%w: no members", ErrInvalidConfig)
    }
    hosts := make(map[string]struct{}, len(c.Members))
    ids := make(map[int]struct{}, len(c.Members))
    for _, m := range c.Members {
        if m.Host == "" {
            return fmt.Errorf("%w: member %d has empty host", ErrInvalidConfig, m.ID)
        }
        if _, dup := hosts[m.Host]; dup {
            return fmt.Errorf("%w: duplicate host %q", ErrInvalidConfig, m.Host)
        }
        if _, dup := ids[m.ID]; dup {
            return fmt.Errorf("%w: duplicate member id %d", ErrInvalidConfig, m.ID)
        }
        hosts[m.Host] = struct{}{}
        ids[m.ID] = struct{}{}
    }
    return nil
}

// Hosts returns the member hosts in declaration order.
func (c Config) Hosts() []string {
    out := make([]string, 0, len(c.Members))
    for _, m := range c.Members { out = append(out, m.Host) }
    return out
}

// ParseHosts converts a comma-separated list into hosts, dropping empties.
func ParseHosts(csv string) []string {
    if csv == "" {
        return nil
    }
    parts := strings.Split(csv, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}
