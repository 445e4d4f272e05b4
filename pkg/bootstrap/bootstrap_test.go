package bootstrap

import (
    "context"
    "testing"
    "time"

    "github.com/spf13/viper"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/mongo-rsinit/pkg/replset"
)

type stubAdmin struct {
    initiated []replset.Config
    polls     int
    primaryAt int
}

func (s *stubAdmin) Initiate(ctx context.Context, cfg replset.Config) error {
    s.initiated = append(s.initiated, cfg)
    return nil
}

func (s *stubAdmin) Status(ctx context.Context) (*replset.Status, error) {
    s.polls++
    state := replset.StateStartup2
    if s.polls >= s.primaryAt { state = replset.StatePrimary }
    return &replset.Status{Set: "rs0", Members: []replset.MemberStatus{{Name: "mongo:27017", StateStr: state}}}, nil
}

func TestFromViper_Defaults(t *testing.T) {
    cfg := FromViper(viper.New())
    assert.Equal(t, Default(), cfg)
    assert.False(t, cfg.Direct)
    topo, err := cfg.Topology()
    require.NoError(t, err)
    assert.Equal(t, replset.DefaultConfig(), topo)
}

func TestFromViper_Overrides(t *testing.T) {
    v := viper.New()
    v.Set("uri", "mongodb://db1:27018")
    v.Set("set", "rs9")
    v.Set("members", []string{"db1:27018", " db2:27018 ", ""})
    v.Set("interval", "250ms")
    v.Set("timeout", "2m")
    v.Set("tls", true)
    v.Set("tls-ca", "/etc/ca.pem")
    cfg := FromViper(v)
    assert.Equal(t, "mongodb://db1:27018", cfg.URI)
    assert.Equal(t, "rs9", cfg.SetID)
    assert.Equal(t, []string{"db1:27018", "db2:27018"}, cfg.Members)
    assert.Equal(t, 250*time.Millisecond, cfg.Interval)
    assert.Equal(t, 2*time.Minute, cfg.Timeout)
    assert.True(t, cfg.TLS.Enable)
    assert.Equal(t, "/etc/ca.pem", cfg.TLS.CAFile)
}

func TestFromViper_BadWaitSettingsLoad(t *testing.T) {
    v := viper.New()
    v.Set("interval", "0s")
    v.Set("timeout", "-1s")
    cfg := FromViper(v)
    assert.Zero(t, cfg.Interval)
    assert.Equal(t, -time.Second, cfg.Timeout)
}

func TestValidateWait(t *testing.T) {
    cases := []struct {
        name     string
        interval time.Duration
        timeout  time.Duration
        ok       bool
    }{
        {"defaults", time.Second, 0, true},
        {"bounded", 250 * time.Millisecond, time.Minute, true},
        {"zero interval", 0, 0, false},
        {"negative interval", -time.Second, 0, false},
        {"negative timeout", time.Second, -time.Second, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            cfg := Default()
            cfg.Interval, cfg.Timeout = tc.interval, tc.timeout
            err := cfg.ValidateWait()
            if tc.ok {
                assert.NoError(t, err)
            } else {
                assert.Error(t, err)
            }
        })
    }
}

func TestRun(t *testing.T) {
    a := &stubAdmin{primaryAt: 3}
    cfg := Default()
    cfg.Interval = time.Millisecond
    var seen int
    cfg.OnStatus = func(*replset.Status) { seen++ }
    st, err := Run(context.Background(), a, cfg)
    require.NoError(t, err)
    assert.True(t, st.PrimaryReady())
    assert.Equal(t, []replset.Config{replset.DefaultConfig()}, a.initiated)
    assert.Equal(t, 3, a.polls)
    assert.Equal(t, 3, seen)
}

func TestRun_SkipInitiate(t *testing.T) {
    a := &stubAdmin{primaryAt: 1}
    cfg := Default()
    cfg.SkipInitiate = true
    _, err := Run(context.Background(), a, cfg)
    require.NoError(t, err)
    assert.Empty(t, a.initiated)
}

func TestRun_InvalidWait(t *testing.T) {
    a := &stubAdmin{primaryAt: 1}
    cfg := Default()
    cfg.Interval = 0
    _, err := Run(context.Background(), a, cfg)
    assert.Error(t, err)
    assert.Empty(t, a.initiated)
    assert.Zero(t, a.polls)
}

func TestRun_InvalidTopology(t *testing.T) {
    cfg := Default()
    cfg.Members = nil
    _, err := Run(context.Background(), &stubAdmin{}, cfg)
    assert.ErrorIs(t, err, replset.ErrInvalidConfig)
}

func TestBuild_BadTLS(t *testing.T) {
    cfg := Default()
    cfg.TLS.Enable = true
    cfg.TLS.CAFile = "/does/not/exist.pem"
    _, err := Build(context.Background(), cfg)
    assert.Error(t, err)
}

func TestBuild_MultiHostURI(t *testing.T) {
    cfg := Default()
    cfg.URI = "mongodb://db1:27017,db2:27017,db3:27017/?replicaSet=rs0"
    cfg.ConnectTimeout = 100 * time.Millisecond

    c, err := Build(context.Background(), cfg)
    require.NoError(t, err)
    _ = c.Close(context.Background())

    cfg.Direct = true
    _, err = Build(context.Background(), cfg)
    assert.Error(t, err)
}
