package cli

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "os"
    "path/filepath"
    "sync"
    "testing"

    "github.com/spf13/cobra"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/mongo-rsinit/pkg/bootstrap"
    "github.com/amirimatin/mongo-rsinit/pkg/replset"
)

type fakeClient struct {
    mu        sync.Mutex
    cfg       bootstrap.Config
    initiated []replset.Config
    states    []replset.State
    polls     int
    statusErr error
    dropped   []string
    inserted  map[string]int
    closed    bool
}

func (f *fakeClient) Initiate(ctx context.Context, cfg replset.Config) error {
    f.mu.Lock(); defer f.mu.Unlock()
    f.initiated = append(f.initiated, cfg)
    return nil
}

func (f *fakeClient) Status(ctx context.Context) (*replset.Status, error) {
    f.mu.Lock(); defer f.mu.Unlock()
    if f.statusErr != nil { return nil, f.statusErr }
    i := f.polls
    if i >= len(f.states) { i = len(f.states) - 1 }
    f.polls++
    return &replset.Status{Set: "rs0", Members: []replset.MemberStatus{{Name: "mongo:27017", StateStr: f.states[i]}}}, nil
}

func (f *fakeClient) Drop(ctx context.Context, coll string) error {
    f.dropped = append(f.dropped, coll)
    return nil
}

func (f *fakeClient) InsertMany(ctx context.Context, coll string, docs []any) error {
    if f.inserted == nil { f.inserted = map[string]int{} }
    f.inserted[coll] += len(docs)
    return nil
}

func (f *fakeClient) Database() string { return f.cfg.Database }

func (f *fakeClient) Close(ctx context.Context) error { f.closed = true; return nil }

func withFake(t *testing.T, f *fakeClient) {
    t.Helper()
    prev := Connect
    Connect = func(ctx context.Context, cfg bootstrap.Config) (Client, error) {
        f.cfg = cfg
        return f, nil
    }
    t.Cleanup(func() { Connect = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
    t.Helper()
    root := &cobra.Command{Use: "rsinit", SilenceUsage: true, SilenceErrors: true}
    AddGlobalFlags(root.PersistentFlags())
    AddAll(root)
    var out, errOut bytes.Buffer
    root.SetOut(&out)
    root.SetErr(&errOut)
    root.SetArgs(args)
    err := root.ExecuteContext(context.Background())
    return out.String(), err
}

func TestInitiate_PrintsConfirmation(t *testing.T) {
    t.Setenv("MONGO_URI", "")
    t.Setenv("RSINIT_URI", "")
    f := &fakeClient{states: []replset.State{replset.StateStartup2, replset.StateSecondary, replset.StatePrimary}}
    withFake(t, f)
    out, err := execute(t, "initiate", "--interval", "1ms")
    require.NoError(t, err)
    assert.Equal(t, InitializedMessage+"\n", out)
    assert.Equal(t, []replset.Config{replset.DefaultConfig()}, f.initiated)
    assert.Equal(t, 3, f.polls)
    assert.True(t, f.closed)
    assert.Equal(t, bootstrap.DefaultURI, f.cfg.URI)
    assert.True(t, f.cfg.Direct)
}

func TestInitiate_MembersAndSet(t *testing.T) {
    f := &fakeClient{states: []replset.State{replset.StatePrimary}}
    withFake(t, f)
    _, err := execute(t, "initiate", "--set", "rs7", "--members", "a:1,b:2", "--uri", "mongodb://a:1")
    require.NoError(t, err)
    require.Len(t, f.initiated, 1)
    assert.Equal(t, "rs7", f.initiated[0].ID)
    assert.Equal(t, []string{"a:1", "b:2"}, f.initiated[0].Hosts())
    assert.Equal(t, "mongodb://a:1", f.cfg.URI)
}

func TestInitiate_Timeout(t *testing.T) {
    f := &fakeClient{states: []replset.State{replset.StateSecondary}}
    withFake(t, f)
    out, err := execute(t, "initiate", "--interval", "1ms", "--timeout", "20ms")
    assert.ErrorIs(t, err, replset.ErrTimeout)
    assert.Empty(t, out)
}

func TestWait_DoesNotInitiate(t *testing.T) {
    f := &fakeClient{states: []replset.State{replset.StatePrimary}}
    withFake(t, f)
    out, err := execute(t, "wait")
    require.NoError(t, err)
    assert.Equal(t, InitializedMessage+"\n", out)
    assert.Empty(t, f.initiated)
    assert.True(t, f.cfg.Direct)
}

func TestWait_BadIntervalFailsBeforeConnect(t *testing.T) {
    t.Setenv("RSINIT_INTERVAL", "0s")
    f := &fakeClient{states: []replset.State{replset.StatePrimary}}
    withFake(t, f)
    _, err := execute(t, "wait")
    assert.ErrorContains(t, err, "interval")
    assert.False(t, f.closed)
    assert.Zero(t, f.polls)
}

func TestEnvOverrides(t *testing.T) {
    t.Setenv("MONGO_URI", "mongodb://from-env:27017")
    t.Setenv("RSINIT_SET", "envset")
    f := &fakeClient{states: []replset.State{replset.StatePrimary}}
    withFake(t, f)
    _, err := execute(t, "initiate")
    require.NoError(t, err)
    assert.Equal(t, "mongodb://from-env:27017", f.cfg.URI)
    assert.Equal(t, "envset", f.initiated[0].ID)
}

func TestConfigFile(t *testing.T) {
    p := filepath.Join(t.TempDir(), "rsinit.yaml")
    require.NoError(t, os.WriteFile(p, []byte("set: filers\ninterval: 5ms\n"), 0o600))
    f := &fakeClient{states: []replset.State{replset.StatePrimary}}
    withFake(t, f)
    _, err := execute(t, "initiate", "--config", p)
    require.NoError(t, err)
    assert.Equal(t, "filers", f.initiated[0].ID)
}

func TestStatus_PrintsJSON(t *testing.T) {
    f := &fakeClient{states: []replset.State{replset.StateSecondary}}
    withFake(t, f)
    out, err := execute(t, "status")
    require.NoError(t, err)
    var st replset.Status
    require.NoError(t, json.Unmarshal([]byte(out), &st))
    assert.Equal(t, replset.StateSecondary, st.Members[0].StateStr)
    assert.True(t, f.cfg.Direct)
}

func TestStatus_Error(t *testing.T) {
    f := &fakeClient{statusErr: errors.New("unauthorized")}
    withFake(t, f)
    _, err := execute(t, "status")
    assert.Error(t, err)
}

func TestSeed(t *testing.T) {
    t.Setenv("MONGO_DB_NAME", "")
    f := &fakeClient{}
    withFake(t, f)
    out, err := execute(t, "seed", "--db", "fleet")
    require.NoError(t, err)
    assert.Equal(t, "Database 'fleet' seeded successfully with users, vehicles, and allocations.\n", out)
    assert.Equal(t, []string{"users", "vehicles", "allocations"}, f.dropped)
    assert.Equal(t, map[string]int{"users": 5, "vehicles": 5, "allocations": 3}, f.inserted)
}

func TestSeed_DiscoversTopology(t *testing.T) {
    uri := "mongodb://db1:27017,db2:27017/?replicaSet=rs0"
    f := &fakeClient{}
    withFake(t, f)
    _, err := execute(t, "seed", "--uri", uri)
    require.NoError(t, err)
    assert.Equal(t, uri, f.cfg.URI)
    assert.False(t, f.cfg.Direct)
}

func TestSeed_IgnoresWaitSettings(t *testing.T) {
    t.Setenv("RSINIT_INTERVAL", "0s")
    t.Setenv("RSINIT_TIMEOUT", "-1s")
    f := &fakeClient{}
    withFake(t, f)
    _, err := execute(t, "seed")
    require.NoError(t, err)
    assert.Len(t, f.dropped, 3)
}

func TestBadLogLevel(t *testing.T) {
    withFake(t, &fakeClient{states: []replset.State{replset.StatePrimary}})
    _, err := execute(t, "wait", "--log-level", "loud")
    assert.Error(t, err)
}
