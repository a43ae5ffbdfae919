package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redis_basic/internal/model"
	"redis_basic/internal/replay"
	"redis_basic/internal/storage"
)

// sharedStore keeps one MemoryStore alive across command executions.
type sharedStore struct {
	*storage.MemoryStore
}

func (sharedStore) Close() error { return nil }

func newSharedStore(t *testing.T) sharedStore {
	t.Helper()
	st := storage.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })
	return sharedStore{st}
}

// run executes the root command against st and returns its stdout.
func run(t *testing.T, st storage.KeyValueStore, args ...string) (string, error) {
	t.Helper()

	opts := &RootOptions{
		OpenStore: func(context.Context, *model.Config) (storage.KeyValueStore, error) {
			return st, nil
		},
	}
	cmd := newRootCommand(opts)

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--backend", "memory"}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "redis_basic", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"store", "get", "replay", "fetch", "count", "demo"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	for _, name := range []string{"format", "backend", "redis-url", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, newSharedStore(t), "--format", "xml", "replay")
	assert.Error(t, err)
}

func TestStoreThenGet(t *testing.T) {
	st := newSharedStore(t)

	out, err := run(t, st, "store", "hello")
	require.NoError(t, err)
	key := strings.TrimSpace(out)
	require.Len(t, key, 36)

	out, err = run(t, st, "get", key, "--as", "text")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = run(t, st, "get", key)
	require.NoError(t, err)
	assert.Equal(t, "\"hello\"\n", out)
}

func TestStoreInt(t *testing.T) {
	st := newSharedStore(t)

	out, err := run(t, st, "store", "42", "--type", "int")
	require.NoError(t, err)

	out, err = run(t, st, "get", strings.TrimSpace(out), "--as", "int")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestStore_InvalidValue(t *testing.T) {
	_, err := run(t, newSharedStore(t), "store", "abc", "--type", "int")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, newSharedStore(t), "store", "abc", "--type", "complex")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGet_Missing(t *testing.T) {
	out, err := run(t, newSharedStore(t), "get", "nope", "--as", "int")
	require.NoError(t, err)
	assert.Equal(t, "(nil)\n", out)
}

func TestGet_DecodeFailure(t *testing.T) {
	st := newSharedStore(t)

	out, err := run(t, st, "store", "abc")
	require.NoError(t, err)

	_, err = run(t, st, "get", strings.TrimSpace(out), "--as", "int")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGet_JSON(t *testing.T) {
	st := newSharedStore(t)

	out, err := run(t, st, "store", "7", "--type", "int")
	require.NoError(t, err)
	key := strings.TrimSpace(out)

	out, err = run(t, st, "--format", "json", "get", key, "--as", "int")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   GetResult `json:"data"`
	}
	require.NoError(t, sonic.UnmarshalString(out, &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Found)
	assert.EqualValues(t, 7, resp.Data.Value)
}

func TestReplay(t *testing.T) {
	st := newSharedStore(t)

	for _, v := range []string{"foo", "bar"} {
		_, err := run(t, st, "store", v)
		require.NoError(t, err)
	}

	out, err := run(t, st, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache.store was called 2 times:\n")
	assert.Contains(t, out, `Cache.store("foo") -> "`)
	assert.Contains(t, out, `Cache.store("bar") -> "`)

	out, err = run(t, st, "--format", "json", "replay", "Cache.store")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   replay.Report `json:"data"`
	}
	require.NoError(t, sonic.UnmarshalString(out, &resp))
	assert.Equal(t, 2, resp.Data.Calls)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, `["foo"]`, resp.Data.Entries[0].Input)
}

func TestReplay_UnknownIdentity(t *testing.T) {
	out, err := run(t, newSharedStore(t), "replay", "Nobody.home")
	require.NoError(t, err)
	assert.Equal(t, "Nobody.home was called 0 times:\n", out)
}

func TestFetchAndCount(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("hello web"))
	}))
	t.Cleanup(srv.Close)

	st := newSharedStore(t)

	out, err := run(t, st, "fetch", srv.URL, "--repeat", "3")
	require.NoError(t, err)
	assert.Contains(t, out, srv.URL+": 9 bytes, accessed 1 times\n")
	assert.Contains(t, out, srv.URL+": 9 bytes, accessed 3 times\n")
	assert.EqualValues(t, 1, hits.Load())

	out, err = run(t, st, "count", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestFetch_OriginError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	st := newSharedStore(t)

	_, err := run(t, st, "fetch", srv.URL)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := run(t, st, "count", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestFetch_InvalidRepeat(t *testing.T) {
	_, err := run(t, newSharedStore(t), "fetch", "http://example.com", "--repeat", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCount_NeverFetched(t *testing.T) {
	out, err := run(t, newSharedStore(t), "count", "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestDemo(t *testing.T) {
	st := newSharedStore(t)
	require.NoError(t, st.Set(context.Background(), "stale", []byte("x")))

	out, err := run(t, st, "demo")
	require.NoError(t, err)

	assert.Contains(t, out, " -> foo\n")
	assert.Contains(t, out, " -> bar\n")
	assert.Contains(t, out, " -> 123\n")
	assert.Contains(t, out, " -> 3.14\n")
	assert.Contains(t, out, "missing -> (nil)\n")
	assert.Contains(t, out, "Cache.store was called 4 times:\n")
	assert.Contains(t, out, `Cache.store(123) -> "`)

	_, ok, err := st.Get(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenStore(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Store.Backend = model.BackendMemory
	cfg.Store.CleanupInterval = 0

	st, err := OpenStore(context.Background(), &cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, st)
	require.NoError(t, st.Close())

	cfg.Store.Backend = "etcd"
	_, err = OpenStore(context.Background(), &cfg)
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw, typ string
		want     any
		wantErr  bool
	}{
		{raw: "x", typ: "string", want: "x"},
		{raw: "x", typ: "bytes", want: []byte("x")},
		{raw: "-5", typ: "int", want: int64(-5)},
		{raw: "2.5", typ: "float", want: 2.5},
		{raw: "2.5", typ: "int", wantErr: true},
		{raw: "x", typ: "uuid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.raw, func(t *testing.T) {
			got, err := parseValue(tt.raw, tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", assert.AnError)))
}
