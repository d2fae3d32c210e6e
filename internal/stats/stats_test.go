package stats

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietStore(kv KV, opts ...Option) *Store {
	return NewStore(kv, append([]Option{WithLogger(log.New(io.Discard))}, opts...)...)
}

func TestLoadAbsentRecordIsZero(t *testing.T) {
	store := quietStore(NewMemoryKV())
	assert.Equal(t, Aggregate{}, store.Load())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := quietStore(NewMemoryKV())
	want := Aggregate{HighScore: 720, MaxLevel: 4, TotalGamesPlayed: 3, TotalChainsBroken: 17, BestCombo: 6}

	store.Save(want)
	assert.Equal(t, want, store.Load())

	// Saving what was just loaded changes nothing.
	store.Save(store.Load())
	assert.Equal(t, want, store.Load())
}

func TestStoredLayoutUsesRecordFieldNames(t *testing.T) {
	kv := NewMemoryKV()
	store := quietStore(kv)
	store.Save(Aggregate{HighScore: 1, MaxLevel: 2, TotalGamesPlayed: 3, TotalChainsBroken: 4, BestCombo: 5})

	raw, ok, err := kv.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t,
		`{"highScore":1,"maxLevel":2,"totalGamesPlayed":3,"totalChainsBreak":4,"bestCombo":5}`,
		string(raw))
}

func TestLoadMalformedRecordIsZero(t *testing.T) {
	tests := map[string]string{
		"not json":       `{{{`,
		"wrong type":     `{"highScore":"lots"}`,
		"negative field": `{"highScore":-5}`,
		"json array":     `[1,2,3]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Put(context.Background(), StorageKey, []byte(raw)))
			assert.Equal(t, Aggregate{}, quietStore(kv).Load())
		})
	}
}

func TestLoadPartialRecordDefaultsMissingFields(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(context.Background(), StorageKey, []byte(`{"highScore":900}`)))
	assert.Equal(t, Aggregate{HighScore: 900}, quietStore(kv).Load())
}

func TestBackendErrorsAreSwallowed(t *testing.T) {
	failing := KVFuncs{
		GetFunc: func(context.Context, string) ([]byte, bool, error) {
			return nil, false, errors.New("disk on fire")
		},
		PutFunc: func(context.Context, string, []byte) error {
			return errors.New("disk on fire")
		},
	}
	store := quietStore(failing)

	assert.Equal(t, Aggregate{}, store.Load())
	assert.NotPanics(t, func() { store.Save(Aggregate{HighScore: 1}) })
}

func TestWithKeySeparatesRecords(t *testing.T) {
	kv := NewMemoryKV()
	alice := quietStore(kv, WithKey(UserKey("alice")))
	bob := quietStore(kv, WithKey(UserKey("bob")))

	alice.Save(Aggregate{HighScore: 10})
	assert.Equal(t, Aggregate{}, bob.Load())
	assert.Equal(t, "chainbreaker_stats:alice", alice.Key())
	assert.Equal(t, StorageKey, UserKey(""))
}

func TestMergeSession(t *testing.T) {
	cur := Aggregate{HighScore: 500, MaxLevel: 6, TotalGamesPlayed: 4, TotalChainsBroken: 30, BestCombo: 8}

	got := MergeSession(cur, SessionResult{Score: 300, Level: 7, MaxCombo: 5, ChainsBroken: 12})
	assert.Equal(t, Aggregate{HighScore: 500, MaxLevel: 7, TotalGamesPlayed: 4, TotalChainsBroken: 42, BestCombo: 8}, got)

	got = MergeSession(cur, SessionResult{Score: 900, Level: 2, MaxCombo: 9})
	assert.Equal(t, 900, got.HighScore)
	assert.Equal(t, 6, got.MaxLevel)
	assert.Equal(t, 9, got.BestCombo)
	assert.Equal(t, 4, got.TotalGamesPlayed, "merge never counts games")
}

func TestRecordGameStart(t *testing.T) {
	assert.Equal(t, 1, RecordGameStart(Aggregate{}).TotalGamesPlayed)
}

func TestFileKVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)

	store := quietStore(kv)
	want := Aggregate{HighScore: 42, TotalGamesPlayed: 1}
	store.Save(want)

	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	assert.Equal(t, want, quietStore(reopened).Load())
}

func TestFileKVKeepsOtherKeys(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "stats.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "a", []byte(`1`)))
	require.NoError(t, kv.Put(ctx, "b", []byte(`2`)))

	v, ok, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}

func TestFileKVCorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	store := quietStore(kv)
	assert.Equal(t, Aggregate{}, store.Load())

	store.Save(Aggregate{BestCombo: 3})
	assert.Equal(t, Aggregate{BestCombo: 3}, store.Load())
}

func TestFileKVRejectsInvalidJSONValue(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "stats.json"))
	require.NoError(t, err)
	require.Error(t, kv.Put(context.Background(), "k", []byte("{")))
}

func TestOpenKV(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			kv, closeFn, err := OpenKV(backend, filepath.Join(dir, backend+".store"))
			require.NoError(t, err)
			defer func() { require.NoError(t, closeFn()) }()

			store := quietStore(kv)
			store.Save(Aggregate{MaxLevel: 9})
			assert.Equal(t, Aggregate{MaxLevel: 9}, store.Load())
		})
	}

	_, closeFn, err := OpenKV("redis", "")
	require.Error(t, err)
	require.NotNil(t, closeFn)
}
