package local

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

func newTestStore(t *testing.T, kv KV) (*Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s, err := Open(kv, log.New(&buf, "", 0))
	require.NoError(t, err)
	return s, &buf
}

func TestMigrate_CopiesLegacySlot(t *testing.T) {
	kv := NewMemoryKV()
	legacy := `[{"id":1700000000000,"fecha":"2024-05-01","tipo":"Running","distancia":"5","duracion":"00:29:05"}]`
	require.NoError(t, kv.Set(LegacyKey, legacy))

	s, logs := newTestStore(t, kv)

	got, ok, err := kv.Get(CanonicalKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, legacy, got, "legacy bytes copied verbatim")
	require.Contains(t, logs.String(), "migrated")

	entries := s.Read()
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID("1700000000000"), entries[0].ID)
	require.Equal(t, entry.Number(5), entries[0].Distance)
}

func TestMigrate_Idempotent(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(LegacyKey, `[{"id":"a","fecha":"2024-05-01"}]`))

	s, _ := newTestStore(t, kv)
	before, _, _ := kv.Get(CanonicalKey)

	migrated, err := s.Migrate()
	require.NoError(t, err)
	require.False(t, migrated)

	after, _, _ := kv.Get(CanonicalKey)
	require.Equal(t, before, after)
}

func TestMigrate_CanonicalWins(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(LegacyKey, `[{"id":"old"}]`))
	require.NoError(t, kv.Set(CanonicalKey, `[{"id":"new"}]`))

	s, _ := newTestStore(t, kv)

	entries := s.Read()
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID("new"), entries[0].ID)
}

func TestMigrate_EmptyCanonicalIsReplaced(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(LegacyKey, `[{"id":"old"}]`))
	require.NoError(t, kv.Set(CanonicalKey, ""))

	s, _ := newTestStore(t, kv)
	require.Len(t, s.Read(), 1)
}

func TestMigrate_NothingToDo(t *testing.T) {
	kv := NewMemoryKV()
	s, _ := newTestStore(t, kv)

	_, ok, _ := kv.Get(CanonicalKey)
	require.False(t, ok, "no canonical slot created without legacy data")
	require.Empty(t, s.Read())
}

func TestRead_Malformed(t *testing.T) {
	tests := []string{`not json`, `{"id":"x"}`, `null`, `   `}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(CanonicalKey, raw))
			s, _ := newTestStore(t, kv)

			entries := s.Read()
			require.NotNil(t, entries)
			require.Empty(t, entries)
		})
	}
}

func TestAppend_AssignsID(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())

	saved, err := s.Append(entry.Entry{Date: "2024-05-01", Type: "Running"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	kept, err := s.Append(entry.Entry{ID: "given", Date: "2024-05-02"})
	require.NoError(t, err)
	require.Equal(t, entry.ID("given"), kept.ID)

	entries := s.Read()
	require.Len(t, entries, 2)
	require.Equal(t, saved.ID, entries[0].ID)
	require.Equal(t, "2024-05-02", entries[1].Date)
}

func TestReplace(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())
	require.NoError(t, s.Write([]entry.Entry{{ID: "1", Date: "2024-05-01"}, {ID: "2", Date: "2024-05-02"}}))

	got, err := s.Replace("2", entry.Entry{ID: "ignored", Date: "2024-06-01", Type: "Bici"})
	require.NoError(t, err)
	require.Equal(t, entry.ID("2"), got.ID, "stored id is kept")

	entries := s.Read()
	require.Equal(t, "2024-06-01", entries[1].Date)
	require.Equal(t, entry.ID("2"), entries[1].ID)
	require.Equal(t, "2024-05-01", entries[0].Date)
}

func TestReplace_NumericIDMatchesString(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(CanonicalKey, `[{"id":42,"fecha":"2024-05-01"}]`))
	s, _ := newTestStore(t, kv)

	_, err := s.Replace("42", entry.Entry{Date: "2024-05-09"})
	require.NoError(t, err)
	require.Equal(t, "2024-05-09", s.Read()[0].Date)
}

func TestReplace_NotFound(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())

	_, err := s.Replace("missing", entry.Entry{Date: "2024-05-01"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.Empty(t, s.Read())
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())
	require.NoError(t, s.Write([]entry.Entry{{ID: "1"}, {ID: "2"}, {ID: "3"}}))

	removed, err := s.Remove("2")
	require.NoError(t, err)
	require.True(t, removed)

	entries := s.Read()
	require.Len(t, entries, 2)
	require.Equal(t, entry.ID("1"), entries[0].ID)
	require.Equal(t, entry.ID("3"), entries[1].ID)

	removed, err = s.Remove("nope")
	require.NoError(t, err)
	require.False(t, removed)
	require.Len(t, s.Read(), 2)
}

func TestAppend_Concurrent(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Append(entry.Entry{Date: fmt.Sprintf("2024-05-%02d", i+1)}); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, s.Read(), 20)
}

type failingKV struct{ *MemoryKV }

func (failingKV) Set(string, string) error { return fmt.Errorf("disk full") }

func TestAppend_WriteError(t *testing.T) {
	s, _ := newTestStore(t, failingKV{NewMemoryKV()})

	_, err := s.Append(entry.Entry{Date: "2024-05-01"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestFileKV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "local")
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	_, ok, err := kv.Get(CanonicalKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Set(CanonicalKey, `[]`))
	require.NoError(t, kv.Set(CanonicalKey, `[{"id":"a"}]`))

	got, ok, err := kv.Get(CanonicalKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"a"}]`, got)

	_, err = os.Stat(filepath.Join(dir, "mdc_entradas_v1.json"))
	require.NoError(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, f := range files {
		require.False(t, strings.HasPrefix(f.Name(), ".slot-"), "temp file left behind: %s", f.Name())
	}
}

func TestFileKV_Persists(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	s, _ := newTestStore(t, kv)

	saved, err := s.Append(entry.Entry{Date: "2024-05-01", Type: "Running"})
	require.NoError(t, err)

	reopenedKV, err := NewFileKV(dir)
	require.NoError(t, err)
	reopened, _ := newTestStore(t, reopenedKV)

	entries := reopened.Read()
	require.Len(t, entries, 1)
	require.Equal(t, saved.ID, entries[0].ID)
}
