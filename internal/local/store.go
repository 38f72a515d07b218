package local

import (
	"crypto/rand"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// Slot names. Entries used to live under LegacyKey; Migrate copies them
// to CanonicalKey once.
const (
	CanonicalKey = "mdc:entradas:v1"
	LegacyKey    = "entradas"
)

// Store keeps entries, in UI shape, as a JSON array in one KV slot.
type Store struct {
	kv     KV
	logger *log.Logger
	mu     sync.Mutex
}

// Open wraps kv and runs the legacy-slot migration.
// A nil logger uses log.Default().
func Open(kv KV, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{kv: kv, logger: logger}
	if _, err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate copies the legacy slot verbatim into the canonical slot when the
// canonical slot is absent or empty and the legacy slot has data.
// It reports whether a copy happened. Running it again is a no-op.
func (s *Store) Migrate() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.kv.Get(CanonicalKey)
	if err != nil {
		return false, err
	}
	if ok && current != "" {
		return false, nil
	}

	legacy, ok, err := s.kv.Get(LegacyKey)
	if err != nil {
		return false, err
	}
	if !ok || legacy == "" {
		return false, nil
	}

	if err := s.kv.Set(CanonicalKey, legacy); err != nil {
		return false, err
	}
	s.logger.Printf("migrated local entries from %q to %q", LegacyKey, CanonicalKey)
	return true, nil
}

// Read returns every stored entry. A missing or malformed slot reads as empty.
func (s *Store) Read() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() []entry.Entry {
	raw, ok, err := s.kv.Get(CanonicalKey)
	if err != nil {
		s.logger.Printf("WARNING: could not read local entries: %v", err)
		return []entry.Entry{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []entry.Entry{}
	}

	var entries []entry.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Printf("WARNING: invalid local entries JSON: %v", err)
		return []entry.Entry{}
	}
	if entries == nil {
		return []entry.Entry{}
	}
	return entries
}

// Write replaces the stored list.
func (s *Store) Write(entries []entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(entries)
}

func (s *Store) write(entries []entry.Entry) error {
	if entries == nil {
		entries = []entry.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.NewInternal(err)
	}
	return s.kv.Set(CanonicalKey, string(data))
}

// Append stores e at the end of the list, assigning a ULID when it has no id.
func (s *Store) Append(e entry.Entry) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(e.ID.String()) == "" {
		e.ID = entry.ID(newID())
	}
	entries := append(s.read(), e)
	if err := s.write(entries); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}

// Replace overwrites the entry whose id matches, keeping the stored id.
// Returns NOT_FOUND when no entry matches.
func (s *Store) Replace(id entry.ID, e entry.Entry) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.read()
	for i := range entries {
		if entries[i].ID.Equal(id) {
			e.ID = entries[i].ID
			entries[i] = e
			if err := s.write(entries); err != nil {
				return entry.Entry{}, err
			}
			return e, nil
		}
	}
	return entry.Entry{}, errors.NewNotFound(id.String())
}

// Remove drops every entry whose id matches. It reports whether anything was removed.
func (s *Store) Remove(id entry.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.read()
	kept := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.ID.Equal(id) {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	if err := s.write(kept); err != nil {
		return false, err
	}
	return true, nil
}

func newID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
