// Package supervisor names databases within a store and spawns their
// Database (and therefore their Transactor) on first open, so callers
// never juggle *database.DB handles directly.
package supervisor

import (
	"fmt"
	"sync"

	"github.com/Kushal-kothari/barrel-platform/database"
	"github.com/Kushal-kothari/barrel-platform/logger"
	"github.com/Kushal-kothari/barrel-platform/store"
)

// Supervisor maps database names to their live handle within one Store.
type Supervisor struct {
	st  *store.Store
	log logger.Logger

	mu  sync.Mutex
	dbs map[string]*database.DB
}

// New returns a Supervisor backed by st.
func New(st *store.Store, log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.NopLogger
	}
	return &Supervisor{st: st, log: log, dbs: make(map[string]*database.DB)}
}

// Open returns the named database, opening (and spawning its Transactor)
// on first access.
func (s *Supervisor) Open(name string, createIfMissing bool) (*database.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[name]; ok {
		return db, nil
	}
	db, err := database.Open(name, s.st, createIfMissing, s.log.WithPrefix(fmt.Sprintf("supervisor[%s] ", name)))
	if err != nil {
		return nil, err
	}
	s.dbs[name] = db
	return db, nil
}

// Get returns the named database only if it is already open.
func (s *Supervisor) Get(name string) (*database.DB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.dbs[name]
	return db, ok
}

// Clean stops the named database's Transactor, deletes its data, and
// forgets it; a later Open re-creates it from scratch.
func (s *Supervisor) Clean(name string) error {
	s.mu.Lock()
	db, ok := s.dbs[name]
	delete(s.dbs, name)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return db.Clean()
}

// Names returns every currently open database name.
func (s *Supervisor) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.dbs))
	for name := range s.dbs {
		names = append(names, name)
	}
	return names
}
