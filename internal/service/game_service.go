package service

import (
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/repository"
	"sync"
	"time"
)

// ownerLocks hands out one mutex per owner. An entry lives only while some
// caller holds or waits for it, so idle owners cost nothing.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// lock blocks until owner's mutex is held and returns its release func.
func (l *ownerLocks) lock(owner string) func() {
	l.mu.Lock()
	ol, ok := l.locks[owner]
	if !ok {
		ol = &ownerLock{}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return func() {
		ol.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}

func (l *ownerLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// GameService builds GameStores that share one lock per owner, so requests
// for the same owner serialise their read-modify-write.
type GameService struct {
	Store   repository.StateStore
	Catalog *config.Catalog

	now   func() time.Time
	locks *ownerLocks
}

func NewGameService(store repository.StateStore, catalog *config.Catalog) *GameService {
	return &GameService{
		Store:   store,
		Catalog: catalog,
		now:     time.Now,
		locks:   newOwnerLocks(),
	}
}

// WithClock sets the time source for stores created afterwards.
func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

func (s *GameService) For(owner string) *GameStore {
	return newGameStore(s.Store, s.Catalog, owner, s.locks).WithClock(s.now)
}
