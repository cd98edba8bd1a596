// Package memory is the embedded-dialect store: every repository backed by
// a mutex-protected map (spec §6). app.NewEmbeddedContainer wires it
// whatever DATABASE_URL names, so it backs every run of cmd/api and
// cmd/worker, and the tests.
package memory

import (
	"context"
	"sync"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/kernel"
)

// Store holds every aggregate's in-memory table plus a pending-events
// buffer that repositories append to on Save, drained by the enclosing
// UnitOfWork after a successful Commit (spec §4.1's emit-after-commit
// rule). Embedded dialect transactions are logical groupings for this
// buffer, not full ACID isolation — acceptable for the single-process,
// single-writer-per-resource embedded target (see design notes).
type Store struct {
	mu sync.Mutex

	resources   map[shared.ID]*storedResource
	annotations map[shared.ID]*storedAnnotation
	collections map[shared.ID]*storedCollection
	taxonomy    map[shared.ID]*storedTaxonomyNode
	assignments []storedAssignment
	citations   map[shared.ID]*storedCitation

	pendingEvents []shared.Event
	clock         shared.Clock
}

func NewStore(clock shared.Clock) *Store {
	return &Store{
		resources:   make(map[shared.ID]*storedResource),
		annotations: make(map[shared.ID]*storedAnnotation),
		collections: make(map[shared.ID]*storedCollection),
		taxonomy:    make(map[shared.ID]*storedTaxonomyNode),
		citations:   make(map[shared.ID]*storedCitation),
		clock:       clock,
	}
}

func (s *Store) stageEvents(events []shared.Event) {
	s.pendingEvents = append(s.pendingEvents, events...)
}

// UnitOfWork is the embedded-dialect kernel.UnitOfWork: Begin/Commit are
// bookkeeping only (mutations already landed directly on Store, matching
// the single-process embedded model), and Events drains the events staged
// during the transaction.
type UnitOfWork struct {
	store  *Store
	began  bool
	mark   int
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

var _ kernel.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.store.mu.Lock()
	u.mark = len(u.store.pendingEvents)
	u.store.mu.Unlock()
	u.began = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	u.began = false
	return nil
}

// Rollback is best-effort for the embedded dialect: it discards events
// staged since Begin but cannot undo map mutations already applied by
// repository Save calls (see Store's doc comment). The server (DynamoDB)
// dialect's Rollback likewise only discards staged events.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if u.mark <= len(u.store.pendingEvents) {
		u.store.pendingEvents = u.store.pendingEvents[:u.mark]
	}
	u.began = false
	return nil
}

func (u *UnitOfWork) Events() []shared.Event {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	events := u.store.pendingEvents[u.mark:]
	out := append([]shared.Event(nil), events...)
	u.store.pendingEvents = u.store.pendingEvents[:u.mark]
	return out
}
