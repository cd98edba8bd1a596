package dynamodb

import (
	"context"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/kernel"
)

// UnitOfWork is the server-dialect transaction boundary. DynamoDB has no
// open/commit/rollback session concept; individual repository writes are
// already atomic per-item, so Begin/Commit/Rollback here only scope the
// staged-events buffer, mirroring the embedded dialect (memory.UnitOfWork)
// so callers can treat both identically. Multi-row writes are not atomic:
// each repository write is its own PutItem/DeleteItem, and the cascade
// deletes that use BatchWriteItems are not covered by this UnitOfWork.
type UnitOfWork struct {
	events []shared.Event
}

func NewUnitOfWork() *UnitOfWork { return &UnitOfWork{} }

var _ kernel.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.events = nil
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error { return nil }

func (u *UnitOfWork) Rollback(_ context.Context) error {
	u.events = nil
	return nil
}

func (u *UnitOfWork) Events() []shared.Event {
	events := u.events
	u.events = nil
	return events
}

// Stage records events produced by an aggregate save. No repository in
// this package calls it, so Events returns only what callers stage
// themselves.
func (u *UnitOfWork) Stage(events []shared.Event) {
	u.events = append(u.events, events...)
}
