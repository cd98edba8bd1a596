package kernel

import (
	"context"

	"neo-alexandria/internal/domain/shared"
)

// UnitOfWork is a transaction boundary for a single logical write: every
// mutation across the domain repositories happens inside one, and the
// events collected on the touched aggregates are emitted on the bus only
// after Commit succeeds (spec §4.1's "emit after commit", invariant 5 on
// the event bus). Grounded on the teacher's application/ports UnitOfWork
// interface (backend2), generalized from the Node/Edge/Graph repository
// trio to whatever repository set the call site needs.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Events returns the events staged by aggregates touched during the
	// transaction, in the order they were raised, ready to Emit after a
	// successful Commit.
	Events() []shared.Event
}

// EventSource is implemented by domain aggregates that stage events to be
// flushed once their owning transaction commits. Mirrors the teacher's
// node.Node/edge.Edge pattern of an internal events slice plus drain
// method.
type EventSource interface {
	PullEvents() []shared.Event
}

// WithTransaction runs fn inside a UnitOfWork, committing and emitting its
// staged events on success or rolling back on error/panic. This is the one
// place event emission happens for transactional writes; handlers never
// call EventBus.Emit directly from inside fn.
func WithTransaction(ctx context.Context, uow UnitOfWork, bus *EventBus, fn func(ctx context.Context) error) (err error) {
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback(ctx)
			panic(r)
		}
	}()

	if err = fn(ctx); err != nil {
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			return rbErr
		}
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	for _, event := range uow.Events() {
		bus.Emit(ctx, event)
	}
	return nil
}
