package contract

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"reflect"
)

// EventSink is one connection's outbound delivery channel. Implementations
// must never block the caller: delivery to a slow or terminated connection
// is dropped, not waited on.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the in-memory source of truth for "who is where".
// All mutations of the primary table and the room index happen atomically.
type IRegistry interface {
	Register(connID string, sink EventSink)
	SetIdentity(connID, userID, username, room string) error
	SetRoom(connID, room string) error
	Lookup(connID string) (domain.ConnectionState, error)
	Remove(connID string)
	Sink(connID string) (EventSink, bool)
	Sinks(room string) []EventSink
	SinksExcept(room, connID string) []EventSink
	Members(room string) []string
}

// ICoordinator is the transport-facing surface of the room engine. The
// transport guarantees that one connection's calls arrive from a single
// goroutine in delivery order; the coordinator guarantees everything else.
type ICoordinator interface {
	Connect(connID string, sink EventSink)
	Join(ctx context.Context, connID, claimedUserID, claimedUsername, room string)
	Send(ctx context.Context, connID, text, room string)
	Leave(ctx context.Context, connID, room string)
	Disconnect(ctx context.Context, connID string)
}

type WorkerName string

// Worker doesn't protect itself; supervision and restarts live one level up.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}
