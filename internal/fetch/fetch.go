// Package fetch provides the generic request and mutation primitives
// consumed by page-level views. Each value is scoped to a single call
// site; it holds no process-wide state.
package fetch

import (
	"context"
	"fmt"
	"sync"

	"shopfront/internal/api"
)

// Query performs a read against one endpoint and exposes data, loading
// and error state with a manual refetch. It never re-issues on its own;
// only Start (first activation), SetEndpoint (endpoint change) and
// Refetch trigger a request.
type Query[T any] struct {
	client    *api.Client
	immediate bool

	mu        sync.Mutex
	path      string
	started   bool
	data      *T
	loading   bool
	err       error
	onSuccess func(T)
	onError   func(error)
}

// NewQuery creates a query for the given endpoint. When immediate is
// set, the first Start call issues the request.
func NewQuery[T any](client *api.Client, path string, immediate bool) *Query[T] {
	return &Query[T]{
		client:    client,
		path:      path,
		immediate: immediate,
	}
}

// OnSuccess registers a callback invoked with the decoded data after
// each successful execution.
func (q *Query[T]) OnSuccess(fn func(T)) *Query[T] {
	q.onSuccess = fn
	return q
}

// OnError registers a callback invoked after each failed execution.
func (q *Query[T]) OnError(fn func(error)) *Query[T] {
	q.onError = fn
	return q
}

// Start activates the query. With the immediate flag the first call
// executes the request; subsequent calls are no-ops.
func (q *Query[T]) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started || !q.immediate {
		q.started = true
		q.mu.Unlock()
		return nil
	}
	q.started = true
	q.mu.Unlock()

	return q.execute(ctx)
}

// Refetch re-issues the request on demand.
func (q *Query[T]) Refetch(ctx context.Context) error {
	return q.execute(ctx)
}

// SetEndpoint switches the query to a different endpoint. The request
// is re-issued only when the endpoint actually changed.
func (q *Query[T]) SetEndpoint(ctx context.Context, path string) error {
	q.mu.Lock()
	if path == q.path {
		q.mu.Unlock()
		return nil
	}
	q.path = path
	q.mu.Unlock()

	return q.execute(ctx)
}

func (q *Query[T]) execute(ctx context.Context) error {
	q.mu.Lock()
	path := q.path
	q.loading = true
	q.err = nil
	q.mu.Unlock()

	var out T
	err := q.client.Get(ctx, path, &out)

	q.mu.Lock()
	q.loading = false
	if err != nil {
		q.err = err
	} else {
		q.data = &out
	}
	onSuccess, onError := q.onSuccess, q.onError
	q.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(err)
		}
		return err
	}
	if onSuccess != nil {
		onSuccess(out)
	}
	return nil
}

// Data returns the last successful result, reporting whether one has
// been received.
func (q *Query[T]) Data() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.data == nil {
		var zero T
		return zero, false
	}
	return *q.data, true
}

// Loading reports whether a request is in flight.
func (q *Query[T]) Loading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Err returns the error of the last execution, if any.
func (q *Query[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Mutation performs exactly one write per Call invocation, returning
// the parsed result or the propagated error. Success, error and settled
// callbacks fire exactly once per invocation.
type Mutation[In, Out any] struct {
	client *api.Client
	method string
	path   string

	mu        sync.Mutex
	data      *Out
	loading   bool
	err       error
	onSuccess func(Out)
	onError   func(error)
	onSettled func()
}

// NewMutation creates a mutation for the given verb and endpoint
// template. The template may contain fmt placeholders filled in by
// Call's pathArgs.
func NewMutation[In, Out any](client *api.Client, method, path string) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		client: client,
		method: method,
		path:   path,
	}
}

// OnSuccess registers a callback invoked with the result of each
// successful call.
func (m *Mutation[In, Out]) OnSuccess(fn func(Out)) *Mutation[In, Out] {
	m.onSuccess = fn
	return m
}

// OnError registers a callback invoked after each failed call.
func (m *Mutation[In, Out]) OnError(fn func(error)) *Mutation[In, Out] {
	m.onError = fn
	return m
}

// OnSettled registers a callback invoked after every call, success or
// failure.
func (m *Mutation[In, Out]) OnSettled(fn func()) *Mutation[In, Out] {
	m.onSettled = fn
	return m
}

// Call performs one write. pathArgs, when given, are interpolated into
// the endpoint template.
func (m *Mutation[In, Out]) Call(ctx context.Context, vars In, pathArgs ...any) (Out, error) {
	path := m.path
	if len(pathArgs) > 0 {
		path = fmt.Sprintf(m.path, pathArgs...)
	}

	m.mu.Lock()
	m.loading = true
	m.err = nil
	m.mu.Unlock()

	var out Out
	err := m.client.Do(ctx, m.method, path, vars, &out)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.err = err
	} else {
		m.data = &out
	}
	onSuccess, onError, onSettled := m.onSuccess, m.onError, m.onSettled
	m.mu.Unlock()

	if onSettled != nil {
		defer onSettled()
	}

	if err != nil {
		if onError != nil {
			onError(err)
		}
		return out, err
	}
	if onSuccess != nil {
		onSuccess(out)
	}
	return out, nil
}

// Reset clears the stored result and error.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.err = nil
}

// Data returns the last successful result, reporting whether one has
// been received.
func (m *Mutation[In, Out]) Data() (Out, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		var zero Out
		return zero, false
	}
	return *m.data, true
}

// Loading reports whether a call is in flight.
func (m *Mutation[In, Out]) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the error of the last call, if any.
func (m *Mutation[In, Out]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
