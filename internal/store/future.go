package store

import "context"

// ResultStatus tags the outcome of an asynchronous operation.
type ResultStatus string

const (
	Pending ResultStatus = "pending"
	Success ResultStatus = "success"
	Failure ResultStatus = "failure"
)

// Result is the tagged outcome of an asynchronous store operation.
type Result[T any] struct {
	Status  ResultStatus
	Payload T
	Message string
	Err     error
}

// Future is a handle on an operation started with one of the *Async methods.
type Future[T any] struct {
	done chan struct{}
	res  Result[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(res Result[T]) {
	f.res = res
	close(f.done)
}

// Done is closed once the operation has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the settled result, or a Pending result if the operation is
// still in flight.
func (f *Future[T]) Result() Result[T] {
	select {
	case <-f.done:
		return f.res
	default:
		return Result[T]{Status: Pending}
	}
}

// Wait blocks until the operation settles or ctx is done. In the latter case
// the returned result is Pending.
func (f *Future[T]) Wait(ctx context.Context) Result[T] {
	select {
	case <-f.done:
		return f.res
	case <-ctx.Done():
		return Result[T]{Status: Pending}
	}
}

func settle[T any](payload T, err error) Result[T] {
	if err != nil {
		return Result[T]{Status: Failure, Message: failureMessage(err, ""), Err: err}
	}
	return Result[T]{Status: Success, Payload: payload}
}
