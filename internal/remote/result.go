package remote

import "github.com/mdc-app/mdc/internal/errors"

// Status classifies the outcome of a remote call.
type Status int

const (
	// StatusOK means the API answered with a 2xx and a usable body.
	StatusOK Status = iota
	// StatusDisabled means local mode is forced; no request was made.
	StatusDisabled
	// StatusUnreachable covers transport failures and undecodable bodies.
	StatusUnreachable
	// StatusRejected means the API answered with a non-2xx status.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDisabled:
		return "disabled"
	case StatusUnreachable:
		return "unreachable"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the outcome of a remote call. Err is nil only when Status is StatusOK.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Status == StatusOK }

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

func disabled[T any]() Result[T] {
	return Result[T]{Status: StatusDisabled, Err: errors.NewLocalMode()}
}
