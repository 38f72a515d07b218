package ops

import (
	"context"
	"log"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
	"github.com/mdc-app/mdc/internal/observability"
	"github.com/mdc-app/mdc/internal/remote"
)

// ListLimit is the page size requested from the API by LoadAll.
const ListLimit = 100

// Source names the store that served an operation.
type Source string

const (
	SourceAPI   Source = "api"
	SourceLocal Source = "local"
)

// Label is the human-readable origin shown next to the list.
func (s Source) Label() string {
	if s == SourceAPI {
		return "API (entrenamientos)"
	}
	return "LocalStorage"
}

// LocalStore is the local-storage side of the layer. *local.Store implements it.
type LocalStore interface {
	Read() []entry.Entry
	Append(e entry.Entry) (entry.Entry, error)
	Replace(id entry.ID, e entry.Entry) (entry.Entry, error)
	Remove(id entry.ID) (bool, error)
}

// Layer routes every operation to the API when it answers its probe and
// to local storage otherwise. Results are always in UI shape.
type Layer struct {
	remote    remote.Store
	local     LocalStore
	logger    *log.Logger
	listLimit int
	paths     PathPolicy
}

// Option configures a Layer.
type Option func(*Layer)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *log.Logger) Option {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithListLimit overrides the page size LoadAll requests from the API.
func WithListLimit(n int) Option {
	return func(l *Layer) {
		if n > 0 {
			l.listLimit = n
		}
	}
}

// WithPathPolicy sets where Export and Import may touch files.
func WithPathPolicy(p PathPolicy) Option {
	return func(l *Layer) { l.paths = p }
}

// New builds a Layer. A nil remote means local storage only.
func New(r remote.Store, local LocalStore, opts ...Option) *Layer {
	l := &Layer{
		remote:    r,
		local:     local,
		logger:    log.Default(),
		listLimit: ListLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Origin reports which store the next operation would use.
func (l *Layer) Origin(ctx context.Context) Source {
	if l.remote != nil && l.remote.Probe(ctx) {
		return SourceAPI
	}
	return SourceLocal
}

// probe checks the API for op. When it is not live the fallback is
// recorded and the returned error describes why.
func (l *Layer) probe(ctx context.Context, op string) (bool, error) {
	if l.remote == nil {
		l.fallback(op, observability.ReasonDisabled, errors.NewLocalMode())
		return false, errors.NewLocalMode()
	}
	if l.remote.Probe(ctx) {
		return true, nil
	}

	if f, ok := l.remote.(interface{ ForceLocal() bool }); ok && f.ForceLocal() {
		err := errors.NewLocalMode()
		l.fallback(op, observability.ReasonDisabled, err)
		return false, err
	}
	err := errors.NewRemoteUnreachable(nil)
	l.fallback(op, observability.ReasonProbeFailed, err)
	return false, err
}

// fallbackResult records a failed remote call for op.
func fallbackResult[T any](l *Layer, op string, res remote.Result[T]) error {
	reason := observability.ReasonUnreachable
	switch res.Status {
	case remote.StatusRejected:
		reason = observability.ReasonRejected
	case remote.StatusDisabled:
		reason = observability.ReasonDisabled
	}
	l.fallback(op, reason, res.Err)
	return res.Err
}

func (l *Layer) fallback(op, reason string, err error) {
	observability.RecordFallback(op, reason)
	if reason == observability.ReasonDisabled {
		return
	}
	l.logger.Printf("WARNING: %s: api %s, using local storage: %v", op, reason, err)
}

func (l *Layer) served(op string, src Source) {
	observability.RecordOperation(op, string(src))
}
