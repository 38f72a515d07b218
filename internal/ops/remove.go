package ops

import (
	"context"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// RemoveOutput contains the result of Remove.
type RemoveOutput struct {
	ID      entry.ID `json:"id"`
	Removed bool     `json:"removed"`
	Source  Source   `json:"source"`
}

// Remove deletes the entry with the given id. Removing an unknown id is
// not an error; Removed reports whether anything was deleted.
func (l *Layer) Remove(ctx context.Context, id entry.ID) (*RemoveOutput, error) {
	const op = "remove"

	if id.String() == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	live, remoteErr := l.probe(ctx, op)
	if live {
		res := l.remote.Delete(ctx, id)
		if res.OK() {
			l.served(op, SourceAPI)
			return &RemoveOutput{ID: id, Removed: res.Value, Source: SourceAPI}, nil
		}
		remoteErr = fallbackResult(l, op, res)
	}

	removed, err := l.local.Remove(id)
	if err != nil {
		return nil, errors.NewStorageUnavailable(op, remoteErr, err)
	}
	l.served(op, SourceLocal)
	return &RemoveOutput{ID: id, Removed: removed, Source: SourceLocal}, nil
}
