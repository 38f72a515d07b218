package ops

import (
	"context"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// SaveOutput contains the result of Save and Update.
type SaveOutput struct {
	Entry  entry.Entry `json:"entry"`
	Source Source      `json:"source"`
}

// Save creates an entry. The API assigns the id when it serves the call;
// otherwise local storage does.
func (l *Layer) Save(ctx context.Context, e entry.Entry) (*SaveOutput, error) {
	return l.save(ctx, e, false)
}

// saveKeepingID is Save for imports: when local storage serves the call
// the entry keeps the id it arrived with, so a later import of the same
// file collides instead of duplicating. The API still assigns its own ids.
func (l *Layer) saveKeepingID(ctx context.Context, e entry.Entry) (*SaveOutput, error) {
	return l.save(ctx, e, true)
}

func (l *Layer) save(ctx context.Context, e entry.Entry, keepID bool) (*SaveOutput, error) {
	const op = "save"

	live, remoteErr := l.probe(ctx, op)
	if live {
		res := l.remote.Create(ctx, entry.ToAPI(e))
		if res.OK() {
			l.served(op, SourceAPI)
			return &SaveOutput{Entry: entry.FromAPI(res.Value), Source: SourceAPI}, nil
		}
		remoteErr = fallbackResult(l, op, res)
	}

	if !keepID {
		e.ID = ""
	}
	saved, err := l.local.Append(e)
	if err != nil {
		return nil, errors.NewStorageUnavailable(op, remoteErr, err)
	}
	l.served(op, SourceLocal)
	return &SaveOutput{Entry: saved, Source: SourceLocal}, nil
}

// Update replaces the entry with the given id. The stored id never changes.
// Returns NOT_FOUND when local storage serves the call and has no such entry.
func (l *Layer) Update(ctx context.Context, id entry.ID, e entry.Entry) (*SaveOutput, error) {
	const op = "update"

	if id.String() == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	live, remoteErr := l.probe(ctx, op)
	if live {
		res := l.remote.Update(ctx, id, entry.ToAPI(e))
		if res.OK() {
			l.served(op, SourceAPI)
			return &SaveOutput{Entry: entry.FromAPI(res.Value), Source: SourceAPI}, nil
		}
		remoteErr = fallbackResult(l, op, res)
	}

	saved, err := l.local.Replace(id, e)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		return nil, errors.NewStorageUnavailable(op, remoteErr, err)
	}
	l.served(op, SourceLocal)
	return &SaveOutput{Entry: saved, Source: SourceLocal}, nil
}
