package ops

import (
	"context"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// LoadOutput contains the result of LoadAll.
type LoadOutput struct {
	Items  []entry.Entry `json:"items"`
	Source Source        `json:"source"`
}

// LoadAll returns every entry from the API (first ListLimit rows) or,
// when the API is not usable, from local storage.
func (l *Layer) LoadAll(ctx context.Context) (*LoadOutput, error) {
	const op = "load_all"

	if live, _ := l.probe(ctx, op); live {
		res := l.remote.List(ctx, l.listLimit, 0)
		if res.OK() {
			l.served(op, SourceAPI)
			return &LoadOutput{Items: entry.FromAPIAll(res.Value), Source: SourceAPI}, nil
		}
		_ = fallbackResult(l, op, res)
	}

	l.served(op, SourceLocal)
	return &LoadOutput{Items: l.local.Read(), Source: SourceLocal}, nil
}

// GetOutput contains the result of Get.
type GetOutput struct {
	Entry  entry.Entry `json:"entry"`
	Source Source      `json:"source"`
}

// Get returns a single entry by id. Returns NOT_FOUND when the serving
// store does not have it.
func (l *Layer) Get(ctx context.Context, id entry.ID) (*GetOutput, error) {
	const op = "get"

	if id.String() == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if live, _ := l.probe(ctx, op); live {
		res := l.remote.Get(ctx, id)
		if res.OK() {
			l.served(op, SourceAPI)
			return &GetOutput{Entry: entry.FromAPI(res.Value), Source: SourceAPI}, nil
		}
		_ = fallbackResult(l, op, res)
	}

	l.served(op, SourceLocal)
	for _, e := range l.local.Read() {
		if e.ID.Equal(id) {
			return &GetOutput{Entry: e, Source: SourceLocal}, nil
		}
	}
	return nil, errors.NewNotFound(id.String())
}
