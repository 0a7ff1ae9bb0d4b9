package fxcrm

import (
	"context"
	"errors"
	"iter"
	"net/http"
)

// DefaultOffsetPath is where search queries keep their page offset.
var DefaultOffsetPath = []string{"data", "search_query_info", "offset"}

// Cursor streams the items of a paged search endpoint. It is forward only:
// once exhausted, build a new Cursor to iterate again.
//
// The cursor advances while the last page reported total > offset + limit.
// An empty dataList on its own does not end the stream.
type Cursor struct {
	caller     Caller
	method     string
	path       Path
	params     Params
	offsetPath []string
	callOpts   []CallOption

	queue     []Object
	total     int
	hasTotal  bool
	exhausted bool
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithCursorMethod sets the HTTP method used for page fetches (POST by default).
func WithCursorMethod(method string) CursorOption {
	return func(c *Cursor) {
		if method != "" {
			c.method = method
		}
	}
}

// WithOffsetPath sets where the next offset is written in the params.
func WithOffsetPath(keys ...string) CursorOption {
	return func(c *Cursor) {
		if len(keys) > 0 {
			c.offsetPath = append([]string(nil), keys...)
		}
	}
}

// WithCursorCallOptions passes call options to every page fetch.
func WithCursorCallOptions(opts ...CallOption) CursorOption {
	return func(c *Cursor) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// NewCursor creates a cursor seeded with a copy of params. No request is
// made until the first LoadNextPage, HasNext or Next.
func NewCursor(caller Caller, path Path, params Params, opts ...CursorOption) *Cursor {
	cursor := &Cursor{
		caller:     caller,
		method:     http.MethodPost,
		path:       path,
		params:     params.Clone(),
		offsetPath: DefaultOffsetPath,
	}

	for _, opt := range opts {
		opt(cursor)
	}

	return cursor
}

// LoadNextPage fetches one page into the buffer and reports whether the
// buffer is non-empty. It is a no-op returning false once the cursor is
// exhausted. On error the cursor state is unchanged.
func (c *Cursor) LoadNextPage(ctx context.Context) (bool, error) {
	if c.exhausted {
		return false, nil
	}

	result, err := c.caller.Call(ctx, c.method, c.path, c.params.Clone(), c.callOpts...)
	if err != nil {
		return false, err
	}

	page, err := result.Page()
	if err != nil {
		return false, err
	}

	if page.HasTotal && page.HasOffset && page.HasLimit && page.Limit > 0 && page.Total > page.Offset+page.Limit {
		c.params.SetPath(page.Offset+page.Limit, c.offsetPath...)
	} else {
		c.exhausted = true
	}

	if page.HasTotal {
		c.total = page.Total
		c.hasTotal = true
	}

	c.queue = page.Items

	return len(c.queue) > 0, nil
}

// HasNext reports whether Next would return an item. With an empty buffer
// it loads exactly one page.
func (c *Cursor) HasNext(ctx context.Context) (bool, error) {
	if len(c.queue) > 0 {
		return true, nil
	}

	return c.LoadNextPage(ctx)
}

// Next returns the next item in server order. With an empty buffer it loads
// exactly one page; if that page is empty it returns ErrNoMoreItems.
func (c *Cursor) Next(ctx context.Context) (Object, error) {
	if len(c.queue) == 0 {
		ok, err := c.LoadNextPage(ctx)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, ErrNoMoreItems
		}
	}

	item := c.queue[0]
	c.queue = c.queue[1:]

	return item, nil
}

// All returns an iterator over the remaining items. Iteration stops after
// the first error, which is yielded.
func (c *Cursor) All(ctx context.Context) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		for {
			item, err := c.Next(ctx)
			if errors.Is(err, ErrNoMoreItems) {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(item, nil) {
				return
			}
		}
	}
}

// Collect drains the cursor into a slice.
func (c *Cursor) Collect(ctx context.Context) ([]Object, error) {
	var items []Object

	for item, err := range c.All(ctx) {
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach calls fn for every remaining item until fn returns an error.
func (c *Cursor) ForEach(ctx context.Context, fn func(Object) error) error {
	for item, err := range c.All(ctx) {
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// First returns the next item, or false when there is none.
func (c *Cursor) First(ctx context.Context) (Object, bool, error) {
	item, err := c.Next(ctx)
	if errors.Is(err, ErrNoMoreItems) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return item, true, nil
}

// Total returns the last total reported by the server, if any page carried one.
func (c *Cursor) Total() (int, bool) {
	return c.total, c.hasTotal
}

// Exhausted reports whether the last page was the final one.
func (c *Cursor) Exhausted() bool {
	return c.exhausted
}

// Offset returns the offset the next page fetch will request.
func (c *Cursor) Offset() int {
	value, ok := c.params.GetPath(c.offsetPath...)
	if !ok {
		return 0
	}

	offset, _ := intValue(value)

	return offset
}

// Buffered returns the number of fetched items not yet returned.
func (c *Cursor) Buffered() int {
	return len(c.queue)
}
