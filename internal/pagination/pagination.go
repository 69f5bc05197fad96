// Package pagination implements stateless keyset (cursor) pagination.
//
// A page asks for at most Size rows whose ordering key is strictly greater
// than After. Chaining After = key of the last returned row walks the whole
// result set without skips or duplicates as long as no concurrent insert
// receives a key at or below the cursor.
package pagination

import (
	"context"
	"fmt"

	"github.com/and161185/audio-dementia/internal/errs"
)

const (
	// DefaultSize is used by the HTTP layer when per_page is absent.
	DefaultSize = 20
	// MaxSize caps a single page.
	MaxSize = 100
)

// Page is a keyset cursor request.
type Page struct {
	Size  int
	After int64
}

// Keyed is implemented by rows that can be paginated.
type Keyed interface {
	CursorKey() int64
}

// New validates a page request. size <= 0 is rejected, a negative cursor
// starts from the beginning, sizes above MaxSize are capped.
func New(size int, after int64) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("%w: page size must be positive, got %d", errs.ErrValidation, size)
	}
	if size > MaxSize {
		size = MaxSize
	}
	if after < 0 {
		after = 0
	}
	return Page{Size: size, After: after}, nil
}

// First returns the first page of the given size.
func First(size int) (Page, error) { return New(size, 0) }

// Next returns the page following items, and false when items is the last page.
func Next[T Keyed](p Page, items []T) (Page, bool) {
	if len(items) < p.Size || len(items) == 0 {
		return p, false
	}
	return Page{Size: p.Size, After: items[len(items)-1].CursorKey()}, true
}

// FetchFunc loads one page.
type FetchFunc[T Keyed] func(ctx context.Context, p Page) ([]T, error)

// Drain follows the cursor from p until the source is exhausted and returns all rows.
func Drain[T Keyed](ctx context.Context, p Page, fetch FetchFunc[T]) ([]T, error) {
	var out []T
	for {
		items, err := fetch(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		next, ok := Next(p, items)
		if !ok {
			return out, nil
		}
		if next.After <= p.After {
			return nil, fmt.Errorf("pagination: cursor did not advance (%d -> %d)", p.After, next.After)
		}
		p = next
	}
}
