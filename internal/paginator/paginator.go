// Package paginator splits ORM queries into numbered pages.
package paginator

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// DefaultPageSize is used when a non-positive size is requested
const DefaultPageSize = 10

// Page is one slice of a paginated query
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PageSize int
}

// HasNext reports whether a later page exists
func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

// HasPrevious reports whether an earlier page exists
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

// HasOtherPages reports whether there is more than one page
func (p *Page[T]) HasOtherPages() bool { return p.NumPages > 1 }

// NextNumber is the number of the following page
func (p *Page[T]) NextNumber() int { return p.Number + 1 }

// PreviousNumber is the number of the preceding page
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// PageRange lists every page number, 1..NumPages
func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// StartIndex is the 1-based position of the first item on the page, 0 if empty
func (p *Page[T]) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.PageSize)*int64(p.Number-1) + 1
}

// NumPages computes the page count for count items; it is never below one.
func NumPages(count int64, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(size) - 1) / int64(size))
}

// Resolve turns the raw ?page= value into a valid page number.
// Garbage gives the first page. Numbers out of range, below one included, give the last.
func Resolve(raw string, numPages int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// NewPage resolves raw against count and returns a page without items
func NewPage[T any](count int64, raw string, size int) *Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	page := &Page[T]{
		Count:    count,
		PageSize: size,
		NumPages: NumPages(count, size),
	}
	page.Number = Resolve(raw, page.NumPages)
	return page
}

// Load fetches the items of the page from q.
// Scopes (preloads, ordering) are applied to the fetch only.
func (p *Page[T]) Load(q *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) error {
	items := make([]T, 0, p.PageSize)
	if p.Count > 0 {
		err := q.Session(&gorm.Session{}).
			Scopes(scopes...).
			Offset((p.Number - 1) * p.PageSize).
			Limit(p.PageSize).
			Find(&items).Error
		if err != nil {
			return fmt.Errorf("failed to load page %d: %w", p.Number, err)
		}
	}
	p.Items = items
	return nil
}

// Paginate counts q, then loads the requested page
func Paginate[T any](q *gorm.DB, raw string, size int, scopes ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	page := NewPage[T](count, raw, size)
	if err := page.Load(q, scopes...); err != nil {
		return nil, err
	}
	return page, nil
}
