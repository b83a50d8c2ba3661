package domain

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

type Page struct {
	Number int `json:"page"`
	Size   int `json:"limit"`
}

func NewPage(pageNumber, pageSize int) Page {
	pNumber := DefaultPageNumber
	if pageNumber > 0 {
		pNumber = pageNumber
	}

	pSize := DefaultPageSize
	if pageSize > 0 {
		pSize = pageSize
	}

	return Page{
		Number: pNumber,
		Size:   pSize,
	}
}

// Offset returns the number of items preceding the page.
func (p Page) Offset() int {
	if p.Number <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// PageResult is a page of items along with the unpaged count.
type PageResult[T any] struct {
	Result []T `json:"result"`
	Total  int `json:"total"`
	Page   int `json:"page"`
	Limit  int `json:"limit"`
}

// NewPageResult ...
func NewPageResult[T any](items []T, total int, page Page) PageResult[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return PageResult[T]{
		Result: items,
		Total:  total,
		Page:   page.Number,
		Limit:  page.Size,
	}
}
