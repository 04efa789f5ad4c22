// Package response builds the uniform JSON envelope returned by every
// endpoint: {result, code, message, data, errors?, paginate?}.
package response

// Envelope is the wire shape shared by all endpoints.
type Envelope struct {
	Result   bool        `json:"result"`
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Errors   []string    `json:"errors,omitempty"`
	Paginate *Pagination `json:"paginate,omitempty"`
}

// Pagination mirrors the list-endpoint paginate block. FirstItem and
// LastItem are null when the page holds no rows.
type Pagination struct {
	HasPage      bool  `json:"has_page"`
	OnFirstPage  bool  `json:"on_first_page"`
	HasMorePages bool  `json:"has_more_pages"`
	FirstItem    *int  `json:"first_item"`
	LastItem     *int  `json:"last_item"`
	Total        int64 `json:"total"`
	CurrentPage  int   `json:"current_page"`
	LastPage     int   `json:"last_page"`
}

const defaultCode = 1

// Success builds a result:true envelope.
func Success(message string, data interface{}) Envelope {
	if data == nil {
		data = []interface{}{}
	}
	return Envelope{
		Result:  true,
		Code:    defaultCode,
		Message: message,
		Data:    data,
	}
}

// Fail builds a result:false envelope.
func Fail(message string) Envelope {
	return Envelope{
		Result:  false,
		Code:    defaultCode,
		Message: message,
		Data:    []interface{}{},
	}
}

// FailWithErrors builds a result:false envelope carrying per-field
// validation messages.
func FailWithErrors(message string, errs []string) Envelope {
	env := Fail(message)
	env.Errors = errs
	return env
}

// WentWrong is the generic internal-failure envelope. It never carries
// details of the underlying error.
func WentWrong() Envelope {
	return Fail("Something went wrong!")
}

// Paginated builds a result:true envelope with the paginate block attached.
func Paginated(message string, data interface{}, p Pagination) Envelope {
	env := Success(message, data)
	env.Paginate = &p
	return env
}

// NewPagination computes the paginate block for a page of `count` rows out
// of `total`, requested with 1-based `page` and page size `size`.
func NewPagination(total int64, page, size, count int) Pagination {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}

	lastPage := int((total + int64(size) - 1) / int64(size))
	if lastPage < 1 {
		lastPage = 1
	}

	p := Pagination{
		HasPage:      lastPage > 1,
		OnFirstPage:  page <= 1,
		HasMorePages: page < lastPage,
		Total:        total,
		CurrentPage:  page,
		LastPage:     lastPage,
	}

	if count > 0 {
		first := (page-1)*size + 1
		last := first + count - 1
		p.FirstItem = &first
		p.LastItem = &last
	}

	return p
}
