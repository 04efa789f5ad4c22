package constants

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Pagination Query Parameters
const (
	QueryParamPage    = "page"
	QueryParamSize    = "size"
	QueryParamSortCol = "scol"
	QueryParamSortDir = "sdir"
	QueryParamSearch  = "search"
	QueryParamRoleIDs = "role_ids"
	QueryParamActive  = "is_active"
)

// Default Pagination Values (as strings for query parsing)
const (
	DefaultPage    = "1"
	DefaultSize    = "15"
	DefaultSortCol = "id"
	DefaultSortDir = "desc"
	DefaultSearch  = ""
)

// Pagination Limits (as integers for validation)
const (
	MinPage = 1
	MinSize = 1
	MaxSize = 100
)

// Sort Orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// PaginationParams holds the parsed list-endpoint query parameters.
type PaginationParams struct {
	Page    int
	Size    int
	Offset  int
	SortCol string
	SortDir string
	Search  string
}

// ParsePaginationParams parses page/size/scol/sdir/search from the request,
// clamping page and size into their valid ranges. The sort column is checked
// against the caller's whitelist; unknown columns fall back to the default.
func ParsePaginationParams(c *gin.Context, sortable []string) PaginationParams {
	pageStr := c.DefaultQuery(QueryParamPage, DefaultPage)
	sizeStr := c.DefaultQuery(QueryParamSize, DefaultSize)

	page, _ := strconv.Atoi(pageStr)
	size, _ := strconv.Atoi(sizeStr)

	if page < MinPage {
		page = MinPage
	}
	if size < MinSize {
		size = MinSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	sortCol := c.DefaultQuery(QueryParamSortCol, DefaultSortCol)
	if !contains(sortable, sortCol) {
		sortCol = DefaultSortCol
	}

	sortDir := c.DefaultQuery(QueryParamSortDir, DefaultSortDir)
	if sortDir != OrderAsc && sortDir != OrderDesc {
		sortDir = DefaultSortDir
	}

	return PaginationParams{
		Page:    page,
		Size:    size,
		Offset:  (page - 1) * size,
		SortCol: sortCol,
		SortDir: sortDir,
		Search:  c.DefaultQuery(QueryParamSearch, DefaultSearch),
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
