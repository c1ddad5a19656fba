package api

import (
	"bytes"         // Enum decoding
	"encoding/json" // Enum decoding
	"errors"        // Error inspection
	"strconv"       // String conversion
	"strings"       // String manipulation
	"time"          // Date parsing

	"personal_finance/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// Pagination bounds
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)

// fail records err for the error middleware and stops the chain
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bind decodes the JSON body, reporting problems as ValidationError
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return de
		}
		return domain.ValidationError("INVALID_REQUEST", "Invalid request: "+err.Error())
	}
	return nil
}

// idParam reads a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, domain.ValidationError("INVALID_ID", "Invalid "+name)
	}
	return uint(v), nil
}

// pagination reads page and pageSize, clamped to 1..MaxPage and 1..MaxPageSize
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = DefaultPage, DefaultPageSize
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = min(v, MaxPage) // Set page if valid
	}
	if v, err := strconv.Atoi(c.Query("pageSize")); err == nil {
		pageSize = min(max(v, 1), MaxPageSize)
	}
	return page, pageSize
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A date-only endOfDay value covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, domain.ValidationError("INVALID_DATE", "Dates must be RFC3339 or YYYY-MM-DD: "+s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// dateRange reads the startDate and endDate query parameters
func dateRange(c *gin.Context) (start, end *time.Time, err error) {
	if start, err = parseDate(c.Query("startDate"), false); err != nil {
		return nil, nil, err
	}
	if end, err = parseDate(c.Query("endDate"), true); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, domain.ValidationError("INVALID_DATE_RANGE", "endDate must not be before startDate")
	}
	return start, end, nil
}

// enum is a JSON enum value given either as a name or as its numeric code
type enum string

func (e *enum) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = enum(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return domain.ValidationError("INVALID_REQUEST", "enum values must be a name or a number")
	}
	*e = enum(strconv.Itoa(n))
	return nil
}

func (e enum) transactionType() (domain.TransactionType, error) {
	t, ok := domain.ParseTransactionType(string(e))
	if !ok {
		return "", domain.ValidationError("INVALID_TYPE", "Type must be Income or Expense")
	}
	return t, nil
}

func (e enum) accountType() (domain.AccountType, error) {
	t, ok := domain.ParseAccountType(string(e))
	if !ok {
		return "", domain.ValidationError("INVALID_ACCOUNT_TYPE", "Type must be one of Cash, BankCard, CreditCard, Savings, Investment")
	}
	return t, nil
}

// Paged is one page of a list endpoint
type Paged[T any] struct {
	Items       []T   `json:"items"`
	Page        int   `json:"page"`
	PageSize    int   `json:"pageSize"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPrevious"`
	HasNext     bool  `json:"hasNext"`
}

func newPaged[T any](items []T, page, pageSize int, total int64) Paged[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize)) // Calculate total pages
	return Paged[T]{
		Items:       items,
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}
