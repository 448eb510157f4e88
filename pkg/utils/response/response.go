// Package response defines the JSON envelope every LabelHub endpoint returns.
package response

import (
	"net/http"

	"github.com/kart-io/labelhub/pkg/errors"
)

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// HTTPCode is the HTTP status code (optional, for client convenience)
	HTTPCode int `json:"http_code,omitempty"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains the response payload, or error details on failure
	Data any `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
}

// PageData represents paginated data.
type PageData struct {
	List       any   `json:"list"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Success creates a successful response with data.
func Success(data any) *Response {
	return &Response{
		Code:     0,
		HTTPCode: http.StatusOK,
		Message:  "success",
		Data:     data,
	}
}

// Created creates a successful response for a newly created resource.
func Created(data any) *Response {
	r := Success(data)
	r.HTTPCode = http.StatusCreated
	return r
}

// Err creates an error response from an Errno, carrying its details as data.
func Err(e *errors.Errno) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:     e.Code,
		HTTPCode: e.HTTPStatus(),
		Message:  e.MessageEN,
		Data:     e.Details(),
	}
}

// Page creates a paginated response.
func Page(list any, total int64, page, pageSize int) *Response {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}

	return Success(&PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// HTTPStatus returns the appropriate HTTP status code for this response.
func (r *Response) HTTPStatus() int {
	if r.HTTPCode != 0 {
		return r.HTTPCode
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
