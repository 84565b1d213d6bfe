package module

import (
	"encoding/json"
	"net/http"
)

// Content types used by response constructors.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// InternalErrorMessage is the fixed body returned for unexpected
// failures. It never carries details of the underlying error.
const InternalErrorMessage = "internal error"

// Response is the uniform result produced by module commands and the
// route dispatcher. Code carries HTTP status semantics regardless of
// the transport the route was invoked over.
type Response struct {
	Code int    `json:"code"`
	Data []byte `json:"data,omitempty"`
	Type string `json:"type,omitempty"`
}

// OK returns an empty 200 response.
func OK() *Response {
	return &Response{Code: http.StatusOK}
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return &Response{Code: http.StatusNoContent}
}

// Text returns a plain-text response with the given status code.
func Text(code int, text string) *Response {
	return &Response{Code: code, Data: []byte(text), Type: ContentTypeText}
}

// JSON marshals v into a JSON response with the given status code.
func JSON(code int, v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Internal()
	}
	return &Response{Code: code, Data: data, Type: ContentTypeJSON}
}

// Forbidden returns a 403 response carrying the given message.
func Forbidden(msg string) *Response {
	return Text(http.StatusForbidden, msg)
}

// Internal returns the generic 500 response.
func Internal() *Response {
	return Text(http.StatusInternalServerError, InternalErrorMessage)
}

// IsSuccess reports whether the response allows a non-broadcast chain
// to stop successfully.
func (r *Response) IsSuccess() bool {
	return r.Code == http.StatusOK || r.Code == http.StatusNoContent
}

// IsError reports whether the response carries a client or server
// error code. An error response always aborts a route chain.
func (r *Response) IsError() bool {
	return !r.IsSuccess()
}
