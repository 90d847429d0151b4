package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	"github.com/timooo-thy/rag-atron-mllm/pkg/middleware"
	"github.com/timooo-thy/rag-atron-mllm/pkg/validator"
)

// Writer provides convenient methods to write responses to a gin context.
type Writer struct {
	ctx      *gin.Context
	withTime bool
}

// NewWriter creates a new response writer for the given context.
func NewWriter(ctx *gin.Context) *Writer {
	return &Writer{ctx: ctx}
}

// WithTimestamp enables automatic timestamp in responses.
func (w *Writer) WithTimestamp() *Writer {
	w.withTime = true
	return w
}

// prepare adds optional fields to the response.
func (w *Writer) prepare(r *Response) *Response {
	if w.withTime {
		r.Timestamp = time.Now().UnixMilli()
	}
	if rid := middleware.GetRequestID(w.ctx); rid != "" {
		r.RequestID = rid
	}
	return r
}

// OK sends a successful response with data.
func (w *Writer) OK(data interface{}) {
	resp := w.prepare(Success(data))
	w.ctx.JSON(resp.HTTPStatus(), resp)
}

// OKWithMessage sends a successful response with custom message.
func (w *Writer) OKWithMessage(message string, data interface{}) {
	resp := w.prepare(SuccessWithMessage(message, data))
	w.ctx.JSON(resp.HTTPStatus(), resp)
}

// Fail sends an error response using Errno.
func (w *Writer) Fail(e *errors.Errno) {
	resp := w.prepare(Err(e))
	w.ctx.JSON(e.HTTPStatus(), resp)
}

// FailWithCode sends an error response with code and message.
func (w *Writer) FailWithCode(code int, message string) {
	resp := w.prepare(ErrorWithCode(code, message))
	w.ctx.JSON(resp.HTTPStatus(), resp)
}

// FailWithError converts a standard error and sends it.
// If the error is an Errno, it uses it directly.
// Otherwise, it wraps it as ErrInternal.
func (w *Writer) FailWithError(err error) {
	w.Fail(errors.FromError(err))
}

// FailWithValidation sends a validation error response. The message is
// the first violation; the full error list rides along in data.
func (w *Writer) FailWithValidation(verr *validator.ValidationErrors) {
	resp := w.prepare(&Response{
		Code:       errors.ErrValidationFailed.Code,
		Message:    verr.First(),
		Data:       verr.ToMap(),
		httpStatus: http.StatusBadRequest,
	})
	w.ctx.JSON(http.StatusBadRequest, resp)
}

// Send sends a custom response.
func (w *Writer) Send(r *Response) {
	resp := w.prepare(r)
	w.ctx.JSON(resp.HTTPStatus(), resp)
}

// OK sends a successful response.
func OK(ctx *gin.Context, data interface{}) {
	NewWriter(ctx).OK(data)
}

// OKWithMessage sends a successful response with message.
func OKWithMessage(ctx *gin.Context, message string, data interface{}) {
	NewWriter(ctx).OKWithMessage(message, data)
}

// Fail sends an error response using Errno.
func Fail(ctx *gin.Context, e *errors.Errno) {
	NewWriter(ctx).Fail(e)
}

// FailWithCode sends an error response with code and message.
func FailWithCode(ctx *gin.Context, code int, message string) {
	NewWriter(ctx).FailWithCode(code, message)
}

// FailWithError sends an error response from a standard error.
func FailWithError(ctx *gin.Context, err error) {
	NewWriter(ctx).FailWithError(err)
}

// FailWithValidation sends a validation error response.
func FailWithValidation(ctx *gin.Context, verr *validator.ValidationErrors) {
	NewWriter(ctx).FailWithValidation(verr)
}
