package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/metrics"
	pkgerrors "github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	"github.com/timooo-thy/rag-atron-mllm/pkg/response"
)

// bindTypeMessages maps a mistyped JSON field to the client-facing
// message.
var bindTypeMessages = map[string]string{
	"caseId":      "Case ID is invalid",
	"temperature": "Temperature must be a number from 0 to 1",
	"similarity":  "Similarity must be a whole number from 1 to 10",
	"context":     "Context must be a whole number from 0 to 10",
}

// bindMessage translates a body decoding error. Type mismatches on
// known fields get their field message, everything else a generic one.
func bindMessage(err error) string {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		for field, msg := range bindTypeMessages {
			if ute.Field == field || strings.HasSuffix(ute.Field, "."+field) {
				return msg
			}
		}
	}
	return "Request body is invalid"
}

// ChatRAG handles POST /api/chat-rag. Validation failures are rejected
// before any external call; the answer is streamed.
func (h *Handler) ChatRAG(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.Get().RecordValidationError()
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, bindMessage(err))
		return
	}
	if verr := req.Validate(); verr != nil {
		metrics.Get().RecordValidationError()
		response.FailWithValidation(c, verr)
		return
	}

	stream, err := h.svc.ChatRAG(c.Request.Context(), &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	streamSSE(c, stream)
}

// chatMessagesRequest is the body of the passthrough chat endpoints.
type chatMessagesRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

// Chat handles POST /api/chat: the model over raw messages, streamed,
// no retrieval.
func (h *Handler) Chat(c *gin.Context) {
	var req chatMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, bindMessage(err))
		return
	}
	if len(req.Messages) == 0 {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "Messages are empty")
		return
	}

	stream, err := h.svc.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	streamSSE(c, stream)
}

// StreamBasic handles POST /api/stream-data-basic: the fixed
// intelligence-officer template over the flattened conversation.
func (h *Handler) StreamBasic(c *gin.Context) {
	var req chatMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, bindMessage(err))
		return
	}
	if len(req.Messages) == 0 {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "Messages are empty")
		return
	}

	stream, err := h.svc.BasicStream(c.Request.Context(), req.Messages)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	streamSSE(c, stream)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(c *gin.Context) {
	response.OK(c, h.svc.Stats(c.Request.Context()))
}
