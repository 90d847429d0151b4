package handler

import (
	"context"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
	pkgerrors "github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	"github.com/timooo-thy/rag-atron-mllm/pkg/response"
)

// Ingest handles POST /api/ingest: chunk and index raw text under the
// default case.
func (h *Handler) Ingest(c *gin.Context) {
	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, bindMessage(err))
		return
	}
	if verr := req.Validate(); verr != nil {
		response.FailWithValidation(c, verr)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
	defer cancel()

	resp, err := h.svc.Ingest(ctx, &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.OK(c, resp)
}

// IngestText handles POST /api/ingest/text: upload the text to object
// storage, then chunk and index it under the given case.
func (h *Handler) IngestText(c *gin.Context) {
	var req model.EmbedTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, bindMessage(err))
		return
	}
	if verr := req.Validate(); verr != nil {
		response.FailWithValidation(c, verr)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
	defer cancel()

	resp, err := h.svc.IngestText(ctx, &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.OK(c, resp)
}

// IngestImage handles POST /api/ingest/image (multipart): upload the
// image, caption it with the vision model, and index the caption.
func (h *Handler) IngestImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	caseField := c.PostForm("caseId")
	if caseField == "" {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "Case ID is empty")
		return
	}
	caseID, err := strconv.Atoi(caseField)
	if err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "Case ID is invalid")
		return
	}

	if header.Size >= model.MaxImageSize {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "File size must be less than 10MB")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, model.MaxImageSize))
	if err != nil {
		response.FailWithCode(c, pkgerrors.ErrInvalidParam.Code, "No file provided")
		return
	}

	req := &model.EmbedImageRequest{
		CaseID:      caseID,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if verr := req.Validate(); verr != nil {
		response.FailWithValidation(c, verr)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
	defer cancel()

	resp, err := h.svc.IngestImage(ctx, req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.OK(c, resp)
}
