package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChatRequest() ChatRequest {
	return ChatRequest{
		Messages: []ChatMessage{
			{Role: RoleUser, Content: "Who sold the stock?"},
		},
		CaseID:      10932,
		Temperature: 0.5,
		Similarity:  4,
		Context:     3,
		ModelName:   ModelLlama3Instruct,
	}
}

func TestChatRequestValid(t *testing.T) {
	req := validChatRequest()
	assert.Nil(t, req.Validate())
}

func TestChatRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ChatRequest)
		message string
	}{
		{
			name:    "zero case id",
			mutate:  func(r *ChatRequest) { r.CaseID = 0 },
			message: "Case ID is empty",
		},
		{
			name:    "negative case id",
			mutate:  func(r *ChatRequest) { r.CaseID = -3 },
			message: "Case ID is empty",
		},
		{
			name:    "temperature above one",
			mutate:  func(r *ChatRequest) { r.Temperature = 1.5 },
			message: "Temperature must be a number from 0 to 1",
		},
		{
			name:    "temperature below zero",
			mutate:  func(r *ChatRequest) { r.Temperature = -0.1 },
			message: "Temperature must be a number from 0 to 1",
		},
		{
			name:    "similarity zero",
			mutate:  func(r *ChatRequest) { r.Similarity = 0 },
			message: "Similarity must be a whole number from 1 to 10",
		},
		{
			name:    "similarity too large",
			mutate:  func(r *ChatRequest) { r.Similarity = 11 },
			message: "Similarity must be a whole number from 1 to 10",
		},
		{
			name:    "context too large",
			mutate:  func(r *ChatRequest) { r.Context = 11 },
			message: "Context must be a whole number from 0 to 10",
		},
		{
			name:    "unknown model",
			mutate:  func(r *ChatRequest) { r.ModelName = "gpt-5" },
			message: "Please select a model.",
		},
		{
			name:    "missing model",
			mutate:  func(r *ChatRequest) { r.ModelName = "" },
			message: "Please select a model.",
		},
		{
			name:    "unknown attachment type",
			mutate:  func(r *ChatRequest) { r.AttachmentType = "hologram" },
			message: "Attachment type is invalid",
		},
		{
			name:    "no messages",
			mutate:  func(r *ChatRequest) { r.Messages = nil },
			message: "Messages are empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validChatRequest()
			tt.mutate(&req)

			verr := req.Validate()
			require.NotNil(t, verr)
			assert.Equal(t, tt.message, verr.First())
		})
	}
}

func TestChatRequestFirstViolationOnly(t *testing.T) {
	req := validChatRequest()
	req.CaseID = 0
	req.Temperature = 7

	verr := req.Validate()
	require.NotNil(t, verr)
	assert.Equal(t, "Case ID is empty", verr.First())
	assert.Equal(t, 2, verr.Count())
}

func TestHistoryWindow(t *testing.T) {
	req := validChatRequest()
	req.Messages = []ChatMessage{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
		{Role: RoleAssistant, Content: "a2"},
		{Role: RoleUser, Content: "q3"},
	}

	req.Context = 0
	assert.Nil(t, req.HistoryWindow())

	req.Context = 2
	window := req.HistoryWindow()
	require.Len(t, window, 2)
	assert.Equal(t, "q2", window[0].Content)
	assert.Equal(t, "a2", window[1].Content)

	req.Context = 10
	assert.Len(t, req.HistoryWindow(), 4)

	assert.Equal(t, "q3", req.CurrentMessage())
}

func TestIngestValidation(t *testing.T) {
	r := IngestRequest{Text: "suspect message log"}
	assert.Nil(t, r.Validate())

	empty := IngestRequest{}
	verr := empty.Validate()
	require.NotNil(t, verr)
	assert.Equal(t, "Text is empty", verr.First())

	et := EmbedTextRequest{Text: "log"}
	verr = et.Validate()
	require.NotNil(t, verr)
	assert.Equal(t, "Case ID is empty", verr.First())
}

func TestEmbedImageValidation(t *testing.T) {
	img := EmbedImageRequest{CaseID: 12, ContentType: "image/png", Data: []byte{0x89}}
	assert.Nil(t, img.Validate())

	img.ContentType = "image/gif"
	verr := img.Validate()
	require.NotNil(t, verr)
	assert.Equal(t, "File type must be PNG or JPEG", verr.First())

	img = EmbedImageRequest{ContentType: "image/png", Data: []byte{0x89}}
	verr = img.Validate()
	require.NotNil(t, verr)
	assert.Equal(t, "Case ID is empty", verr.First())
}
