// Package model provides request/response models for the NarcoNet RAG
// service.
package model

import (
	"github.com/timooo-thy/rag-atron-mllm/pkg/validator"
)

// Model identifies a supported chat model.
type Model string

// Supported models.
const (
	ModelLlama3Instruct   Model = "llama3:instruct"
	ModelLlama370Instruct Model = "llama3:70b-instruct"
	ModelLlava13B         Model = "llava:13b"
)

// AttachmentType declares the modality of all attachments in a request.
// Attachments are homogeneous: one declared type covers every payload.
type AttachmentType string

// Attachment modalities.
const (
	AttachmentNone  AttachmentType = ""
	AttachmentText  AttachmentType = "text"
	AttachmentImage AttachmentType = "image"
	AttachmentAudio AttachmentType = "audio"
	AttachmentVideo AttachmentType = "video"
)

// Role identifies a chat message author.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the body of POST /api/chat-rag.
type ChatRequest struct {
	Messages       []ChatMessage  `json:"messages" validate:"required,min=1,dive"`
	CaseID         int            `json:"caseId" validate:"required,gt=0"`
	Temperature    float64        `json:"temperature" validate:"gte=0,lte=1"`
	Similarity     int            `json:"similarity" validate:"required,gte=1,lte=10"`
	Context        int            `json:"context" validate:"gte=0,lte=10"`
	ModelName      Model          `json:"modelName" validate:"required,oneof=llama3:instruct llama3:70b-instruct llava:13b"`
	Attachments    []string       `json:"chatFilesBase64" validate:"omitempty,dive,required"`
	AttachmentType AttachmentType `json:"fileType" validate:"omitempty,oneof=text image audio video"`
}

// chatMessages maps (json field, failed tag) to the message surfaced to
// the client. Only the first violation reaches the response body.
var chatMessages = map[string]map[string]string{
	"caseId": {
		"required": "Case ID is empty",
		"gt":       "Case ID is empty",
	},
	"temperature": {
		"gte": "Temperature must be a number from 0 to 1",
		"lte": "Temperature must be a number from 0 to 1",
	},
	"similarity": {
		"required": "Similarity must be a whole number from 1 to 10",
		"gte":      "Similarity must be a whole number from 1 to 10",
		"lte":      "Similarity must be a whole number from 1 to 10",
	},
	"context": {
		"gte": "Context must be a whole number from 0 to 10",
		"lte": "Context must be a whole number from 0 to 10",
	},
	"modelName": {
		"required": "Please select a model.",
		"oneof":    "Please select a model.",
	},
	"fileType": {
		"oneof": "Attachment type is invalid",
	},
	"messages": {
		"required": "Messages are empty",
		"min":      "Messages are empty",
	},
}

// Validate checks the request and returns the violations with
// client-facing messages. Field order in the struct fixes which
// violation is reported first.
func (r *ChatRequest) Validate() *validator.ValidationErrors {
	verr := validator.Struct(r)
	if verr == nil {
		return nil
	}
	return overrideMessages(verr, chatMessages)
}

// CurrentMessage returns the content of the latest message.
func (r *ChatRequest) CurrentMessage() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// HistoryWindow returns the most recent `context` turns preceding the
// current message. Context 0 means no history at all.
func (r *ChatRequest) HistoryWindow() []ChatMessage {
	if r.Context == 0 || len(r.Messages) <= 1 {
		return nil
	}
	prior := r.Messages[:len(r.Messages)-1]
	if len(prior) > r.Context {
		prior = prior[len(prior)-r.Context:]
	}
	return prior
}

// overrideMessages rewrites translated validator messages with the
// client-facing ones from the given table.
func overrideMessages(verr *validator.ValidationErrors, table map[string]map[string]string) *validator.ValidationErrors {
	for i, fe := range verr.Errors {
		if byTag, ok := table[fe.Field]; ok {
			if msg, ok := byTag[fe.Tag]; ok {
				verr.Errors[i].Message = msg
			}
		}
	}
	return verr
}
