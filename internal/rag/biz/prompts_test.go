package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
)

func TestAssembleContext(t *testing.T) {
	results := []*store.SearchResult{
		{Content: "first doc", CaseID: 42, URL: "https://evidence/1"},
		{Content: "second doc", CaseID: 42, URL: "https://evidence/2"},
	}

	block := AssembleContext(results)
	docs := strings.Split(block, documentSeparator)
	assert.Len(t, docs, 2)
	assert.Equal(t, "caseId: 42\nurl: https://evidence/1\npage content: first doc", docs[0])
	assert.Equal(t, "caseId: 42\nurl: https://evidence/2\npage content: second doc", docs[1])
}

func TestAssembleContextEmpty(t *testing.T) {
	assert.Empty(t, AssembleContext(nil))
}

func TestBuildQNASystemPrompt(t *testing.T) {
	prompt := buildQNASystemPrompt("some context")
	assert.Contains(t, prompt, "Intelligence Officer")
	assert.Contains(t, prompt, "Context:\n some context \n")
	assert.Contains(t, prompt, "No relevant context found with the Case ID specified. Please try again.")
	assert.Contains(t, prompt, "Source Reference:")
}

func TestBuildExhibitCaptionPrompt(t *testing.T) {
	prompt := buildExhibitCaptionPrompt("https://store/obj-1.png", "what is this?")
	assert.Contains(t, prompt, "use this URL: https://store/obj-1.png")
	assert.Contains(t, prompt, "User's query: what is this?")
	assert.Contains(t, prompt, "'Exhibition Image', 'Description'")
}

func TestBuildAudioRestatePrompt(t *testing.T) {
	prompt := buildAudioRestatePrompt([]string{"first clip", "second clip"})
	assert.Contains(t, prompt, "There is/are 2 audio clips")
	assert.True(t, strings.HasSuffix(prompt, "Transcriptions:first clip,second clip"))
}

func TestBuildBasicPrompt(t *testing.T) {
	prompt := buildBasicPrompt("user: hi", "summarize")
	assert.Contains(t, prompt, "Current conversation:\nuser: hi")
	assert.Contains(t, prompt, "User: summarize")
}
