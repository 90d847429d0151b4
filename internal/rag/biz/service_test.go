package biz

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	ragopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/rag"
)

type testDeps struct {
	chat        *fakeChat
	embedder    *fakeEmbedder
	store       *fakeStore
	objects     *fakeObjects
	transcriber *fakeTranscriber
	video       *fakeVideo
}

func newTestService(t *testing.T) (*Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		chat:        &fakeChat{},
		embedder:    &fakeEmbedder{},
		store:       newFakeStore(),
		objects:     &fakeObjects{failIdx: map[int]bool{}},
		transcriber: &fakeTranscriber{transcripts: []string{"transcript"}},
		video:       &fakeVideo{answer: "clip analysis"},
	}
	svc, err := New(&Config{
		RAG:         ragopts.NewOptions(),
		Store:       deps.store,
		Embedder:    deps.embedder,
		Chat:        deps.chat,
		Transcriber: deps.transcriber,
		Objects:     deps.objects,
		Video:       deps.video,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, deps
}

func chatReq(messages ...model.ChatMessage) *model.ChatRequest {
	return &model.ChatRequest{
		Messages:    messages,
		CaseID:      42,
		Temperature: 0.4,
		Similarity:  3,
		Context:     2,
		ModelName:   model.ModelLlama3Instruct,
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestChatRAGRetrievalPath(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"Case Analysis"}
	deps.chat.streamTokens = [][]string{{"The ", "findings."}}
	deps.store.results = []*store.SearchResult{
		{Content: "meet at the pier", CaseID: 42, URL: "https://evidence/1", Score: 0.9},
		{Content: "bring the stuff", CaseID: 42, URL: "https://evidence/2", Score: 0.8},
	}

	stream, err := svc.ChatRAG(context.Background(), chatReq(
		model.ChatMessage{Role: model.RoleUser, Content: "Did the suspect arrange a meeting?"},
	))
	require.NoError(t, err)

	content, done, streamErr := collect(stream)
	require.NoError(t, streamErr)
	assert.True(t, done)
	assert.Equal(t, "The findings.", content)

	assert.Equal(t, "text", deps.store.lastCollection)
	assert.Equal(t, 42, deps.store.lastCaseID)
	assert.Equal(t, 3, deps.store.lastTopK)

	require.Len(t, deps.chat.streamCalls, 1)
	msgs := deps.chat.streamCalls[0]
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "caseId: 42")
	assert.Contains(t, msgs[0].Content, "meet at the pier")
	assert.Contains(t, msgs[0].Content, documentSeparator)
	assert.Contains(t, msgs[1].Content, "Case ID: 42")

	opts := deps.chat.streamOpts[0]
	assert.Equal(t, "llama3:instruct", opts.Model)
	assert.Equal(t, 0.4, opts.Temperature)
}

func TestChatRAGEmptyContextBlock(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"Case Analysis"}
	deps.chat.streamTokens = [][]string{{"ok"}}

	stream, err := svc.ChatRAG(context.Background(), chatReq(
		model.ChatMessage{Role: model.RoleUser, Content: "anything on case 42?"},
	))
	require.NoError(t, err)
	collect(stream)

	msgs := deps.chat.streamCalls[0]
	assert.NotContains(t, msgs[0].Content, "caseId:")
	assert.Contains(t, msgs[0].Content, "If context is blank")
}

func TestChatRAGHistoryQuerySkipsRetrieval(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"History Query"}
	deps.chat.streamTokens = [][]string{{"as discussed"}}

	stream, err := svc.ChatRAG(context.Background(), chatReq(
		model.ChatMessage{Role: model.RoleUser, Content: "hello"},
		model.ChatMessage{Role: model.RoleAssistant, Content: "hi"},
		model.ChatMessage{Role: model.RoleUser, Content: "what did I just say?"},
	))
	require.NoError(t, err)
	collect(stream)

	assert.Empty(t, deps.store.lastCollection)
	require.Len(t, deps.chat.streamCalls, 1)
	prompt := deps.chat.streamCalls[0][0].Content
	assert.Contains(t, prompt, "Current conversation:")
	assert.Contains(t, prompt, "user: hello")
	assert.Contains(t, prompt, "what did I just say?")
}

func TestChatRAGRephrasesWithHistory(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"Case Analysis"}
	deps.chat.chatAnswers = []string{"suspect meeting pier drugs"}
	deps.chat.streamTokens = [][]string{{"ok"}}

	stream, err := svc.ChatRAG(context.Background(), chatReq(
		model.ChatMessage{Role: model.RoleUser, Content: "Who is the suspect?"},
		model.ChatMessage{Role: model.RoleAssistant, Content: "John Doe."},
		model.ChatMessage{Role: model.RoleUser, Content: "Where did he go?"},
	))
	require.NoError(t, err)
	collect(stream)

	require.NotEmpty(t, deps.embedder.texts)
	assert.Equal(t, "suspect meeting pier drugs", deps.embedder.texts[0])

	require.Len(t, deps.chat.chatCalls, 1)
	rephraseMsgs := deps.chat.chatCalls[0]
	last := rephraseMsgs[len(rephraseMsgs)-1]
	assert.Contains(t, last.Content, "Only return the query and no other text")
}

func TestChatRAGImageLookup(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"Image Lookup"}
	deps.chat.chatAnswers = []string{"white powder in a plastic bag"}
	deps.chat.streamTokens = [][]string{{"match found"}}

	req := chatReq(model.ChatMessage{Role: model.RoleUser, Content: "find similar exhibits"})
	req.AttachmentType = model.AttachmentImage
	req.Attachments = []string{b64("fake-image-bytes")}

	stream, err := svc.ChatRAG(context.Background(), req)
	require.NoError(t, err)
	collect(stream)

	assert.Equal(t, "images", deps.store.lastCollection)
	require.NotEmpty(t, deps.embedder.texts)
	assert.Contains(t, deps.embedder.texts[0], " Description of image to lookup: white powder in a plastic bag")
}

func TestChatRAGImageDescribe(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"Describe"}
	deps.chat.streamTokens = [][]string{{"|table one|"}, {"|table two|"}}

	req := chatReq(model.ChatMessage{Role: model.RoleUser, Content: "caption these"})
	req.AttachmentType = model.AttachmentImage
	req.Attachments = []string{b64("first"), b64("second")}

	stream, err := svc.ChatRAG(context.Background(), req)
	require.NoError(t, err)
	content, done, streamErr := collect(stream)
	require.NoError(t, streamErr)
	assert.True(t, done)
	assert.Equal(t, "|table one|\n\n|table two|", content)

	require.Len(t, deps.chat.streamCalls, 2)
	assert.Contains(t, deps.chat.streamCalls[0][0].Content, "obj-0")
	assert.Contains(t, deps.chat.streamCalls[1][0].Content, "obj-1")
	assert.Contains(t, deps.chat.streamCalls[0][0].Content, "User's query: caption these")
}

func TestChatRAGImageDescribePartialUploadFailure(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.generateAnswers = []string{"Describe"}
	deps.chat.streamTokens = [][]string{{"caption"}}
	deps.objects.failIdx[0] = true

	req := chatReq(model.ChatMessage{Role: model.RoleUser, Content: "caption these"})
	req.AttachmentType = model.AttachmentImage
	req.Attachments = []string{b64("first"), b64("second")}

	stream, err := svc.ChatRAG(context.Background(), req)
	require.NoError(t, err)
	collect(stream)

	require.Len(t, deps.chat.streamCalls, 1)
	assert.Contains(t, deps.chat.streamCalls[0][0].Content, "obj-1")
}

func TestChatRAGAudio(t *testing.T) {
	svc, deps := newTestService(t)
	deps.transcriber.transcripts = []string{"clip one text", "clip two text"}
	deps.chat.streamTokens = [][]string{{"restated"}}

	req := chatReq(model.ChatMessage{Role: model.RoleUser, Content: "transcribe"})
	req.AttachmentType = model.AttachmentAudio
	req.Attachments = []string{b64("audio-one"), b64("audio-two")}

	stream, err := svc.ChatRAG(context.Background(), req)
	require.NoError(t, err)
	collect(stream)

	require.Len(t, deps.chat.streamCalls, 1)
	prompt := deps.chat.streamCalls[0][0].Content
	assert.Contains(t, prompt, "There is/are 2 audio clips")
	assert.Contains(t, prompt, "clip one text,clip two text")
}

func TestChatRAGVideoRelay(t *testing.T) {
	svc, deps := newTestService(t)

	req := chatReq(model.ChatMessage{Role: model.RoleUser, Content: "what happens in the clip?"})
	req.AttachmentType = model.AttachmentVideo
	req.Attachments = []string{b64("video-bytes")}

	stream, err := svc.ChatRAG(context.Background(), req)
	require.NoError(t, err)
	content, done, streamErr := collect(stream)
	require.NoError(t, streamErr)
	assert.True(t, done)
	assert.Equal(t, "clip analysis", content)
	assert.Equal(t, "what happens in the clip?", deps.video.lastText)
	assert.True(t, strings.HasPrefix(deps.video.lastURL, "https://store.example.com/"))

	// The chat model is bypassed entirely.
	assert.Empty(t, deps.chat.streamCalls)
}

func TestChatRAGVideoUploadFailure(t *testing.T) {
	svc, deps := newTestService(t)
	deps.objects.failIdx[0] = true

	req := chatReq(model.ChatMessage{Role: model.RoleUser, Content: "analyze"})
	req.AttachmentType = model.AttachmentVideo
	req.Attachments = []string{b64("video-bytes")}

	_, err := svc.ChatRAG(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrVideoUpload.Code))
}

func TestBasicStream(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.streamTokens = [][]string{{"**Question:**"}}

	stream, err := svc.BasicStream(context.Background(), []model.ChatMessage{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "hi there"},
		{Role: model.RoleUser, Content: "summarize the case"},
	})
	require.NoError(t, err)
	collect(stream)

	require.Len(t, deps.chat.streamCalls, 1)
	prompt := deps.chat.streamCalls[0][0].Content
	assert.Contains(t, prompt, "user: hello\nassistant: hi there")
	assert.Contains(t, prompt, "User: summarize the case")
	assert.Contains(t, prompt, "MARKDOWN")
}

func TestChatPassthrough(t *testing.T) {
	svc, deps := newTestService(t)
	deps.chat.streamTokens = [][]string{{"plain answer"}}

	stream, err := svc.Chat(context.Background(), []model.ChatMessage{
		{Role: model.RoleUser, Content: "just answer"},
	})
	require.NoError(t, err)
	content, done, streamErr := collect(stream)
	require.NoError(t, streamErr)
	assert.True(t, done)
	assert.Equal(t, "plain answer", content)

	msgs := deps.chat.streamCalls[0]
	require.Len(t, msgs, 1)
	assert.Equal(t, "just answer", msgs[0].Content)
}
