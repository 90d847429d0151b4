package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/biz"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/gcs"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
	ragopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/rag"
)

type scriptedChat struct {
	generate string
	chat     string
	tokens   []string
}

func (s *scriptedChat) Name() string { return "scripted" }

func (s *scriptedChat) Generate(context.Context, string, string, ...llm.ChatOption) (string, error) {
	return s.generate, nil
}

func (s *scriptedChat) Chat(context.Context, []llm.Message, ...llm.ChatOption) (string, error) {
	return s.chat, nil
}

func (s *scriptedChat) ChatStream(context.Context, []llm.Message, ...llm.ChatOption) (<-chan llm.StreamChunk, error) {
	out := make(chan llm.StreamChunk, len(s.tokens)+1)
	for _, tok := range s.tokens {
		out <- llm.StreamChunk{Content: tok}
	}
	out <- llm.StreamChunk{Done: true}
	close(out)
	return out, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Name() string { return "static" }
func (staticEmbedder) EmbedSingle(context.Context, string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}
func (e staticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

type memStore struct {
	results []*store.SearchResult
}

func (memStore) EnsureCollections(context.Context) error { return nil }
func (m memStore) Insert(_ context.Context, _ string, chunks []*store.Chunk) ([]string, error) {
	return make([]string, len(chunks)), nil
}
func (m memStore) Search(context.Context, string, []float32, int, int) ([]*store.SearchResult, error) {
	return m.results, nil
}
func (memStore) Stats(context.Context, string) (int64, error) { return 0, nil }
func (memStore) Close(context.Context) error                  { return nil }

type memObjects struct{ n int }

func (m *memObjects) Upload(_ context.Context, _ []byte, _, ext string) (*gcs.Object, error) {
	key := fmt.Sprintf("obj-%d%s", m.n, ext)
	m.n++
	return &gcs.Object{Key: key, URL: "https://store.example.com/" + key}, nil
}

func newTestRouter(t *testing.T, chat *scriptedChat) *gin.Engine {
	t.Helper()
	svc, err := biz.New(&biz.Config{
		RAG:      ragopts.NewOptions(),
		Store:    memStore{},
		Embedder: staticEmbedder{},
		Chat:     chat,
		Objects:  &memObjects{},
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := New(svc)
	api := engine.Group("/api")
	api.POST("/chat-rag", h.ChatRAG)
	api.POST("/chat", h.Chat)
	api.POST("/stream-data-basic", h.StreamBasic)
	api.POST("/ingest", h.Ingest)
	api.POST("/ingest/text", h.IngestText)
	api.POST("/ingest/image", h.IngestImage)
	api.GET("/stats", h.Stats)
	return engine
}

func postJSON(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

const validChatBody = `{
	"messages": [{"role": "user", "content": "who is the supplier?"}],
	"caseId": 42,
	"temperature": 0.5,
	"similarity": 4,
	"context": 2,
	"modelName": "llama3:instruct"
}`

func TestChatRAGValidationMessages(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{generate: "Case Analysis", tokens: []string{"x"}})

	tests := []struct {
		name    string
		mutate  func(m map[string]any)
		message string
	}{
		{"zero case id", func(m map[string]any) { m["caseId"] = 0 }, "Case ID is empty"},
		{"negative case id", func(m map[string]any) { m["caseId"] = -3 }, "Case ID is empty"},
		{"non-integer case id", func(m map[string]any) { m["caseId"] = "abc" }, "Case ID is invalid"},
		{"non-number temperature", func(m map[string]any) { m["temperature"] = "hot" }, "Temperature must be a number from 0 to 1"},
		{"temperature too high", func(m map[string]any) { m["temperature"] = 1.5 }, "Temperature must be a number from 0 to 1"},
		{"similarity too high", func(m map[string]any) { m["similarity"] = 11 }, "Similarity must be a whole number from 1 to 10"},
		{"similarity missing", func(m map[string]any) { delete(m, "similarity") }, "Similarity must be a whole number from 1 to 10"},
		{"context too high", func(m map[string]any) { m["context"] = 12 }, "Context must be a whole number from 0 to 10"},
		{"model missing", func(m map[string]any) { delete(m, "modelName") }, "Please select a model."},
		{"unknown model", func(m map[string]any) { m["modelName"] = "gpt-9" }, "Please select a model."},
		{"empty messages", func(m map[string]any) { m["messages"] = []any{} }, "Messages are empty"},
		{"bad attachment type", func(m map[string]any) { m["fileType"] = "hologram" }, "Attachment type is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(validChatBody), &m))
			tt.mutate(m)
			body, err := json.Marshal(m)
			require.NoError(t, err)

			w := postJSON(engine, "/api/chat-rag", string(body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, messageOf(t, w))
		})
	}
}

func TestChatRAGStreamsAnswer(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{
		generate: "Case Analysis",
		tokens:   []string{"The ", "supplier ", "is known."},
	})

	w := postJSON(engine, "/api/chat-rag", validChatBody)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, "The ")
	assert.Contains(t, body, "is known.")
	assert.Contains(t, body, "event:done")
}

func TestChatStreams(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{tokens: []string{"plain"}})

	w := postJSON(engine, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plain")
}

func TestChatEmptyMessages(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	w := postJSON(engine, "/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Messages are empty", messageOf(t, w))
}

func TestStreamBasic(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{tokens: []string{"**Question:** ..."}})

	w := postJSON(engine, "/api/stream-data-basic", `{"messages":[{"role":"user","content":"summarize"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "**Question:**")
}

func TestIngest(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	w := postJSON(engine, "/api/ingest", `{"text":"intercepted message log"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			OK     bool `json:"ok"`
			Chunks int  `json:"chunks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.OK)
	assert.Equal(t, 1, body.Data.Chunks)
}

func TestIngestMissingText(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	w := postJSON(engine, "/api/ingest", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Text is empty", messageOf(t, w))
}

func TestIngestTextRequiresCase(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	w := postJSON(engine, "/api/ingest/text", `{"text":"log"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Case ID is empty", messageOf(t, w))
}

func TestIngestTextReturnsURL(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	w := postJSON(engine, "/api/ingest/text", `{"text":"log line","caseEmbedId":7}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Data.URL, "https://store.example.com/"))
}

func multipartImage(t *testing.T, caseID, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if caseID != "" {
		require.NoError(t, mw.WriteField("caseId", caseID))
	}
	if data != nil {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="evidence.png"`}
		hdr["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestIngestImage(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{chat: "bag of white powder"})

	buf, contentType := multipartImage(t, "42", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/image", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestIngestImageMissingFile(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	buf, contentType := multipartImage(t, "42", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/image", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", messageOf(t, w))
}

func TestIngestImageRejectsBadType(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	buf, contentType := multipartImage(t, "42", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/image", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File type must be PNG or JPEG", messageOf(t, w))
}

func TestStats(t *testing.T) {
	engine := newTestRouter(t, &scriptedChat{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "providers")
}
