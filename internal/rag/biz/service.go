package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/metrics"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/gcs"
	"github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	"github.com/timooo-thy/rag-atron-mllm/pkg/infra/pool"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
	cacheopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/cache"
	ragopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/rag"
)

// ObjectStore uploads evidence payloads to object storage.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, contentType, ext string) (*gcs.Object, error)
}

// VideoQuerier answers a query about an uploaded video clip.
type VideoQuerier interface {
	Query(ctx context.Context, query, videoURL string) (<-chan llm.StreamChunk, error)
}

// Config wires the service dependencies. Store, Embedder and Chat are
// required; the rest degrade gracefully when absent.
type Config struct {
	RAG   *ragopts.Options
	Cache *cacheopts.Options

	Store       store.VectorStore
	Ledger      *store.Ledger
	Embedder    llm.EmbeddingProvider
	Chat        llm.ChatProvider
	Transcriber llm.Transcriber
	Objects     ObjectStore
	Video       VideoQuerier
	Redis       *goredis.Client
}

// Service is the retrieval-augmented chat service.
type Service struct {
	opts *ragopts.Options

	store       store.VectorStore
	ledger      *store.Ledger
	embedder    llm.EmbeddingProvider
	chat        llm.ChatProvider
	transcriber llm.Transcriber
	objects     ObjectStore
	video       VideoQuerier

	selector  *Selector
	retriever *Retriever
	streamer  *Streamer
	uploads   *pool.Pool
	metrics   *metrics.ChatMetrics

	// defaultModel runs classification, rephrasing and the basic
	// streaming endpoint.
	defaultModel string
}

// New creates the service.
func New(cfg *Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if cfg.Chat == nil {
		return nil, fmt.Errorf("chat provider is required")
	}
	opts := cfg.RAG
	if opts == nil {
		opts = ragopts.NewOptions()
	}

	defaultModel := ""
	if len(opts.Models) > 0 {
		defaultModel = opts.Models[0]
	}

	var redis *goredis.Client
	ttl := cacheopts.NewOptions().TTL
	prefix := cacheopts.NewOptions().KeyPrefix
	if cfg.Cache != nil {
		ttl = cfg.Cache.TTL
		prefix = cfg.Cache.KeyPrefix
		if cfg.Cache.Enabled {
			redis = cfg.Redis
		}
	} else {
		redis = cfg.Redis
	}

	uploads, err := pool.New("uploads", pool.UploadConfig())
	if err != nil {
		return nil, err
	}

	return &Service{
		opts:         opts,
		store:        cfg.Store,
		ledger:       cfg.Ledger,
		embedder:     cfg.Embedder,
		chat:         cfg.Chat,
		transcriber:  cfg.Transcriber,
		objects:      cfg.Objects,
		video:        cfg.Video,
		selector:     NewSelector(cfg.Chat, defaultModel, redis, ttl, prefix),
		retriever:    NewRetriever(cfg.Store, cfg.Embedder, cfg.Chat),
		streamer:     NewStreamer(cfg.Chat),
		uploads:      uploads,
		metrics:      metrics.Get(),
		defaultModel: defaultModel,
	}, nil
}

// Close releases service-owned resources.
func (s *Service) Close() {
	s.uploads.Release()
}

// ChatRAG answers one validated chat request as a token stream. The
// attachment type selects the pipeline branch; requests without
// attachments run the retrieval path.
func (s *Service) ChatRAG(ctx context.Context, req *model.ChatRequest) (<-chan llm.StreamChunk, error) {
	s.metrics.RecordChat()

	query := req.CurrentMessage()

	if len(req.Attachments) > 0 {
		switch req.AttachmentType {
		case model.AttachmentVideo:
			s.metrics.RecordBranch(metrics.BranchVideo)
			return s.chatVideo(ctx, req, query)
		case model.AttachmentAudio:
			s.metrics.RecordBranch(metrics.BranchAudio)
			return s.chatAudio(ctx, req)
		case model.AttachmentImage:
			s.metrics.RecordBranch(metrics.BranchImage)
			return s.chatImage(ctx, req, query)
		case model.AttachmentText:
			// Text attachments extend the question itself.
			atts, err := decodeAttachments(req.Attachments)
			if err != nil {
				return nil, errors.ErrBadRequest.WithCause(err)
			}
			for _, att := range atts {
				query += "\n" + string(att.Data)
			}
		}
	}

	return s.chatRetrieval(ctx, req, query, "")
}

// chatRetrieval runs the retrieval path. forcedLabel overrides the
// selector when the branch already knows its target.
func (s *Service) chatRetrieval(ctx context.Context, req *model.ChatRequest, query, forcedLabel string) (<-chan llm.StreamChunk, error) {
	label := forcedLabel
	if label == "" {
		var err error
		label, err = s.selector.SelectRetriever(ctx, query)
		if err != nil {
			return nil, errors.ErrRetrieval.WithCause(err)
		}
	}

	history := req.HistoryWindow()

	if label == labelHistoryQuery {
		s.metrics.RecordBranch(metrics.BranchHistory)
		return s.streamBasic(ctx, history, query, string(req.ModelName), req.Temperature)
	}
	if forcedLabel == "" {
		s.metrics.RecordBranch(metrics.BranchText)
	}

	collection := s.opts.TextCollection
	buildPrompt := buildQNASystemPrompt
	if label == labelImageLookup {
		collection = s.opts.ImageCollection
		buildPrompt = buildImageQNASystemPrompt
	}

	searchQuery, err := s.retriever.Rephrase(ctx, history, query, req.CaseID, string(req.ModelName))
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}

	results, err := s.retriever.Retrieve(ctx, collection, searchQuery, req.CaseID, req.Similarity)
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: buildPrompt(AssembleContext(results))})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: toLLMRole(m.Role), Content: m.Content})
	}
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("%s\n\nCase ID: %d", query, req.CaseID),
	})

	return s.streamer.Stream(ctx, msgs,
		llm.WithModel(string(req.ModelName)), llm.WithTemperature(req.Temperature))
}

// chatImage handles image attachments: either the first image becomes
// a lookup query against stored exhibits, or every image is uploaded
// and captioned as an exhibit.
func (s *Service) chatImage(ctx context.Context, req *model.ChatRequest, query string) (<-chan llm.StreamChunk, error) {
	atts, err := decodeAttachments(req.Attachments)
	if err != nil {
		return nil, errors.ErrBadRequest.WithCause(err)
	}

	label, err := s.selector.ClassifyImageIntent(ctx, query)
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}

	if label == labelImageLookup {
		description, err := s.chat.Chat(ctx, []llm.Message{{
			Role:    llm.RoleUser,
			Content: lookupDescribePrompt,
			Images:  []string{atts[0].Raw},
		}}, llm.WithModel(s.opts.VisionModel), llm.WithTemperature(0.6))
		if err != nil {
			return nil, errors.ErrGeneration.WithCause(err)
		}
		query = query + " Description of image to lookup: " + description
		return s.chatRetrieval(ctx, req, query, labelImageLookup)
	}

	return s.streamExhibitCaptions(ctx, req, query, atts)
}

// streamExhibitCaptions uploads all images concurrently, then captions
// each stored exhibit in attachment order on one stream. Failed uploads
// are logged and skipped; with no successful upload the request fails.
func (s *Service) streamExhibitCaptions(ctx context.Context, req *model.ChatRequest, query string, atts []*Attachment) (<-chan llm.StreamChunk, error) {
	if s.objects == nil {
		return nil, errors.ErrObjectStore.WithMessage("object store is not configured")
	}

	objects := make([]*gcs.Object, len(atts))
	errs := make([]error, len(atts))
	s.uploads.Map(len(atts), func(i int) {
		objects[i], errs[i] = s.objects.Upload(ctx, atts[i].Data, atts[i].ContentType, extForContentType(atts[i].ContentType))
	})

	batches := make([][]llm.Message, 0, len(atts))
	for i, obj := range objects {
		if errs[i] != nil {
			logger.Warnw("Exhibit upload failed", "index", i, "error", errs[i])
			continue
		}
		batches = append(batches, []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildExhibitCaptionPrompt(obj.URL, query),
			Images:  []string{atts[i].Raw},
		}})
	}
	if len(batches) == 0 {
		return nil, errors.ErrObjectStore.WithMessage("all image uploads failed")
	}

	return s.streamer.StreamBatch(ctx, batches,
		llm.WithModel(s.opts.VisionModel), llm.WithTemperature(req.Temperature))
}

// chatAudio transcribes each clip and has the chat model restate the
// transcripts verbatim.
func (s *Service) chatAudio(ctx context.Context, req *model.ChatRequest) (<-chan llm.StreamChunk, error) {
	if s.transcriber == nil {
		return nil, errors.ErrTranscription.WithMessage("transcription is not configured")
	}

	atts, err := decodeAttachments(req.Attachments)
	if err != nil {
		return nil, errors.ErrBadRequest.WithCause(err)
	}

	transcripts := make([]string, 0, len(atts))
	for i, att := range atts {
		text, err := s.transcriber.Transcribe(ctx, att.Data, "audio"+extOrDefault(att.ContentType, ".mp3"))
		if err != nil {
			return nil, errors.ErrTranscription.WithCause(fmt.Errorf("clip %d: %w", i, err))
		}
		transcripts = append(transcripts, text)
	}

	return s.streamer.Stream(ctx, []llm.Message{{
		Role:    llm.RoleUser,
		Content: buildAudioRestatePrompt(transcripts),
	}}, llm.WithModel(string(req.ModelName)), llm.WithTemperature(req.Temperature))
}

// chatVideo uploads the first clip and relays the video-query service
// answer verbatim, bypassing the chat model.
func (s *Service) chatVideo(ctx context.Context, req *model.ChatRequest, query string) (<-chan llm.StreamChunk, error) {
	if s.objects == nil || s.video == nil {
		return nil, errors.ErrVideoUpload.WithMessage("video analysis is not configured")
	}

	att, err := decodeAttachment(req.Attachments[0])
	if err != nil {
		return nil, errors.ErrVideoUpload.WithCause(err)
	}

	obj, err := s.objects.Upload(ctx, att.Data, att.ContentType, extOrDefault(att.ContentType, ".mp4"))
	if err != nil {
		return nil, errors.ErrVideoUpload.WithCause(err)
	}

	stream, err := s.video.Query(ctx, query, obj.URL)
	if err != nil {
		return nil, errors.ErrModelBackend.WithCause(err)
	}
	return relayChunks(ctx, stream), nil
}

// Chat streams the chat model over the raw conversation, without
// retrieval or templating.
func (s *Service) Chat(ctx context.Context, messages []model.ChatMessage) (<-chan llm.StreamChunk, error) {
	msgs := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, llm.Message{Role: toLLMRole(m.Role), Content: m.Content})
	}
	return s.streamer.Stream(ctx, msgs)
}

// BasicStream applies the fixed intelligence-officer template over the
// flattened conversation and streams the answer.
func (s *Service) BasicStream(ctx context.Context, messages []model.ChatMessage) (<-chan llm.StreamChunk, error) {
	if len(messages) == 0 {
		return nil, errors.ErrInvalidParam.WithMessage("Messages are empty")
	}
	history := messages[:len(messages)-1]
	input := messages[len(messages)-1].Content
	return s.streamBasic(ctx, history, input, s.defaultModel, 0.7)
}

func (s *Service) streamBasic(ctx context.Context, history []model.ChatMessage, input, modelName string, temperature float64) (<-chan llm.StreamChunk, error) {
	prompt := buildBasicPrompt(flattenMessages(history), input)
	return s.streamer.Stream(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		llm.WithModel(modelName), llm.WithTemperature(temperature))
}

// flattenMessages renders turns as "role: content" lines.
func flattenMessages(messages []model.ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

func extOrDefault(contentType, fallback string) string {
	if ext := extForContentType(contentType); ext != "" {
		return ext
	}
	return fallback
}
