package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/metrics"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// Selector routes queries to a retrieval target with zero-temperature
// classification calls. Labels are cached in Redis keyed by the SHA-256
// of the query; classification is deterministic at temperature zero, so
// a cached label never goes stale within its TTL. Cache failures
// degrade to a direct classification call, never to request failures.
type Selector struct {
	chat    llm.ChatProvider
	model   string
	redis   *goredis.Client
	ttl     time.Duration
	prefix  string
	metrics *metrics.ChatMetrics
}

// NewSelector creates a selector. redis may be nil, which disables the
// label cache.
func NewSelector(chat llm.ChatProvider, classifierModel string, redis *goredis.Client, ttl time.Duration, keyPrefix string) *Selector {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Selector{
		chat:    chat,
		model:   classifierModel,
		redis:   redis,
		ttl:     ttl,
		prefix:  keyPrefix,
		metrics: metrics.Get(),
	}
}

// SelectRetriever classifies query into Case Analysis, Image Lookup, or
// History Query. A malformed model answer falls back to Case Analysis.
func (s *Selector) SelectRetriever(ctx context.Context, query string) (string, error) {
	return s.classify(ctx, "sel:", query, retrieverClassifierPrompt,
		[]string{labelCaseAnalysis, labelImageLookup, labelHistoryQuery}, labelCaseAnalysis)
}

// ClassifyImageIntent decides between Image Lookup and Describe for a
// query carrying image attachments. A malformed answer falls back to
// Describe.
func (s *Selector) ClassifyImageIntent(ctx context.Context, query string) (string, error) {
	return s.classify(ctx, "imgsel:", query, imageClassifierPrompt,
		[]string{labelImageLookup, labelDescribe}, labelDescribe)
}

func (s *Selector) classify(ctx context.Context, namespace, query, promptTemplate string, valid []string, fallback string) (string, error) {
	key := s.cacheKey(namespace, query)

	if label, ok := s.cacheGet(ctx, key); ok {
		s.metrics.RecordCache(true)
		return label, nil
	}
	s.metrics.RecordCache(false)

	answer, err := s.chat.Generate(ctx, fmt.Sprintf(promptTemplate, query), "",
		llm.WithModel(s.model), llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to classify query: %w", err)
	}

	label := normalizeLabel(answer, valid, fallback)
	s.cacheSet(ctx, key, label)
	return label, nil
}

// normalizeLabel extracts a known label from the model answer. Models
// occasionally wrap the label in quotes or trailing punctuation; an
// answer matching no label at all maps to the fallback, mirroring the
// else-branch any unknown answer would take anyway.
func normalizeLabel(answer string, valid []string, fallback string) string {
	trimmed := strings.Trim(strings.TrimSpace(answer), "'\".")
	for _, v := range valid {
		if strings.EqualFold(trimmed, v) {
			return v
		}
	}
	for _, v := range valid {
		if strings.Contains(answer, v) {
			return v
		}
	}
	return fallback
}

func (s *Selector) cacheKey(namespace, query string) string {
	sum := sha256.Sum256([]byte(s.model + ":" + query))
	return s.prefix + namespace + hex.EncodeToString(sum[:])
}

func (s *Selector) cacheGet(ctx context.Context, key string) (string, bool) {
	if s.redis == nil {
		return "", false
	}
	label, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("Label cache read failed", "error", err)
		}
		return "", false
	}
	return label, true
}

func (s *Selector) cacheSet(ctx context.Context, key, label string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, label, s.ttl).Err(); err != nil {
		logger.Warnw("Label cache write failed", "error", err)
	}
}
