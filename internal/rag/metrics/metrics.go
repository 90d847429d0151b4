// Package metrics collects in-process business metrics for the chat
// and ingestion pipelines.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ChatMetrics holds atomic counters for the chat service.
type ChatMetrics struct {
	// chat requests
	chatTotal        uint64
	validationErrors uint64
	streamErrors     uint64
	streamCancels    uint64

	// modality branches
	branchText    uint64
	branchImage   uint64
	branchAudio   uint64
	branchVideo   uint64
	branchHistory uint64

	// retrieval
	retrievalTotal    uint64
	retrievalErrors   uint64
	retrievalDuration float64

	// llm calls
	llmCallsTotal    uint64
	llmCallsErrors   uint64
	llmCallsDuration float64

	// selector cache
	cacheHits   uint64
	cacheMisses uint64

	// ingestion
	documentsIngested uint64
	chunksIngested    uint64
	ingestErrors      uint64

	startTime  time.Time
	durationMu sync.Mutex
}

var (
	globalChatMetrics *ChatMetrics
	chatMetricsOnce   sync.Once
)

// Get returns the global metrics instance.
func Get() *ChatMetrics {
	chatMetricsOnce.Do(func() {
		globalChatMetrics = &ChatMetrics{startTime: time.Now()}
	})
	return globalChatMetrics
}

// Branch labels for RecordBranch.
const (
	BranchText    = "text"
	BranchImage   = "image"
	BranchAudio   = "audio"
	BranchVideo   = "video"
	BranchHistory = "history"
)

// RecordChat counts one chat request.
func (m *ChatMetrics) RecordChat() {
	atomic.AddUint64(&m.chatTotal, 1)
}

// RecordValidationError counts a request rejected at validation.
func (m *ChatMetrics) RecordValidationError() {
	atomic.AddUint64(&m.validationErrors, 1)
}

// RecordBranch counts the modality branch taken for a request.
func (m *ChatMetrics) RecordBranch(branch string) {
	switch branch {
	case BranchText:
		atomic.AddUint64(&m.branchText, 1)
	case BranchImage:
		atomic.AddUint64(&m.branchImage, 1)
	case BranchAudio:
		atomic.AddUint64(&m.branchAudio, 1)
	case BranchVideo:
		atomic.AddUint64(&m.branchVideo, 1)
	case BranchHistory:
		atomic.AddUint64(&m.branchHistory, 1)
	}
}

// RecordRetrieval records one vector search.
func (m *ChatMetrics) RecordRetrieval(duration time.Duration, err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordLLMCall records one model invocation.
func (m *ChatMetrics) RecordLLMCall(duration time.Duration, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordStreamError counts a stream terminated by an upstream error.
func (m *ChatMetrics) RecordStreamError() {
	atomic.AddUint64(&m.streamErrors, 1)
}

// RecordStreamCancel counts a stream cancelled by the client.
func (m *ChatMetrics) RecordStreamCancel() {
	atomic.AddUint64(&m.streamCancels, 1)
}

// RecordCache records a selector cache lookup.
func (m *ChatMetrics) RecordCache(hit bool) {
	if hit {
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		atomic.AddUint64(&m.cacheMisses, 1)
	}
}

// RecordIngestion records one ingestion run.
func (m *ChatMetrics) RecordIngestion(documents, chunks int, err error) {
	if err != nil {
		atomic.AddUint64(&m.ingestErrors, 1)
		return
	}
	atomic.AddUint64(&m.documentsIngested, uint64(documents))
	atomic.AddUint64(&m.chunksIngested, uint64(chunks))
}

// Stats returns a snapshot of all counters.
func (m *ChatMetrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	retrievalTotal := atomic.LoadUint64(&m.retrievalTotal)
	llmTotal := atomic.LoadUint64(&m.llmCallsTotal)

	avgRetrieval := 0.0
	if n := retrievalTotal - atomic.LoadUint64(&m.retrievalErrors); n > 0 {
		avgRetrieval = retrievalDuration / float64(n)
	}
	avgLLM := 0.0
	if n := llmTotal - atomic.LoadUint64(&m.llmCallsErrors); n > 0 {
		avgLLM = llmDuration / float64(n)
	}

	return map[string]interface{}{
		"chat_total":         atomic.LoadUint64(&m.chatTotal),
		"validation_errors":  atomic.LoadUint64(&m.validationErrors),
		"stream_errors":      atomic.LoadUint64(&m.streamErrors),
		"stream_cancels":     atomic.LoadUint64(&m.streamCancels),
		"branch_text":        atomic.LoadUint64(&m.branchText),
		"branch_image":       atomic.LoadUint64(&m.branchImage),
		"branch_audio":       atomic.LoadUint64(&m.branchAudio),
		"branch_video":       atomic.LoadUint64(&m.branchVideo),
		"branch_history":     atomic.LoadUint64(&m.branchHistory),
		"retrieval_total":    retrievalTotal,
		"retrieval_errors":   atomic.LoadUint64(&m.retrievalErrors),
		"retrieval_avg_secs": avgRetrieval,
		"llm_calls_total":    llmTotal,
		"llm_calls_errors":   atomic.LoadUint64(&m.llmCallsErrors),
		"llm_avg_secs":       avgLLM,
		"cache_hits":         atomic.LoadUint64(&m.cacheHits),
		"cache_misses":       atomic.LoadUint64(&m.cacheMisses),
		"documents_ingested": atomic.LoadUint64(&m.documentsIngested),
		"chunks_ingested":    atomic.LoadUint64(&m.chunksIngested),
		"ingest_errors":      atomic.LoadUint64(&m.ingestErrors),
		"uptime_seconds":     time.Since(m.startTime).Seconds(),
	}
}

// Reset zeroes all counters. Test helper.
func (m *ChatMetrics) Reset() {
	atomic.StoreUint64(&m.chatTotal, 0)
	atomic.StoreUint64(&m.validationErrors, 0)
	atomic.StoreUint64(&m.streamErrors, 0)
	atomic.StoreUint64(&m.streamCancels, 0)
	atomic.StoreUint64(&m.branchText, 0)
	atomic.StoreUint64(&m.branchImage, 0)
	atomic.StoreUint64(&m.branchAudio, 0)
	atomic.StoreUint64(&m.branchVideo, 0)
	atomic.StoreUint64(&m.branchHistory, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.cacheHits, 0)
	atomic.StoreUint64(&m.cacheMisses, 0)
	atomic.StoreUint64(&m.documentsIngested, 0)
	atomic.StoreUint64(&m.chunksIngested, 0)
	atomic.StoreUint64(&m.ingestErrors, 0)

	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.llmCallsDuration = 0
	m.durationMu.Unlock()
}
