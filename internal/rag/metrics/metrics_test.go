package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestRecordAndStats(t *testing.T) {
	m := &ChatMetrics{startTime: time.Now()}

	m.RecordChat()
	m.RecordChat()
	m.RecordValidationError()
	m.RecordBranch(BranchText)
	m.RecordBranch(BranchVideo)
	m.RecordRetrieval(100*time.Millisecond, nil)
	m.RecordRetrieval(0, errors.New("milvus down"))
	m.RecordLLMCall(time.Second, nil)
	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordIngestion(1, 5, nil)
	m.RecordIngestion(0, 0, errors.New("embed failed"))
	m.RecordStreamError()
	m.RecordStreamCancel()

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats["chat_total"])
	assert.Equal(t, uint64(1), stats["validation_errors"])
	assert.Equal(t, uint64(1), stats["branch_text"])
	assert.Equal(t, uint64(1), stats["branch_video"])
	assert.Equal(t, uint64(2), stats["retrieval_total"])
	assert.Equal(t, uint64(1), stats["retrieval_errors"])
	assert.InDelta(t, 0.1, stats["retrieval_avg_secs"], 0.001)
	assert.Equal(t, uint64(1), stats["cache_hits"])
	assert.Equal(t, uint64(1), stats["cache_misses"])
	assert.Equal(t, uint64(5), stats["chunks_ingested"])
	assert.Equal(t, uint64(1), stats["ingest_errors"])
	assert.Equal(t, uint64(1), stats["stream_errors"])
	assert.Equal(t, uint64(1), stats["stream_cancels"])
}

func TestReset(t *testing.T) {
	m := &ChatMetrics{startTime: time.Now()}
	m.RecordChat()
	m.RecordRetrieval(time.Second, nil)

	m.Reset()

	stats := m.Stats()
	assert.Equal(t, uint64(0), stats["chat_total"])
	assert.Equal(t, uint64(0), stats["retrieval_total"])
	assert.Equal(t, 0.0, stats["retrieval_avg_secs"])
}

func TestConcurrentRecording(t *testing.T) {
	m := &ChatMetrics{startTime: time.Now()}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordChat()
			m.RecordBranch(BranchImage)
			m.RecordLLMCall(time.Millisecond, nil)
		}()
	}
	wg.Wait()

	stats := m.Stats()
	assert.Equal(t, uint64(50), stats["chat_total"])
	assert.Equal(t, uint64(50), stats["branch_image"])
	assert.Equal(t, uint64(50), stats["llm_calls_total"])
}
