package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRetrieverLabels(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"case analysis", "Case Analysis", "Case Analysis"},
		{"image lookup", "Image Lookup", "Image Lookup"},
		{"history query", "History Query", "History Query"},
		{"quoted answer", "'Image Lookup'", "Image Lookup"},
		{"trailing period", "Case Analysis.", "Case Analysis"},
		{"chatty answer", "The category is: Image Lookup", "Image Lookup"},
		{"unknown answer falls back", "no idea", "Case Analysis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{generateAnswers: []string{tt.answer}}
			sel := NewSelector(chat, "llama3:instruct", nil, 0, "cache:")

			label, err := sel.SelectRetriever(context.Background(), "find the messages")
			require.NoError(t, err)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestSelectRetrieverZeroTemperature(t *testing.T) {
	chat := &fakeChat{generateAnswers: []string{"Case Analysis"}}
	sel := NewSelector(chat, "llama3:instruct", nil, 0, "cache:")

	_, err := sel.SelectRetriever(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, chat.generateCalls, 1)
	assert.Contains(t, chat.generateCalls[0], "Query: query")
}

func TestSelectRetrieverPropagatesFailure(t *testing.T) {
	chat := &fakeChat{}
	sel := NewSelector(chat, "llama3:instruct", nil, 0, "cache:")

	_, err := sel.SelectRetriever(context.Background(), "query")
	assert.Error(t, err)
}

func TestClassifyImageIntent(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"Image Lookup", "Image Lookup"},
		{"Describe", "Describe"},
		{"something else", "Describe"},
	}

	for _, tt := range tests {
		chat := &fakeChat{generateAnswers: []string{tt.answer}}
		sel := NewSelector(chat, "llama3:instruct", nil, 0, "cache:")

		label, err := sel.ClassifyImageIntent(context.Background(), "look at this")
		require.NoError(t, err)
		assert.Equal(t, tt.want, label)
	}
}

func TestCacheKeyIsModelScoped(t *testing.T) {
	a := NewSelector(&fakeChat{}, "llama3:instruct", nil, 0, "cache:")
	b := NewSelector(&fakeChat{}, "llama3:70b-instruct", nil, 0, "cache:")

	assert.NotEqual(t, a.cacheKey("sel:", "query"), b.cacheKey("sel:", "query"))
	assert.NotEqual(t, a.cacheKey("sel:", "query"), a.cacheKey("imgsel:", "query"))
	assert.Equal(t, a.cacheKey("sel:", "query"), a.cacheKey("sel:", "query"))
}
