// Package videoquery is the client for the external video analysis
// service. The service answers a natural-language query about an
// uploaded clip and streams its answer as plain text, which is relayed
// to the caller verbatim.
package videoquery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
	videoqueryopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/videoquery"
	"github.com/timooo-thy/rag-atron-mllm/pkg/utils/httpclient"
	"github.com/timooo-thy/rag-atron-mllm/pkg/utils/json"
)

// Client calls the prediction service.
type Client struct {
	opts   *videoqueryopts.Options
	client *httpclient.Client
}

// New creates a video query client.
func New(opts *videoqueryopts.Options) *Client {
	return &Client{
		opts:   opts,
		client: httpclient.NewClient(opts.ConnectTimeout, 0),
	}
}

type predictRequest struct {
	Query    string `json:"query"`
	VideoURL string `json:"video_url"`
}

// Query asks the service about the clip at videoURL and returns the
// streamed answer as chunks. The response body is relayed as-is in
// fixed-size reads; no framing is assumed.
func (c *Client) Query(ctx context.Context, query, videoURL string) (<-chan llm.StreamChunk, error) {
	body, err := json.Marshal(predictRequest{Query: query, VideoURL: videoURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.DoStream(req)
	if err != nil {
		return nil, fmt.Errorf("video query request failed: %w", err)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, 4*1024)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				select {
				case out <- llm.StreamChunk{Content: string(buf[:n])}:
				case <-ctx.Done():
					return
				}
			}
			if err == io.EOF {
				select {
				case out <- llm.StreamChunk{Done: true}:
				case <-ctx.Done():
				}
				return
			}
			if err != nil {
				select {
				case out <- llm.StreamChunk{Err: fmt.Errorf("video stream read failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	return out, nil
}
