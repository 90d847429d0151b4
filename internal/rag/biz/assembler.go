package biz

import (
	"fmt"
	"strings"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
)

// documentSeparator joins retrieved documents in the context block.
const documentSeparator = "\n-----------\n"

// AssembleContext renders retrieval hits into the context block that is
// interpolated into the answer prompt. Hit order is preserved. No hits
// yield an empty block, which the prompt translates into the "no
// relevant context" reply.
func AssembleContext(results []*store.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, fmt.Sprintf("caseId: %d\nurl: %s\npage content: %s", r.CaseID, r.URL, r.Content))
	}
	return strings.Join(docs, documentSeparator)
}
