// Package biz implements the retrieval-augmented chat pipeline for
// case-scoped intelligence analysis: query classification, history-aware
// retrieval, context assembly, answer streaming, and evidence ingestion.
package biz
