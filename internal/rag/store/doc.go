// Package store provides the storage layer for the RAG service: the
// case-scoped vector store over Milvus and the MySQL evidence ledger.
package store
