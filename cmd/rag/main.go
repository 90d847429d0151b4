// Package main is the entry point for the NarcoNet RAG service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/timooo-thy/rag-atron-mllm/cmd/rag/app"
)

func main() {
	app.NewApp().Run()
}
