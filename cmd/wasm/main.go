//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"strings"
	"syscall/js"

	"cmsrag/internal/adapter/chunker"
	"cmsrag/internal/adapter/embedding"
	"cmsrag/internal/adapter/memstore"
	"cmsrag/internal/adapter/retriever"
	"cmsrag/internal/domain"
)

// In-browser retrieval over pasted report text. Nothing leaves the page, so
// embeddings come from the local hashing model.
var (
	embedder *embedding.HashingEmbedder
	index    *memstore.MemoryIndex
	chk      *chunker.RecursiveChunker
	search   *retriever.SemanticRetriever
	files    []string
)

func init() {
	embedder = embedding.NewHashingEmbedder(512)
	index = memstore.NewMemoryIndex(embedder.ModelName())
	chk, _ = chunker.NewRecursiveChunker(1000, 200, nil)
	search = retriever.NewSemanticRetriever(index, embedder, retriever.Options{})
}

func main() {
	c := make(chan struct{})

	js.Global().Set("ragIndex", js.FuncOf(indexContent))
	js.Global().Set("ragQuery", js.FuncOf(queryContent))
	js.Global().Set("ragClear", js.FuncOf(clearIndex))
	js.Global().Set("ragStats", js.FuncOf(getStats))

	<-c
}

func indexContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: ragIndex(filename, content)")
	}

	filename := args[0].String()
	pages := toPages(filename, args[1].String())

	chunks, err := chk.Chunk(pages)
	if err != nil {
		return makeError("chunking failed: " + err.Error())
	}
	if len(chunks) == 0 {
		return makeError("no text to index")
	}

	offset := index.Count()
	texts := make([]string, len(chunks))
	for i := range chunks {
		chunks[i].Seq += offset
		texts[i] = chunks[i].Text
	}

	vectors, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		return makeError("embedding failed: " + err.Error())
	}
	if err := index.Add(chunks, vectors); err != nil {
		return makeError("indexing failed: " + err.Error())
	}
	files = append(files, filename)

	return makeResult(map[string]interface{}{
		"success":  true,
		"pages":    len(pages),
		"chunks":   len(chunks),
		"filename": filename,
	})
}

func queryContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: ragQuery(query, [topK])")
	}

	query := args[0].String()
	topK := 5
	if len(args) > 1 {
		topK = args[1].Int()
	}

	results, err := search.Retrieve(context.Background(), query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		output = append(output, map[string]interface{}{
			"file":  r.Chunk.Metadata.FileName,
			"page":  r.Chunk.Metadata.Page,
			"score": r.Score,
			"text":  r.Chunk.Text,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   query,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	index.Clear()
	files = nil
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	info := index.Info()
	return makeResult(map[string]interface{}{
		"totalChunks": info.ChunkCount,
		"dimension":   info.Dimension,
		"model":       info.EmbeddingModel,
		"files":       files,
	})
}

// toPages treats form feeds as page breaks, as pdftotext emits them.
func toPages(filename, content string) []domain.Page {
	texts := strings.Split(content, "\f")
	if len(texts) > 1 && strings.TrimSpace(texts[len(texts)-1]) == "" {
		texts = texts[:len(texts)-1]
	}

	pages := make([]domain.Page, len(texts))
	for i, text := range texts {
		pages[i] = domain.Page{
			Number: i + 1,
			Text:   text,
			Metadata: domain.Metadata{
				FileName:   filename,
				Source:     filename,
				DocType:    "text",
				Page:       i + 1,
				TotalPages: len(texts),
			},
		}
	}
	return pages
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
