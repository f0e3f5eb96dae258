// Package csi defines the Cognitive System Interface: the batch operations a
// skill can invoke on its host (completion, chat, chunking, search, document
// retrieval and language selection) together with the request and response
// values they exchange.
//
// Implementations only provide the batch methods of Csi. The single-item
// functions of this package are built on top of them by submitting a
// one-element batch, so the batch and singular paths never diverge.
package csi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ErrDocumentNotFound is returned when a requested document path does not resolve
var ErrDocumentNotFound = errors.New("document not found")

// Csi is the capability interface offered to skills.
//
// Every method must return exactly one result per request, at the same index.
// Callers zip requests and results positionally. A batch is a logical grouping;
// implementations may process members sequentially or in parallel.
type Csi interface {
	// CompleteAll generates a completion for every request
	CompleteAll(ctx context.Context, requests []CompletionRequest) []Completion
	// ChatAll answers every chat request
	ChatAll(ctx context.Context, requests []ChatRequest) []ChatResponse
	// ChunkAll splits the text of every request into chunks
	ChunkAll(ctx context.Context, requests []ChunkRequest) [][]string
	// SearchAll runs every search request. A result list may be empty.
	SearchAll(ctx context.Context, requests []SearchRequest) [][]SearchResult
	// SelectLanguageAll detects the language of every request. A nil entry
	// means no candidate was detected with confidence.
	SelectLanguageAll(ctx context.Context, requests []SelectLanguageRequest) []*LanguageCode
	// Documents retrieves every document. The whole call fails when any path
	// does not resolve.
	Documents(ctx context.Context, paths []DocumentPath) ([]RawDocument, error)
	// DocumentsMetadata retrieves the metadata of every document. A nil entry
	// means the document exists but has no metadata.
	DocumentsMetadata(ctx context.Context, paths []DocumentPath) ([]json.RawMessage, error)
}

// Complete generates a single completion
func Complete(ctx context.Context, c Csi, request CompletionRequest) Completion {
	return first(c.CompleteAll(ctx, []CompletionRequest{request}), "complete")
}

// Chat answers a single chat request
func Chat(ctx context.Context, c Csi, request ChatRequest) ChatResponse {
	return first(c.ChatAll(ctx, []ChatRequest{request}), "chat")
}

// Chunk splits a single text into chunks that fit the token budget of a model
func Chunk(ctx context.Context, c Csi, request ChunkRequest) []string {
	return first(c.ChunkAll(ctx, []ChunkRequest{request}), "chunk")
}

// Search runs a single search request
func Search(ctx context.Context, c Csi, request SearchRequest) []SearchResult {
	return first(c.SearchAll(ctx, []SearchRequest{request}), "search")
}

// SelectLanguage detects which of the candidate languages the text is in.
// It returns nil when no candidate matches.
func SelectLanguage(ctx context.Context, c Csi, request SelectLanguageRequest) *LanguageCode {
	return first(c.SelectLanguageAll(ctx, []SelectLanguageRequest{request}), "select_language")
}

// DocumentsAs retrieves documents and decodes their metadata into M.
// The call fails as a whole on the first unresolved path or metadata that
// does not decode; request paths individually to isolate failures.
func DocumentsAs[M any](ctx context.Context, c Csi, paths []DocumentPath) ([]Document[M], error) {
	raw, err := c.Documents(ctx, paths)
	if err != nil {
		return nil, err
	}
	checkLen(len(paths), len(raw), "documents")

	out := make([]Document[M], 0, len(raw))
	for _, doc := range raw {
		decoded, err := DecodeDocument[M](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// DocumentAs retrieves a single document and decodes its metadata into M
func DocumentAs[M any](ctx context.Context, c Csi, path DocumentPath) (Document[M], error) {
	docs, err := DocumentsAs[M](ctx, c, []DocumentPath{path})
	if err != nil {
		return Document[M]{}, err
	}
	return docs[0], nil
}

// DocumentsMetadataAs retrieves and decodes the metadata of several documents.
// A nil entry means the document has no metadata.
func DocumentsMetadataAs[M any](ctx context.Context, c Csi, paths []DocumentPath) ([]*M, error) {
	raw, err := c.DocumentsMetadata(ctx, paths)
	if err != nil {
		return nil, err
	}
	checkLen(len(paths), len(raw), "document_metadata")

	out := make([]*M, 0, len(raw))
	for i, blob := range raw {
		metadata, err := decodeMetadata[M](blob)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode metadata of document %d", i)
		}
		out = append(out, metadata)
	}
	return out, nil
}

// DocumentMetadataAs retrieves and decodes the metadata of a single document
func DocumentMetadataAs[M any](ctx context.Context, c Csi, path DocumentPath) (*M, error) {
	metadata, err := DocumentsMetadataAs[M](ctx, c, []DocumentPath{path})
	if err != nil {
		return nil, err
	}
	return metadata[0], nil
}

// DecodeDocument decodes the metadata of a raw document into M
func DecodeDocument[M any](raw RawDocument) (Document[M], error) {
	doc := Document[M]{
		Path:     raw.Path,
		Contents: raw.Contents,
	}
	if raw.Metadata == nil {
		return doc, nil
	}
	metadata, err := decodeMetadata[M](*raw.Metadata)
	if err != nil {
		return Document[M]{}, errors.Wrapf(err, "failed to decode metadata of %s/%s/%s",
			raw.Path.Namespace, raw.Path.Collection, raw.Path.Name)
	}
	doc.Metadata = metadata
	return doc, nil
}

func decodeMetadata[M any](blob json.RawMessage) (*M, error) {
	if blob == nil || bytes.Equal(bytes.TrimSpace(blob), []byte("null")) {
		return nil, nil
	}
	var metadata M
	if err := json.Unmarshal(blob, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

func first[T any](results []T, op string) T {
	checkLen(1, len(results), op)
	return results[0]
}

// checkLen panics on a batch that dropped or added results. Such an
// implementation breaks positional zipping for every caller.
func checkLen(want, got int, op string) {
	if want != got {
		panic(fmt.Sprintf("csi: %s returned %d results for %d requests", op, got, want))
	}
}
