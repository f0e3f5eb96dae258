package bindings

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/csi"
	"github.com/jingkaihe/skillet/pkg/logger"
)

// HostCsi implements csi.Csi on top of a Host
type HostCsi struct {
	host Host
}

var _ csi.Csi = (*HostCsi)(nil)

// NewHostCsi creates a capability interface backed by the given host
func NewHostCsi(host Host) *HostCsi {
	return &HostCsi{host: host}
}

// CompleteAll forwards the batch to the host in one call
func (h *HostCsi) CompleteAll(ctx context.Context, requests []csi.CompletionRequest) []csi.Completion {
	logger.G(ctx).WithField("requests", len(requests)).Debug("host complete")

	wire := make([]CompletionRequest, 0, len(requests))
	for _, r := range requests {
		wire = append(wire, ToCompletionRequest(r))
	}
	results := h.host.Complete(ctx, wire)

	out := make([]csi.Completion, 0, len(results))
	for _, c := range results {
		out = append(out, FromCompletion(c))
	}
	return out
}

// ChatAll forwards the batch to the host in one call
func (h *HostCsi) ChatAll(ctx context.Context, requests []csi.ChatRequest) []csi.ChatResponse {
	logger.G(ctx).WithField("requests", len(requests)).Debug("host chat")

	wire := make([]ChatRequest, 0, len(requests))
	for _, r := range requests {
		wire = append(wire, ToChatRequest(r))
	}
	results := h.host.Chat(ctx, wire)

	out := make([]csi.ChatResponse, 0, len(results))
	for _, r := range results {
		out = append(out, FromChatResponse(r))
	}
	return out
}

// ChunkAll forwards the batch to the host in one call
func (h *HostCsi) ChunkAll(ctx context.Context, requests []csi.ChunkRequest) [][]string {
	logger.G(ctx).WithField("requests", len(requests)).Debug("host chunk")

	wire := make([]ChunkRequest, 0, len(requests))
	for _, r := range requests {
		wire = append(wire, ToChunkRequest(r))
	}
	return h.host.Chunk(ctx, wire)
}

// SearchAll forwards the batch to the host in one call
func (h *HostCsi) SearchAll(ctx context.Context, requests []csi.SearchRequest) [][]csi.SearchResult {
	logger.G(ctx).WithField("requests", len(requests)).Debug("host search")

	wire := make([]SearchRequest, 0, len(requests))
	for _, r := range requests {
		wire = append(wire, ToSearchRequest(r))
	}
	results := h.host.Search(ctx, wire)

	out := make([][]csi.SearchResult, 0, len(results))
	for _, batch := range results {
		converted := make([]csi.SearchResult, 0, len(batch))
		for _, r := range batch {
			converted = append(converted, FromSearchResult(r))
		}
		out = append(out, converted)
	}
	return out
}

// SelectLanguageAll panics when the host answers with a code outside the
// vocabulary.
func (h *HostCsi) SelectLanguageAll(ctx context.Context, requests []csi.SelectLanguageRequest) []*csi.LanguageCode {
	logger.G(ctx).WithField("requests", len(requests)).Debug("host select language")

	wire := make([]SelectLanguageRequest, 0, len(requests))
	for _, r := range requests {
		wire = append(wire, ToSelectLanguageRequest(r))
	}
	results := h.host.SelectLanguage(ctx, wire)

	out := make([]*csi.LanguageCode, 0, len(results))
	for _, code := range results {
		if code == nil {
			out = append(out, nil)
			continue
		}
		parsed, err := csi.ParseLanguageCode(*code)
		if err != nil {
			panic(err.Error())
		}
		out = append(out, &parsed)
	}
	return out
}

// Documents retrieves documents with their raw metadata
func (h *HostCsi) Documents(ctx context.Context, paths []csi.DocumentPath) ([]csi.RawDocument, error) {
	logger.G(ctx).WithField("paths", len(paths)).Debug("host documents")

	docs, err := h.host.Documents(ctx, toDocumentPaths(paths))
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve documents")
	}

	out := make([]csi.RawDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d))
	}
	return out, nil
}

// DocumentsMetadata retrieves only the metadata of the documents
func (h *HostCsi) DocumentsMetadata(ctx context.Context, paths []csi.DocumentPath) ([]json.RawMessage, error) {
	logger.G(ctx).WithField("paths", len(paths)).Debug("host document metadata")

	blobs, err := h.host.DocumentMetadata(ctx, toDocumentPaths(paths))
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve document metadata")
	}

	out := make([]json.RawMessage, 0, len(blobs))
	for _, b := range blobs {
		if b == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, rawMetadata(b))
	}
	return out, nil
}

func toDocumentPaths(paths []csi.DocumentPath) []DocumentPath {
	out := make([]DocumentPath, 0, len(paths))
	for _, p := range paths {
		out = append(out, ToDocumentPath(p))
	}
	return out
}

func rawMetadata(b []byte) json.RawMessage {
	return append(json.RawMessage{}, b...)
}
