// Package bindings adapts the capability interface to the functions exported
// by the host runtime. Requests are converted from domain values to wire
// records before they cross the boundary and responses are converted back.
package bindings

import (
	"context"
	"sync"
)

// Host is the set of batch functions the host runtime makes available to a
// skill. Each function returns one result per request, in request order.
type Host interface {
	Complete(ctx context.Context, requests []CompletionRequest) []Completion
	Chat(ctx context.Context, requests []ChatRequest) []ChatResponse
	Chunk(ctx context.Context, requests []ChunkRequest) [][]string
	Search(ctx context.Context, requests []SearchRequest) [][]SearchResult
	// SelectLanguage returns nil for requests where no language was detected
	SelectLanguage(ctx context.Context, requests []SelectLanguageRequest) []*string
	Documents(ctx context.Context, paths []DocumentPath) ([]Document, error)
	// DocumentMetadata returns a nil entry for documents without metadata
	DocumentMetadata(ctx context.Context, paths []DocumentPath) ([][]byte, error)
}

var (
	hostMu sync.RWMutex
	bound  Host
)

// Bind installs the host runtime of this process. Passing nil detaches it.
func Bind(h Host) {
	hostMu.Lock()
	defer hostMu.Unlock()
	bound = h
}

// BoundHost returns the installed host runtime, or nil when the process runs
// outside of one.
func BoundHost() Host {
	hostMu.RLock()
	defer hostMu.RUnlock()
	return bound
}
