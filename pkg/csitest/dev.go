package csitest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillet/pkg/config"
	"github.com/jingkaihe/skillet/pkg/csi"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/telemetry"
)

// DefaultTimeout bounds a single call to the dev host
const DefaultTimeout = config.DefaultDevTimeout

// Fataler receives unrecoverable failures of a DevCsi. testing.TB satisfies it.
type Fataler interface {
	Fatalf(format string, args ...any)
}

type panicFataler struct{}

func (panicFataler) Fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

// DevOption configures a DevCsi
type DevOption func(*DevCsi)

// WithTB reports failures through tb.Fatalf instead of panicking
func WithTB(tb testing.TB) DevOption {
	return WithFataler(tb)
}

// WithFataler reports failures through f instead of panicking
func WithFataler(f Fataler) DevOption {
	return func(d *DevCsi) {
		d.fatal = f
	}
}

// WithHTTPClient replaces the HTTP client. Its own timeout applies.
func WithHTTPClient(client *http.Client) DevOption {
	return func(d *DevCsi) {
		d.client = client
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) DevOption {
	return func(d *DevCsi) {
		d.timeout = timeout
	}
}

// DevCsi forwards every call to a development host over HTTP. Calls are
// neither retried nor backed off. A transport failure, a non-2xx response or
// an undecodable body is fatal: it is reported to the configured Fataler, or
// panics when there is none. The only recoverable failure is a document that
// the host reports as missing.
type DevCsi struct {
	address string
	token   string
	client  *http.Client
	timeout time.Duration
	fatal   Fataler
}

var _ csi.Csi = (*DevCsi)(nil)

// NewDevCsi creates a client for the dev host at address
func NewDevCsi(address, token string, opts ...DevOption) *DevCsi {
	d := &DevCsi{
		address: strings.TrimRight(address, "/"),
		token:   token,
		timeout: DefaultTimeout,
		fatal:   panicFataler{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: d.timeout}
	}
	return d
}

// NewDevCsiFromConfig creates a client from validated dev settings
func NewDevCsiFromConfig(cfg config.DevConfig, opts ...DevOption) (*DevCsi, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid dev host configuration")
	}
	if cfg.Timeout > 0 {
		opts = append([]DevOption{WithTimeout(cfg.Timeout)}, opts...)
	}
	return NewDevCsi(cfg.Address, cfg.Token, opts...), nil
}

// DevCsiFromEnv creates a client configured from SKILLET_DEV_* variables
// and the skillet config file
func DevCsiFromEnv(opts ...DevOption) (*DevCsi, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	return NewDevCsiFromConfig(cfg.Dev, opts...)
}

// Address returns the base address of the dev host
func (d *DevCsi) Address() string {
	return d.address
}

// CompleteAll sends the batch as one "complete" request
func (d *DevCsi) CompleteAll(ctx context.Context, requests []csi.CompletionRequest) []csi.Completion {
	var out []csi.Completion
	d.mustCall(ctx, FunctionComplete, requests, &out)
	return out
}

// ChatAll sends the batch as one "chat" request
func (d *DevCsi) ChatAll(ctx context.Context, requests []csi.ChatRequest) []csi.ChatResponse {
	var out []csi.ChatResponse
	d.mustCall(ctx, FunctionChat, requests, &out)
	return out
}

// ChunkAll sends the batch as one "chunk" request
func (d *DevCsi) ChunkAll(ctx context.Context, requests []csi.ChunkRequest) [][]string {
	var out [][]string
	d.mustCall(ctx, FunctionChunk, requests, &out)
	return out
}

// SearchAll sends the batch as one "search" request
func (d *DevCsi) SearchAll(ctx context.Context, requests []csi.SearchRequest) [][]csi.SearchResult {
	var out [][]csi.SearchResult
	d.mustCall(ctx, FunctionSearch, requests, &out)
	return out
}

// SelectLanguageAll sends the batch as one "select_language" request
func (d *DevCsi) SelectLanguageAll(ctx context.Context, requests []csi.SelectLanguageRequest) []*csi.LanguageCode {
	var out []*csi.LanguageCode
	d.mustCall(ctx, FunctionSelectLanguage, requests, &out)
	return out
}

// Documents returns csi.ErrDocumentNotFound when the host answers 404
func (d *DevCsi) Documents(ctx context.Context, paths []csi.DocumentPath) ([]csi.RawDocument, error) {
	var out []csi.RawDocument
	if err := d.call(ctx, FunctionDocuments, paths, &out); err != nil {
		if errors.Is(err, csi.ErrDocumentNotFound) {
			return nil, err
		}
		d.fail(FunctionDocuments, err)
		return nil, err
	}
	return out, nil
}

// DocumentsMetadata returns csi.ErrDocumentNotFound when the host answers 404
func (d *DevCsi) DocumentsMetadata(ctx context.Context, paths []csi.DocumentPath) ([]json.RawMessage, error) {
	var out []json.RawMessage
	if err := d.call(ctx, FunctionDocumentMetadata, paths, &out); err != nil {
		if errors.Is(err, csi.ErrDocumentNotFound) {
			return nil, err
		}
		d.fail(FunctionDocumentMetadata, err)
		return nil, err
	}
	for i, blob := range out {
		if bytes.Equal(blob, []byte("null")) {
			out[i] = nil
		}
	}
	return out, nil
}

func (d *DevCsi) mustCall(ctx context.Context, function Function, requests, result any) {
	if err := d.call(ctx, function, requests, result); err != nil {
		d.fail(function, err)
	}
}

func (d *DevCsi) fail(function Function, err error) {
	if h, ok := d.fatal.(interface{ Helper() }); ok {
		h.Helper()
	}
	d.fatal.Fatalf("csi %s call to %s failed: %v", function, d.address, err)
}

func (d *DevCsi) call(ctx context.Context, function Function, requests, result any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return telemetry.WithSpan(ctx, "csi.dev."+string(function), func(ctx context.Context) error {
		return d.roundTrip(ctx, function, requests, result)
	}, attribute.String("csi.function", string(function)), attribute.String("csi.address", d.address))
}

func (d *DevCsi) roundTrip(ctx context.Context, function Function, requests, result any) error {
	body, err := json.Marshal(struct {
		Version  string   `json:"version"`
		Function Function `json:"function"`
		Requests any      `json:"requests"`
	}{Version: ProtocolVersion, Function: function, Requests: requests})
	if err != nil {
		return errors.Wrap(err, "failed to encode requests")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.address+"/csi", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("X-Request-Id", requestID)

	log := logger.G(ctx).WithFields(map[string]any{
		"function":   function,
		"request_id": requestID,
	})
	start := time.Now()

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	log.WithFields(map[string]any{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("dev host call")

	if resp.StatusCode == http.StatusNotFound && (function == FunctionDocuments || function == FunctionDocumentMetadata) {
		return errors.Wrap(csi.ErrDocumentNotFound, errorMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("dev host responded with %s: %s", resp.Status, errorMessage(data))
	}

	if err := json.Unmarshal(data, result); err != nil {
		return errors.Wrapf(err, "failed to decode response %q", truncate(string(data), 512))
	}
	return nil
}

// errorMessage extracts the message of a DevServer error body and falls back
// to the raw body for other hosts
func errorMessage(data []byte) string {
	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return truncate(strings.TrimSpace(string(data)), 512)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
