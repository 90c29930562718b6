// Package pinning publishes metadata documents to a content-addressed
// storage provider.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"hivemint/internal/domain"
	"hivemint/internal/observability"
)

// URI schemes for published and fallback references.
const (
	SchemePinned   = "ipfs://"
	SchemeFallback = "ipfs-fallback:"
)

// DefaultTimeout is applied to the underlying HTTP client unless overridden.
const DefaultTimeout = 15 * time.Second

// Publisher publishes a metadata document and returns its URI.
type Publisher interface {
	// Publish never fails: when the provider is unreachable or responds
	// without a content hash, it returns a deterministic fallback URI
	// derived from the document's hiveId attribute, so the reference stays
	// stable across attempts even while the provider is down.
	Publish(ctx context.Context, doc *domain.MetadataDocument) string
}

// HTTPPublisher pins documents over the provider's HTTPS API with
// bearer-token authentication.
type HTTPPublisher struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *log.Logger
}

// PublisherOption configures HTTPPublisher.
type PublisherOption func(*HTTPPublisher)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) PublisherOption {
	return func(p *HTTPPublisher) {
		p.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) PublisherOption {
	return func(p *HTTPPublisher) {
		p.client = client
	}
}

// NewHTTPPublisher creates a publisher against the given pinning endpoint.
func NewHTTPPublisher(endpoint, token string, logger *log.Logger, opts ...PublisherOption) *HTTPPublisher {
	p := &HTTPPublisher{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compile-time interface check.
var _ Publisher = (*HTTPPublisher)(nil)

// pinResponse is the provider's response to a pin request.
type pinResponse struct {
	Hash string `json:"hash"`
}

// Publish pins the document and returns its content-addressed URI, or the
// deterministic fallback on any failure.
func (p *HTTPPublisher) Publish(ctx context.Context, doc *domain.MetadataDocument) string {
	uri, err := p.pin(ctx, doc)
	if err != nil {
		fallback := FallbackURI(doc)
		p.logger.Printf("WARN: metadata pin failed, using fallback %s: %v", fallback, err)
		observability.RecordPinPublish("fallback")
		return fallback
	}
	observability.RecordPinPublish("pinned")
	return uri
}

// pin performs the single outbound pin call.
func (p *HTTPPublisher) pin(ctx context.Context, doc *domain.MetadataDocument) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var pinned pinResponse
	if err := json.Unmarshal(respBody, &pinned); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if pinned.Hash == "" {
		return "", fmt.Errorf("response missing content hash")
	}

	return SchemePinned + pinned.Hash, nil
}

// FallbackURI derives the deterministic fallback reference for a document.
// Two calls with the same hiveId attribute yield the same URI.
func FallbackURI(doc *domain.MetadataDocument) string {
	return SchemeFallback + doc.HiveID()
}
