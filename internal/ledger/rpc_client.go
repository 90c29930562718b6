package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"hivemint/internal/domain"
)

// DefaultTimeout is applied to the underlying HTTP client unless overridden.
const DefaultTimeout = 30 * time.Second

// HTTPClient implements Client using the gateway's HTTP JSON-RPC 2.0 API.
// Calls are awaited through finality: the gateway responds only once the
// transaction receipt is available. Nothing is retried; a rejection is
// surfaced once and the operation abandoned.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	operatorID  string
	operatorKey string
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a ledger gateway client operating as the given
// account. The operator account is the treasury for created collections and
// signs all transfer transactions.
func NewHTTPClient(endpoint, operatorID, operatorKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		operatorID:  operatorID,
		operatorKey: operatorKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a single JSON-RPC call. No retries.
func (c *HTTPClient) call(ctx context.Context, method string, params, result any) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// createCollectionParams is the gateway payload for createCollection.
type createCollectionParams struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	TokenType string `json:"tokenType"`
	Decimals  int    `json:"decimals"`
	MaxSupply int64  `json:"maxSupply"` // 0 = infinite
	Treasury  string `json:"treasury"`
	SupplyKey string `json:"supplyKey"` // public key
	AdminKey  string `json:"adminKey"`  // public key
	Signature string `json:"signature"` // operator signature over treasury|supplyKey|adminKey
}

type createCollectionResult struct {
	CollectionID  string `json:"collectionId"`
	TransactionID string `json:"transactionId"`
}

// CreateCollection generates fresh supply and admin key pairs and submits a
// signed collection-creation transaction: non-fungible-unique, zero decimals,
// infinite supply, treasury set to the operator account. Both key pairs are
// returned in cleartext; the service retains nothing.
func (c *HTTPClient) CreateCollection(ctx context.Context, name, symbol string) (*domain.TokenCollection, error) {
	supplyKey, err := GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateRejected, err)
	}
	adminKey, err := GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateRejected, err)
	}

	payload := fmt.Sprintf("%s|%s|%s", c.operatorID, supplyKey.PublicKey, adminKey.PublicKey)
	sig, err := SignPayload(c.operatorKey, []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: sign with operator key: %v", ErrCreateRejected, err)
	}

	params := createCollectionParams{
		Name:      name,
		Symbol:    symbol,
		TokenType: "NON_FUNGIBLE_UNIQUE",
		Decimals:  0,
		MaxSupply: 0,
		Treasury:  c.operatorID,
		SupplyKey: supplyKey.PublicKey,
		AdminKey:  adminKey.PublicKey,
		Signature: sig,
	}

	var result createCollectionResult
	if err := c.call(ctx, "createCollection", params, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateRejected, err)
	}

	return &domain.TokenCollection{
		CollectionID:  result.CollectionID,
		SupplyKey:     supplyKey,
		AdminKey:      adminKey,
		TransactionID: result.TransactionID,
	}, nil
}

// mintParams is the gateway payload for mintToken.
type mintParams struct {
	CollectionID string `json:"collectionId"`
	Metadata     string `json:"metadata"` // the metadata URI, stored verbatim on-chain
	Signature    string `json:"signature"`
}

type mintResult struct {
	SerialNumber  int64  `json:"serialNumber"`
	TransactionID string `json:"transactionId"`
}

// Mint mints one token with the metadata URI as its on-chain reference,
// signed by the supply key. The 100-byte bound is enforced locally so an
// oversized reference never costs a network call.
func (c *HTTPClient) Mint(ctx context.Context, collectionID, supplyKey, metadataURI string) (*domain.MintedToken, error) {
	if len([]byte(metadataURI)) > MetadataByteLimit {
		return nil, fmt.Errorf("%w: %d bytes", ErrMetadataTooLarge, len(metadataURI))
	}

	payload := fmt.Sprintf("%s|%s", collectionID, metadataURI)
	sig, err := SignPayload(supplyKey, []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: sign with supply key: %v", ErrMintRejected, err)
	}

	params := mintParams{
		CollectionID: collectionID,
		Metadata:     metadataURI,
		Signature:    sig,
	}

	var result mintResult
	if err := c.call(ctx, "mintToken", params, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMintRejected, err)
	}

	return &domain.MintedToken{
		CollectionID:  collectionID,
		SerialNumber:  result.SerialNumber,
		MetadataURI:   metadataURI,
		TransactionID: result.TransactionID,
	}, nil
}

// transferParams is the gateway payload for transferToken.
type transferParams struct {
	CollectionID string `json:"collectionId"`
	SerialNumber int64  `json:"serialNumber"`
	From         string `json:"from"`
	To           string `json:"to"`
	Signature    string `json:"signature"`
}

// Transfer submits a single-token ownership transfer signed by the operator
// (treasury) key and returns the ledger-reported status.
func (c *HTTPClient) Transfer(ctx context.Context, collectionID string, serial int64, from, to string) (*TransferResult, error) {
	payload := fmt.Sprintf("%s|%d|%s|%s", collectionID, serial, from, to)
	sig, err := SignPayload(c.operatorKey, []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: sign with operator key: %v", ErrTransferRejected, err)
	}

	params := transferParams{
		CollectionID: collectionID,
		SerialNumber: serial,
		From:         from,
		To:           to,
		Signature:    sig,
	}

	var result TransferResult
	if err := c.call(ctx, "transferToken", params, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	return &result, nil
}
