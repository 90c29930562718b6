// Package stub provides an in-memory ledger.Client for testing.
package stub

import (
	"context"
	"fmt"
	"sync"

	"hivemint/internal/domain"
	"hivemint/internal/ledger"
)

// Client implements ledger.Client for testing. Serial numbers are assigned
// per collection, monotonically from 1, like the real ledger does.
type Client struct {
	mu sync.Mutex

	// Failure injection. When set, the corresponding call returns the error.
	CreateErr   error
	MintErr     error
	TransferErr error

	collections int
	serials     map[string]int64 // collection id -> last serial
	Mints       []*domain.MintedToken
	Transfers   []TransferCall
}

// TransferCall records one Transfer invocation.
type TransferCall struct {
	CollectionID string
	Serial       int64
	From         string
	To           string
}

// NewClient creates a new stub ledger client.
func NewClient() *Client {
	return &Client{
		serials: make(map[string]int64),
	}
}

// CreateCollection returns a fresh collection with generated key pairs.
func (c *Client) CreateCollection(_ context.Context, name, symbol string) (*domain.TokenCollection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CreateErr != nil {
		return nil, c.CreateErr
	}

	supplyKey, err := ledger.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	adminKey, err := ledger.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	c.collections++
	return &domain.TokenCollection{
		CollectionID:  fmt.Sprintf("0.0.%d", 5000+c.collections),
		SupplyKey:     supplyKey,
		AdminKey:      adminKey,
		TransactionID: fmt.Sprintf("tx-create-%d", c.collections),
	}, nil
}

// Mint assigns the next serial in the collection. The 100-byte metadata
// bound is enforced exactly like the HTTP client enforces it.
func (c *Client) Mint(_ context.Context, collectionID, supplyKey, metadataURI string) (*domain.MintedToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len([]byte(metadataURI)) > ledger.MetadataByteLimit {
		return nil, fmt.Errorf("%w: %d bytes", ledger.ErrMetadataTooLarge, len(metadataURI))
	}
	if c.MintErr != nil {
		return nil, c.MintErr
	}

	c.serials[collectionID]++
	minted := &domain.MintedToken{
		CollectionID:  collectionID,
		SerialNumber:  c.serials[collectionID],
		MetadataURI:   metadataURI,
		TransactionID: fmt.Sprintf("tx-mint-%s-%d", collectionID, c.serials[collectionID]),
	}
	c.Mints = append(c.Mints, minted)
	return minted, nil
}

// Transfer records the call and reports success.
func (c *Client) Transfer(_ context.Context, collectionID string, serial int64, from, to string) (*ledger.TransferResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.TransferErr != nil {
		return nil, c.TransferErr
	}

	c.Transfers = append(c.Transfers, TransferCall{
		CollectionID: collectionID,
		Serial:       serial,
		From:         from,
		To:           to,
	})
	return &ledger.TransferResult{
		TransactionID: fmt.Sprintf("tx-transfer-%s-%d", collectionID, serial),
		Status:        "SUCCESS",
	}, nil
}

// Verify interface compliance at compile time.
var _ ledger.Client = (*Client)(nil)
