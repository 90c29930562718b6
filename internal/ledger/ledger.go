// Package ledger talks to the distributed ledger through its JSON-RPC
// gateway: collection creation, token minting and ownership transfer.
package ledger

import (
	"context"
	"errors"

	"hivemint/internal/domain"
)

// MetadataByteLimit bounds the serialized metadata reference stored on the
// ledger. Only a URI/pointer goes on-chain, never the document itself.
const MetadataByteLimit = 100

// Client defines the ledger gateway interface.
type Client interface {
	// CreateCollection creates a non-fungible-unique collection with the
	// operator account as treasury and returns fresh supply and admin key
	// pairs. Collections are never deduplicated: every call creates one.
	CreateCollection(ctx context.Context, name, symbol string) (*domain.TokenCollection, error)

	// Mint mints one token into the collection, signed by the supply key.
	// Fails locally with ErrMetadataTooLarge before any network call when
	// the metadata URI exceeds MetadataByteLimit bytes.
	Mint(ctx context.Context, collectionID, supplyKey, metadataURI string) (*domain.MintedToken, error)

	// Transfer moves one token instance between accounts, signed by the
	// operator (treasury) key.
	Transfer(ctx context.Context, collectionID string, serial int64, from, to string) (*TransferResult, error)
}

// TransferResult is the ledger-reported outcome of a transfer transaction.
type TransferResult struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Ledger rejection errors, one per transaction kind. The gateway message is
// wrapped so callers can surface it verbatim. Nothing is retried.
var (
	ErrCreateRejected   = errors.New("collection creation rejected")
	ErrMintRejected     = errors.New("mint rejected")
	ErrTransferRejected = errors.New("transfer rejected")

	// ErrMetadataTooLarge is returned before submission when the metadata
	// reference exceeds MetadataByteLimit bytes.
	ErrMetadataTooLarge = errors.New("metadata reference exceeds 100 bytes")
)
