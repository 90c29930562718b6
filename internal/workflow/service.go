// Package workflow orchestrates the create collection -> mint ->
// transfer-on-purchase operations over the ledger client, the metadata
// publisher and the hive record store.
package workflow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"hivemint/internal/domain"
	"hivemint/internal/ledger"
	"hivemint/internal/observability"
	"hivemint/internal/pinning"
	"hivemint/internal/storage"
)

// Defaults for collection creation when the caller names nothing.
const (
	DefaultCollectionName   = "Beehive Investment Units"
	DefaultCollectionSymbol = "HIVE"
)

// Service executes the workflow operations. All collaborators are injected
// so tests can substitute stubs.
type Service struct {
	ledger     ledger.Client
	publisher  pinning.Publisher
	hives      storage.HiveStore
	operatorID string
	logger     *log.Logger
	nowMs      func() int64
}

// Options configures a Service.
type Options struct {
	Ledger     ledger.Client
	Publisher  pinning.Publisher
	Hives      storage.HiveStore
	OperatorID string
	Logger     *log.Logger
	NowMs      func() int64 // defaults to time.Now().UnixMilli
}

// New creates a workflow Service.
func New(opts Options) *Service {
	nowMs := opts.NowMs
	if nowMs == nil {
		nowMs = func() int64 { return time.Now().UnixMilli() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		ledger:     opts.Ledger,
		publisher:  opts.Publisher,
		hives:      opts.Hives,
		operatorID: opts.OperatorID,
		logger:     logger,
		nowMs:      nowMs,
	}
}

// CreateCollection creates a new token collection. Every call creates a
// distinct collection; there is no deduplication.
func (s *Service) CreateCollection(ctx context.Context, name, symbol string) (*domain.TokenCollection, error) {
	if name == "" {
		name = DefaultCollectionName
	}
	if symbol == "" {
		symbol = DefaultCollectionSymbol
	}

	col, err := s.ledger.CreateCollection(ctx, name, symbol)
	if err != nil {
		observability.RecordLedgerError("create_collection")
		return nil, err
	}

	observability.RecordCollectionCreated()
	s.logger.Printf("created collection %s (tx %s)", col.CollectionID, col.TransactionID)
	return col, nil
}

// MintRequest carries the inputs of a standalone mint.
type MintRequest struct {
	CollectionID string
	SupplyKey    string
	HiveID       string
	Name         string
	Description  string
	Image        string
	Location     string
	Farmer       string
	Price        float64
}

// MintOutcome is the result of a standalone mint.
type MintOutcome struct {
	SerialNumber  int64
	CollectionID  string
	MetadataURI   string
	TransactionID string
}

// MintHive publishes metadata for the given hive attributes and mints one
// token referencing it.
func (s *Service) MintHive(ctx context.Context, req MintRequest) (*MintOutcome, error) {
	switch {
	case req.CollectionID == "":
		return nil, &ValidationError{Field: "tokenId"}
	case req.SupplyKey == "":
		return nil, &ValidationError{Field: "supplyKey"}
	case req.HiveID == "":
		return nil, &ValidationError{Field: "hiveId"}
	}

	doc := buildMetadata(&domain.HiveRecord{
		ID:          req.HiveID,
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Location:    req.Location,
		Farmer:      req.Farmer,
		Price:       req.Price,
	})
	uri := s.publisher.Publish(ctx, doc)

	minted, err := s.ledger.Mint(ctx, req.CollectionID, req.SupplyKey, uri)
	if err != nil {
		observability.RecordLedgerError("mint")
		return nil, err
	}

	observability.RecordMint()
	s.logger.Printf("minted serial %d in collection %s for hive %s", minted.SerialNumber, req.CollectionID, req.HiveID)
	return &MintOutcome{
		SerialNumber:  minted.SerialNumber,
		CollectionID:  req.CollectionID,
		MetadataURI:   uri,
		TransactionID: minted.TransactionID,
	}, nil
}

// PurchaseRequest carries the inputs of a full purchase.
type PurchaseRequest struct {
	HiveID       string
	BuyerAccount string
	CollectionID string
	SupplyKey    string
}

// PurchaseOutcome is the result of a completed purchase.
type PurchaseOutcome struct {
	SerialNumber  int64
	CollectionID  string
	TransactionID string // transfer transaction
}

// Purchase runs the full purchase workflow for one hive:
//
//	validate -> publish metadata -> mint -> park pending_transfer ->
//	transfer -> commit sold
//
// The pending_transfer state is persisted before the transfer attempt, so a
// failed transfer leaves a recoverable record for the reconciler instead of
// an invisible orphaned token. The status-guarded swap makes the
// available -> pending transition exclusive across concurrent requests.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseOutcome, error) {
	switch {
	case req.HiveID == "":
		return nil, &ValidationError{Field: "hiveId"}
	case req.BuyerAccount == "":
		return nil, &ValidationError{Field: "investorAccountId"}
	case req.CollectionID == "":
		return nil, &ValidationError{Field: "tokenId"}
	case req.SupplyKey == "":
		return nil, &ValidationError{Field: "supplyKey"}
	}

	hive, err := s.hives.GetByID(ctx, req.HiveID)
	if err != nil {
		return nil, err
	}
	switch hive.Status {
	case domain.HiveSold:
		observability.RecordPurchase("already_sold")
		return nil, ErrAlreadySold
	case domain.HivePendingTransfer:
		observability.RecordPurchase("pending")
		return nil, ErrPurchasePending
	}

	uri := s.publisher.Publish(ctx, buildMetadata(hive))

	minted, err := s.ledger.Mint(ctx, req.CollectionID, req.SupplyKey, uri)
	if err != nil {
		observability.RecordLedgerError("mint")
		observability.RecordPurchase("mint_failed")
		return nil, err
	}
	observability.RecordMint()

	pending := *hive
	pending.Status = domain.HivePendingTransfer
	pending.Owner = req.BuyerAccount
	pending.SerialNumber = minted.SerialNumber
	pending.CollectionID = req.CollectionID
	pending.MetadataURI = uri
	if err := s.hives.CompareAndSwap(ctx, &pending, domain.HiveAvailable); err != nil {
		if err == storage.ErrConflict {
			// A concurrent purchase won the race after our mint. The minted
			// token stays in the treasury; flag it loudly for reconciliation.
			s.logger.Printf("WARN: lost purchase race for hive %s, serial %d stranded in treasury (tx %s)",
				req.HiveID, minted.SerialNumber, minted.TransactionID)
			observability.RecordPurchase("conflict")
			return nil, ErrPurchasePending
		}
		return nil, err
	}

	res, err := s.ledger.Transfer(ctx, req.CollectionID, minted.SerialNumber, s.operatorID, req.BuyerAccount)
	if err != nil {
		// The record stays pending_transfer; the reconciler retries it.
		s.logger.Printf("WARN: transfer failed for hive %s serial %d, left pending for reconciliation: %v",
			req.HiveID, minted.SerialNumber, err)
		observability.RecordLedgerError("transfer")
		observability.RecordPurchase("transfer_failed")
		return nil, err
	}
	observability.RecordTransfer()

	sold := pending
	sold.Status = domain.HiveSold
	sold.SoldAtMs = s.nowMs()
	if err := s.hives.CompareAndSwap(ctx, &sold, domain.HivePendingTransfer); err != nil {
		return nil, fmt.Errorf("commit sold state for hive %s: %w", req.HiveID, err)
	}

	observability.RecordPurchase("success")
	s.logger.Printf("hive %s sold to %s, serial %d (tx %s)", req.HiveID, req.BuyerAccount, minted.SerialNumber, res.TransactionID)
	return &PurchaseOutcome{
		SerialNumber:  minted.SerialNumber,
		CollectionID:  req.CollectionID,
		TransactionID: res.TransactionID,
	}, nil
}

// Status retrieves the current record for a hive.
func (s *Service) Status(ctx context.Context, hiveID string) (*domain.HiveRecord, error) {
	if hiveID == "" {
		return nil, &ValidationError{Field: "hiveId"}
	}
	return s.hives.GetByID(ctx, hiveID)
}

// buildMetadata assembles the metadata document for a hive. Attribute order
// is part of the document's identity and stays fixed.
func buildMetadata(h *domain.HiveRecord) *domain.MetadataDocument {
	return &domain.MetadataDocument{
		Name:        h.Name,
		Description: h.Description,
		Image:       h.Image,
		Attributes: []domain.Attribute{
			{TraitType: "hiveId", Value: h.ID},
			{TraitType: "location", Value: h.Location},
			{TraitType: "farmer", Value: h.Farmer},
			{TraitType: "price", Value: strconv.FormatFloat(h.Price, 'f', -1, 64)},
		},
	}
}
