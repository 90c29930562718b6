package workflow

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"hivemint/internal/domain"
	"hivemint/internal/ledger/stub"
	"hivemint/internal/pinning"
	"hivemint/internal/storage"
	"hivemint/internal/storage/memory"
)

// fakePublisher returns a short deterministic URI without touching the
// network, the way the real publisher falls back when the provider is down.
type fakePublisher struct {
	published []*domain.MetadataDocument
}

func (p *fakePublisher) Publish(_ context.Context, doc *domain.MetadataDocument) string {
	p.published = append(p.published, doc)
	return pinning.SchemePinned + "Qm" + doc.HiveID()
}

const testNowMs = int64(1700000000000)

type fixture struct {
	svc       *Service
	ledger    *stub.Client
	publisher *fakePublisher
	hives     *memory.HiveStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger:    stub.NewClient(),
		publisher: &fakePublisher{},
		hives:     memory.NewHiveStore(),
	}
	f.svc = New(Options{
		Ledger:     f.ledger,
		Publisher:  f.publisher,
		Hives:      f.hives,
		OperatorID: "0.0.777",
		Logger:     log.New(io.Discard, "", 0),
		NowMs:      func() int64 { return testNowMs },
	})
	return f
}

func seedHive(t *testing.T, f *fixture, id string, status domain.HiveStatus) {
	t.Helper()
	err := f.hives.Put(context.Background(), &domain.HiveRecord{
		ID:       id,
		Name:     "Hive " + id,
		Location: "Carpathians",
		Farmer:   "Ivanov",
		Price:    150,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("seed hive %s: %v", id, err)
	}
}

func TestCreateCollection(t *testing.T) {
	f := newFixture(t)

	col, err := f.svc.CreateCollection(context.Background(), "", "")
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if col.CollectionID == "" || col.TransactionID == "" {
		t.Errorf("incomplete collection: %+v", col)
	}
	if col.SupplyKey.PrivateKey == "" || col.AdminKey.PrivateKey == "" {
		t.Error("expected both key pairs in cleartext")
	}

	second, err := f.svc.CreateCollection(context.Background(), "Custom", "CUS")
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if second.CollectionID == col.CollectionID {
		t.Error("each call must create a distinct collection")
	}
}

func TestCreateCollection_LedgerRejection(t *testing.T) {
	f := newFixture(t)
	f.ledger.CreateErr = errors.New("INSUFFICIENT_PAYER_BALANCE")

	if _, err := f.svc.CreateCollection(context.Background(), "", ""); err == nil {
		t.Fatal("expected error from ledger rejection")
	}
}

func TestMintHive(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.MintHive(context.Background(), MintRequest{
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
		HiveID:       "HIVE-001",
		Name:         "Hive one",
		Location:     "Carpathians",
		Farmer:       "Ivanov",
		Price:        150,
	})
	if err != nil {
		t.Fatalf("MintHive: %v", err)
	}

	if out.SerialNumber != 1 {
		t.Errorf("expected serial 1, got %d", out.SerialNumber)
	}
	if out.MetadataURI != "ipfs://QmHIVE-001" {
		t.Errorf("unexpected metadata URI %s", out.MetadataURI)
	}

	if len(f.publisher.published) != 1 {
		t.Fatalf("expected one published document, got %d", len(f.publisher.published))
	}
	doc := f.publisher.published[0]
	if doc.HiveID() != "HIVE-001" {
		t.Errorf("document missing hiveId attribute: %+v", doc)
	}
	wantTraits := []string{"hiveId", "location", "farmer", "price"}
	if len(doc.Attributes) != len(wantTraits) {
		t.Fatalf("expected %d attributes, got %d", len(wantTraits), len(doc.Attributes))
	}
	for i, trait := range wantTraits {
		if doc.Attributes[i].TraitType != trait {
			t.Errorf("attribute %d: expected %s, got %s", i, trait, doc.Attributes[i].TraitType)
		}
	}
	if doc.Attributes[3].Value != "150" {
		t.Errorf("expected price formatted without trailing zeros, got %q", doc.Attributes[3].Value)
	}
}

func TestMintHive_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   MintRequest
		field string
	}{
		{"missing token id", MintRequest{SupplyKey: "k", HiveID: "HIVE-001"}, "tokenId"},
		{"missing supply key", MintRequest{CollectionID: "0.0.5005", HiveID: "HIVE-001"}, "supplyKey"},
		{"missing hive id", MintRequest{CollectionID: "0.0.5005", SupplyKey: "k"}, "hiveId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.MintHive(ctx, tc.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, vErr.Field)
			}
		})
	}

	if len(f.ledger.Mints) != 0 {
		t.Errorf("validation failures must not reach the ledger, got %d mints", len(f.ledger.Mints))
	}
}

func TestPurchase(t *testing.T) {
	f := newFixture(t)
	seedHive(t, f, "HIVE-001", domain.HiveAvailable)

	out, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		HiveID:       "HIVE-001",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	if out.SerialNumber != 1 {
		t.Errorf("expected serial 1, got %d", out.SerialNumber)
	}
	if out.TransactionID == "" {
		t.Error("expected the transfer transaction id")
	}

	hive, err := f.hives.GetByID(context.Background(), "HIVE-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if hive.Status != domain.HiveSold {
		t.Errorf("expected sold, got %s", hive.Status)
	}
	if hive.Owner != "0.0.1234" {
		t.Errorf("expected owner 0.0.1234, got %s", hive.Owner)
	}
	if hive.SerialNumber != 1 {
		t.Errorf("expected serial 1 recorded, got %d", hive.SerialNumber)
	}
	if hive.SoldAtMs != testNowMs {
		t.Errorf("expected sale timestamp %d, got %d", testNowMs, hive.SoldAtMs)
	}
	if hive.MetadataURI != "ipfs://QmHIVE-001" {
		t.Errorf("expected metadata URI recorded, got %s", hive.MetadataURI)
	}

	if len(f.ledger.Transfers) != 1 {
		t.Fatalf("expected one transfer, got %d", len(f.ledger.Transfers))
	}
	tr := f.ledger.Transfers[0]
	if tr.From != "0.0.777" || tr.To != "0.0.1234" || tr.Serial != 1 {
		t.Errorf("unexpected transfer %+v", tr)
	}
}

func TestPurchase_AlreadySold(t *testing.T) {
	f := newFixture(t)
	seedHive(t, f, "HIVE-001", domain.HiveAvailable)
	ctx := context.Background()

	req := PurchaseRequest{
		HiveID:       "HIVE-001",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	}
	if _, err := f.svc.Purchase(ctx, req); err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	mintsBefore := len(f.ledger.Mints)
	transfersBefore := len(f.ledger.Transfers)

	req.BuyerAccount = "0.0.5678"
	_, err := f.svc.Purchase(ctx, req)
	if !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("expected ErrAlreadySold, got %v", err)
	}
	if err.Error() != "This hive has already been sold" {
		t.Errorf("unexpected message %q", err.Error())
	}

	// The second attempt must be rejected before any ledger call.
	if len(f.ledger.Mints) != mintsBefore {
		t.Errorf("expected no new mints, got %d", len(f.ledger.Mints)-mintsBefore)
	}
	if len(f.ledger.Transfers) != transfersBefore {
		t.Errorf("expected no new transfers, got %d", len(f.ledger.Transfers)-transfersBefore)
	}

	hive, err := f.hives.GetByID(ctx, "HIVE-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if hive.Owner != "0.0.1234" {
		t.Errorf("first buyer must keep ownership, got %s", hive.Owner)
	}
}

func TestPurchase_PendingTransferRejected(t *testing.T) {
	f := newFixture(t)
	seedHive(t, f, "HIVE-001", domain.HivePendingTransfer)

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		HiveID:       "HIVE-001",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	})
	if !errors.Is(err, ErrPurchasePending) {
		t.Fatalf("expected ErrPurchasePending, got %v", err)
	}
	if len(f.ledger.Mints) != 0 {
		t.Error("pending hive must not be minted again")
	}
}

func TestPurchase_MintFailureLeavesAvailable(t *testing.T) {
	f := newFixture(t)
	seedHive(t, f, "HIVE-001", domain.HiveAvailable)
	f.ledger.MintErr = errors.New("TOKEN_MAX_SUPPLY_REACHED")

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		HiveID:       "HIVE-001",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	})
	if err == nil {
		t.Fatal("expected mint error")
	}

	hive, err := f.hives.GetByID(context.Background(), "HIVE-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if hive.Status != domain.HiveAvailable {
		t.Errorf("failed mint must leave the hive available, got %s", hive.Status)
	}
	if hive.Owner != "" {
		t.Errorf("no owner expected, got %s", hive.Owner)
	}
}

func TestPurchase_TransferFailureLeavesPending(t *testing.T) {
	f := newFixture(t)
	seedHive(t, f, "HIVE-001", domain.HiveAvailable)
	f.ledger.TransferErr = errors.New("ACCOUNT_FROZEN")

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		HiveID:       "HIVE-001",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	})
	if err == nil {
		t.Fatal("expected transfer error")
	}

	hive, err := f.hives.GetByID(context.Background(), "HIVE-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if hive.Status != domain.HivePendingTransfer {
		t.Errorf("failed transfer must leave the hive pending, got %s", hive.Status)
	}
	if hive.SerialNumber != 1 || hive.Owner != "0.0.1234" {
		t.Errorf("pending record must retain serial and buyer: %+v", hive)
	}
}

func TestPurchase_HiveNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		HiveID:       "HIVE-404",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPurchase_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := PurchaseRequest{
		HiveID:       "HIVE-001",
		BuyerAccount: "0.0.1234",
		CollectionID: "0.0.5005",
		SupplyKey:    "supply-key",
	}

	cases := []struct {
		name   string
		mutate func(*PurchaseRequest)
		field  string
	}{
		{"missing hive id", func(r *PurchaseRequest) { r.HiveID = "" }, "hiveId"},
		{"missing investor", func(r *PurchaseRequest) { r.BuyerAccount = "" }, "investorAccountId"},
		{"missing token id", func(r *PurchaseRequest) { r.CollectionID = "" }, "tokenId"},
		{"missing supply key", func(r *PurchaseRequest) { r.SupplyKey = "" }, "supplyKey"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := f.svc.Purchase(ctx, req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, vErr.Field)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	seedHive(t, f, "HIVE-001", domain.HiveAvailable)

	hive, err := f.svc.Status(context.Background(), "HIVE-001")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !hive.Purchasable() {
		t.Error("available hive should be purchasable")
	}

	if _, err := f.svc.Status(context.Background(), ""); !IsValidation(err) {
		t.Errorf("expected validation error for empty id, got %v", err)
	}
	if _, err := f.svc.Status(context.Background(), "HIVE-404"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
