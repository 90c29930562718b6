package domain

// HiveStatus is the lifecycle state of a hive investment unit.
type HiveStatus string

const (
	// HiveAvailable means the hive can be purchased.
	HiveAvailable HiveStatus = "available"

	// HivePendingTransfer means a token was minted for this hive but the
	// ownership transfer has not completed yet. The reconciler picks these up.
	HivePendingTransfer HiveStatus = "pending_transfer"

	// HiveSold means the purchase workflow completed end to end.
	HiveSold HiveStatus = "sold"
)

// HiveRecord represents one beehive investment unit.
// Records are seeded out-of-band and mutated only by the purchase workflow.
type HiveRecord struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Image        string     `json:"image"`
	Location     string     `json:"location"`
	Farmer       string     `json:"farmer"`
	Price        float64    `json:"price"`
	Status       HiveStatus `json:"status"`
	Owner        string     `json:"owner,omitempty"`        // buyer account id, set when the purchase starts
	SerialNumber int64      `json:"serialNumber,omitempty"` // assigned by the mint transaction
	CollectionID string     `json:"collectionId,omitempty"` // collection the token was minted into
	MetadataURI  string     `json:"metadataUri,omitempty"`  // pinned metadata reference
	SoldAtMs     int64      `json:"soldAt,omitempty"`       // Unix ms, set when the transfer commits
}

// Purchasable reports whether a new purchase may start for this record.
func (h *HiveRecord) Purchasable() bool {
	return h.Status == HiveAvailable
}
