package workflow

import (
	"context"

	"hivemint/internal/domain"
	"hivemint/internal/observability"
)

// ReconcileResult summarizes one reconciler pass.
type ReconcileResult struct {
	Completed int // pending transfers finished this pass
	Pending   int // records still pending after the pass
}

// Reconcile scans for hives parked in pending_transfer and retries their
// ownership transfer. Only the operator (treasury) key is needed, which the
// service holds; supply keys are never persisted, so mints are never retried
// here. Tokens are not burned: a pending record either completes or stays
// visible for manual handling.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	records, err := s.hives.List(ctx)
	if err != nil {
		observability.RecordReconcilerRun("error", 0)
		return nil, err
	}

	result := &ReconcileResult{}
	for _, h := range records {
		if h.Status != domain.HivePendingTransfer {
			continue
		}

		res, err := s.ledger.Transfer(ctx, h.CollectionID, h.SerialNumber, s.operatorID, h.Owner)
		if err != nil {
			s.logger.Printf("WARN: reconcile transfer still failing for hive %s serial %d: %v", h.ID, h.SerialNumber, err)
			observability.RecordLedgerError("transfer")
			result.Pending++
			continue
		}
		observability.RecordTransfer()

		sold := *h
		sold.Status = domain.HiveSold
		sold.SoldAtMs = s.nowMs()
		if err := s.hives.CompareAndSwap(ctx, &sold, domain.HivePendingTransfer); err != nil {
			// Someone else completed it between our read and write.
			s.logger.Printf("reconcile: hive %s changed underneath, skipping: %v", h.ID, err)
			continue
		}

		s.logger.Printf("reconciled hive %s: serial %d transferred to %s (tx %s)", h.ID, h.SerialNumber, h.Owner, res.TransactionID)
		observability.RecordTransferReconciled()
		result.Completed++
	}

	observability.RecordReconcilerRun("success", result.Pending)
	return result, nil
}
