package entity

import (
	"fmt"
	"time"
)

type TransactionKind string

const (
	TransactionKindEarn  TransactionKind = "Earn"
	TransactionKindSpend TransactionKind = "Spend"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusRejected  TransactionStatus = "Rejected"
)

type Balance struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	AvailablePoints int       `json:"availablePoints"`
	PendingPoints   int       `json:"pendingPoints"`
	LifetimePoints  int       `json:"lifetimePoints"`
	CreatedAt       time.Time `json:"createdAt"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// TotalPoints is what the balance endpoint reports as the headline figure.
func (b *Balance) TotalPoints() int {
	return b.AvailablePoints
}

// Transaction amounts are signed: earn > 0, spend < 0.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Amount      int               `json:"amount"`
	Kind        TransactionKind   `json:"kind"`
	Reason      string            `json:"reason"`
	ReferenceID string            `json:"referenceId,omitempty"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	ProcessedAt *time.Time        `json:"processedAt,omitempty"`
}

// SettlePending walks pending earn entries oldest first and settles amount
// points of them to target. Whole entries change status in place. An entry
// only partly covered is closed as Rejected and replaced by two new entries:
// the covered part with the target status and the rest still Pending, so
// summing entries by status keeps matching the balance.
func SettlePending(entries []*Transaction, amount int, target TransactionStatus, now time.Time) (updated, created []*Transaction) {
	remaining := amount
	for _, e := range entries {
		if remaining <= 0 {
			break
		}
		if e.Status != TransactionStatusPending || e.Kind != TransactionKindEarn {
			continue
		}

		processed := now
		if e.Amount <= remaining {
			e.Status = target
			e.ProcessedAt = &processed
			updated = append(updated, e)
			remaining -= e.Amount
			continue
		}

		e.Status = TransactionStatusRejected
		e.ProcessedAt = &processed
		updated = append(updated, e)

		reason := fmt.Sprintf("%s (split of %s)", e.Reason, e.ID)
		created = append(created,
			&Transaction{
				UserID:      e.UserID,
				Amount:      remaining,
				Kind:        TransactionKindEarn,
				Reason:      reason,
				ReferenceID: e.ReferenceID,
				Status:      target,
				CreatedAt:   e.CreatedAt,
				ProcessedAt: &processed,
			},
			&Transaction{
				UserID:      e.UserID,
				Amount:      e.Amount - remaining,
				Kind:        TransactionKindEarn,
				Reason:      reason,
				ReferenceID: e.ReferenceID,
				Status:      TransactionStatusPending,
				CreatedAt:   e.CreatedAt,
			},
		)
		remaining = 0
	}
	return updated, created
}
