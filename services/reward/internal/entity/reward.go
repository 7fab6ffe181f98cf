package entity

import "time"

// UnlimitedQuantity marks a reward with no inventory limit.
const UnlimitedQuantity = -1

type RewardType string

const (
	RewardTypeVoucherCode     RewardType = "VoucherCode"
	RewardTypePhysicalGift    RewardType = "PhysicalGift"
	RewardTypeDigitalGift     RewardType = "DigitalGift"
	RewardTypeExclusiveAccess RewardType = "ExclusiveAccess"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardTypeVoucherCode, RewardTypePhysicalGift, RewardTypeDigitalGift, RewardTypeExclusiveAccess:
		return true
	}
	return false
}

type Reward struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Type              RewardType `json:"type"`
	PointsCost        int        `json:"pointsCost"`
	QuantityAvailable int        `json:"quantityAvailable"`
	IsActive          bool       `json:"isActive"`
	ImageURL          string     `json:"imageUrl,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (r *Reward) Unlimited() bool {
	return r.QuantityAvailable == UnlimitedQuantity
}

func (r *Reward) CanRedeem() bool {
	return r.IsActive && (r.Unlimited() || r.QuantityAvailable > 0)
}

type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "Pending"
	RedemptionStatusApproved  RedemptionStatus = "Approved"
	RedemptionStatusRejected  RedemptionStatus = "Rejected"
	RedemptionStatusCompleted RedemptionStatus = "Completed"
)

type Redemption struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	RewardID           string           `json:"rewardId"`
	RewardName         string           `json:"rewardName"`
	PointsSpent        int              `json:"pointsSpent"`
	Status             RedemptionStatus `json:"status"`
	RedemptionCode     string           `json:"redemptionCode,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	SpendTransactionID string           `json:"spendTransactionId"`
	StockReserved      bool             `json:"stockReserved"`
	CreatedAt          time.Time        `json:"createdAt"`
	ProcessedAt        *time.Time       `json:"processedAt,omitempty"`
}

// NewRedemption snapshots the reward name and cost at redemption time.
func NewRedemption(userID string, reward *Reward, spendTransactionID string, now time.Time) *Redemption {
	return &Redemption{
		UserID:             userID,
		RewardID:           reward.ID,
		RewardName:         reward.Name,
		PointsSpent:        reward.PointsCost,
		Status:             RedemptionStatusPending,
		SpendTransactionID: spendTransactionID,
		StockReserved:      reward.Unlimited(),
		CreatedAt:          now,
	}
}

// StockOutcome is the result of reserving one unit of inventory for a redemption.
type StockOutcome int

const (
	StockReserved StockOutcome = iota
	StockSoldOut
	// StockSkipped means the redemption was no longer pending and unreserved.
	StockSkipped
)
