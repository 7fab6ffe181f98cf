package persistent

import (
	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/model"
)

func ToBalanceEntity(m *model.BalanceModel) *entity.Balance {
	if m == nil {
		return nil
	}

	return &entity.Balance{
		ID:              m.ID,
		UserID:          m.UserID,
		AvailablePoints: m.AvailablePoints,
		PendingPoints:   m.PendingPoints,
		LifetimePoints:  m.LifetimePoints,
		CreatedAt:       m.CreatedAt,
		LastUpdated:     m.UpdatedAt,
	}
}

func ToTransactionEntity(m *model.TransactionModel) *entity.Transaction {
	if m == nil {
		return nil
	}

	return &entity.Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		Amount:      m.Amount,
		Kind:        entity.TransactionKind(m.Kind),
		Reason:      m.Reason,
		ReferenceID: m.ReferenceID,
		Status:      entity.TransactionStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

func ToTransactionModel(e *entity.Transaction) *model.TransactionModel {
	if e == nil {
		return nil
	}

	return &model.TransactionModel{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Kind:        string(e.Kind),
		Reason:      e.Reason,
		ReferenceID: e.ReferenceID,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
}

func ToRewardEntity(m *model.RewardModel) *entity.Reward {
	if m == nil {
		return nil
	}

	return &entity.Reward{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		Type:              entity.RewardType(m.Type),
		PointsCost:        m.PointsCost,
		QuantityAvailable: m.QuantityAvailable,
		IsActive:          m.IsActive,
		ImageURL:          m.ImageURL,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ToRewardModel(e *entity.Reward) *model.RewardModel {
	if e == nil {
		return nil
	}

	return &model.RewardModel{
		ID:                e.ID,
		Name:              e.Name,
		Description:       e.Description,
		Type:              string(e.Type),
		PointsCost:        e.PointsCost,
		QuantityAvailable: e.QuantityAvailable,
		IsActive:          e.IsActive,
		ImageURL:          e.ImageURL,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func ToRedemptionEntity(m *model.RedemptionModel) *entity.Redemption {
	if m == nil {
		return nil
	}

	return &entity.Redemption{
		ID:                 m.ID,
		UserID:             m.UserID,
		RewardID:           m.RewardID,
		RewardName:         m.RewardName,
		PointsSpent:        m.PointsSpent,
		Status:             entity.RedemptionStatus(m.Status),
		RedemptionCode:     m.RedemptionCode,
		Notes:              m.Notes,
		SpendTransactionID: m.SpendTransactionID,
		StockReserved:      m.StockReserved,
		CreatedAt:          m.CreatedAt,
		ProcessedAt:        m.ProcessedAt,
	}
}

func ToRedemptionModel(e *entity.Redemption) *model.RedemptionModel {
	if e == nil {
		return nil
	}

	return &model.RedemptionModel{
		ID:                 e.ID,
		UserID:             e.UserID,
		RewardID:           e.RewardID,
		RewardName:         e.RewardName,
		PointsSpent:        e.PointsSpent,
		Status:             string(e.Status),
		RedemptionCode:     e.RedemptionCode,
		Notes:              e.Notes,
		SpendTransactionID: e.SpendTransactionID,
		StockReserved:      e.StockReserved,
		CreatedAt:          e.CreatedAt,
		ProcessedAt:        e.ProcessedAt,
	}
}
