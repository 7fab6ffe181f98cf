package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"ma-siu/services/reward/internal/entity"
	"ma-siu/services/reward/internal/repo/persistent"

	"github.com/google/uuid"
)

// fakePointsRepo mirrors the conditional-update contract of the gorm
// repository under a single mutex.
type fakePointsRepo struct {
	mu        sync.Mutex
	balances  map[string]*entity.Balance
	txns      []*entity.Transaction
	earnErr   error
	conflicts int
}

func newFakePointsRepo() *fakePointsRepo {
	return &fakePointsRepo{balances: map[string]*entity.Balance{}}
}

func (r *fakePointsRepo) ensure(userID string) *entity.Balance {
	b, ok := r.balances[userID]
	if !ok {
		b = &entity.Balance{ID: uuid.New().String(), UserID: userID, CreatedAt: time.Now(), LastUpdated: time.Now()}
		r.balances[userID] = b
	}
	return b
}

func (r *fakePointsRepo) record(txn *entity.Transaction) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	stored := *txn
	r.txns = append(r.txns, &stored)
}

func (r *fakePointsRepo) conflict() bool {
	if r.conflicts > 0 {
		r.conflicts--
		return true
	}
	return false
}

func (r *fakePointsRepo) GetOrCreateBalance(ctx context.Context, userID string) (*entity.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := *r.ensure(userID)
	return &b, nil
}

func (r *fakePointsRepo) Earn(ctx context.Context, txn *entity.Transaction, countLifetime bool) (*entity.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.earnErr != nil {
		return nil, r.earnErr
	}
	if r.conflict() {
		return nil, persistent.ErrConflict
	}
	b := r.ensure(txn.UserID)
	if txn.Status == entity.TransactionStatusPending {
		b.PendingPoints += txn.Amount
	} else {
		b.AvailablePoints += txn.Amount
		if countLifetime {
			b.LifetimePoints += txn.Amount
		}
	}
	r.record(txn)
	out := *b
	return &out, nil
}

func (r *fakePointsRepo) Spend(ctx context.Context, txn *entity.Transaction) (*entity.Balance, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflict() {
		return nil, false, persistent.ErrConflict
	}
	b := r.ensure(txn.UserID)
	if b.AvailablePoints < -txn.Amount {
		return nil, false, nil
	}
	b.AvailablePoints += txn.Amount
	r.record(txn)
	out := *b
	return &out, true, nil
}

func (r *fakePointsRepo) SettlePending(ctx context.Context, userID string, amount int, target entity.TransactionStatus) (*entity.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.ensure(userID)
	move := amount
	if b.PendingPoints < move {
		move = b.PendingPoints
	}
	if move > 0 {
		var pending []*entity.Transaction
		for _, t := range r.txns {
			if t.UserID == userID && t.Status == entity.TransactionStatusPending {
				pending = append(pending, t)
			}
		}
		_, created := entity.SettlePending(pending, move, target, time.Now())
		for _, t := range created {
			r.record(t)
		}
		b.PendingPoints -= move
		if target == entity.TransactionStatusCompleted {
			b.AvailablePoints += move
			b.LifetimePoints += move
		}
	}
	out := *b
	return &out, nil
}

func (r *fakePointsRepo) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []*entity.Transaction
	for i := len(r.txns) - 1; i >= 0; i-- {
		if r.txns[i].UserID == userID {
			t := *r.txns[i]
			mine = append(mine, &t)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []*entity.Transaction{}, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (r *fakePointsRepo) userTransactions(userID string) []*entity.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []*entity.Transaction
	for _, t := range r.txns {
		if t.UserID == userID {
			mine = append(mine, t)
		}
	}
	return mine
}

type fakeRewardRepo struct {
	mu            sync.Mutex
	rewards       map[string]*entity.Reward
	redemptions   map[string]*entity.Redemption
	points        *fakePointsRepo
	createErr     error
	beforeReserve func(r *fakeRewardRepo)
}

func newFakeRewardRepo(points *fakePointsRepo) *fakeRewardRepo {
	return &fakeRewardRepo{
		rewards:     map[string]*entity.Reward{},
		redemptions: map[string]*entity.Redemption{},
		points:      points,
	}
}

func (r *fakeRewardRepo) add(reward *entity.Reward) *entity.Reward {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reward.ID == "" {
		reward.ID = uuid.New().String()
	}
	r.rewards[reward.ID] = reward
	return reward
}

func (r *fakeRewardRepo) quantity(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rewards[id].QuantityAvailable
}

func (r *fakeRewardRepo) redemption(id string) *entity.Redemption {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *r.redemptions[id]
	return &c
}

func (r *fakeRewardRepo) all() []*entity.Redemption {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Redemption, 0, len(r.redemptions))
	for _, red := range r.redemptions {
		c := *red
		out = append(out, &c)
	}
	return out
}

func (r *fakeRewardRepo) ListActive(ctx context.Context) ([]*entity.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Reward
	for _, rw := range r.rewards {
		if rw.IsActive {
			c := *rw
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointsCost < out[j].PointsCost })
	return out, nil
}

func (r *fakeRewardRepo) GetByID(ctx context.Context, id string) (*entity.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rw, ok := r.rewards[id]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	c := *rw
	return &c, nil
}

func (r *fakeRewardRepo) Create(ctx context.Context, reward *entity.Reward) error {
	r.add(reward)
	return nil
}

func (r *fakeRewardRepo) UpdateImage(ctx context.Context, id, imageURL string) (*entity.Reward, error) {
	r.mu.Lock()
	rw, ok := r.rewards[id]
	if ok {
		rw.ImageURL = imageURL
	}
	r.mu.Unlock()
	if !ok {
		return nil, persistent.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *fakeRewardRepo) CreateRedemption(ctx context.Context, redemption *entity.Redemption) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return false, r.createErr
	}
	for _, existing := range r.redemptions {
		if existing.SpendTransactionID == redemption.SpendTransactionID {
			return false, nil
		}
	}
	redemption.ID = uuid.New().String()
	c := *redemption
	r.redemptions[c.ID] = &c
	return true, nil
}

func (r *fakeRewardRepo) GetRedemption(ctx context.Context, id string) (*entity.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	red, ok := r.redemptions[id]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	c := *red
	return &c, nil
}

func (r *fakeRewardRepo) ListRedemptions(ctx context.Context, userID string, limit, offset int) ([]*entity.Redemption, int64, error) {
	var mine []*entity.Redemption
	for _, red := range r.all() {
		if red.UserID == userID {
			mine = append(mine, red)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []*entity.Redemption{}, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (r *fakeRewardRepo) ReserveStock(ctx context.Context, redemptionID, rewardID string) (entity.StockOutcome, error) {
	if r.beforeReserve != nil {
		r.beforeReserve(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	red, ok := r.redemptions[redemptionID]
	if !ok || red.Status != entity.RedemptionStatusPending || red.StockReserved {
		return entity.StockSkipped, nil
	}
	rw, ok := r.rewards[rewardID]
	if !ok || (!rw.Unlimited() && rw.QuantityAvailable <= 0) {
		return entity.StockSoldOut, nil
	}
	if !rw.Unlimited() {
		rw.QuantityAvailable--
	}
	red.StockReserved = true
	return entity.StockReserved, nil
}

func (r *fakeRewardRepo) RejectUnreserved(ctx context.Context, redemptionID, notes string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	red, ok := r.redemptions[redemptionID]
	if !ok || red.Status != entity.RedemptionStatusPending || red.StockReserved {
		return false, nil
	}
	now := time.Now()
	red.Status = entity.RedemptionStatusRejected
	red.Notes = notes
	red.ProcessedAt = &now
	return true, nil
}

func (r *fakeRewardRepo) TransitionRedemption(ctx context.Context, id string, from []entity.RedemptionStatus, to entity.RedemptionStatus, code, notes string) (*entity.Redemption, error) {
	r.mu.Lock()
	red, ok := r.redemptions[id]
	if !ok {
		r.mu.Unlock()
		return nil, persistent.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if red.Status == s {
			allowed = true
		}
	}
	if !allowed {
		r.mu.Unlock()
		return nil, persistent.ErrInvalidTransition
	}
	now := time.Now()
	red.Status = to
	red.ProcessedAt = &now
	if code != "" {
		red.RedemptionCode = code
	}
	if notes != "" {
		red.Notes = notes
	}
	r.mu.Unlock()
	return r.GetRedemption(ctx, id)
}

func (r *fakeRewardRepo) FindOrphanSpends(ctx context.Context, reasonPrefix string, before time.Time, limit int) ([]*entity.Transaction, error) {
	claimed := map[string]bool{}
	for _, red := range r.all() {
		claimed[red.SpendTransactionID] = true
	}

	r.points.mu.Lock()
	defer r.points.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.points.txns {
		if t.Kind == entity.TransactionKindSpend && strings.HasPrefix(t.Reason, reasonPrefix) &&
			t.CreatedAt.Before(before) && !claimed[t.ID] {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRewardRepo) FindUnreservedRedemptions(ctx context.Context, before time.Time, limit int) ([]*entity.Redemption, error) {
	var out []*entity.Redemption
	for _, red := range r.all() {
		if red.Status == entity.RedemptionStatusPending && !red.StockReserved && red.CreatedAt.Before(before) {
			out = append(out, red)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []interface{}
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.events = append(p.events, payload)
	return nil
}

type fakeImageStore struct {
	keys      []string
	deleted   []string
	deleteErr error
}

func (s *fakeImageStore) UploadObject(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	s.keys = append(s.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeImageStore) DeleteObject(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
