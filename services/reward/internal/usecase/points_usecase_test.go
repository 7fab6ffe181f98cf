package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"ma-siu/pkg/events"
	"ma-siu/pkg/logger"
	"ma-siu/services/reward/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) (*fakePointsRepo, *recordingPublisher, PointsUseCase) {
	t.Helper()
	repo := newFakePointsRepo()
	pub := &recordingPublisher{}
	return repo, pub, NewPointsUseCase(repo, pub, logger.New())
}

func seed(t *testing.T, ledger PointsUseCase, userID string, amount int) {
	t.Helper()
	_, err := ledger.AddPoints(context.Background(), AddPointsRequest{UserID: userID, Amount: amount, Reason: "seed"})
	require.NoError(t, err)
}

// replayAvailable rebuilds available points from the completed log entries.
func replayAvailable(txns []*entity.Transaction) (available, pending int) {
	for _, t := range txns {
		switch t.Status {
		case entity.TransactionStatusCompleted:
			available += t.Amount
		case entity.TransactionStatusPending:
			pending += t.Amount
		}
	}
	return available, pending
}

func TestAddPoints_Available(t *testing.T) {
	repo, pub, ledger := newLedger(t)

	balance, err := ledger.AddPoints(context.Background(), AddPointsRequest{UserID: "u1", Amount: 40, Reason: "Review", ReferenceID: "post-1"})

	require.NoError(t, err)
	assert.Equal(t, 40, balance.AvailablePoints)
	assert.Equal(t, 40, balance.LifetimePoints)
	assert.Equal(t, 0, balance.PendingPoints)

	txns := repo.userTransactions("u1")
	require.Len(t, txns, 1)
	assert.Equal(t, entity.TransactionStatusCompleted, txns[0].Status)
	assert.Equal(t, "post-1", txns[0].ReferenceID)

	require.Len(t, pub.keys, 1)
	assert.Equal(t, events.RoutingPointsEarned, pub.keys[0])
	earned := pub.events[0].(events.PointsEarned)
	assert.Equal(t, "u1", earned.UserID)
	assert.Equal(t, 40, earned.Points)
	assert.NotEmpty(t, earned.EventID)
}

func TestAddPoints_Pending(t *testing.T) {
	_, _, ledger := newLedger(t)

	balance, err := ledger.AddPoints(context.Background(), AddPointsRequest{UserID: "u1", Amount: 25, Pending: true})

	require.NoError(t, err)
	assert.Equal(t, 0, balance.AvailablePoints)
	assert.Equal(t, 25, balance.PendingPoints)
	assert.Equal(t, 0, balance.LifetimePoints)
}

func TestAddPoints_InvalidAmount(t *testing.T) {
	repo, _, ledger := newLedger(t)

	for _, amount := range []int{0, -5} {
		_, err := ledger.AddPoints(context.Background(), AddPointsRequest{UserID: "u1", Amount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	_, err := ledger.SpendPoints(context.Background(), "u1", 0, "x", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Empty(t, repo.userTransactions("u1"))
}

func TestAddPoints_PublishFailureIsNotFatal(t *testing.T) {
	_, pub, ledger := newLedger(t)
	pub.err = errors.New("broker down")

	balance, err := ledger.AddPoints(context.Background(), AddPointsRequest{UserID: "u1", Amount: 10})

	require.NoError(t, err)
	assert.Equal(t, 10, balance.AvailablePoints)
}

func TestSpendPoints_ExactBalanceThenShort(t *testing.T) {
	repo, _, ledger := newLedger(t)
	ctx := context.Background()
	seed(t, ledger, "u1", 100)

	ok, err := ledger.SpendPoints(ctx, "u1", 100, "x", "")
	require.NoError(t, err)
	assert.True(t, ok)

	balance, _ := ledger.GetBalance(ctx, "u1")
	assert.Equal(t, 0, balance.AvailablePoints)

	ok, err = ledger.SpendPoints(ctx, "u1", 1, "y", "")
	require.NoError(t, err)
	assert.False(t, ok)

	balance, _ = ledger.GetBalance(ctx, "u1")
	assert.Equal(t, 0, balance.AvailablePoints)
	assert.Len(t, repo.userTransactions("u1"), 2)
}

func TestSpendPoints_ConcurrentSpendsOnlyOneWins(t *testing.T) {
	_, _, ledger := newLedger(t)
	ctx := context.Background()
	seed(t, ledger, "u1", 100)

	const callers = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.SpendPoints(ctx, "u1", 100, "race", "")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	balance, _ := ledger.GetBalance(ctx, "u1")
	assert.Equal(t, 0, balance.AvailablePoints)
}

func TestLedger_NeverNegativeAndReplayable(t *testing.T) {
	repo, _, ledger := newLedger(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	spent := 0
	for i := 0; i < 300; i++ {
		amount := rng.Intn(50) + 1
		switch rng.Intn(4) {
		case 0:
			_, err := ledger.AddPoints(ctx, AddPointsRequest{UserID: "u1", Amount: amount})
			require.NoError(t, err)
		case 1:
			_, err := ledger.AddPoints(ctx, AddPointsRequest{UserID: "u1", Amount: amount, Pending: true})
			require.NoError(t, err)
		case 2:
			ok, err := ledger.SpendPoints(ctx, "u1", amount, "spend", "")
			require.NoError(t, err)
			if ok {
				spent += amount
			}
		default:
			if rng.Intn(2) == 0 {
				_, err := ledger.ApprovePending(ctx, "u1", amount)
				require.NoError(t, err)
			} else {
				_, err := ledger.RejectPending(ctx, "u1", amount)
				require.NoError(t, err)
			}
		}

		balance, err := ledger.GetBalance(ctx, "u1")
		require.NoError(t, err)
		require.GreaterOrEqual(t, balance.AvailablePoints, 0)
		require.GreaterOrEqual(t, balance.PendingPoints, 0)
	}

	balance, _ := ledger.GetBalance(ctx, "u1")
	available, pending := replayAvailable(repo.userTransactions("u1"))
	assert.Equal(t, balance.AvailablePoints, available)
	assert.Equal(t, balance.PendingPoints, pending)
	assert.Equal(t, balance.LifetimePoints, balance.AvailablePoints+spent)
}

func TestApprovePending_MovesAtMostPending(t *testing.T) {
	_, _, ledger := newLedger(t)
	ctx := context.Background()
	_, err := ledger.AddPoints(ctx, AddPointsRequest{UserID: "u1", Amount: 30, Pending: true})
	require.NoError(t, err)

	balance, err := ledger.ApprovePending(ctx, "u1", 100)

	require.NoError(t, err)
	assert.Equal(t, 30, balance.AvailablePoints)
	assert.Equal(t, 30, balance.LifetimePoints)
	assert.Equal(t, 0, balance.PendingPoints)
}

func TestRejectPending_PartialKeepsRemainderPending(t *testing.T) {
	repo, _, ledger := newLedger(t)
	ctx := context.Background()
	_, err := ledger.AddPoints(ctx, AddPointsRequest{UserID: "u1", Amount: 30, Pending: true})
	require.NoError(t, err)

	balance, err := ledger.RejectPending(ctx, "u1", 10)

	require.NoError(t, err)
	assert.Equal(t, 0, balance.AvailablePoints)
	assert.Equal(t, 20, balance.PendingPoints)
	_, pending := replayAvailable(repo.userTransactions("u1"))
	assert.Equal(t, 20, pending)
}

func TestRefund_DoesNotCountLifetimeOrPublish(t *testing.T) {
	_, pub, ledger := newLedger(t)
	ctx := context.Background()
	seed(t, ledger, "u1", 50)
	_, err := ledger.SpendPoints(ctx, "u1", 50, "Redeem:Coffee", "r1")
	require.NoError(t, err)

	balance, err := ledger.Refund(ctx, "u1", 50, "Refund:Coffee", "red-1")

	require.NoError(t, err)
	assert.Equal(t, 50, balance.AvailablePoints)
	assert.Equal(t, 50, balance.LifetimePoints)
	assert.Len(t, pub.keys, 1)
}

func TestSpend_RetriesConflicts(t *testing.T) {
	repo, _, ledger := newLedger(t)
	ctx := context.Background()
	seed(t, ledger, "u1", 10)

	repo.conflicts = 2
	ok, err := ledger.SpendPoints(ctx, "u1", 5, "x", "")
	require.NoError(t, err)
	assert.True(t, ok)

	repo.conflicts = maxAttempts
	_, err = ledger.SpendPoints(ctx, "u1", 5, "x", "")
	assert.ErrorIs(t, err, ErrContention)

	balance, _ := ledger.GetBalance(ctx, "u1")
	assert.Equal(t, 5, balance.AvailablePoints)
}

func TestGetTransactions_Paging(t *testing.T) {
	_, _, ledger := newLedger(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		seed(t, ledger, "u1", i)
	}

	page, err := ledger.GetTransactions(ctx, "u1", 2, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, 3, page.Transactions[0].Amount)
	assert.Equal(t, 2, page.Transactions[1].Amount)

	page, err = ledger.GetTransactions(ctx, "u1", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.PageSize)
}
