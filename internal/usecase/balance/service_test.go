package balance

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeStore struct {
	goals        map[int64]*domain.Goal
	transactions []*domain.Transaction
	balance      domain.Balance
	numberSeq    int
	currentTx    *fakeTx
}

func newFakeStore() *fakeStore {
	return &fakeStore{goals: make(map[int64]*domain.Goal)}
}

func (s *fakeStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	s.currentTx = &fakeTx{}
	return s.currentTx, nil
}

func (s *fakeStore) CreateTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	t.ID = fmt.Sprintf("tx-%d", len(s.transactions)+1)
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *fakeStore) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id, status string) error {
	for _, t := range s.transactions {
		if t.ID == id {
			t.Status = status
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (s *fakeStore) CountCompletedDeposits(ctx context.Context, userID int64) (int, error) {
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.Type == domain.TxTypeDeposit && t.Status == domain.TxStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) NextTransactionNumber(ctx context.Context, suffix string) (string, error) {
	s.numberSeq++
	number := fmt.Sprintf("240115-%04d", s.numberSeq)
	if suffix != "" {
		number += "-" + suffix
	}
	return number, nil
}

func (s *fakeStore) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Goal, error) {
	if g, ok := s.goals[id]; ok && g.UserID == userID {
		return g, nil
	}
	return nil, xerrors.ErrGoalNotFound
}

func (s *fakeStore) GetPersonalGoal(ctx context.Context, userID int64) (*domain.Goal, error) {
	for _, g := range s.goals {
		if g.UserID == userID && g.RelativeID == nil {
			return g, nil
		}
	}
	return nil, xerrors.ErrGoalNotFound
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*domain.Goal, error) {
	if g, ok := s.goals[id]; ok {
		return g, nil
	}
	return nil, xerrors.ErrGoalNotFound
}

func (s *fakeStore) IncrementCurrent(ctx context.Context, tx pgx.Tx, goalID int64, amount float64) error {
	s.goals[goalID].CurrentAmount += amount
	return nil
}

func (s *fakeStore) Get(ctx context.Context, userID int64) (*domain.Balance, error) {
	b := s.balance
	b.UserID = userID
	return &b, nil
}

func (s *fakeStore) CreditTx(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error {
	s.balance.Amount += amount
	return nil
}

func (s *fakeStore) AwardBonusTx(ctx context.Context, tx pgx.Tx, userID int64, bonus float64) error {
	s.balance.Amount += bonus
	s.balance.BonusAmount += bonus
	s.balance.HasFirstDeposit = true
	return nil
}

func newService(s *fakeStore) *Service {
	return New(s, s, s, 10000, zap.NewNop())
}

func TestDepositFirstTimeAwardsBonus(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	result, err := svc.Deposit(context.Background(), 1, 26000, nil)
	require.NoError(t, err)

	assert.True(t, result.IsFirstDeposit)
	assert.Equal(t, float64(10000), result.Transaction.Bonus)
	assert.Equal(t, float64(36000), store.balance.Amount)
	assert.Equal(t, float64(10000), store.balance.BonusAmount)
	assert.True(t, store.balance.HasFirstDeposit)
	assert.True(t, store.currentTx.committed)

	// Deposit row plus the bonus row, both COMPLETED.
	require.Len(t, store.transactions, 2)
	assert.Equal(t, domain.TxStatusCompleted, store.transactions[0].Status)
	assert.Equal(t, domain.TxStatusCompleted, store.transactions[1].Status)
	assert.Contains(t, store.transactions[1].TransactionNumber, "-BONUS")
}

func TestDepositSecondTimeNoBonus(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	_, err := svc.Deposit(context.Background(), 1, 26000, nil)
	require.NoError(t, err)

	result, err := svc.Deposit(context.Background(), 1, 5000, nil)
	require.NoError(t, err)

	assert.False(t, result.IsFirstDeposit)
	assert.Equal(t, float64(0), result.Transaction.Bonus)
	assert.Equal(t, float64(41000), store.balance.Amount)
	assert.Equal(t, float64(10000), store.balance.BonusAmount)
}

func TestDepositRoutesToPersonalGoal(t *testing.T) {
	store := newFakeStore()
	store.goals[10] = &domain.Goal{ID: 10, UserID: 1, Type: domain.GoalTypeUmrah, TargetAmount: 1_500_000}
	svc := newService(store)

	result, err := svc.Deposit(context.Background(), 1, 26000, nil)
	require.NoError(t, err)

	assert.Equal(t, float64(26000), store.goals[10].CurrentAmount)
	// Personal goal deposits also land on the spendable balance.
	assert.Equal(t, float64(36000), store.balance.Amount)
	require.NotNil(t, result.Transaction.Goal)
	assert.Equal(t, int64(10), result.Transaction.Goal.GoalID)
	assert.Equal(t, float64(26000), result.Transaction.Goal.CurrentAmount)
}

func TestDepositToRelativeGoalSkipsBalanceAndBonus(t *testing.T) {
	store := newFakeStore()
	relID := int64(5)
	store.goals[20] = &domain.Goal{ID: 20, UserID: 1, RelativeID: &relID, Type: domain.GoalTypeHajj, TargetAmount: 2_000_000}
	svc := newService(store)

	goalID := int64(20)
	result, err := svc.Deposit(context.Background(), 1, 50000, &goalID)
	require.NoError(t, err)

	assert.False(t, result.IsFirstDeposit)
	assert.Equal(t, float64(0), store.balance.Amount)
	assert.Equal(t, float64(0), store.balance.BonusAmount)
	assert.Equal(t, float64(50000), store.goals[20].CurrentAmount)
}

func TestDepositForeignGoalRejected(t *testing.T) {
	store := newFakeStore()
	store.goals[30] = &domain.Goal{ID: 30, UserID: 2, Type: domain.GoalTypeUmrah}
	svc := newService(store)

	goalID := int64(30)
	_, err := svc.Deposit(context.Background(), 1, 1000, &goalID)
	assert.ErrorIs(t, err, xerrors.ErrGoalNotFound)
	assert.Empty(t, store.transactions)
}

func TestDepositInvalidAmount(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	_, err := svc.Deposit(context.Background(), 1, 0, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)

	_, err = svc.Deposit(context.Background(), 1, -100, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)
}
