package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/mailbox"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

// fakeTx satisfies pgx.Tx for the unit of work; only Commit and Rollback are
// ever called by the engine itself.
type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeMailbox struct {
	messages map[string]*mailbox.Message
	order    []string
	listErr  error
}

func (m *fakeMailbox) List(ctx context.Context, query string, max int64) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := m.order
	if int64(len(ids)) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (m *fakeMailbox) Get(ctx context.Context, id string) (*mailbox.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

// store is one in-memory backing for all engine store interfaces.
type store struct {
	users     map[string]*domain.User     // by IIN
	relatives map[string]*domain.Relative // by IIN
	goals     map[int64]*domain.Goal

	transactions   []*domain.Transaction
	balanceAmount  map[int64]float64
	bonusAmount    map[int64]float64
	contactUpdates int
	currentTx      *fakeTx
}

func newStore() *store {
	return &store{
		users:         make(map[string]*domain.User),
		relatives:     make(map[string]*domain.Relative),
		goals:         make(map[int64]*domain.Goal),
		balanceAmount: make(map[int64]float64),
		bonusAmount:   make(map[int64]float64),
	}
}

func (s *store) GetByIIN(ctx context.Context, iin string) (*domain.User, error) {
	if u, ok := s.users[iin]; ok {
		return u, nil
	}
	return nil, xerrors.ErrUserNotFound
}

func (s *store) UpdateContact(ctx context.Context, tx pgx.Tx, id int64, name, phone string) error {
	s.contactUpdates++
	return nil
}

func (s *store) GetByIINForUser(ctx context.Context, iin string, userID int64) (*domain.Relative, error) {
	if r, ok := s.relatives[iin]; ok && r.UserID == userID {
		return r, nil
	}
	return nil, xerrors.ErrRelativeNotFound
}

func (s *store) GetPersonalGoal(ctx context.Context, userID int64) (*domain.Goal, error) {
	for _, g := range s.goals {
		if g.UserID == userID && g.RelativeID == nil {
			return g, nil
		}
	}
	return nil, xerrors.ErrGoalNotFound
}

func (s *store) FirstForRelative(ctx context.Context, relativeID int64) (*domain.Goal, error) {
	for _, g := range s.goals {
		if g.RelativeID != nil && *g.RelativeID == relativeID {
			return g, nil
		}
	}
	return nil, xerrors.ErrGoalNotFound
}

func (s *store) IncrementCurrent(ctx context.Context, tx pgx.Tx, goalID int64, amount float64) error {
	s.goals[goalID].CurrentAmount += amount
	return nil
}

func (s *store) CreditTx(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error {
	s.balanceAmount[userID] += amount
	return nil
}

func (s *store) AwardBonusTx(ctx context.Context, tx pgx.Tx, userID int64, bonus float64) error {
	s.balanceAmount[userID] += bonus
	s.bonusAmount[userID] += bonus
	return nil
}

func (s *store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	s.currentTx = &fakeTx{}
	return s.currentTx, nil
}

func (s *store) CreateTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	for _, existing := range s.transactions {
		if existing.TransactionNumber == t.TransactionNumber {
			return xerrors.ErrDuplicateTransfer
		}
		if t.SourceMessageID != nil && existing.SourceMessageID != nil &&
			*existing.SourceMessageID == *t.SourceMessageID {
			return xerrors.ErrDuplicateTransfer
		}
	}
	t.ID = fmt.Sprintf("tx-%d", len(s.transactions)+1)
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *store) ExistsBySourceMessage(ctx context.Context, messageID string) (bool, error) {
	for _, t := range s.transactions {
		if t.SourceMessageID != nil && *t.SourceMessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *store) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	for _, t := range s.transactions {
		if t.TransactionNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *store) CountCompletedDeposits(ctx context.Context, userID int64) (int, error) {
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.Type == domain.TxTypeDeposit && t.Status == domain.TxStatusCompleted {
			n++
		}
	}
	return n, nil
}

type fakeNotifier struct {
	published []int64
}

func (n *fakeNotifier) PublishTransaction(userID int64, tx *domain.Transaction, user *domain.User, relative *domain.Relative) {
	n.published = append(n.published, userID)
}

type fakeSMS struct {
	sent []string
}

func (s *fakeSMS) Send(ctx context.Context, phone, message string) error {
	s.sent = append(s.sent, phone+": "+message)
	return nil
}

const sender = "kaspi.payments@kaspibank.kz"

func selfPaymentBody(iin string, amount float64, paymentID string) string {
	return fmt.Sprintf(
		"ЖСН|ИИН|ИИН = %s\nИИН отдыхающего: %s\nПлатеж на сумму: %.2f\nДата: 15.01.2024 10:30:45\nИдентификатор платежа: %s",
		iin, iin, amount, paymentID)
}

func thirdPartyBody(payerIIN, recipientIIN string, amount float64, paymentID string) string {
	return fmt.Sprintf(
		"ЖСН|ИИН|ИИН = %s\nИИН отдыхающего: %s\nПлатеж на сумму: %.2f\nДата: 15.01.2024 10:30:45\nИдентификатор платежа: %s",
		payerIIN, recipientIIN, amount, paymentID)
}

type fixture struct {
	engine   *Engine
	store    *store
	mailbox  *fakeMailbox
	notifier *fakeNotifier
	sms      *fakeSMS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newStore()
	mb := &fakeMailbox{messages: make(map[string]*mailbox.Message)}
	nt := &fakeNotifier{}
	sms := &fakeSMS{}

	engine := NewEngine(mb, st, st, st, st, st, nt, sms, Config{
		Senders:           []string{sender},
		MaxMessages:       10,
		FirstDepositBonus: 10000,
	}, zap.NewNop())

	return &fixture{engine: engine, store: st, mailbox: mb, notifier: nt, sms: sms}
}

func (f *fixture) addMessage(id, from, body string) {
	f.mailbox.messages[id] = &mailbox.Message{ID: id, From: from, Body: body}
	f.mailbox.order = append(f.mailbox.order, id)
}

func (f *fixture) addUser(id int64, iin, name, phone string) *domain.User {
	u := &domain.User{ID: id, IIN: iin, Name: name, Phone: phone, Role: domain.RoleUser}
	f.store.users[iin] = u
	return u
}

func (f *fixture) addPersonalGoal(id, userID int64, target, current float64) *domain.Goal {
	g := &domain.Goal{ID: id, UserID: userID, Type: domain.GoalTypeUmrah, TargetAmount: target, CurrentAmount: current}
	f.store.goals[id] = g
	return g
}

func TestReconcileFirstSelfDeposit(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "+77071234567")
	f.addPersonalGoal(10, 1, 700_000, 100_000)
	f.addMessage("msg-1", sender, selfPaymentBody("850101300123", 26000, "4521786390"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Listed)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Skipped)

	// Amount plus the one-time bonus, both on the spendable balance.
	assert.Equal(t, float64(36000), f.store.balanceAmount[1])
	assert.Equal(t, float64(10000), f.store.bonusAmount[1])
	assert.Equal(t, float64(126000), f.store.goals[10].CurrentAmount)

	require.Len(t, f.store.transactions, 1)
	txn := f.store.transactions[0]
	assert.Equal(t, "4521786390", txn.TransactionNumber)
	assert.Equal(t, domain.TxStatusCompleted, txn.Status)
	require.NotNil(t, txn.SourceMessageID)
	assert.Equal(t, "msg-1", *txn.SourceMessageID)
	// The ledger row carries the email's payment date, not processing time.
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 0, time.Local), txn.CreatedAt)
	assert.True(t, f.store.currentTx.committed)

	assert.Equal(t, []int64{1}, f.notifier.published)
	require.Len(t, f.sms.sent, 1)
	assert.Contains(t, f.sms.sent[0], "26000.00")
}

func TestReconcileBonusOnlyOnce(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "")
	f.addMessage("msg-1", sender, selfPaymentBody("850101300123", 26000, "1001"))
	f.addMessage("msg-2", sender, selfPaymentBody("850101300123", 5000, "1002"))

	_, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	// 26000 + 10000 bonus + 5000; the second deposit earns nothing extra.
	assert.Equal(t, float64(41000), f.store.balanceAmount[1])
	assert.Equal(t, float64(10000), f.store.bonusAmount[1])
}

func TestReconcileIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "")
	f.addMessage("msg-1", sender, selfPaymentBody("850101300123", 26000, "1001"))

	_, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	second, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, f.store.transactions, 1)
	assert.Equal(t, float64(36000), f.store.balanceAmount[1])
}

func TestReconcileDuplicatePaymentID(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "")
	// Same bank payment delivered as two distinct mailbox messages.
	f.addMessage("msg-1", sender, selfPaymentBody("850101300123", 26000, "1001"))
	f.addMessage("msg-2", sender, selfPaymentBody("850101300123", 26000, "1001"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, f.store.transactions, 1)
	assert.Equal(t, float64(36000), f.store.balanceAmount[1])
}

func TestReconcileThirdPartyPayment(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(1, "990202400456", "Получатель", "")
	relID := int64(5)
	f.store.relatives["850101300123"] = &domain.Relative{
		ID: relID, UserID: user.ID, FullName: "Родственник", IIN: "850101300123",
	}
	f.store.goals[20] = &domain.Goal{ID: 20, UserID: user.ID, RelativeID: &relID, Type: domain.GoalTypeHajj, TargetAmount: 2_000_000}
	f.addMessage("msg-1", sender, thirdPartyBody("850101300123", "990202400456", 50000, "2001"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	// Third-party money funds the relative's goal, never the spendable
	// balance, and never earns the first-deposit bonus.
	assert.Equal(t, float64(0), f.store.balanceAmount[1])
	assert.Equal(t, float64(0), f.store.bonusAmount[1])
	assert.Equal(t, float64(50000), f.store.goals[20].CurrentAmount)

	require.Len(t, f.store.transactions, 1)
	assert.Equal(t, &relID, f.store.transactions[0].RelativeID)
}

func TestReconcileUnknownRecipientSkipped(t *testing.T) {
	f := newFixture(t)
	f.addMessage("msg-1", sender, selfPaymentBody("111111111111", 26000, "1001"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, f.store.transactions)
}

func TestReconcileUnknownThirdPartySkipped(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "990202400456", "Получатель", "")
	// Payer is not a registered relative: nothing to credit.
	f.addMessage("msg-1", sender, thirdPartyBody("850101300123", "990202400456", 50000, "2001"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, f.store.transactions)
	assert.Equal(t, float64(0), f.store.balanceAmount[1])
}

func TestReconcileDisallowedSenderSkipped(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "")
	f.addMessage("msg-1", "spam@example.com", selfPaymentBody("850101300123", 26000, "1001"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, f.store.transactions)
}

func TestReconcileMissingAmountSkipped(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "")
	f.addMessage("msg-1", sender, "ЖСН|ИИН|ИИН = 850101300123\nИдентификатор платежа: 1001")

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, f.store.transactions)
}

func TestReconcileJunkPaymentID(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "Ахметов Серик", "")
	f.addMessage("msg-1", sender, selfPaymentBody("850101300123", 26000, "99999999999999999"))

	result, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)

	// The placeholder id is replaced with a stable number derived from the
	// message id so a redelivery still dedupes.
	assert.Equal(t, "MANUAL-msg-1", f.store.transactions[0].TransactionNumber)

	second, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Len(t, f.store.transactions, 1)
}

func TestReconcileMailboxDown(t *testing.T) {
	f := newFixture(t)
	f.mailbox.listErr = errors.New("token expired")

	_, err := f.engine.Reconcile(context.Background())
	assert.ErrorIs(t, err, xerrors.ErrMailboxUnavailable)
}

func TestReconcileContactBackfill(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, "850101300123", "", "")
	body := selfPaymentBody("850101300123", 26000, "1001") + "\nФИО отдыхающего: Ахметов Серик"
	f.addMessage("msg-1", sender, body)

	_, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.contactUpdates)
}
