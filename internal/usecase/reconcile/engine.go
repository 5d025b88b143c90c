// Package reconcile turns bank-notification emails into balance, goal and
// ledger mutations. One engine run lists the newest allowlisted messages,
// extracts payment data from each unseen one and applies the whole mutation
// sequence for a message inside a single db transaction.
//
// Failure semantics are at-least-once: a message whose mutation rolls back
// is retried on the next run, and the two dedup keys (source message id,
// transaction number) make the retry idempotent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/extractor"
	"github.com/PerfZero/smsatlra/internal/mailbox"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

// junkPaymentID is a placeholder some notification templates carry instead
// of a real payment id; it must never be used as a dedup key.
const junkPaymentID = "99999999999999999"

type Config struct {
	// Senders is the allowlist of notification origins.
	Senders []string
	// MaxMessages caps the work done by one run.
	MaxMessages int64
	// FirstDepositBonus is credited once per user on their first completed
	// self deposit.
	FirstDepositBonus float64
}

type Engine struct {
	mailbox      mailbox.Client
	users        UserStore
	relatives    RelativeStore
	goals        GoalStore
	balances     BalanceStore
	transactions TransactionStore
	notifier     Notifier
	sms          SMSSender
	cfg          Config
	logger       *zap.Logger
}

func NewEngine(
	mb mailbox.Client,
	users UserStore,
	relatives RelativeStore,
	goals GoalStore,
	balances BalanceStore,
	transactions TransactionStore,
	notifier Notifier,
	sms SMSSender,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		mailbox:      mb,
		users:        users,
		relatives:    relatives,
		goals:        goals,
		balances:     balances,
		transactions: transactions,
		notifier:     notifier,
		sms:          sms,
		cfg:          cfg,
		logger:       logger,
	}
}

type RunResult struct {
	Listed    int `json:"listed"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// Reconcile performs one pass over the mailbox. A mailbox failure aborts the
// whole run; per-message problems only skip that message. Running twice over
// an unchanged mailbox leaves the database unchanged the second time.
func (e *Engine) Reconcile(ctx context.Context) (*RunResult, error) {
	ids, err := e.mailbox.List(ctx, e.senderQuery(), e.cfg.MaxMessages)
	if err != nil {
		e.logger.Error("mailbox listing failed, aborting run", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerrors.ErrMailboxUnavailable, err)
	}

	result := &RunResult{Listed: len(ids)}
	for _, id := range ids {
		processed, err := e.processMessage(ctx, id)
		if err != nil {
			// Rolled back; the next run retries this message.
			e.logger.Error("message processing failed",
				zap.String("message_id", id), zap.Error(err))
			result.Skipped++
			continue
		}
		if processed {
			result.Processed++
		} else {
			result.Skipped++
		}
	}

	e.logger.Info("reconciliation run finished",
		zap.Int("listed", result.Listed),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (e *Engine) senderQuery() string {
	parts := make([]string, 0, len(e.cfg.Senders))
	for _, s := range e.cfg.Senders {
		parts = append(parts, "from:"+s)
	}
	return strings.Join(parts, " OR ")
}

// processMessage handles one mailbox message end to end. The dedup checks
// run before any mutation; the mutation sequence itself is atomic.
func (e *Engine) processMessage(ctx context.Context, messageID string) (bool, error) {
	seen, err := e.transactions.ExistsBySourceMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	if seen {
		e.logger.Debug("message already reconciled", zap.String("message_id", messageID))
		return false, nil
	}

	msg, err := e.mailbox.Get(ctx, messageID)
	if err != nil {
		return false, err
	}
	if !e.senderAllowed(msg.From) {
		return false, nil
	}
	if msg.Body == "" {
		return false, nil
	}

	notice, err := extractor.Extract(msg.Body)
	if err != nil {
		if errors.Is(err, extractor.ErrNoIIN) {
			e.logger.Info("no payment data in message", zap.String("message_id", messageID))
			return false, nil
		}
		return false, err
	}
	if !notice.HasAmount {
		e.logger.Info("payment amount missing, message left for manual review",
			zap.String("message_id", messageID),
			zap.String("recipient_iin", notice.RecipientIIN))
		return false, nil
	}

	// A synthesized or placeholder payment id is replaced with a number
	// derived from the message id, so retries of the same message stay
	// deduplicable.
	number := notice.PaymentID
	if notice.PaymentIDSynthesized || number == junkPaymentID {
		number = "MANUAL-" + messageID
	}

	duplicate, err := e.transactions.ExistsByNumber(ctx, number)
	if err != nil {
		return false, err
	}
	if duplicate {
		e.logger.Debug("payment already recorded",
			zap.String("message_id", messageID),
			zap.String("transaction_number", number))
		return false, nil
	}

	user, err := e.users.GetByIIN(ctx, notice.RecipientIIN)
	if err != nil {
		if errors.Is(err, xerrors.ErrUserNotFound) {
			// Payment emails never auto-provision accounts.
			e.logger.Warn("recipient unknown, payment not credited",
				zap.String("message_id", messageID),
				zap.String("recipient_iin", notice.RecipientIIN))
			return false, nil
		}
		return false, err
	}

	selfPayment := notice.PayerIIN == notice.RecipientIIN

	var relative *domain.Relative
	if !selfPayment {
		relative, err = e.relatives.GetByIINForUser(ctx, notice.PayerIIN, user.ID)
		if err != nil && !errors.Is(err, xerrors.ErrRelativeNotFound) {
			return false, err
		}
	}

	var targetGoal *domain.Goal
	switch {
	case selfPayment:
		targetGoal, err = e.goals.GetPersonalGoal(ctx, user.ID)
		if err != nil && !errors.Is(err, xerrors.ErrGoalNotFound) {
			return false, err
		}
	case relative != nil:
		targetGoal, err = e.goals.FirstForRelative(ctx, relative.ID)
		if err != nil && !errors.Is(err, xerrors.ErrGoalNotFound) {
			return false, err
		}
	}

	// Unknown third-party payers cannot credit an account.
	if !selfPayment && (relative == nil || targetGoal == nil) {
		e.logger.Warn("third-party payer has no goal for this user, payment not credited",
			zap.String("message_id", messageID),
			zap.String("payer_iin", notice.PayerIIN),
			zap.String("recipient_iin", notice.RecipientIIN))
		return false, nil
	}

	amount := notice.Amount.InexactFloat64()

	awardBonus := false
	if selfPayment {
		priorDeposits, err := e.transactions.CountCompletedDeposits(ctx, user.ID)
		if err != nil {
			return false, err
		}
		awardBonus = priorDeposits == 0
	}

	txn := &domain.Transaction{
		UserID:            user.ID,
		TransactionNumber: number,
		SourceMessageID:   &msg.ID,
		Amount:            amount,
		Type:              domain.TxTypeDeposit,
		Status:            domain.TxStatusCompleted, // already confirmed by the bank
		Description:       e.describe(notice, user, relative),
		CreatedAt:         notice.Date,
	}
	if targetGoal != nil {
		txn.GoalID = &targetGoal.ID
	}
	if relative != nil {
		txn.RelativeID = &relative.ID
	}

	tx, err := e.transactions.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if err := e.transactions.CreateTx(ctx, tx, txn); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateTransfer) {
			// Lost a race with a concurrent writer; the payment is recorded.
			e.logger.Debug("duplicate transaction insert suppressed",
				zap.String("transaction_number", number))
			return false, nil
		}
		return false, err
	}

	if targetGoal != nil {
		if err := e.goals.IncrementCurrent(ctx, tx, targetGoal.ID, amount); err != nil {
			return false, err
		}
	}

	if selfPayment {
		if err := e.balances.CreditTx(ctx, tx, user.ID, amount); err != nil {
			return false, err
		}
		if awardBonus {
			if err := e.balances.AwardBonusTx(ctx, tx, user.ID, e.cfg.FirstDepositBonus); err != nil {
				return false, err
			}
		}
	}

	if notice.Name != extractor.NameNotSpecified && notice.Name != user.Name {
		if err := e.users.UpdateContact(ctx, tx, user.ID, notice.Name, notice.Phone); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	e.logger.Info("payment reconciled",
		zap.String("message_id", messageID),
		zap.String("transaction_number", number),
		zap.Int64("user_id", user.ID),
		zap.Float64("amount", amount),
		zap.Bool("self_payment", selfPayment),
		zap.Bool("bonus_awarded", awardBonus))

	e.dispatchNotifications(ctx, user, relative, txn, notice)
	return true, nil
}

func (e *Engine) senderAllowed(from string) bool {
	for _, s := range e.cfg.Senders {
		if strings.Contains(from, s) {
			return true
		}
	}
	return false
}

func (e *Engine) describe(n *extractor.Notice, user *domain.User, relative *domain.Relative) string {
	if n.PayerIIN == n.RecipientIIN {
		return fmt.Sprintf("Самостоятельное пополнение (%s)", n.PayerIIN)
	}
	name := user.Name
	if name == "" {
		name = "пользователя"
	}
	if relative != nil {
		return fmt.Sprintf("Пополнение от родственника: %s (%s) для %s (%s)",
			relative.FullName, n.PayerIIN, name, n.RecipientIIN)
	}
	return fmt.Sprintf("Пополнение от: %s для %s (%s)", n.PayerIIN, name, n.RecipientIIN)
}

// dispatchNotifications delivers the websocket push and the SMS receipt.
// Both are best-effort; a failure here never unwinds the reconciliation.
func (e *Engine) dispatchNotifications(ctx context.Context, user *domain.User, relative *domain.Relative, txn *domain.Transaction, notice *extractor.Notice) {
	e.notifier.PublishTransaction(user.ID, txn, user, relative)

	phone := notice.Phone
	if phone == "" {
		phone = user.Phone
	}
	if phone == "" {
		return
	}

	text := fmt.Sprintf("Ваш счет успешно пополнен на %.2f тг. Спасибо что выбрали Atlas Save!", txn.Amount)
	if err := e.sms.Send(ctx, phone, text); err != nil {
		e.logger.Warn("confirmation sms failed",
			zap.Int64("user_id", user.ID), zap.Error(err))
	}
}
