package balance

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type Service struct {
	transactions TransactionStore
	goals        GoalStore
	balances     BalanceStore
	bonus        float64
	logger       *zap.Logger
}

func New(transactions TransactionStore, goals GoalStore, balances BalanceStore, bonus float64, logger *zap.Logger) *Service {
	return &Service{
		transactions: transactions,
		goals:        goals,
		balances:     balances,
		bonus:        bonus,
		logger:       logger,
	}
}

type GoalProgress struct {
	GoalID        int64   `json:"goal_id"`
	CurrentAmount float64 `json:"current_amount"`
	TargetAmount  float64 `json:"target_amount"`
	RelativeName  string  `json:"relative_name,omitempty"`
}

type DepositResult struct {
	Balance        *domain.Balance `json:"balance"`
	IsFirstDeposit bool            `json:"is_first_deposit"`

	Transaction struct {
		ID                string        `json:"id"`
		TransactionNumber string        `json:"transaction_number"`
		Amount            float64       `json:"amount"`
		Bonus             float64       `json:"bonus"`
		Goal              *GoalProgress `json:"goal,omitempty"`
	} `json:"transaction"`
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (*domain.Balance, error) {
	return s.balances.Get(ctx, userID)
}

// Deposit credits amount to the user, routing it to an explicit goal, the
// personal goal, or the bare balance. The PENDING transaction, the balance
// and goal mutations, the one-time bonus and the COMPLETED flip all share a
// single db transaction, so partial application is impossible.
//
// First-deposit eligibility is decided from the completed-deposit history,
// not the cached balance flag, so the bonus can never be awarded twice even
// if the flag drifts.
func (s *Service) Deposit(ctx context.Context, userID int64, amount float64, goalID *int64) (*DepositResult, error) {
	if amount <= 0 {
		return nil, xerrors.ErrInvalidAmount
	}

	priorDeposits, err := s.transactions.CountCompletedDeposits(ctx, userID)
	if err != nil {
		return nil, err
	}
	isFirstDeposit := priorDeposits == 0

	var targetGoal *domain.Goal
	if goalID != nil {
		targetGoal, err = s.goals.GetByIDForUser(ctx, *goalID, userID)
		if err != nil {
			return nil, err // foreign or missing goal surfaces as ErrGoalNotFound
		}
	} else {
		targetGoal, err = s.goals.GetPersonalGoal(ctx, userID)
		if err != nil && !errors.Is(err, xerrors.ErrGoalNotFound) {
			return nil, err
		}
	}

	// Funds land on the spendable balance unless they are earmarked for a
	// relative's goal.
	creditsBalance := targetGoal == nil || targetGoal.RelativeID == nil
	awardBonus := isFirstDeposit && creditsBalance

	number, err := s.transactions.NextTransactionNumber(ctx, "")
	if err != nil {
		return nil, err
	}

	description := "Пополнение баланса"
	if targetGoal != nil {
		description = "Пополнение цели"
	}

	txn := &domain.Transaction{
		UserID:            userID,
		TransactionNumber: number,
		Amount:            amount,
		Type:              domain.TxTypeDeposit,
		Status:            domain.TxStatusPending,
		Description:       description,
	}
	if targetGoal != nil {
		txn.GoalID = &targetGoal.ID
		txn.RelativeID = targetGoal.RelativeID
	}

	tx, err := s.transactions.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
		return nil, err
	}

	if creditsBalance {
		if err := s.balances.CreditTx(ctx, tx, userID, amount); err != nil {
			return nil, err
		}
	}
	if targetGoal != nil {
		if err := s.goals.IncrementCurrent(ctx, tx, targetGoal.ID, amount); err != nil {
			return nil, err
		}
	}

	if awardBonus {
		if err := s.balances.AwardBonusTx(ctx, tx, userID, s.bonus); err != nil {
			return nil, err
		}

		bonusNumber, err := s.transactions.NextTransactionNumber(ctx, "BONUS")
		if err != nil {
			return nil, err
		}
		bonusTxn := &domain.Transaction{
			UserID:            userID,
			TransactionNumber: bonusNumber,
			Amount:            s.bonus,
			Type:              domain.TxTypeDeposit,
			Status:            domain.TxStatusCompleted,
			Description:       "Бонусные баллы за первое пополнение",
		}
		if err := s.transactions.CreateTx(ctx, tx, bonusTxn); err != nil {
			return nil, err
		}
	}

	if err := s.transactions.UpdateStatusTx(ctx, tx, txn.ID, domain.TxStatusCompleted); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if awardBonus {
		s.logger.Info("first deposit bonus awarded",
			zap.Int64("user_id", userID),
			zap.Float64("bonus", s.bonus))
	}

	result := &DepositResult{IsFirstDeposit: awardBonus}
	result.Transaction.ID = txn.ID
	result.Transaction.TransactionNumber = txn.TransactionNumber
	result.Transaction.Amount = amount
	if awardBonus {
		result.Transaction.Bonus = s.bonus
	}

	if balance, err := s.balances.Get(ctx, userID); err == nil {
		result.Balance = balance
	}
	if targetGoal != nil {
		if fresh, err := s.goals.GetByID(ctx, targetGoal.ID); err == nil {
			progress := &GoalProgress{
				GoalID:        fresh.ID,
				CurrentAmount: fresh.CurrentAmount,
				TargetAmount:  fresh.TargetAmount,
			}
			if fresh.Relative != nil {
				progress.RelativeName = fresh.Relative.FullName
			}
			result.Transaction.Goal = progress
		}
	}
	return result, nil
}
