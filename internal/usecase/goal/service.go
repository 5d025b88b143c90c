package goal

import (
	"context"
	"errors"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/repository"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type Service struct {
	goals        *repository.GoalRepository
	relatives    *repository.RelativeRepository
	transactions *repository.TransactionRepository
}

func New(goals *repository.GoalRepository, relatives *repository.RelativeRepository, transactions *repository.TransactionRepository) *Service {
	return &Service{goals: goals, relatives: relatives, transactions: transactions}
}

type CreateGoalInput struct {
	Type          string  `json:"type"`
	PackageType   string  `json:"package_type"`
	TargetAmount  float64 `json:"target_amount"`
	MonthlyTarget float64 `json:"monthly_target"`
}

// CreateSelfGoal creates the user's personal goal. The schema allows one
// personal goal per user; a second attempt fails on the partial unique
// index.
func (s *Service) CreateSelfGoal(ctx context.Context, userID int64, in CreateGoalInput) (*domain.Goal, error) {
	g := &domain.Goal{
		UserID:        userID,
		Type:          in.Type,
		PackageType:   in.PackageType,
		TargetAmount:  in.TargetAmount,
		MonthlyTarget: in.MonthlyTarget,
	}
	if err := s.goals.Create(ctx, g); err != nil {
		if xerrors.ParsePGErrorCode(err) == "23505" {
			return nil, xerrors.ErrDuplicateIIN
		}
		return nil, err
	}
	return g, nil
}

type CreateFamilyGoalInput struct {
	FullName string `json:"full_name"`
	IIN      string `json:"iin"`
	CreateGoalInput
}

// CreateFamilyGoal creates a goal for a relative, provisioning the relative
// record first when the IIN is new. Both writes share one db transaction.
func (s *Service) CreateFamilyGoal(ctx context.Context, userID int64, in CreateFamilyGoalInput) (*domain.Goal, error) {
	relative, err := s.relatives.GetByIIN(ctx, in.IIN)
	if err != nil && !errors.Is(err, xerrors.ErrRelativeNotFound) {
		return nil, err
	}

	tx, err := s.transactions.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if relative == nil {
		relative = &domain.Relative{
			UserID:   userID,
			FullName: in.FullName,
			IIN:      in.IIN,
		}
		if err := s.relatives.CreateTx(ctx, tx, relative); err != nil {
			if xerrors.ParsePGErrorCode(err) == "23505" {
				return nil, xerrors.ErrDuplicateIIN
			}
			return nil, err
		}
	}

	g := &domain.Goal{
		UserID:        userID,
		RelativeID:    &relative.ID,
		Type:          in.Type,
		PackageType:   in.PackageType,
		TargetAmount:  in.TargetAmount,
		MonthlyTarget: in.MonthlyTarget,
	}
	if err := s.goals.CreateTx(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	g.Relative = relative
	return g, nil
}

func (s *Service) ListGoals(ctx context.Context, userID int64) ([]*domain.Goal, error) {
	return s.goals.ListByUser(ctx, userID)
}

func (s *Service) GetGoalForUser(ctx context.Context, goalID, userID int64) (*domain.Goal, error) {
	return s.goals.GetByIDForUser(ctx, goalID, userID)
}
