package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/repository"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

const tokenTTL = 24 * time.Hour

type Claims struct {
	UserID int64  `json:"id"`
	IIN    string `json:"iin"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users    *repository.UserRepository
	balances *repository.BalanceRepository
	secret   []byte
}

func New(users *repository.UserRepository, balances *repository.BalanceRepository, secret string) *Service {
	return &Service{users: users, balances: balances, secret: []byte(secret)}
}

// Register creates an account, or completes a pre-provisioned one (created
// by admin tooling with an empty password) by setting its credentials.
func (s *Service) Register(ctx context.Context, iin, phone, password, name string) (*domain.User, string, error) {
	existing, err := s.users.GetByIINOrPhone(ctx, iin, phone)
	if err != nil && !errors.Is(err, xerrors.ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	if existing != nil {
		if existing.Password != "" {
			return nil, "", xerrors.ErrUserAlreadyExists
		}
		if name == "" {
			name = existing.Name
		}
		if err := s.users.SetCredentials(ctx, existing.ID, phone, string(hash), name); err != nil {
			return nil, "", err
		}
		user, err := s.users.GetByID(ctx, existing.ID)
		if err != nil {
			return nil, "", err
		}
		token, err := s.issueToken(user)
		return user, token, err
	}

	user := &domain.User{
		IIN:      iin,
		Phone:    phone,
		Password: string(hash),
		Name:     name,
		Role:     domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if xerrors.ParsePGErrorCode(err) == "23505" {
			return nil, "", xerrors.ErrUserAlreadyExists
		}
		return nil, "", err
	}
	if err := s.balances.CreateZero(ctx, user.ID); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	return user, token, err
}

func (s *Service) Login(ctx context.Context, iin, password string) (*domain.User, string, error) {
	user, err := s.users.GetByIIN(ctx, iin)
	if err != nil {
		if errors.Is(err, xerrors.ErrUserNotFound) {
			return nil, "", xerrors.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", xerrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	return user, token, err
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		IIN:    user.IIN,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a bearer token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, xerrors.ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, xerrors.ErrUnauthorized
	}
	return claims, nil
}
