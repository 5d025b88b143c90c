// Package verification issues and checks SMS confirmation codes. Codes live
// in redis with a TTL, replacing the in-memory map the service grew up with,
// so restarts and multiple instances behave correctly.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/cache"
	"github.com/PerfZero/smsatlra/internal/smsgw"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

const (
	namespace = "verification"
	rateNS    = "verification_rate"

	codeTTL      = 10 * time.Minute
	rateWindow   = time.Hour
	maxPerWindow = 5
)

type Service struct {
	cache  *cache.Cache
	sms    *smsgw.Client
	logger *zap.Logger
}

func New(c *cache.Cache, sms *smsgw.Client, logger *zap.Logger) *Service {
	return &Service{cache: c, sms: sms, logger: logger}
}

// SendCode generates a 4-digit code, stores it for ten minutes and delivers
// it by SMS. The code itself is never returned to the HTTP caller.
func (s *Service) SendCode(ctx context.Context, phone string) error {
	key := smsgw.NormalizePhone(phone)

	sent, err := s.cache.IncrWithExpire(ctx, rateNS, key, rateWindow)
	if err == nil && sent > maxPerWindow {
		return xerrors.ErrForbidden
	}

	code := fmt.Sprintf("%04d", 1000+rand.Intn(9000))
	if err := s.cache.Set(ctx, namespace, key, code, codeTTL); err != nil {
		return err
	}

	message := fmt.Sprintf("%s - код подтверждения Atlas Save", code)
	if err := s.sms.Send(ctx, phone, message); err != nil {
		return err
	}

	s.logger.Info("verification code sent", zap.String("phone", key))
	return nil
}

// VerifyCode checks and consumes a code. Expired codes are gone from the
// store, so they surface as not-found.
func (s *Service) VerifyCode(ctx context.Context, phone, code string) error {
	key := smsgw.NormalizePhone(phone)

	stored, err := s.cache.Get(ctx, namespace, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return xerrors.ErrCodeNotFound
		}
		return err
	}
	if stored != code {
		return xerrors.ErrCodeMismatch
	}

	return s.cache.Delete(ctx, namespace, key)
}
