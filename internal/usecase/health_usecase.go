package usecase

import (
	"context"
	"time"

	"subsonic-backend/internal/domain"
	"subsonic-backend/pkg/redis"
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	repo             domain.QuoteRepository
	storageKind      string
	emailEnabled     bool
	rateLimitEnabled bool
}

// NewHealthUsecase reports on the optional integrations. repo may be nil.
func NewHealthUsecase(repo domain.QuoteRepository, storageKind string, emailEnabled, rateLimitEnabled bool) HealthUsecase {
	return &healthUsecase{
		repo:             repo,
		storageKind:      storageKind,
		emailEnabled:     emailEnabled,
		rateLimitEnabled: rateLimitEnabled,
	}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{
		"message":    "ok",
		"storage":    "disabled",
		"email":      "disabled",
		"rate_limit": "disabled",
	}

	if u.repo != nil {
		if err := u.repo.Ping(ctx); err != nil {
			status["storage"] = u.storageKind + ":unreachable"
		} else {
			status["storage"] = u.storageKind + ":ok"
		}
	}

	if u.emailEnabled {
		status["email"] = "enabled"
	}

	if u.rateLimitEnabled {
		status["rate_limit"] = "memory"
		if redis.HealthCheck(ctx) == nil {
			status["rate_limit"] = "redis"
		}
	}

	return status
}
