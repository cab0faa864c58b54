package settings

import (
	"context"

	"go.uber.org/zap"

	"popkiosk/internal/domain"
)

type Repository interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// MarkupSource adapts the settings store for the price provider. It never
// fails: when the store is unreachable the configured default applies.
type MarkupSource struct {
	repo           Repository
	defaultPercent float64
	logger         *zap.Logger
}

func NewMarkupSource(repo Repository, defaultPercent float64, logger *zap.Logger) *MarkupSource {
	return &MarkupSource{
		repo:           repo,
		defaultPercent: defaultPercent,
		logger:         logger,
	}
}

func (m *MarkupSource) MarkupPercent(ctx context.Context) float64 {
	s, err := m.repo.Get(ctx)
	if err != nil {
		m.logger.Warn("settings unavailable, using default markup",
			zap.Float64("defaultPercent", m.defaultPercent),
			zap.Error(err))
		return m.defaultPercent
	}
	return s.MarkupPercent
}
