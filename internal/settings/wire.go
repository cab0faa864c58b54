package settings

import (
	"database/sql"

	"go.uber.org/zap"

	"popkiosk/internal/settings/repository"
)

type Module struct {
	Controller *Controller
	Markup     *MarkupSource
}

func NewModule(db *sql.DB, defaultMarkupPercent float64, logger *zap.Logger) *Module {
	repo := repository.NewMySQLSettingsRepository(db)

	return &Module{
		Controller: NewController(repo, logger),
		Markup:     NewMarkupSource(repo, defaultMarkupPercent, logger),
	}
}
