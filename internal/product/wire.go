package product

import (
	"database/sql"

	"go.uber.org/zap"

	"popkiosk/internal/product/repository"
)

type Module struct {
	Controller *Controller
	Repository *repository.MySQLProductRepository
}

func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	repo := repository.NewMySQLProductRepository(db)

	return &Module{
		Controller: NewController(repo, logger),
		Repository: repo,
	}
}
