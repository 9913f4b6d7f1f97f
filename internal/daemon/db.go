package daemon

import (
	"github.com/glebarez/sqlite"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/dsn"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger/adapter/gormlog"
)

// dialector returns the gorm driver of the configured engine.
func dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case config.GormEnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg))
	case config.GormEngineSQLite:
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// OpenDB connects the database and migrates every model.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg), models.GormConfig(cfg.IAM.TablePrefix, gormlog.New(log.Logger, cfg.Log.SQL)))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect %s database", cfg.DB.GormEngine)
	}

	if err = models.AutoMigrate(db); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to migrate database")
	}

	return db, nil
}
