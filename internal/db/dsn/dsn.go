// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(dbCfg *config.Config) string {
	db := dbCfg.DB

	switch db.GormEngine {
	case config.GormEnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)

		if db.Extras != "" {
			out += " " + strings.ReplaceAll(db.Extras, "&", " ")
		}

		return out
	case config.GormEngineSQLite:
		if db.Extras == "" {
			return db.Name
		}

		return db.Name + "?" + db.Extras
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	}
}
