// Package models contains the gorm models of the IAM service.
//
// Table names are not hard coded: every table gets the configured prefix
// through the gorm naming strategy built by GormConfig, so a deployment can
// run the IAM tables next to application tables (default prefix "iam_").
package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DefaultTablePrefix is used when the configuration does not define a prefix.
const DefaultTablePrefix = "iam_"

// GormConfig returns the gorm configuration used by the daemon and by tests.
// The table prefix is injected here once, at construction time.
func GormConfig(tablePrefix string, log logger.Interface) *gorm.Config {
	if tablePrefix == "" {
		tablePrefix = DefaultTablePrefix
	}

	cfg := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: tablePrefix,
		},
	}

	if log != nil {
		cfg.Logger = log
	}

	return cfg
}

// All returns every model managed by AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Role{},
		&Permission{},
		&UserRole{},
		&RolePermission{},
		&Department{},
		&Menu{},
		&MenuRole{},
		&MenuPermission{},
		&LoginLog{},
		&Group{},
		&GroupMapping{},
		&UserGroup{},
		&KeyValue{},
	}
}

// AutoMigrate creates or updates all IAM tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

// Table resolves the prefixed table name of a model for hand written joins.
func Table(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return ""
	}

	return stmt.Schema.Table
}
