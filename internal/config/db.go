package config

// Gorm engines accepted in DB.GormEngine.
const (
	GormEngineMySQL    = "mysql"
	GormEnginePostgres = "postgres"
	GormEngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, or the file path for sqlite
	GormEngine string
}
