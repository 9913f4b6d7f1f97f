package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configPath(t *testing.T) string {
	t.Helper()

	// Get the project root by going up from internal/config
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(configPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	assert.Equal(t, GormEngineSQLite, cfg.DB.GormEngine)
	assert.Equal(t, 12*time.Hour, cfg.Webserver.Session.ExpiryTime)
	assert.Equal(t, 200*time.Millisecond, cfg.Log.SQL.SlowThreshold)
	assert.Equal(t, "access.log", cfg.Log.File.AccessLog)
	assert.True(t, cfg.Log.Console.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Cache.Redis.DialTimeout)
	assert.Equal(t, 30*time.Minute, cfg.IAM.MenuCache.TTL)
}

func TestReadConfigKeepsDottedMapKeys(t *testing.T) {
	cfg, err := ReadConfig(configPath(t))
	require.NoError(t, err)

	assert.Equal(t, "iam.用户", cfg.IAM.GroupLabels["iam.users"])
	assert.Equal(t, "mdm.公司", cfg.IAM.GroupLabels["mdm.companies"])
	// defaults not set in the file survive
	assert.Equal(t, "iam.角色", cfg.IAM.GroupLabels["iam.roles"])
	assert.Equal(t, "主数据", cfg.IAM.ModuleLabels["mdm"])
	assert.Equal(t, "manage", cfg.IAM.ActionMap["store"])
	assert.Equal(t, []string{"super-admin", "Admin"}, cfg.IAM.SyncRoles)
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv(EnvJSON, `{"Title":"from env","Cache":{"Driver":"redis","Redis":{"Addr":"redis:6379"}}}`)

	cfg, err := ReadConfig(configPath(t))
	require.NoError(t, err)

	assert.Equal(t, "from env", cfg.Title)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 8080, cfg.Webserver.Port)
}

func TestReadConfigErrors(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing") + string(filepath.Separator))
	require.Error(t, err)

	t.Setenv(EnvJSON, `{"Title":`)

	_, err = ReadConfig(configPath(t))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Webserver.URL = "http://localhost"

		return c
	}

	testCases := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "port zero", modify: func(c *Config) { c.Webserver.Port = 0 }, want: ErrWebServerPortCanNotBeZero},
		{name: "empty url", modify: func(c *Config) { c.Webserver.URL = "" }, want: ErrEmptyURL},
		{name: "unknown engine", modify: func(c *Config) { c.DB.GormEngine = "oracle" }, want: ErrUnknownGormEngine},
		{name: "unknown cache", modify: func(c *Config) { c.Cache.Driver = "memcached" }, want: ErrUnknownCacheDriver},
		{name: "empty guard", modify: func(c *Config) { c.IAM.Guard = "" }, want: ErrEmptyGuard},
		{name: "ldap without url", modify: func(c *Config) { c.LDAP.Enabled = true }, want: ErrLDAPURLMissing},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.modify(&c)

			err := validate(&c)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}

			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	c := Default()
	c.Webserver.URL = "http://localhost"
	c.Webserver.ShutDownTime = 0
	c.Cache.Driver = ""
	c.DB.GormEngine = "Postgres"

	require.NoError(t, validate(&c))

	assert.Equal(t, 5, c.Webserver.ShutDownTime)
	assert.Equal(t, "memory", c.Cache.Driver)
	assert.Equal(t, GormEnginePostgres, c.DB.GormEngine)
}

func TestDumpConfig(t *testing.T) {
	c := Default()

	out, err := DumpConfig(c)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[IAM]"), out)
	assert.Contains(t, out, "super-admin")

	out, err = DumpConfigJSON(c)
	require.NoError(t, err)
	assert.Contains(t, out, `"Guard": "sanctum"`)
}
