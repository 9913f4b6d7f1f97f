// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvJSON overrides the file configuration with a JSON document.
const EnvJSON = "GO_IAM_ADMIN_CONFIG_JSON"

// keyDelimiter replaces viper's "." so map keys like "iam.users" stay intact.
const keyDelimiter = "::"

// Default returns the configuration used for every key missing in main.toml.
func Default() Config {
	return Config{
		Title: "GoIAM-Admin",
		DB: DB{
			GormEngine: GormEngineMySQL,
			Port:       3306, //nolint:mnd
		},
		Webserver: Webserver{
			Port:         8080, //nolint:mnd
			ShutDownTime: 5,    //nolint:mnd
		},
		Cache: Cache{
			Driver:     "memory",
			MemorySize: 1024, //nolint:mnd
			Table:      "iam_cache",
		},
		LDAP: LDAP{
			UserFilter:        "(&(objectClass=person)(uid=%s))",
			GroupFilter:       "(&(objectClass=groupOfNames)(member=%s))",
			UsernameAttribute: "uid",
			EmailAttribute:    "mail",
			NameAttribute:     "cn",
			PhoneAttribute:    "telephoneNumber",
			GroupAttribute:    "cn",
		},
		IAM: DefaultIAM(),
		Seed: Seed{
			Enabled:        true,
			AdminUsername:  "admin",
			AdminEmail:     "admin@example.com",
			RootDepartment: "HEAD",
		},
	}
}

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             = Default()
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config from env "+EnvJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings and fill in derived defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// validate access-control-allow-origin
	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	c.DB.GormEngine = strings.ToLower(c.DB.GormEngine)

	switch c.DB.GormEngine {
	case GormEngineMySQL, GormEnginePostgres, GormEngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	c.Cache.Driver = strings.ToLower(c.Cache.Driver)

	switch c.Cache.Driver {
	case "redis", "database", "memory", "none":
	case "":
		c.Cache.Driver = "memory"
	default:
		return errors.Wrap(ErrUnknownCacheDriver, invalidErrMessage)
	}

	if c.IAM.Guard == "" {
		return errors.Wrap(ErrEmptyGuard, invalidErrMessage)
	}

	if c.LDAP.Enabled && c.LDAP.URL == "" {
		return errors.Wrap(ErrLDAPURLMissing, invalidErrMessage)
	}

	return nil
}
