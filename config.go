package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"

	"storefront/internal/auth"
)

// Store backends.
const (
	backendMemory  = "memory"
	backendFile    = "file"
	backendLevelDB = "leveldb"
	backendMySQL   = "mysql"
)

// Order id schemes.
const (
	orderIDsTimestamp = "timestamp"
	orderIDsUUID      = "uuid"
)

type config struct {
	Listen           string `toml:"listen" default:":8000"`
	StoreBackend     string `toml:"store" default:"memory"`
	DataDir          string `toml:"datadir" default:"./data"`
	MySQLDSN         string `toml:"mysql_dsn"`
	TiDBCA           string `toml:"tidb_ca" default:"/etc/ssl/certs/ca-certificates.crt"`
	CloudinaryURL    string `toml:"cloudinary_url"`
	CloudinaryFolder string `toml:"cloudinary_folder" default:"storefront"`
	DevMode          bool   `toml:"dev_mode"`
	LogFile          string `toml:"logfile"`
	DebugLevel       string `toml:"debuglevel" default:"info"`
	StaticDir        string `toml:"static_dir"`
	OrderIDs         string `toml:"order_ids" default:"timestamp"`
	SeedFile         string `toml:"seed_file"`
	Metrics          bool   `toml:"metrics"`

	LoginDelay    string `toml:"login_delay" default:"500ms"`
	RegisterDelay string `toml:"register_delay" default:"500ms"`
	LogoutDelay   string `toml:"logout_delay" default:"300ms"`
	UsersDelay    string `toml:"users_delay" default:"300ms"`
	CheckoutDelay string `toml:"checkout_delay" default:"2s"`
}

// authDelays parses the simulated auth latencies.
func (c *config) authDelays() (auth.Delays, error) {
	var d auth.Delays
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"login_delay", c.LoginDelay, &d.Login},
		{"register_delay", c.RegisterDelay, &d.Register},
		{"logout_delay", c.LogoutDelay, &d.Logout},
		{"users_delay", c.UsersDelay, &d.Users},
	} {
		v, err := time.ParseDuration(f.raw)
		if err != nil {
			return d, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return d, nil
}

func (c *config) checkoutDelay() (time.Duration, error) {
	d, err := time.ParseDuration(c.CheckoutDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid checkout_delay: %w", err)
	}
	return d, nil
}

func parseBool(v string) bool {
	return v == "1" || strings.ToLower(v) == "true"
}

// applyEnv overrides settings from the environment. lookup returns "" for
// unset variables.
func (c *config) applyEnv(lookup func(string) string) {
	str := func(name string, dst *string) {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}
	str("LISTEN", &c.Listen)
	if port := lookup("PORT"); port != "" {
		c.Listen = ":" + port
	}
	str("STORE_BACKEND", &c.StoreBackend)
	str("DATA_DIR", &c.DataDir)
	str("MYSQL_DSN", &c.MySQLDSN)
	str("TIDB_CA", &c.TiDBCA)
	str("CLOUDINARY_URL", &c.CloudinaryURL)
	str("LOG_FILE", &c.LogFile)
	str("DEBUG_LEVEL", &c.DebugLevel)
	str("STATIC_DIR", &c.StaticDir)
	str("ORDER_IDS", &c.OrderIDs)
	str("SEED_FILE", &c.SeedFile)
	if v := lookup("DEV_MODE"); v != "" {
		c.DevMode = parseBool(v)
	}
	if v := lookup("METRICS"); v != "" {
		c.Metrics = parseBool(v)
	}
}

func (c *config) validate() error {
	switch c.StoreBackend {
	case backendMemory, backendFile, backendLevelDB:
	case backendMySQL:
		if c.MySQLDSN == "" {
			return errors.New("MYSQL_DSN must be set for the mysql store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	switch c.OrderIDs {
	case orderIDsTimestamp, orderIDsUUID:
	default:
		return fmt.Errorf("unknown order id scheme %q", c.OrderIDs)
	}
	if _, err := c.authDelays(); err != nil {
		return err
	}
	if _, err := c.checkoutDelay(); err != nil {
		return err
	}
	return nil
}

// loadConfig builds the configuration from defaults, an optional TOML file,
// an optional .env file and the environment, in increasing precedence.
func loadConfig(args []string) (*config, error) {
	fset := flag.NewFlagSet("storefront", flag.ContinueOnError)
	cfgFile := fset.String("cfg", "", "Config file (TOML)")
	envFile := fset.String("env", ".env", "Environment file")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	var cfg config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if *cfgFile != "" {
		if _, err := toml.DecodeFile(*cfgFile, &cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", *cfgFile, err)
		}
	}

	dotenv := map[string]string{}
	if *envFile != "" {
		var err error
		dotenv, err = godotenv.Read(*envFile)
		if errors.Is(err, fs.ErrNotExist) {
			dotenv = map[string]string{}
		} else if err != nil {
			return nil, fmt.Errorf("env file %s: %w", *envFile, err)
		}
	}
	cfg.applyEnv(func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return dotenv[name]
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
