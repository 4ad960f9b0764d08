// Package config assembles the server settings. Later sources override
// earlier ones: built-in defaults, the YAML file, the .env file, MENJAVA_*
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the server.
type Config struct {
	DB           string        `yaml:"db"`
	Addr         string        `yaml:"addr"`
	AdminUser    string        `yaml:"admin_user"`
	Log          string        `yaml:"log"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	LoginRPS     float64       `yaml:"login_rps"`
	LoginBurst   int           `yaml:"login_burst"`
	SuggestLimit int           `yaml:"suggest_limit"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:           "menjava.sqlite3",
		Addr:         ":8080",
		AdminUser:    "Admin",
		TokenTTL:     24 * time.Hour,
		LoginRPS:     0.2,
		LoginBurst:   5,
		SuggestLimit: 5,
	}
}

// Usage is printed for -h.
const Usage = `Usage: menjava [flags]

Flags:
  -c, -config <path>      YAML config file (default: none)
  -e, -env <path>         dotenv file (default: .env, ignored if missing)
  -d, -db <path>          SQLite database path (default: menjava.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -t, -token-ttl <dur>    lifetime of issued tokens (default: 24h)
  -h, -help               show this help and exit

Environment:
  MENJAVA_CONFIG, MENJAVA_DB, MENJAVA_ADDR, MENJAVA_ADMIN_USER, MENJAVA_LOG,
  MENJAVA_TOKEN_TTL, MENJAVA_LOGIN_RPS, MENJAVA_LOGIN_BURST, MENJAVA_SUGGEST_LIMIT
`

// Load resolves the configuration for args (without the program name).
// getenv is usually os.LookupEnv. It returns flag.ErrHelp when -h was given.
func Load(args []string, getenv func(string) (string, bool)) (Config, error) {
	// First pass only finds the file locations.
	var scratch Config
	var configPath, envPath string
	pre := newFlagSet(&scratch, &configPath, &envPath)
	if err := pre.Parse(args); err != nil {
		return Config{}, err
	}
	if pre.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", pre.Arg(0))
	}

	if configPath == "" {
		configPath, _ = getenv("MENJAVA_CONFIG")
	}
	if envPath == "" {
		envPath = ".env"
	}

	cfg := Default()
	if configPath != "" {
		if err := LoadFile(configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := godotenv.Read(envPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", envPath, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := getenv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	// Second pass: flag defaults are the values resolved so far, so only
	// flags actually given change anything.
	final := newFlagSet(&cfg, &configPath, &envPath)
	if err := final.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// LoadFile merges the YAML file at path into cfg. Keys absent from the file
// keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from MENJAVA_* variables found through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("MENJAVA_DB", &cfg.DB)
	str("MENJAVA_ADDR", &cfg.Addr)
	str("MENJAVA_ADMIN_USER", &cfg.AdminUser)
	str("MENJAVA_LOG", &cfg.Log)

	if v, ok := lookup("MENJAVA_TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MENJAVA_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v, ok := lookup("MENJAVA_LOGIN_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MENJAVA_LOGIN_RPS: %w", err)
		}
		cfg.LoginRPS = f
	}
	for key, dst := range map[string]*int{
		"MENJAVA_LOGIN_BURST":   &cfg.LoginBurst,
		"MENJAVA_SUGGEST_LIMIT": &cfg.SuggestLimit,
	} {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.DB == "":
		return errors.New("database path is empty")
	case c.Addr == "":
		return errors.New("listen address is empty")
	case c.AdminUser == "":
		return errors.New("admin username is empty")
	case c.TokenTTL <= 0:
		return fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL)
	case c.SuggestLimit <= 0:
		return fmt.Errorf("suggestion limit must be positive, got %d", c.SuggestLimit)
	}
	return nil
}

func newFlagSet(cfg *Config, configPath, envPath *string) *flag.FlagSet {
	set := flag.NewFlagSet("menjava", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	set.Usage = func() { fmt.Fprint(os.Stdout, Usage) }

	pair := func(long, short string, dst *string) {
		set.StringVar(dst, long, *dst, "")
		set.StringVar(dst, short, *dst, "")
	}
	pair("config", "c", configPath)
	pair("env", "e", envPath)
	pair("db", "d", &cfg.DB)
	pair("addr", "a", &cfg.Addr)
	pair("user", "u", &cfg.AdminUser)
	pair("log", "l", &cfg.Log)
	set.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "")
	set.DurationVar(&cfg.TokenTTL, "t", cfg.TokenTTL, "")
	return set
}
