// Package config assembles the runtime configuration from defaults, an
// optional YAML file, the environment (including a .env file) and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile = "file"
	StoreSQL  = "sql"
)

// Media backends.
const (
	MediaDisk = "disk"
	MediaS3   = "s3"
)

// Config is the application configuration.
type Config struct {
	Addr              string `yaml:"addr"`
	LogFile           string `yaml:"log_file"`
	SessionSecret     string `yaml:"session_secret"`
	SessionSecretFile string `yaml:"session_secret_file"`
	// SecureCookies marks the session cookie Secure. Enable behind HTTPS.
	SecureCookies bool `yaml:"secure_cookies"`

	Admin AdminConfig `yaml:"admin"`
	Store StoreConfig `yaml:"store"`
	Media MediaConfig `yaml:"media"`
}

// AdminConfig holds the admin account used on first boot.
type AdminConfig struct {
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StoreConfig selects the item store.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	File        string `yaml:"file"`
	DatabaseURL string `yaml:"database_url"`
}

// MediaConfig selects the media host.
type MediaConfig struct {
	Backend string   `yaml:"backend"`
	Folder  string   `yaml:"folder"`
	Dir     string   `yaml:"dir"`
	S3      S3Config `yaml:"s3"`
}

// S3Config configures an S3-compatible media host.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:              ":3000",
		SessionSecretFile: filepath.Join("data", "session_secret"),
		Admin: AdminConfig{
			Username:        "admin",
			CredentialsFile: filepath.Join("data", "admin_credentials.json"),
		},
		Store: StoreConfig{
			Backend:     StoreFile,
			File:        filepath.Join("data", "pecas.json"),
			DatabaseURL: filepath.Join("data", "catalogo.sqlite3"),
		},
		Media: MediaConfig{
			Backend: MediaDisk,
			Folder:  "catalogo-amavi",
			Dir:     filepath.Join("data", "media"),
		},
	}
}

const usage = `Usage: catalogo %s [flags]

Flags:
  -c, -config <path>      YAML configuration file
  -e, -env <path>         dotenv file (default: .env, ignored if missing)
  -a, -addr <host:port>   listen address (default: :3000, or :$PORT)
  -s, -store <backend>    item store: file or sql (default: file)
  -f, -file <path>        JSON item file (default: data/pecas.json)
  -d, -db <dsn>           database: SQLite path or postgres:// URL
  -m, -media <backend>    media host: disk or s3 (default: disk)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -secure             mark the session cookie Secure (HTTPS only)
  -h, -help               show this help and exit
`

// Load parses the flags of the named subcommand and returns the merged
// configuration. It returns flag.ErrHelp when help was requested.
func Load(name string, args []string, out io.Writer) (*Config, error) {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(out)
	fset.Usage = func() { fmt.Fprintf(out, usage, name) }

	var configPath, envPath string
	fset.StringVar(&configPath, "config", "", "")
	fset.StringVar(&configPath, "c", "", "")
	fset.StringVar(&envPath, "env", ".env", "")
	fset.StringVar(&envPath, "e", ".env", "")

	var flags Config
	fset.StringVar(&flags.Addr, "addr", "", "")
	fset.StringVar(&flags.Addr, "a", "", "")
	fset.StringVar(&flags.Store.Backend, "store", "", "")
	fset.StringVar(&flags.Store.Backend, "s", "", "")
	fset.StringVar(&flags.Store.File, "file", "", "")
	fset.StringVar(&flags.Store.File, "f", "", "")
	fset.StringVar(&flags.Store.DatabaseURL, "db", "", "")
	fset.StringVar(&flags.Store.DatabaseURL, "d", "", "")
	fset.StringVar(&flags.Media.Backend, "media", "", "")
	fset.StringVar(&flags.Media.Backend, "m", "", "")
	fset.StringVar(&flags.LogFile, "log", "", "")
	fset.StringVar(&flags.LogFile, "l", "", "")
	var secure *bool
	fset.BoolFunc("secure", "", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		secure = &b
		return nil
	})

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		fset.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	cfg := Default()
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.override(&flags)
	if secure != nil {
		cfg.SecureCookies = *secure
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnv overrides fields whose environment variable is set.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Addr = ":" + port
	}
	set("LOG_FILE", &c.LogFile)
	set("SESSION_SECRET", &c.SessionSecret)
	set("SESSION_SECRET_FILE", &c.SessionSecretFile)

	set("ADMIN_USERNAME", &c.Admin.Username)
	set("ADMIN_PASSWORD", &c.Admin.Password)
	set("CREDENTIALS_FILE", &c.Admin.CredentialsFile)

	set("CATALOG_STORE", &c.Store.Backend)
	set("PECAS_FILE", &c.Store.File)
	set("DATABASE_URL", &c.Store.DatabaseURL)

	set("MEDIA_BACKEND", &c.Media.Backend)
	set("MEDIA_FOLDER", &c.Media.Folder)
	set("MEDIA_DIR", &c.Media.Dir)
	set("S3_BUCKET", &c.Media.S3.Bucket)
	set("S3_REGION", &c.Media.S3.Region)
	set("S3_ENDPOINT", &c.Media.S3.Endpoint)
	set("S3_ACCESS_KEY", &c.Media.S3.AccessKey)
	set("S3_SECRET_KEY", &c.Media.S3.SecretKey)
	set("S3_PUBLIC_URL", &c.Media.S3.PublicURL)

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q: %w", v, err)
		}
		c.SecureCookies = secure
	}
	return nil
}

// override copies the non-empty flag values.
func (c *Config) override(f *Config) {
	for dst, src := range map[*string]string{
		&c.Addr:              f.Addr,
		&c.LogFile:           f.LogFile,
		&c.Store.Backend:     f.Store.Backend,
		&c.Store.File:        f.Store.File,
		&c.Store.DatabaseURL: f.Store.DatabaseURL,
		&c.Media.Backend:     f.Media.Backend,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// Validate reports every inconsistent setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.Admin.CredentialsFile == "" {
		errs = append(errs, errors.New("credentials file is required"))
	}
	if c.SessionSecret == "" && c.SessionSecretFile == "" {
		errs = append(errs, errors.New("session secret or secret file is required"))
	}

	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case StoreFile:
		if c.Store.File == "" {
			errs = append(errs, errors.New("file store needs an item file"))
		}
	case StoreSQL:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("sql store needs a database URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	c.Media.Backend = strings.ToLower(c.Media.Backend)
	switch c.Media.Backend {
	case MediaDisk:
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("disk media needs a directory"))
		}
	case MediaS3:
		if c.Media.S3.Bucket == "" {
			errs = append(errs, errors.New("s3 media needs a bucket"))
		}
		if c.Media.S3.Region == "" && c.Media.S3.Endpoint == "" {
			errs = append(errs, errors.New("s3 media needs a region or an endpoint"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown media backend %q", c.Media.Backend))
	}

	return errors.Join(errs...)
}
