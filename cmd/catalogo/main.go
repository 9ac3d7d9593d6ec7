package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amavi/catalogo/internal/api"
	"github.com/amavi/catalogo/internal/auth"
	"github.com/amavi/catalogo/internal/catalog"
	"github.com/amavi/catalogo/internal/config"
	"github.com/amavi/catalogo/internal/db"
	"github.com/amavi/catalogo/internal/media"
	"github.com/amavi/catalogo/internal/migrate"
	"github.com/amavi/catalogo/internal/store"
	"github.com/amavi/catalogo/internal/web"
)

const usage = `Usage: catalogo [command] [flags]

Commands:
  serve           run the web server (default)
  migrate         copy the JSON item file into the database
  hash-password   write an admin credentials file

Run "catalogo <command> -h" for the flags of a command.
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "migrate":
		err = runMigrate(args)
	case "hash-password":
		err = runHashPassword(args)
	case "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) error {
	cfg, err := config.Load("serve", args, os.Stdout)
	if err != nil {
		return err
	}

	closeLog, err := setupLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()

	items, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	photos, mediaHandler, err := openMedia(ctx, cfg)
	if err != nil {
		return err
	}

	creds, generated, err := auth.LoadOrCreateCredentials(cfg.Admin.CredentialsFile, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("loading admin credentials: %w", err)
	}
	if generated != "" {
		printCredentials(cfg.Admin.CredentialsFile, creds.Username(), generated)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = auth.LoadOrCreateSecret(cfg.SessionSecretFile)
		if err != nil {
			return err
		}
		slog.Info("session secret loaded", "path", cfg.SessionSecretFile)
	}

	svc := catalog.NewService(items, photos, cfg.Media.Folder)
	handler, err := web.NewRouter(web.Options{
		Catalog:       svc,
		Credentials:   creds,
		SessionSecret: secret,
		SecureCookies: cfg.SecureCookies,
		Media:         mediaHandler,
		API:           api.NewRouter(svc),
	})
	if err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "store", cfg.Store.Backend, "media", cfg.Media.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runMigrate(args []string) error {
	cfg, err := config.Load("migrate", args, os.Stdout)
	if err != nil {
		return err
	}

	closeLog, err := setupLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()

	database, err := openDatabase(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	source := store.NewFileStore(cfg.Store.File)
	slog.Info("migrating items", "from", source.Path(), "dialect", database.Dialect)

	res, err := migrate.Run(ctx, source, store.NewSQLStore(database))
	if err != nil {
		return fmt.Errorf("migrating items: %w", err)
	}

	fmt.Printf("Migration finished: %d items, %d created, %d skipped, %d failed.\n",
		res.Total, res.Created, res.Skipped, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d items could not be migrated", res.Failed)
	}
	return nil
}

func runHashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)

	var username string
	fs.StringVar(&username, "user", auth.DefaultUsername, "")
	fs.StringVar(&username, "u", auth.DefaultUsername, "")

	var password string
	fs.StringVar(&password, "password", "", "")
	fs.StringVar(&password, "p", "", "")

	var out string
	defaultOut := filepath.Join("data", "admin_credentials.json")
	fs.StringVar(&out, "out", defaultOut, "")
	fs.StringVar(&out, "o", defaultOut, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: catalogo hash-password [flags]

Flags:
  -u, -user <name>        admin username (default: admin)
  -p, -password <secret>  admin password (default: generated)
  -o, -out <path>         credentials file (default: data/admin_credentials.json)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	generated := ""
	if password == "" {
		var err error
		password, err = auth.GeneratePassword(16)
		if err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
		generated = password
	}

	creds, err := auth.NewCredentials(username, password)
	if err != nil {
		return err
	}
	if err := auth.SaveCredentials(out, creds); err != nil {
		return err
	}

	if generated != "" {
		printCredentials(out, username, generated)
	} else {
		fmt.Printf("Credentials written: %s\n", out)
	}
	return nil
}

// openStore opens the configured item store. The returned function
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Store.Backend == config.StoreFile {
		slog.Info("item store ready", "backend", "file", "path", cfg.Store.File)
		return store.NewFileStore(cfg.Store.File), func() {}, nil
	}

	database, err := openDatabase(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("item store ready", "backend", "sql", "dialect", database.Dialect)
	return store.NewSQLStore(database), func() { database.Close() }, nil
}

// openDatabase opens the database and brings its schema up to date.
func openDatabase(ctx context.Context, dsn string) (*db.DB, error) {
	database, err := db.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

// openMedia returns the configured media host, plus a handler serving the
// files when they are stored locally.
func openMedia(ctx context.Context, cfg *config.Config) (media.Store, http.Handler, error) {
	if cfg.Media.Backend == config.MediaS3 {
		s3cfg := cfg.Media.S3
		photos, err := media.NewS3Store(ctx, media.S3Config{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			PublicURL: s3cfg.PublicURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to media host: %w", err)
		}
		slog.Info("media host ready", "backend", "s3", "bucket", s3cfg.Bucket, "endpoint", s3cfg.Endpoint)
		return photos, nil, nil
	}

	disk := media.NewDiskStore(cfg.Media.Dir, "/media")
	slog.Info("media host ready", "backend", "disk", "dir", cfg.Media.Dir)
	return disk, disk.Handler(), nil
}

// printCredentials prints a generated admin password once.
func printCredentials(path, username, password string) {
	fmt.Printf("Admin credentials created: %s\n", path)
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println()
}
