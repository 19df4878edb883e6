package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/api"
	"github.com/retroline/retroline/internal/app"
	"github.com/retroline/retroline/internal/app/maintenance"
	"github.com/retroline/retroline/internal/auth"
	"github.com/retroline/retroline/internal/chat"
	"github.com/retroline/retroline/internal/database"
	"github.com/retroline/retroline/internal/door"
	"github.com/retroline/retroline/internal/mail"
	"github.com/retroline/retroline/internal/menu"
	"github.com/retroline/retroline/internal/node"
	"github.com/retroline/retroline/internal/session"
	"github.com/retroline/retroline/internal/ws"
	"github.com/retroline/retroline/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("retroline-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	users := auth.NewUserService(db)
	tokens := auth.NewTokenService(db, cfg.Auth.TokenTTL)
	attempts := auth.NewAttemptService(db, cfg.Auth.LockoutWindow, cfg.Auth.LockoutThreshold)
	mailSvc := mail.NewService(db)

	menuCfg, err := loadMenu(cfg)
	if err != nil {
		return err
	}

	doors := door.NewRegistry()
	doors.Register(door.NewChatDoor())
	doors.Register(door.NewWhoDoor())
	doors.Register(door.NewMailDoor())

	deps := session.Deps{
		Users:    users,
		Tokens:   tokens,
		Attempts: attempts,
		Mail:     mailSvc,
		Nodes:    node.NewRegistry(cfg.Board.MaxNodes),
		Room:     chat.NewRoom(cfg.Board.ChatCapacity),
		Doors:    doors,
		Menu:     menuCfg,
	}

	sessionCfg := session.Config{
		BoardName:         cfg.Board.Name,
		Tagline:           cfg.Board.Tagline,
		DailyMinutes:      cfg.Board.DailyMinutes,
		TypeAheadCapacity: cfg.Board.TypeAheadCapacity,
		Rows:              cfg.Board.Rows,
		Cols:              cfg.Board.Cols,
		CeremonyDelay:     cfg.Board.CeremonyDelay,
		GoodbyePause:      cfg.Board.GoodbyePause,
	}

	var cleaner *maintenance.Cleaner
	if cfg.Maintenance.Enabled {
		cleaner = maintenance.NewCleaner(tokens, attempts,
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithAttemptRetention(cfg.Maintenance.AttemptRetention),
		)
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	terminal := ws.NewHandler(sessionCfg, deps)

	router, err := api.NewRouter(cfg, db, terminal, deps.Nodes)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("board is taking calls",
			zap.String("addr", server.Addr),
			zap.String("board", cfg.Board.Name),
			zap.Int("max_nodes", cfg.Board.MaxNodes))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func loadMenu(cfg *app.Config) (*menu.Config, error) {
	if strings.TrimSpace(cfg.Menu.Path) == "" {
		return menu.Default(), nil
	}
	menuCfg, err := menu.Load(cfg.Menu.Path)
	if err != nil {
		return nil, fmt.Errorf("load menu %q: %w", cfg.Menu.Path, err)
	}
	return menuCfg, nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
