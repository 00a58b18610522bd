package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/keypose"
	"github.com/ayusman/repcoach/internal/logging"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

type importList []string

func (l *importList) String() string { return fmt.Sprint(*l) }

func (l *importList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var imports importList
	configPath := flag.String("config", "repcoach.toml", "config file (.toml, .yaml or .json)")
	watch := flag.Bool("watch", true, "reload the config file when it changes")
	flag.Var(&imports, "import", "workout file to import on startup (repeatable)")
	flag.Parse()

	if err := run(*configPath, *watch, imports); err != nil {
		fmt.Fprintf(os.Stderr, "repcoach: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, watch bool, imports []string) error {
	loader := config.NewLoader(configPath)
	defer loader.Close()

	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LoggerConfig())
	logging.SetDefault(logger)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	for _, path := range imports {
		importWorkout(st, logger, path)
	}

	a := app.New(app.Config{
		Store:        st,
		Metrics:      metrics.New(),
		Logger:       logger.Logger,
		Session:      session.Config{CompletionThreshold: cfg.Analysis.CompletionThreshold},
		ScaleMode:    cfg.ScaleMode(),
		ScreenWidth:  cfg.Analysis.ScreenWidth,
		ScreenHeight: cfg.Analysis.ScreenHeight,
	})

	if watch {
		loader.OnChange(func(c *config.Config) {
			level := c.LoggerConfig().Level
			logger.SetLevel(level)
			logger.Info("config reloaded", "log_level", level.String())
		})
		if err := loader.Watch(); err != nil {
			logger.Warn("config watch disabled", "error", err)
		} else {
			go func() {
				for err := range loader.Errors() {
					logger.Warn("config reload failed", "error", err)
				}
			}()
		}
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		App:       a,
		Logger:    logger.Logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shut down")
	return nil
}

// importWorkout stores the workout file at path. A workout whose name is
// already stored is skipped.
func importWorkout(st *store.Store, logger *logging.Logger, path string) {
	w, err := keypose.LoadFile(path)
	if err != nil {
		logger.Error("import workout", "path", path, "error", err)
		return
	}

	rec, err := st.Workouts().Create(w)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		logger.Info("workout already stored", "path", path, "name", w.Name)
	case err != nil:
		logger.Error("import workout", "path", path, "error", err)
	default:
		logger.Info("workout imported", "path", path, "id", rec.ID, "poses", rec.Poses)
	}
}

// findWebDir returns the first existing web directory among "web", "../web"
// and ~/.repcoach/web, or "" when none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".repcoach", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
