package app

import (
	"log/slog"
	"os"

	"github.com/tpodg/nfsprov/internal/config"
	"github.com/tpodg/nfsprov/internal/remote"
	"github.com/tpodg/nfsprov/internal/server"
)

type App struct {
	Logger         *slog.Logger
	ConfigPath     string
	KnownHostsPath string
	// Stdin is shared by every remote command that may prompt.
	Stdin          *server.StdinRelay

	store *config.Store
}

func New(configPath string, level slog.Level) *App {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return &App{
		Logger:     logger,
		ConfigPath: configPath,
		Stdin:      server.NewStdinRelay(os.Stdin),
	}
}

// Store loads the configuration on first use and caches it for the lifetime
// of the App.
func (a *App) Store() (*config.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// RunnerOptions returns the remote runner options shared by all commands.
func (a *App) RunnerOptions() remote.Options {
	return remote.Options{
		Logger:         a.Logger,
		KnownHostsPath: a.KnownHostsPath,
		Stdin:          a.Stdin,
	}
}
