package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"sync"
	"syscall"

	"github.com/encodeous/rankd/discover"
	"github.com/encodeous/rankd/state"
	"github.com/encodeous/rankd/transport"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the console logger, and a file logger if cfg.LogPath is set. The returned closer
// releases the log file.
func NewLogger(cfg state.NodeCfg, logLevel slog.Level) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: string(cfg.Id),
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(cfg.LogPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Bootstrap reads and validates the node config at cfgPath and runs rankd until it receives a shutdown signal.
func Bootstrap(cfgPath, logPath string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	cfg, err := state.ReadNodeConfig(cfgPath)
	if err != nil {
		return err
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	err = state.NodeConfigValidator(cfg)
	if err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}
	return Start(*cfg, level)
}

// startDiscovery seeds m from d and follows it until env is cancelled. wg is released once d stops
// delivering updates.
func startDiscovery(env *state.Env, m *Manager, d discover.Discoverer, wg *sync.WaitGroup) error {
	err := d.Seed(m)
	if err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := d.Run(env.Context, m)
		if err != nil {
			env.Log.Error("neighbour discovery stopped", "error", err)
		}
	}()
	return nil
}

func Start(cfg state.NodeCfg, logLevel slog.Level) error {
	logger, logFile, err := NewLogger(cfg, logLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	env := state.NewEnv(context.Background(), cfg, logger)

	tx, err := transport.New(env.Transport, logger)
	if err != nil {
		return err
	}
	m := NewManager(env, tx)
	tx.Attach(m)

	for _, n := range env.Neighbours {
		m.AddOrUpdate(n)
	}
	var discovery sync.WaitGroup
	if env.Discovery.Type != "" {
		var d discover.Discoverer
		d, err = discover.New(env.Discovery, env.Log)
		if err == nil {
			err = startDiscovery(env, m, d, &discovery)
		}
		if err != nil {
			m.Stop()
			m.Wait()
			tx.Close()
			return err
		}
	}
	m.Start()
	env.Log.Info("rankd has been initialized. To gracefully exit, send SIGINT or Ctrl+C.", "neighbours", len(env.Neighbours), "transport", env.Transport.Type)

	if env.DiagBind != "" {
		go func() {
			err := ServeDiag(env.Context, env.DiagBind, NewDiagHandler(m))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				env.Log.Error("diagnostics listener failed", "bind", env.DiagBind, "error", err)
			}
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	select {
	case <-c:
		env.Cancel(errors.New("received shutdown signal"))
	case <-env.Context.Done():
	}

	env.Log.Info("stopping", "reason", context.Cause(env.Context).Error())
	discovery.Wait()
	m.Stop()
	m.Wait()
	err = tx.Close()
	if err != nil {
		env.Log.Error("error occurred while closing transport", "error", err)
	}
	env.Log.Info("stopped")
	return nil
}
