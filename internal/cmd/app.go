package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/contextpacker/internal/config"
	"github.com/harrison/contextpacker/internal/filelock"
	"github.com/harrison/contextpacker/internal/fileutil"
	"github.com/harrison/contextpacker/internal/history"
	"github.com/harrison/contextpacker/internal/logger"
	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/task"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given.
const defaultConfigFile = ".contextpacker.yaml"

// shutdownGrace bounds teardown after a job finishes or the run fails.
const shutdownGrace = 5 * time.Second

// app wires one command invocation: config, logger, bus, manager, and the
// optional history store. Commands customize observers before start().
type app struct {
	cfg       *config.Config
	log       *logger.ConsoleLogger
	bus       *msgbus.Bus
	manager   *task.Manager
	store     *history.Store
	observers task.Observers

	cacheDir  string
	lock      *filelock.DirLock
	startedAt time.Time
	terminal  chan msgbus.Status

	// interrupted is closed on the first SIGINT/SIGTERM
	interrupted chan struct{}
}

// newApp loads configuration and builds the job runtime for one command.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigFile
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir, err = fileutil.DefaultCacheDir()
		if err != nil {
			return nil, err
		}
	}

	log := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	bus := msgbus.New()
	a := &app{
		cfg:         cfg,
		log:         log,
		bus:         bus,
		manager:     task.NewManager(bus, cfg.Workers),
		cacheDir:    cacheDir,
		terminal:    make(chan msgbus.Status, 1),
		interrupted: make(chan struct{}),
	}

	// History is best effort; a broken store never blocks the job itself.
	store, err := history.NewStore(filepath.Join(cacheDir, "history.db"))
	if err != nil {
		log.Warnf("job history unavailable: %v", err)
	} else {
		a.store = store
	}

	a.observers = task.Observers{
		OnLog: func(l msgbus.Log) {
			log.Infof("%s", l.Text)
		},
		OnProgress: func(p msgbus.Progress) {
			log.Debugf("progress %d/%d", p.Value, p.Max)
		},
		OnFileSaved: func(f msgbus.FileSaved) {
			log.Infof("Saved %s (%d/%d, queue %d)", f.Filename, f.Saved, f.Max, f.QueueLen)
		},
		OnCloneDone: func(c msgbus.CloneDone) {
			log.Infof("Clone finished: %s", c.Path)
		},
		OnStatus: func(s msgbus.Status) {
			select {
			case a.terminal <- s:
			default:
			}
		},
	}
	return a, nil
}

// start installs the observers and begins listening. Call after any
// per-command observer overrides.
func (a *app) start() {
	a.manager.SetObservers(a.observers)
	if a.store != nil {
		a.manager.SetTerminalHook(func(slot task.Slot, jobID string, status msgbus.Status) {
			run := &history.Run{
				JobID:      jobID,
				Slot:       string(slot),
				Status:     string(status.Kind),
				Detail:     status.Detail,
				OutputPath: status.Path,
				StartedAt:  a.startedAt,
				FinishedAt: time.Now(),
			}
			if err := a.store.RecordRun(context.Background(), run); err != nil {
				a.log.Warnf("failed to record job history: %v", err)
			}
		})
	}
	a.manager.StartListener()
}

// run submits one job, blocks until its terminal status, and maps the
// outcome to the command's error result.
func (a *app) run(slot task.Slot, job task.Job) error {
	a.startedAt = time.Now()
	if err := a.manager.Submit(slot, job); err != nil {
		return err
	}

	status := <-a.terminal
	switch status.Kind {
	case msgbus.StatusCompleted:
		a.log.Infof("%s", status.Detail)
		return nil
	case msgbus.StatusCancelled:
		a.log.Warnf("%s", status.Detail)
		return nil
	default:
		return fmt.Errorf("%s", status.Detail)
	}
}

// sessionDir creates a fresh session directory, taking the cache lock so
// concurrent instances cannot collide on it.
func (a *app) sessionDir() (string, error) {
	lock, err := filelock.NewDirLock(a.cacheDir)
	if err != nil {
		return "", err
	}
	acquired, err := lock.TryAcquire()
	if err != nil {
		return "", err
	}
	if !acquired {
		return "", fmt.Errorf("cache directory %s is in use by another instance", a.cacheDir)
	}
	a.lock = lock
	return fileutil.NewSessionDir(a.cacheDir)
}

// close tears the runtime down. Safe after partial construction.
func (a *app) close() {
	a.manager.Shutdown(shutdownGrace)
	if a.lock != nil {
		if err := a.lock.Release(); err != nil {
			a.log.Warnf("%v", err)
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
