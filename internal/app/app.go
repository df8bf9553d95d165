package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/config"
	"github.com/five82/soratui/internal/logging"
	"github.com/five82/soratui/internal/prefs"
	"github.com/five82/soratui/internal/state"
	"github.com/five82/soratui/internal/ui"
	"github.com/five82/soratui/internal/workflow"
)

// Options configure a soratui session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/soratui/prefs.toml
	Overrides  config.Overrides
}

// Session holds the wired dependencies shared by the TUI and the headless
// commands.
type Session struct {
	Config     config.Config
	Client     *api.Client
	Controller *workflow.Controller
	Logger     *slog.Logger

	closer io.Closer
}

// Open loads configuration, checks the API key and builds the client and
// workflow controller. Callers must Close the session.
func Open(opts Options) (*Session, error) {
	config.LoadEnv()
	apiKey, err := config.APIKey()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = cfg.Apply(opts.Overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Path:   cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	profile, err := api.LookupProfile(cfg.Profile)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	client, err := api.NewClient(apiKey,
		api.WithProfile(profile),
		api.WithEndpoint(cfg.Endpoint),
		api.WithLogger(logger.With("component", "api")),
	)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	ctrl := workflow.New(client,
		workflow.WithStore(&state.Store{}),
		workflow.WithPollInterval(cfg.PollInterval),
		workflow.WithMaxPolls(cfg.MaxPolls),
		workflow.WithOutputDir(cfg.OutputDir),
		workflow.WithLogger(logger.With("component", "workflow")),
	)

	logger.Info("session opened",
		"profile", profile.Name,
		"endpoint", client.Endpoint(),
		"output_dir", cfg.OutputDir,
		"poll_interval", cfg.PollInterval,
	)

	return &Session{
		Config:     cfg,
		Client:     client,
		Controller: ctrl,
		Logger:     logger,
		closer:     closer,
	}, nil
}

// Close waits for an in-flight run and releases the log file.
func (s *Session) Close() error {
	s.Controller.Wait()
	return s.closer.Close()
}

// Run boots the soratui TUI until the user quits or the context is cancelled.
// Cancelling stops any in-flight run before Run returns.
func Run(ctx context.Context, opts Options) error {
	sess, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	// The TUI owns the terminal; records on stderr would tear the alt screen.
	if sess.Config.LogsToStderr() {
		return &config.Error{Field: "log_file", Msg: "stderr logging is not available in the TUI; set a file path or use soratui create"}
	}

	prefsPath, err := prefs.ResolvePath(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		sess.Logger.Warn("preferences unreadable, using defaults", "path", prefsPath, "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Workflow:  sess.Controller,
		Profile:   sess.Client.Profile().Name,
		Endpoint:  sess.Client.Endpoint(),
		OutputDir: sess.Config.OutputDir,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
	})
	cancel()
	sess.Controller.Wait()
	return uiErr
}

// Headless runs one submit, poll and download cycle without the TUI,
// writing each workflow line to w.
func Headless(ctx context.Context, opts Options, fields workflow.Fields, w io.Writer) error {
	sess, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	return sess.Controller.Run(ctx, NewWriterSurface(fields, w))
}

// WriterSurface is a workflow.Surface that prints log lines to a writer.
type WriterSurface struct {
	fields workflow.Fields

	mu sync.Mutex
	w  io.Writer
}

// NewWriterSurface returns a surface with fixed fields.
func NewWriterSurface(fields workflow.Fields, w io.Writer) *WriterSurface {
	return &WriterSurface{fields: fields, w: w}
}

// Fields implements workflow.Surface.
func (s *WriterSurface) Fields() workflow.Fields {
	return s.fields
}

// Log implements workflow.Surface.
func (s *WriterSurface) Log(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, strings.TrimRight(line, "\n")+"\n")
}
