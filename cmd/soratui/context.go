package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/five82/soratui/internal/app"
	"github.com/five82/soratui/internal/config"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	prefsPath  string
	profile    string
	endpoint   string
	outputDir  string
	poll       time.Duration
}

type commandContext struct {
	flags *rootFlags
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) options() app.Options {
	return app.Options{
		ConfigPath: strings.TrimSpace(c.flags.configPath),
		PrefsPath:  strings.TrimSpace(c.flags.prefsPath),
		Overrides: config.Overrides{
			Profile:      c.flags.profile,
			Endpoint:     c.flags.endpoint,
			OutputDir:    c.flags.outputDir,
			PollInterval: c.flags.poll,
		},
	}
}

// loadConfig resolves settings without requiring an API key.
func (c *commandContext) loadConfig() (config.Config, error) {
	opts := c.options()
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.Apply(opts.Overrides)
	return cfg, cfg.Validate()
}

func (c *commandContext) withSession(fn func(*app.Session) error) error {
	sess, err := app.Open(c.options())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
