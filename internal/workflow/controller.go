package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/output"
	"github.com/five82/soratui/internal/state"
)

const defaultPollInterval = 2 * time.Second

var (
	// ErrBusy is returned by Trigger and Run while a run is in flight.
	ErrBusy = errors.New("workflow: a video is already in progress")

	// ErrEmptyScript is returned when the script field is blank.
	ErrEmptyScript = errors.New("workflow: script is required")

	// ErrGenerationFailed wraps a job the service reported as failed or cancelled.
	ErrGenerationFailed = errors.New("workflow: video generation failed")

	// ErrPollLimit is returned when max polls is reached without a terminal status.
	ErrPollLimit = errors.New("workflow: poll limit reached")
)

// Client is the subset of the API the workflow drives. *api.Client satisfies it.
type Client interface {
	Submit(ctx context.Context, req api.CreateRequest) (api.Job, error)
	GetStatus(ctx context.Context, id string) (api.Job, error)
	Download(ctx context.Context, id, dest string, opts ...api.DownloadOption) error
}

// Fields are the user's inputs as typed.
type Fields struct {
	Script string
	Voice  string
	Style  string
}

func (f Fields) request() api.CreateRequest {
	return api.CreateRequest{
		Script: f.Script,
		Voice:  strings.TrimSpace(f.Voice),
		Style:  strings.TrimSpace(f.Style),
	}
}

// Surface is what a frontend provides to the workflow: read the inputs and
// append log lines. Log may be called from a goroutine other than the
// frontend's own.
type Surface interface {
	Fields() Fields
	Log(line string)
}

// Controller runs the submit, poll and download sequence for one video at a time.
type Controller struct {
	client    Client
	store     *state.Store
	interval  time.Duration
	outputDir string
	maxPolls  int
	logger    *slog.Logger

	wg sync.WaitGroup
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPollInterval sets the delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithOutputDir sets the directory videos are written to.
func WithOutputDir(dir string) Option {
	return func(c *Controller) { c.outputDir = dir }
}

// WithMaxPolls caps status checks per run. Zero means unlimited.
func WithMaxPolls(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxPolls = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStore shares a state store with the caller.
func WithStore(store *state.Store) Option {
	return func(c *Controller) {
		if store != nil {
			c.store = store
		}
	}
}

// New builds a Controller around client.
func New(client Client, opts ...Option) *Controller {
	c := &Controller{
		client:    client,
		store:     &state.Store{},
		interval:  defaultPollInterval,
		outputDir: ".",
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a run is in flight.
func (c *Controller) Busy() bool {
	return c.store.Snapshot().Phase.Active()
}

// Snapshot returns the current workflow state.
func (c *Controller) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

// Run executes one full workflow and blocks until it ends.
func (c *Controller) Run(ctx context.Context, s Surface) error {
	req, err := c.begin(s)
	if err != nil {
		return err
	}
	return c.run(ctx, s, req)
}

// Trigger starts a workflow in the background and returns immediately.
// A second trigger while one is running returns ErrBusy and does nothing.
func (c *Controller) Trigger(ctx context.Context, s Surface) error {
	req, err := c.begin(s)
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.run(ctx, s, req)
	}()
	return nil
}

// Wait blocks until background runs started by Trigger have returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) begin(s Surface) (api.CreateRequest, error) {
	req := s.Fields().request()
	if strings.TrimSpace(req.Script) == "" {
		s.Log("Please enter a script")
		return api.CreateRequest{}, ErrEmptyScript
	}
	if !c.store.Begin() {
		c.logger.Debug("trigger ignored", "reason", "busy")
		return api.CreateRequest{}, ErrBusy
	}
	return req, nil
}

func (c *Controller) run(ctx context.Context, s Surface, req api.CreateRequest) error {
	s.Log("Creating video...")
	c.logger.Info("workflow started", "voice", req.Voice, "style", req.Style, "script_chars", len(req.Script))

	job, err := c.client.Submit(ctx, req)
	if err == nil {
		switch {
		case strings.TrimSpace(job.ID) == "":
			err = errors.New("response did not include a video id")
		case output.ValidateID(job.ID) != nil:
			c.logger.Warn("rejected video id", "job_id", job.ID)
			err = output.ErrInvalidID
		}
	}
	if err != nil {
		return c.fail(ctx, s, "Error creating video: ", err)
	}
	id := job.ID
	c.store.SetJob(id)
	s.Log("Video created with ID: " + id)

	if err := c.poll(ctx, s, id); err != nil {
		return err
	}

	path := output.Path(c.outputDir, id)
	c.store.StartDownload(path)
	s.Log(fmt.Sprintf("Downloading video to %s...", path))
	if err := c.client.Download(ctx, id, path); err != nil {
		return c.fail(ctx, s, "Error downloading video: ", err)
	}
	s.Log("Video downloaded to " + path)
	c.store.Finish()

	snap := c.store.Snapshot()
	c.logger.Info("workflow finished", "job_id", id, "path", path, "polls", snap.Polls, "elapsed", snap.Elapsed())
	return nil
}

// poll checks status immediately, then once per interval, until the job
// completes or the run fails.
func (c *Controller) poll(ctx context.Context, s Surface, id string) error {
	for polls := 1; ; polls++ {
		job, err := c.client.GetStatus(ctx, id)
		if err != nil {
			return c.fail(ctx, s, "Error checking status: ", err)
		}
		c.store.ObserveStatus(job.Status)
		s.Log("Status: " + job.Status)
		c.logger.Debug("status observed", "job_id", id, "status", job.Status, "poll", polls)

		switch {
		case job.Completed():
			return nil
		case job.Failed():
			reason := job.Error
			if reason == "" {
				reason = job.Status
			}
			err := fmt.Errorf("%w: %s", ErrGenerationFailed, reason)
			s.Log("Video generation failed: " + reason)
			return c.record(id, err)
		case c.maxPolls > 0 && polls >= c.maxPolls:
			err := fmt.Errorf("%w after %d checks", ErrPollLimit, polls)
			s.Log(fmt.Sprintf("Timed out waiting for video after %d checks", polls))
			return c.record(id, err)
		}

		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.fail(ctx, s, "", ctx.Err())
		case <-timer.C:
		}
	}
}

// fail logs err with prefix, or as a cancellation when ctx is done, and
// marks the run as failed.
func (c *Controller) fail(ctx context.Context, s Surface, prefix string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.Log(fmt.Sprintf("Cancelled: %v", ctxErr))
		return c.record(c.store.Snapshot().JobID, ctxErr)
	}
	s.Log(prefix + err.Error())
	return c.record(c.store.Snapshot().JobID, err)
}

func (c *Controller) record(id string, err error) error {
	c.store.Fail(err)
	c.logger.Warn("workflow failed", "job_id", id, "error", err)
	return err
}
