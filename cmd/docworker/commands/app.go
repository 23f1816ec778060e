package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docworker/internal/artifacts"
	"git.home.luguber.info/inful/docworker/internal/config"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/git"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/joblog"
	"git.home.luguber.info/inful/docworker/internal/metrics"
	"git.home.luguber.info/inful/docworker/internal/notify"
	"git.home.luguber.info/inful/docworker/internal/pipeline"
	"git.home.luguber.info/inful/docworker/internal/publish"
	"git.home.luguber.info/inful/docworker/internal/repobuild"
	"git.home.luguber.info/inful/docworker/internal/reporter"
	"git.home.luguber.info/inful/docworker/internal/sanitize"
	"git.home.luguber.info/inful/docworker/internal/server/middleware"
	"git.home.luguber.info/inful/docworker/internal/storage"
	"git.home.luguber.info/inful/docworker/internal/worker"
)

// App holds the long-lived resources shared by every job of one process.
type App struct {
	cfg            *config.Config
	jobLog         *joblog.SQLiteStore
	stage          *storage.FSStore
	reporter       *reporter.Reporter
	metricsHandler http.Handler
	recorder       metrics.Recorder
	git            *git.Client
}

// NewApp opens the job log and the staging store described by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.JobLog.Path), 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create job log directory").Build()
	}
	jobLog, err := joblog.NewSQLiteStore(cfg.JobLog.Path)
	if err != nil {
		return nil, err
	}
	stage, err := storage.NewFSStore(cfg.Publish.StoreDir)
	if err != nil {
		_ = jobLog.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryStore, "open staging store").
			WithContext("path", cfg.Publish.StoreDir).
			Build()
	}

	var sender reporter.Sender
	if cfg.Slack.WebhookURL != "" {
		sender = notify.NewSlackSender(cfg.Slack.WebhookURL, cfg.Slack.Channel)
	}

	reg := metrics.NewRegistry()
	app := &App{
		cfg:            cfg,
		jobLog:         jobLog,
		stage:          stage,
		reporter:       reporter.New(jobLog, sender),
		metricsHandler: metrics.HTTPHandler(reg),
		recorder:       metrics.NewPrometheusRecorder(reg),
		git: git.NewClient(git.Options{
			ShallowDepth: cfg.Build.ShallowDepth,
			Token:        cfg.Build.Token,
			Retry:        cfg.RetryPolicy(),
		}),
	}
	return app, nil
}

// Sanitizer returns the job validator.
func (a *App) Sanitizer() *sanitize.Sanitizer {
	return sanitize.New(a.reporter, sanitize.BranchPolicy{AllowMaster: a.cfg.Worker.AllowMaster}).
		WithRecorder(a.recorder)
}

// Pipeline returns the push pipeline wired to git, the build command and the
// staging store.
func (a *App) Pipeline() *pipeline.Pipeline {
	buildCfg := repobuild.Config{
		WorkRoot:         a.cfg.Worker.WorkRoot,
		CloneURLTemplate: a.cfg.Build.CloneURLTemplate,
		Command:          a.cfg.Build.Command,
	}
	return pipeline.New(pipeline.Config{
		WorkRoot:     a.cfg.Worker.WorkRoot,
		StageTimeout: a.cfg.StageTimeoutDuration(),
	}, pipeline.Collaborators{
		NewReporter: func(*job.Job) pipeline.Reporter { return a.reporter },
		NewBuilder: func(j *job.Job) pipeline.Builder {
			return repobuild.New(buildCfg, a.git, j)
		},
		NewPublisher: func(j *job.Job) pipeline.Publisher {
			return publish.NewStagePublisher(a.stage, j, a.cfg.Worker.WorkRoot)
		},
		List: artifacts.ListFiles,
	}).WithRecorder(a.recorder)
}

// Handler returns the validate-then-run unit of work.
func (a *App) Handler() *worker.Handler {
	return worker.NewHandler(a.Sanitizer(), a.Pipeline())
}

// ServeMetrics serves Prometheus metrics until ctx ends. It is a no-op when
// metrics.listen is empty.
func (a *App) ServeMetrics(ctx context.Context) {
	if a.cfg.Metrics.Listen == "" {
		return
	}
	srv := &http.Server{Addr: a.cfg.Metrics.Listen, Handler: a.metricsMux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", slog.String("addr", srv.Addr), slog.String("path", a.cfg.Metrics.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func (a *App) metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, a.metricsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	return middleware.Chain(slog.Default())(mux)
}

// Close releases the job log and the staging store.
func (a *App) Close() error {
	return errors.Join(a.jobLog.Close(), a.stage.Close())
}
