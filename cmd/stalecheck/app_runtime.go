package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Resinat/stalecheck/internal/api"
	"github.com/Resinat/stalecheck/internal/app"
	"github.com/Resinat/stalecheck/internal/buildinfo"
	"github.com/Resinat/stalecheck/internal/config"
	"github.com/Resinat/stalecheck/internal/detector"
	"github.com/Resinat/stalecheck/internal/hostctl"
	"github.com/Resinat/stalecheck/internal/hostevent"
	"github.com/Resinat/stalecheck/internal/netutil"
	"github.com/Resinat/stalecheck/internal/prompt"
	"github.com/Resinat/stalecheck/internal/store"
)

type agent struct {
	envCfg  *config.EnvConfig
	fetcher *netutil.HeaderFetcher
	bus     *hostevent.Bus
	reload  *hostctl.ReloadSignal
	surface *prompt.HTMLSurface
	app     *app.App
	apiSrv  *api.Server
}

func run() error {
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		return err
	}
	if issue := config.AdminTokenIssue(envCfg.AdminToken, envCfg.EntryURL); issue != "" {
		log.Printf("Warning: %s", issue)
	}

	st, err := openState(envCfg.StateDir)
	if err != nil {
		return err
	}

	a, err := newAgent(envCfg, st)
	if err != nil {
		_ = st.Close()
		return err
	}

	serverErrCh := a.startServers()
	runtimeErr := waitForShutdown(serverErrCh)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.shutdown(ctx)

	if err := st.Close(); err != nil {
		log.Printf("Persistence close error: %v", err)
	}
	if runtimeErr != nil {
		return fmt.Errorf("runtime server error: %w", runtimeErr)
	}
	return nil
}

func newAgent(envCfg *config.EnvConfig, st *agentState) (*agent, error) {
	promptCfg, err := config.LoadPromptFile(envCfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("prompt file: %w", err)
	}

	// Leave both interfaces nil rather than holding a nil *HistoryRepo.
	var (
		historySink   detector.HistorySink
		historyReader api.HistoryReader
	)
	if st.history != nil {
		historySink, historyReader = st.history, st.history
	}

	a := &agent{
		envCfg:  envCfg,
		bus:     hostevent.NewBus(),
		reload:  hostctl.NewReloadSignal(),
		surface: prompt.NewHTMLSurface(),
	}
	a.fetcher = netutil.NewHeaderFetcher(netutil.HeaderFetcherOptions{
		TimeoutFn:       func() time.Duration { return envCfg.CheckTimeout },
		UserAgentFn:     func() string { return envCfg.UserAgent },
		ValidatorHeader: envCfg.ValidatorHeader,
		TimestampHeader: envCfg.TimestampHeader,
	})

	a.app, err = app.New(context.Background(), app.Options{
		Detector: detectorConfig(envCfg),
		DetectorHost: detector.Host{
			Fetcher:  a.fetcher,
			Store:    store.NewFingerprintStore(st.kv),
			Signals:  a.bus,
			Reloader: buildReloader(a.reload, envCfg.ReloadCommand),
			History:  historySink,
		},
		Prompt:  promptCfg,
		Surface: a.surface,
	})
	if err != nil {
		a.fetcher.Close()
		return nil, fmt.Errorf("detector: %w", err)
	}
	log.Printf("Detector watching %s", envCfg.EntryURL)

	a.apiSrv = api.NewServer(
		envCfg.ListenAddress,
		envCfg.Port,
		envCfg.AdminToken,
		envCfg.AllowedOrigins,
		int64(envCfg.APIMaxBodyBytes),
		api.Deps{
			SystemInfo: api.SystemInfo{
				Version:   buildinfo.Version,
				GitCommit: buildinfo.GitCommit,
				BuildTime: buildinfo.BuildTime,
				StartedAt: time.Now().UTC(),
			},
			Detector: a.app.Detector,
			Prompt:   a.app.Prompt,
			Markup:   a.surface,
			Events:   a.bus,
			Page:     a.bus,
			Reload:   a.reload,
			History:  historyReader,
		},
	)
	return a, nil
}

// detectorConfig maps the environment onto a detector configuration.
func detectorConfig(envCfg *config.EnvConfig) detector.Config {
	cfg := detector.DefaultConfig(envCfg.EntryURL)
	cfg.ProbeURL = envCfg.ProbeURL
	cfg.PollInterval = envCfg.PollInterval
	cfg.PollSchedule = envCfg.PollScheduleSpec()
	cfg.InitialDelay = envCfg.InitialDelay
	cfg.CheckTimeout = envCfg.CheckTimeout
	cfg.ResourceErrorDebounce = envCfg.ResourceErrorDebounce
	cfg.DetectResourceErrors = envCfg.DetectResourceErrors
	cfg.SkipInDevelopment = envCfg.SkipInDevelopment

	auto := detector.DefaultIsDevelopment(envCfg.EntryURL)
	forced := envCfg.Development
	cfg.IsDevelopment = func() bool { return forced || auto() }
	return cfg
}

// buildReloader returns the browser reload signal, followed by the reload
// command when one is configured.
func buildReloader(browser *hostctl.ReloadSignal, commandLine string) detector.Reloader {
	cmd := hostctl.NewCommandReloader(commandLine)
	if cmd == nil {
		return browser
	}
	return hostctl.Multi{browser, cmd}
}

func (a *agent) startServers() <-chan error {
	serverErrCh := make(chan error, 1)
	reportServerErr := func(name string, err error) {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		wrapped := fmt.Errorf("%s: %w", name, err)
		select {
		case serverErrCh <- wrapped:
		default:
		}
	}

	go func() {
		log.Printf("Stalecheck agent %s starting on %s", buildinfo.Summary(), formatListenURL(a.envCfg.ListenAddress, a.envCfg.Port))
		reportServerErr("api server", a.apiSrv.ListenAndServe())
	}()

	return serverErrCh
}

func waitForShutdown(serverErrCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Printf("Received signal %s, shutting down...", sig)
		return nil
	case err := <-serverErrCh:
		log.Printf("Received server runtime error (%v), shutting down...", err)
		return err
	}
}

func formatListenURL(listenAddress string, port int) string {
	return "http://" + net.JoinHostPort(listenAddress, strconv.Itoa(port))
}

func (a *agent) shutdown(ctx context.Context) {
	if err := a.apiSrv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("API server stopped")

	// Event sources first, then the fetcher they use.
	a.app.Close()
	log.Println("Detector and prompt stopped")

	a.fetcher.Close()
	log.Println("Fetcher closed")
}
