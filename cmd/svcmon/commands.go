package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/loykin/svcmon"
	"github.com/loykin/svcmon/internal/logger"
	"github.com/loykin/svcmon/internal/metrics"
	"github.com/loykin/svcmon/pkg/client"
)

const defaultAPIUrl = "http://127.0.0.1:8080"

// runCheck probes services locally, writes snapshots and optionally
// forwards the records to the API server.
func runCheck(configPath string, f CheckFlags, args []string) error {
	cfg, err := loadOrDefault(configPath)
	if err != nil {
		return err
	}

	app := firstNonEmpty(f.App, cfg.AppName)
	services := cfg.Services
	if len(f.Services) > 0 {
		services = f.Services
	}
	dataDir := firstNonEmpty(f.DataDir, cfg.DataDir)

	mon, err := svcmon.NewMonitor(app, services)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var records []svcmon.Record
	var summary any
	var down bool

	if len(args) > 0 {
		// Probe only the requested subset; no application verdict.
		statuses, err := mon.CheckAll(ctx, args)
		if err != nil {
			return err
		}
		ts := svcmon.FormatTime(time.Now())
		host := mon.Host()
		for _, name := range args {
			rec, recErr := svcmon.NewRecord(name, statuses[name], host, ts)
			if recErr != nil {
				return fmt.Errorf("build record for %s: %w", name, recErr)
			}
			records = append(records, rec)
			if statuses[name] != svcmon.StatusUp {
				down = true
			}
		}
		summary = map[string]any{"services": statuses, "timestamp": ts}
	} else {
		report := mon.BuildReport(ctx)
		records = append(append([]svcmon.Record{}, report.ServiceRecords...), report.AppRecord)
		down = report.AppStatus == svcmon.StatusDown
		summary = report
	}

	if !f.NoFiles {
		w := svcmon.NewSnapshotWriter(dataDir)
		for _, res := range w.WriteAll(records) {
			if res.Err != nil {
				return fmt.Errorf("write snapshot for %s: %w", res.Record.ServiceName, res.Err)
			}
		}
	}

	if f.APIUrl != "" {
		c := client.New(client.Config{BaseURL: f.APIUrl, Timeout: f.APITimeout})
		for _, rec := range records {
			_, err := c.Add(ctx, client.AddRequest{
				ServiceName:   rec.ServiceName,
				ServiceStatus: string(rec.ServiceStatus),
				HostName:      rec.HostName,
				Timestamp:     rec.Timestamp,
			})
			if err != nil {
				return fmt.Errorf("forward record for %s: %w", rec.ServiceName, err)
			}
		}
	}

	printJSON(summary)
	if down {
		return fmt.Errorf("one or more monitored services are DOWN")
	}
	return nil
}

// runServe starts the status API server over the configured store.
func runServe(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}
	cfg, err := loadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if cfg.Log != nil {
		logger.Config{
			Dir:        cfg.Log.Dir,
			Level:      cfg.Log.Level,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}.Setup()
	}

	dsn := cfg.Store.DSN
	if dsn == "" {
		dsn = filepath.Join(cfg.DataDir, "svcmon.db")
	}

	ctx := context.Background()
	st, err := svcmon.OpenStore(ctx, dsn, cfg.Store.Index)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	defer func() { _ = st.Close() }()

	if err := svcmon.RegisterMetricsDefault(); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", svcmon.NewHTTPHandler(cfg.Server.BasePath, st))
	if flags.MetricsAddr != "" {
		go func() {
			if err := svcmon.ServeMetrics(flags.MetricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server stopped: %v\n", err)
			}
		}()
	} else {
		mux.Handle("/metrics", metrics.Handler())
	}

	listen := firstNonEmpty(flags.Listen, cfg.Server.Listen)
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	fmt.Printf("svcmon API listening on %s (store: %s)\n", listen, dsn)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		fmt.Printf("received %s, shutting down\n", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runStatus queries the API server for the latest stored statuses.
func runStatus(f StatusFlags, args []string) error {
	c, err := apiClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if len(args) == 0 {
		resp, err := c.Healthcheck(ctx)
		if err != nil {
			return err
		}
		printJSON(resp)
		return nil
	}

	resp, err := c.ServiceStatus(ctx, args[0])
	if err != nil {
		return err
	}
	printJSON(resp)
	return nil
}

// runAdd submits one status record to the API server.
func runAdd(f AddFlags) error {
	c, err := apiClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	resp, err := c.Add(context.Background(), client.AddRequest{
		ServiceName:   f.Name,
		ServiceStatus: f.Status,
		HostName:      f.Host,
		Timestamp:     f.Timestamp,
	})
	if err != nil {
		return err
	}
	printJSON(resp)
	return nil
}

// apiClient builds a client and verifies the server is reachable.
func apiClient(apiURL string, timeout time.Duration) (*client.Client, error) {
	if apiURL == "" {
		apiURL = defaultAPIUrl
	}
	c := client.New(client.Config{BaseURL: apiURL, Timeout: timeout})
	if !c.IsReachable(context.Background()) {
		return nil, fmt.Errorf("API server not reachable at %s - start it first with 'svcmon serve'", apiURL)
	}
	return c, nil
}

// loadOrDefault reads the config when a path is given, otherwise returns defaults.
func loadOrDefault(path string) (*svcmon.Config, error) {
	if path == "" {
		return svcmon.DefaultConfig(), nil
	}
	return svcmon.LoadConfig(path)
}
