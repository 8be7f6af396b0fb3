package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/delayrun"
)

var version = "dev"

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "delayrun",
		Short: "Event-driven delayed execution engine",
		Long:  "delayrun runs a processing strategy over a weighted element sequence,\nemitting lifecycle events that observers turn into logs, statistics and audit trails.",
	}
	root.AddCommand(buildRunCmd(), buildServeCmd(), buildVersionCmd())
	return root
}

func buildRunCmd() *cobra.Command {
	var f RunFlags
	cmd := &cobra.Command{
		Use:   "run [weights...]",
		Short: "Run a strategy over the given element weights",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(f, args)
		},
	}
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&f.Strategy, "strategy", "s", "", "strategy variant (overrides config)")
	cmd.Flags().StringVarP(&f.Unit, "unit", "u", "", "weight unit: ms, s, us, ns (overrides config)")
	cmd.Flags().DurationVar(&f.CancelAfter, "cancel-after", 0, "trip the cancellation token after this duration")
	cmd.Flags().StringVar(&f.HistoryDSN, "history-dsn", "", "audit sink DSN (sqlite/postgres/clickhouse/opensearch)")
	cmd.Flags().BoolVarP(&f.Quiet, "quiet", "q", false, "suppress per-event logging")
	return cmd
}

func runOnce(f RunFlags, args []string) error {
	cfg, err := delayrun.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.Strategy != "" {
		cfg.Run.Strategy = f.Strategy
	}
	if f.Unit != "" {
		cfg.Run.Unit = f.Unit
	}
	if f.HistoryDSN != "" {
		cfg.History.DSN = f.HistoryDSN
	}
	if f.Quiet {
		cfg.Log.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	unit, err := cfg.WeightUnit()
	if err != nil {
		return err
	}

	logg, closeLog, err := delayrun.NewLogger(cfg.Logger, "delayrun")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logg)

	weights := make([]float64, 0, len(args))
	for _, a := range args {
		w, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q: %w", a, err)
		}
		weights = append(weights, w)
	}

	stats := delayrun.NewStatisticsObserver()
	opts := []delayrun.RunnerOption{
		delayrun.WithObserver(delayrun.NewLoggingObserver(cfg.Log)),
		delayrun.WithObserver(stats),
	}
	if cfg.History.DSN != "" {
		sink, err := delayrun.NewHistorySink(cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		if c, ok := sink.(io.Closer); ok {
			defer func() { _ = c.Close() }()
		}
		opts = append(opts, delayrun.WithObserver(delayrun.NewSinkObserver(sink)))
	}
	if cfg.Metrics.Enabled {
		if err := delayrun.RegisterMetricsDefault(); err != nil {
			return err
		}
		opts = append(opts, delayrun.WithObserver(delayrun.NewMetricsObserver()))
	}

	r := delayrun.New(opts...)

	var tok *delayrun.Token
	if f.CancelAfter > 0 {
		tok = delayrun.NewToken()
		timer := time.AfterFunc(f.CancelAfter, tok.Trip)
		defer timer.Stop()
	}

	res, runErr := r.Run(context.Background(), cfg.Run.Strategy, delayrun.Elements(weights, unit), tok)

	out := map[string]any{
		"strategy": res.Strategy,
		"elements": res.Elements,
		"events":   len(res.History),
		"duration": res.Duration.String(),
		"stats":    stats.Snapshot(),
	}
	if runErr != nil {
		out["error"] = runErr.Error()
	}
	printJSON(out)
	return runErr
}

func buildServeCmd() *cobra.Command {
	var f ServeFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(f)
		},
	}
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&f.Listen, "listen", "", "API listen address (overrides config)")
	cmd.Flags().StringVar(&f.BasePath, "base-path", "", "API base path (overrides config)")
	cmd.Flags().StringVar(&f.MetricsListen, "metrics-listen", "", "metrics listen address (overrides config)")
	return cmd
}

func serve(f ServeFlags) error {
	cfg, err := delayrun.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	if f.BasePath != "" {
		cfg.Server.BasePath = f.BasePath
	}
	if f.MetricsListen != "" {
		cfg.Metrics.Listen = f.MetricsListen
		cfg.Metrics.Enabled = true
	}

	logg, closeLog, err := delayrun.NewLogger(cfg.Logger, "delayrun")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logg)

	opts := []delayrun.RunnerOption{
		delayrun.WithObserver(delayrun.NewLoggingObserver(cfg.Log)),
	}
	if cfg.History.DSN != "" {
		sink, err := delayrun.NewHistorySink(cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		if c, ok := sink.(io.Closer); ok {
			defer func() { _ = c.Close() }()
		}
		opts = append(opts, delayrun.WithObserver(delayrun.NewSinkObserver(sink)))
	}
	if cfg.Metrics.Enabled {
		if err := delayrun.RegisterMetricsDefault(); err != nil {
			return err
		}
		opts = append(opts, delayrun.WithObserver(delayrun.NewMetricsObserver()))
		go func() { _ = delayrun.ServeMetrics(cfg.Metrics.Listen) }()
	}

	mgr := delayrun.NewManager(delayrun.New(opts...), cfg.Run.MaxRuns)
	srv, err := delayrun.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, mgr)
	if err != nil {
		return err
	}
	fmt.Printf("delayrun API listening on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the delayrun version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(b))
}
