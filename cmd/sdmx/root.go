package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nucleus/sdmx-core/internal/config"
	"github.com/nucleus/sdmx-core/internal/connector/http"
	"github.com/nucleus/sdmx-core/internal/connector/sdmx"
	"github.com/nucleus/sdmx-core/internal/export"
	"github.com/nucleus/sdmx-core/internal/summary"
)

// Exit codes.
const (
	exitOK            = 0
	exitError         = 1
	exitDiscrepancies = 2
)

// exitCodeError ends the process with a specific code. A nil Err prints
// nothing.
type exitCodeError struct {
	Code int
	Err  error
}

func (e *exitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.Err }

// app carries the state shared by every command after flag parsing.
type app struct {
	// Persistent flags
	configPath string
	baseURL    string
	logLevel   string
	output     string
	outPath    string

	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	logger  *slog.Logger
	format  export.Format
	source  *sdmx.SDMX
	service *summary.Service
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, "error:", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "sdmx",
		Short: "Query SDMX 2.1 REST services",
		Long: `Query SDMX 2.1 REST services such as the Eurostat dissemination API.

Configuration is read from --config (or $SDMX_CONFIG), then SDMX_* environment
variables, then flags.

Examples:
  sdmx dimensions nama_10_gdp
  sdmx key --select freq=A --select geo=DE,FR
  sdmx data nama_10_gdp --select geo=DE --ordered --label geo
  sdmx reconcile nama_10_gdp --a geo=EU27_2020 --b geo=DE,FR,IT`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.baseURL, "base-url", "", "SDMX REST root (overrides configuration)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVarP(&a.output, "output", "o", string(export.FormatTable), "output format: table, json, csv or parquet")
	flags.StringVar(&a.outPath, "out", "", "write output to this file (required for parquet)")

	root.AddCommand(
		a.keyCmd(),
		a.dimensionsCmd(),
		a.metadataCmd(),
		a.summaryCmd(),
		a.dataCmd(),
		a.reconcileCmd(),
		a.serveCmd(),
	)
	return root
}

// setup loads configuration and builds the connector.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.Source.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.Logger(a.stderr)

	a.format, err = export.ParseFormat(a.output)
	if err != nil {
		return err
	}
	if a.format.Binary() && a.outPath == "" {
		return fmt.Errorf("--output %s needs --out FILE", a.format)
	}

	auth := http.AuthFromConfig(map[string]any{"token": cfg.Source.Token})
	a.source, err = sdmx.New(cfg.SDMX(), sdmx.WithAuth(auth), sdmx.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.service = summary.NewService(a.source, summary.DefaultOptions(), a.logger)
	return nil
}

// write renders through fn to --out or stdout.
func (a *app) write(fn func(w io.Writer) error) error {
	if a.outPath == "" {
		return fn(a.stdout)
	}
	f, err := os.Create(a.outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", a.outPath, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
