package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nucleus/sdmx-core/internal/config"
	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/export"
	"github.com/nucleus/sdmx-core/internal/reconcile"
	"github.com/nucleus/sdmx-core/internal/selection"
	"github.com/nucleus/sdmx-core/internal/server"
	"github.com/nucleus/sdmx-core/internal/summary"
)

// =============================================================================
// KEY
// =============================================================================

func (a *app) keyCmd() *cobra.Command {
	var (
		selects []string
		dataset string
		ordered bool
	)
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Render a selection as a series key",
		Long: `Render a selection as an SDMX series key.

Selections are given as dim=code[,code]; "*" leaves a dimension open.
Without --ordered the key follows the order of the --select flags.
With --ordered and --dataset the key follows the dataset structure and
dimensions left out become wildcards.

Examples:
  sdmx key --select freq=A --select geo=DE,FR
  sdmx key --dataset nama_10_gdp --ordered --select geo=DE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ordered && dataset == "" {
				return fmt.Errorf("--ordered needs --dataset")
			}
			sel, err := selection.ParseArgs(selects)
			if err != nil {
				return err
			}
			key, err := a.service.Key(cmd.Context(), dataset, sel, ordered)
			if err != nil {
				return err
			}
			return a.write(func(w io.Writer) error {
				if a.format == export.FormatJSON {
					return export.WriteJSON(w, map[string]string{"key": key})
				}
				if a.format == export.FormatTable {
					_, err := fmt.Fprintln(w, key)
					return err
				}
				return export.WriteRows(w, a.format, export.Rows{Header: []string{"key"}, Cells: [][]string{{key}}})
			})
		},
	}
	cmd.Flags().StringArrayVar(&selects, "select", nil, "dimension constraint dim=code[,code] (repeatable)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset whose structure orders the key")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "order the key by the dataset structure")
	return cmd
}

// =============================================================================
// STRUCTURE
// =============================================================================

func (a *app) dimensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dimensions DATASET",
		Short: "List the key dimensions of a dataset by position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dims, err := a.service.Dimensions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			positions := make([]int, 0, len(dims))
			for pos := range dims {
				positions = append(positions, pos)
			}
			sort.Ints(positions)

			rows := export.Rows{Header: []string{"position", "dimension"}, Numeric: map[string]bool{"position": true}}
			for _, pos := range positions {
				rows.Cells = append(rows.Cells, []string{strconv.Itoa(pos), dims[pos]})
			}
			return a.write(func(w io.Writer) error {
				return export.WriteRows(w, a.format, rows)
			})
		},
	}
}

func (a *app) metadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata DATASET",
		Short: "Summarize the dataflow, structure and dimensions of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := a.service.Metadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(func(w io.Writer) error {
				if a.format == export.FormatJSON {
					return export.WriteJSON(w, meta)
				}
				if a.format == export.FormatTable {
					fmt.Fprintf(w, "%s  %s\nstructure %s  %s\n", meta.DataflowID, meta.DataflowName, meta.DSDID, meta.DSDName)
				}
				rows := export.Rows{
					Header:  []string{"position", "dimension", "name", "codes"},
					Numeric: map[string]bool{"position": true, "codes": true},
				}
				for _, id := range meta.Dimensions.IDs() {
					entry := meta.Dimensions[id]
					rows.Cells = append(rows.Cells, []string{
						strconv.Itoa(entry.Position), id, entry.Name, strconv.Itoa(len(entry.Enumeration)),
					})
				}
				return export.WriteRows(w, a.format, rows)
			})
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	var (
		exclude     []string
		skipUnknown bool
	)
	cmd := &cobra.Command{
		Use:   "summary DATASET",
		Short: "List the codes observed in the latest observation of every series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := summary.Options{Exclude: exclude, SkipUnknownCodes: skipUnknown}
			sum, err := a.service.DatasetWith(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return a.write(func(w io.Writer) error {
				if a.format == export.FormatJSON {
					return export.WriteJSON(w, sum)
				}
				if a.format == export.FormatTable {
					fmt.Fprintf(w, "%s %s  %s\n", sum.StructureType, sum.StructureID, sum.StructureName)
				}
				rows := export.Rows{
					Header:  []string{"dimension", "position", "code", "name"},
					Numeric: map[string]bool{"position": true},
				}
				for _, obs := range sum.Observed {
					for _, code := range obs.Enumeration {
						rows.Cells = append(rows.Cells, []string{obs.ID, strconv.Itoa(obs.Position), code.ID, code.Name})
					}
				}
				return export.WriteRows(w, a.format, rows)
			})
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", summary.DefaultOptions().Exclude, "dimensions left out of the summary")
	cmd.Flags().BoolVar(&skipUnknown, "skip-unknown", false, "skip codes missing from the code list instead of failing")
	return cmd
}

// =============================================================================
// DATA
// =============================================================================

func (a *app) dataCmd() *cobra.Command {
	var (
		selects      []string
		ordered      bool
		start, end   string
		lastN        int
		labelDims    []string
		strictLabels bool
	)
	cmd := &cobra.Command{
		Use:   "data DATASET",
		Short: "Retrieve a slice of a dataset",
		Long: `Retrieve a slice of a dataset as SDMX-CSV rows.

Examples:
  sdmx data nama_10_gdp --select freq=A --select unit=CP_MEUR --select na_item=B1GQ --select geo=DE --start 2015
  sdmx data nama_10_gdp --ordered --select geo=DE,FR --last-n 1 --label geo
  sdmx data nama_10_gdp --select geo=DE --ordered -o parquet --out gdp.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lastN < 0 {
				return fmt.Errorf("--last-n must not be negative")
			}
			sel, err := selection.ParseArgs(selects)
			if err != nil {
				return err
			}
			ds, _, err := a.service.Data(cmd.Context(), summary.DataRequest{
				DatasetID:    args[0],
				Selection:    sel,
				Ordered:      ordered,
				StartPeriod:  start,
				EndPeriod:    end,
				LastN:        lastN,
				Labels:       labelDims,
				StrictLabels: strictLabels,
			})
			if err != nil {
				return err
			}
			return a.write(func(w io.Writer) error {
				return export.WriteTable(w, a.format, ds.Data, measures(ds)...)
			})
		},
	}
	cmd.Flags().StringArrayVar(&selects, "select", nil, "dimension constraint dim=code[,code] (repeatable)")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "order the key by the dataset structure")
	cmd.Flags().StringVar(&start, "start", "", "first period")
	cmd.Flags().StringVar(&end, "end", "", "last period")
	cmd.Flags().IntVar(&lastN, "last-n", 0, "latest N observations per series")
	cmd.Flags().StringArrayVar(&labelDims, "label", nil, "dimension to join with code names (repeatable)")
	cmd.Flags().BoolVar(&strictLabels, "strict-labels", false, "fail on codes missing from the code list")
	return cmd
}

func measures(ds *core.Dataset) []string {
	dsd, err := ds.DataStructure()
	if err != nil {
		return nil
	}
	var out []string
	for _, c := range dsd.Components {
		if c.Role == core.RoleMeasure {
			out = append(out, c.ID)
		}
	}
	return out
}

// =============================================================================
// RECONCILE
// =============================================================================

func (a *app) reconcileCmd() *cobra.Command {
	var (
		selA, selB  []string
		groupBy     string
		valueColumn string
		threshold   float64
		start, end  string
		inclusive   bool
		failOnZero  bool
		ordered     bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile DATASET",
		Short: "Compare aggregates of two slices of a dataset",
		Long: `Compare aggregates of two slices of a dataset.

Each slice is summed per group (TIME_PERIOD by default) and groups whose
absolute imbalance exceeds the threshold are reported. The command exits
with status 2 when any group is reported.

Examples:
  sdmx reconcile nama_10_gdp \
    --a freq=A --a unit=CP_MEUR --a na_item=B1GQ --a geo=EU27_2020 \
    --b freq=A --b unit=CP_MEUR --b na_item=B1GQ --b geo=DE,FR,IT,ES
  sdmx reconcile nama_10_gdp --ordered --a geo=EU27_2020 --b geo=DE,FR --threshold 1 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a1, err := selection.ParseArgs(selA)
			if err != nil {
				return fmt.Errorf("--a: %w", err)
			}
			b1, err := selection.ParseArgs(selB)
			if err != nil {
				return fmt.Errorf("--b: %w", err)
			}

			opts := a.cfg.ReconcileOptions()
			flags := cmd.Flags()
			if flags.Changed("group-by") {
				opts.GroupBy = groupBy
			}
			if flags.Changed("value-column") {
				opts.ValueColumn = valueColumn
			}
			if flags.Changed("threshold") {
				opts.Threshold = threshold
			}
			if opts.Threshold < 0 {
				return fmt.Errorf("--threshold must not be negative")
			}
			opts.Inclusive = inclusive
			if failOnZero {
				opts.RatioPolicy = reconcile.RatioFail
			}
			startPeriod := a.cfg.Reconcile.StartPeriod
			if flags.Changed("start") {
				startPeriod = start
			}

			result, err := reconcile.New(a.source, a.logger).Reconcile(cmd.Context(), reconcile.Request{
				DatasetID:   args[0],
				SelectionA:  a1,
				SelectionB:  b1,
				StartPeriod: startPeriod,
				EndPeriod:   end,
				Ordered:     ordered,
				Options:     opts,
			})
			if err != nil {
				return err
			}
			if err := a.write(func(w io.Writer) error {
				return export.WriteResult(w, a.format, result)
			}); err != nil {
				return err
			}
			if result.HasDiscrepancies() {
				return &exitCodeError{Code: exitDiscrepancies}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&selA, "a", nil, "selection of side a, dim=code[,code] (repeatable)")
	flags.StringArrayVar(&selB, "b", nil, "selection of side b, dim=code[,code] (repeatable)")
	flags.StringVar(&groupBy, "group-by", reconcile.DefaultGroupBy, "column to aggregate by")
	flags.StringVar(&valueColumn, "value-column", reconcile.DefaultValueColumn, "column to sum")
	flags.Float64Var(&threshold, "threshold", reconcile.DefaultThreshold, "report groups whose imbalance exceeds this")
	flags.StringVar(&start, "start", reconcile.DefaultStartPeriod, "first period")
	flags.StringVar(&end, "end", "", "last period")
	flags.BoolVar(&inclusive, "inclusive", false, "report imbalances equal to the threshold too")
	flags.BoolVar(&failOnZero, "fail-on-zero", false, "fail when side a sums to zero in a reported group")
	flags.BoolVar(&ordered, "ordered", false, "order keys by the dataset structure")
	return cmd
}

// =============================================================================
// SERVE
// =============================================================================

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logCfg := a.cfg.Log
			if logCfg.Format == "" {
				logCfg.Format = "json"
			}
			logger := logCfg.Logger(a.stderr)

			if addr == "" {
				addr = a.cfg.Server.Addr()
			}
			srv := server.New(a.source, server.Options{
				Addr:            addr,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				Reconcile:       a.cfg.ReconcileOptions(),
				StartPeriod:     a.cfg.Reconcile.StartPeriod,
			}, logger)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration, "+config.Default().Server.Addr()+")")
	return cmd
}
