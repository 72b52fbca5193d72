package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/hint"
	"github.com/ceyewan/shardkit/routing"
	"github.com/ceyewan/shardkit/xerrors"
)

type routeFlags struct {
	table    string
	column   string
	values   []string
	database bool
	master   bool
}

func newRouteCmd(g *globalFlags) *cobra.Command {
	f := &routeFlags{}
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Route a hinted sharding value to its physical targets",
		Long: `Binds the given values as routing hints and prints the data sources and
physical tables they resolve to.

Without --column the value is applied to both the database and table
sharding columns of the rule. With --database the value is used for
database-only routing and every physical table is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, logger, err := g.loadRouter(cmd)
			if err != nil {
				return err
			}
			res, err := f.run(cmd.Context(), router, logger)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.table, "table", "", "logic table name")
	cmd.Flags().StringVar(&f.column, "column", "", "sharding column the value belongs to")
	cmd.Flags().StringSliceVar(&f.values, "value", nil, "sharding value, repeatable")
	cmd.Flags().BoolVar(&f.database, "database", false, "route by database only")
	cmd.Flags().BoolVar(&f.master, "master", false, "force master route")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (f *routeFlags) run(ctx context.Context, router *routing.Router, logger clog.Logger) (routing.Result, error) {
	rule, ok := router.Rule(f.table)
	if !ok {
		return routing.Result{}, xerrors.Wrapf(xerrors.ErrNoRoute, "no rule for table %s", f.table)
	}

	var res routing.Result
	err := hint.Use(ctx, func(ctx context.Context, m *hint.Manager) error {
		if err := f.apply(m, rule); err != nil {
			return err
		}
		var err error
		res, err = router.Route(ctx, f.table)
		return err
	}, hint.WithLogger(logger))
	return res, err
}

func (f *routeFlags) apply(m *hint.Manager, rule routing.Rule) error {
	values := make([]any, len(f.values))
	for i, v := range f.values {
		values[i] = v
	}

	if f.master {
		if err := m.SetMasterRouteOnly(); err != nil {
			return err
		}
	}
	if f.database {
		if len(values) != 1 {
			return xerrors.InvalidArgument("--database takes exactly one value, got %d", len(values))
		}
		return m.SetDatabaseShardingValue(values[0])
	}

	dbMatch := rule.DatabaseColumn != "" && (f.column == "" || f.column == rule.DatabaseColumn)
	tableMatch := rule.TableColumn != "" && (f.column == "" || f.column == rule.TableColumn)
	if !dbMatch && !tableMatch {
		return xerrors.InvalidArgument("column %s is not a sharding column of %s", f.column, rule.LogicTable)
	}
	if dbMatch {
		if err := m.AddDatabaseShardingValues(rule.LogicTable, rule.DatabaseColumn, values...); err != nil {
			return err
		}
	}
	if tableMatch {
		if err := m.AddTableShardingValues(rule.LogicTable, rule.TableColumn, values...); err != nil {
			return err
		}
	}
	return nil
}

func printResult(w io.Writer, res routing.Result) {
	fmt.Fprintf(w, "logic_table:  %s\n", res.LogicTable)
	fmt.Fprintf(w, "source:       %s\n", res.Source)
	fmt.Fprintf(w, "data_sources: %s\n", strings.Join(res.DataSources, ","))
	fmt.Fprintf(w, "tables:       %s\n", strings.Join(res.Tables, ","))
	if res.MasterOnly {
		fmt.Fprintln(w, "master_only:  true")
	}
	if res.DatabaseOnly {
		fmt.Fprintln(w, "database_only: true")
	}
}

func newTablesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the physical tables of every sharding rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, _, err := g.loadRouter(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, table := range router.LogicTables() {
				rule, _ := router.Rule(table)
				fmt.Fprintf(w, "%s: data_sources=%s tables=%s\n", table,
					strings.Join(rule.DataSources, ","), strings.Join(rule.PhysicalTables(), ","))
			}
			return nil
		},
	}
}
