// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// optsplit is a command line front end to the rule engine. It splits
// programs into stages, lists the registered rules and plans operator trees:
//
//	optsplit split prog.txt --dot
//	optsplit rules --config opt.yaml
//	optsplit opt --table 't: a int, b int null' tree.txt
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/optconfig"
	"github.com/cockroachdb/relopt/pkg/sql/opt/splitter"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/sql/opt/xform"
	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliContext holds the settings shared by the commands.
type cliContext struct {
	configPath string
	cfg        *optconfig.Config
}

func (c *cliContext) loadConfig() error {
	if c.configPath == "" {
		c.cfg = optconfig.Default()
	} else {
		cfg, err := optconfig.Load(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}
	log.SetVerbosity(c.cfg.Verbosity)
	return nil
}

func newRootCmd() *cobra.Command {
	var cliCtx cliContext

	rootFlags := pflag.NewFlagSet("optsplit", pflag.ContinueOnError)
	rootFlags.StringVar(&cliCtx.configPath, "config", "", "YAML optimizer configuration file")

	rootCmd := &cobra.Command{
		Use:           "optsplit",
		Short:         "Split programs and plan operator trees with the rule engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cliCtx.loadConfig()
		},
	}
	rootCmd.PersistentFlags().AddFlagSet(rootFlags)
	rootCmd.AddCommand(
		newSplitCmd(&cliCtx),
		newRulesCmd(&cliCtx),
		newOptCmd(&cliCtx),
	)
	return rootCmd
}

func newSplitCmd(cliCtx *cliContext) *cobra.Command {
	var dot bool
	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a program into calc and window stages",
		Long: `Parses the program in the file and prints the stages it is split into,
followed by the operator tree that evaluates it over a scan of its input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading program")
			}
			return runSplit(cmd.OutOrStdout(), string(text), dot)
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "print the dependency graph of the program in DOT format")
	return cmd
}

func runSplit(w io.Writer, text string, dot bool) error {
	p, err := progparse.ParseProgram(text)
	if err != nil {
		return err
	}
	if dot {
		_, err := fmt.Fprintln(w, splitter.BuildGraph(p).Dot(p))
		return err
	}

	s := splitter.New(splitter.DefaultRelTypes...)
	pl, err := s.Plan(p)
	if err != nil {
		return err
	}
	scan := memo.NewScan(&memo.Table{Name: "input", Columns: p.InputType()}, nil /* fields */)
	res, err := s.Execute(memo.NewCalc(scan, p))
	if err != nil {
		return err
	}
	fmt.Fprint(w, pl.String())
	fmt.Fprint(w, memo.FormatExpr(res, memo.ExprFmtShowAll))
	return nil
}

func newRulesCmd(cliCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the enabled rules and their patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := xform.DefaultRegistry().Filtered(cliCtx.cfg.DisabledRules)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Rule", "Pattern"})
			table.SetAutoWrapText(false)
			table.SetBorder(false)
			for _, rule := range reg.Rules() {
				table.Append([]string{rule.Name(), rule.Pattern().String()})
			}
			table.Render()
			return nil
		},
	}
}

func newOptCmd(cliCtx *cliContext) *cobra.Command {
	var tables []string
	cmd := &cobra.Command{
		Use:   "opt <file>",
		Short: "Plan an operator tree",
		Long: `Parses the operator tree in the file, explores it with the enabled rules
and prints the cheapest plan in the configured convention.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading operator tree")
			}
			return runOpt(cmd.Context(), cmd.OutOrStdout(), cliCtx.cfg, tables, string(text))
		},
	}
	cmd.Flags().StringArrayVar(&tables, "table", nil, "table definition, for example 't: a int, b int null'")
	return cmd
}

func runOpt(
	ctx context.Context, w io.Writer, cfg *optconfig.Config, tables []string, text string,
) error {
	catalog := progparse.NewCatalog()
	for _, def := range tables {
		if _, err := catalog.AddTable(def); err != nil {
			return errors.Wrapf(err, "table %q", def)
		}
	}
	root, err := catalog.ParseRel(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	required, err := cfg.Convention()
	if err != nil {
		return err
	}

	var o xform.Optimizer
	if err := o.Init(ctx, xform.DefaultRegistry(), cfg); err != nil {
		return err
	}
	plan, err := o.Optimize(root, required)
	if err != nil {
		return err
	}
	log.Infof(ctx, "explored %s expressions in %s groups",
		humanize.Comma(int64(o.Memo().NumExprs())), humanize.Comma(int64(len(o.Memo().Groups()))))
	fmt.Fprint(w, memo.FormatExpr(plan, memo.ExprFmtShowAll))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "HINT: %s\n", hint)
		}
		os.Exit(1)
	}
}
