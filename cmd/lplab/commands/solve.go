package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/lplab/internal/lp/simplex"
	"github.com/copyleftdev/lplab/internal/printer"
	"github.com/copyleftdev/lplab/internal/solve"
)

type solveFlags struct {
	output             string
	steps              bool
	maxIterations      int
	pivotRule          string
	stabilityThreshold float64
	noCrossCheck       bool
}

func newSolveCommand() *cobra.Command {
	flags := &solveFlags{}
	defaults := solve.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve a problem with the simplex method",
		Long: `Solve a problem with the simplex method and report sensitivity.

FILE is a YAML or JSON problem file, or - to read from stdin. With --steps
every tableau is printed; --output json prints the full report document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "summary", "Output format: summary or json")
	cmd.Flags().BoolVar(&flags.steps, "steps", false, "Print every tableau")
	cmd.Flags().IntVar(&flags.maxIterations, "max-iterations", defaults.MaxIterations, "Pivot limit")
	cmd.Flags().StringVar(&flags.pivotRule, "pivot-rule", string(defaults.Rule), "Entering column rule: dantzig or bland")
	cmd.Flags().Float64Var(&flags.stabilityThreshold, "stability-threshold", defaults.StabilityThreshold, "Smallest allowable change that still counts as stable")
	cmd.Flags().BoolVar(&flags.noCrossCheck, "no-crosscheck", false, "Skip the graphical and reference comparisons")
	return cmd
}

func runSolve(cmd *cobra.Command, args []string, flags *solveFlags) error {
	if err := validateOutput(flags.output); err != nil {
		return printer.Error(cmd.ErrOrStderr(), "Invalid flag", err.Error(), nil)
	}
	rule, err := simplex.ParseRule(flags.pivotRule)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "Invalid flag", err.Error(), nil)
	}
	if flags.maxIterations < 1 {
		return printer.Error(cmd.ErrOrStderr(), "Invalid flag", "--max-iterations must be positive", nil)
	}

	p, err := loadProblem(cmd, args)
	if err != nil {
		return err
	}

	opts := solve.DefaultOptions()
	opts.MaxIterations = flags.maxIterations
	opts.Rule = rule
	opts.StabilityThreshold = flags.stabilityThreshold
	opts.CrossCheck = !flags.noCrossCheck

	report, err := solve.NewService(opts, engineLogger(cmd), nil).Solve(cmd.Context(), p)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "Solve failed", err.Error(), nil)
	}

	if flags.output == "json" {
		doc := report.Document()
		if !flags.steps {
			doc.Simplex.Tableaus = nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	printer.New(cmd.OutOrStdout()).Report(report, flags.steps)
	return nil
}
