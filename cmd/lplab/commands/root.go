package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/lplab/internal/logging"
)

// NewRootCommand builds the command tree. Tests build a fresh tree per case.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lplab",
		Short: "lplab - a teaching solver for small linear programs",
		Long: `lplab solves small linear programs with the tableau simplex method and
explains the result: every tableau, shadow prices, ranging and a stability
verdict. Two-variable problems are also solved graphically and the answers
are cross-checked.

Problems are YAML or JSON files:

  direction: max
  objective: {coefficients: [3, 2]}
  constraints:
    - {coefficients: [1, 1], operator: "<=", rhs: 4}
    - {coefficients: [2, 1], operator: "<=", rhs: 6}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Log engine decisions to stderr")

	root.AddCommand(newSolveCommand(), newGraphCommand(), newExampleCommand())
	return root
}

var rootCmd = NewRootCommand()

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// engineLogger returns a debug logger on the command's stderr when
// --verbose is set.
func engineLogger(cmd *cobra.Command) *zap.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		return zap.NewNop()
	}
	return logging.NewZapLogger(logging.New(logging.DebugLevel, cmd.ErrOrStderr()).WithFormat(logging.TextFormat))
}
