package commands

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/lplab/internal/lp/graphical"
	"github.com/copyleftdev/lplab/internal/printer"
)

func newGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph FILE",
		Short: "Solve a two-variable problem by corner-point enumeration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProblem(cmd, args)
			if err != nil {
				return err
			}

			sol := graphical.NewEngine(graphical.WithLogger(engineLogger(cmd))).Solve(p)
			if !sol.Applicable {
				return printer.Error(cmd.ErrOrStderr(), "Graphical method not applicable", sol.Message,
					[]string{"Use 'lplab solve' for problems with more than two variables."})
			}
			printer.New(cmd.OutOrStdout()).Graphical(sol)
			return nil
		},
	}
}
