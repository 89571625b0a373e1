package commands

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/problemfile"
)

func newExampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Print a sample problem file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := problemfile.Marshal(lp.MustProblem(lp.Definition{
				Direction: "max",
				Variables: []string{"x1", "x2"},
				Objective: lp.ObjectiveDefinition{Coefficients: []float64{3, 2}},
				Constraints: []lp.ConstraintDefinition{
					{Name: "labour", Coefficients: []float64{1, 1}, Operator: "<=", RHS: 4},
					{Name: "material", Coefficients: []float64{2, 1}, Operator: "<=", RHS: 6},
				},
			}))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
