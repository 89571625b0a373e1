package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/printer"
	"github.com/copyleftdev/lplab/internal/problemfile"
)

// loadProblem reads the problem named by args[0]; "-" reads stdin.
func loadProblem(cmd *cobra.Command, args []string) (*lp.Problem, error) {
	path := args[0]

	var (
		p   *lp.Problem
		err error
	)
	if path == "-" {
		var def lp.Definition
		def, err = problemfile.Decode(cmd.InOrStdin())
		if err == nil {
			p, err = lp.NewProblem(def)
		}
	} else {
		p, err = problemfile.Load(path)
	}
	if err != nil {
		suggestions := []string{"Run 'lplab example' for a problem file to start from."}
		if lp.IsStructural(err) {
			suggestions = []string{"Check the direction, operators and coefficient counts."}
		}
		return nil, printer.Error(cmd.ErrOrStderr(), "Cannot read problem", err.Error(), suggestions)
	}
	return p, nil
}

func validateOutput(output string) error {
	switch output {
	case "summary", "json":
		return nil
	}
	return fmt.Errorf("--output must be summary or json, got %q", output)
}
