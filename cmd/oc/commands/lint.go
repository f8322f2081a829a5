package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/lint"
	"github.com/da0x/oc/mdl"
)

// LintCmd represents the lint command
var LintCmd = &cobra.Command{
	Use:   "lint <model.mdl> [model2.mdl ...]",
	Short: "Validate MDL models against library/app structural rules",
	Long: `Validate MDL models against Open Controls structural rules.

Library Rules:
  LIB-001  Element names should represent their type
  LIB-002  Elements should not link to other elements
  LIB-003  Elements should be masked with configuration parameters
  LIB-004  Internal subsystems should be helpers, not elements

App Rules:
  APP-001  App should link elements from libraries
  APP-002  Library links should be enforced (not disabled/broken)
  APP-003  App should only contain elements and connections
  APP-004  App should have connections between elements`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	var reports []*lint.Report
	failed := 0

	for _, path := range args {
		model, err := mdl.Load(path)
		if err != nil {
			return errors.Wrapf(err, "loading %s", path)
		}

		report := lint.Lint(model, filepath.Base(path))
		fmt.Print(lint.Render(report))
		reports = append(reports, report)
		failed += report.Failed
	}

	if len(args) > 1 {
		fmt.Print(lint.RenderSummary(reports))
	}

	if failed > 0 {
		return errors.Newf("%d lint check(s) failed", failed)
	}
	return nil
}
