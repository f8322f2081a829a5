package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/da0x/oc/cmd/oc/commands"
	"github.com/da0x/oc/logger"
)

var rootCmd = &cobra.Command{
	Use:   "oc",
	Short: "oc - Simulink MDL and Open Controls converter",
	Long: `oc - Convert between Simulink MDL models and Open Controls text.

Available commands:
  to-oc   - Convert an MDL model to OC elements and YAML schemas
  to-yaml - Convert an MDL model to YAML schemas only
  to-mdl  - Convert OC files back to an MDL model
  dump    - Print the block structure of an MDL model
  lint    - Validate MDL models against library/app rules
  watch   - Re-export OC output whenever the model changes

Examples:
  oc to-oc motor_lib.mdl           # Export motor_lib-oc/ and motor_lib-yaml/
  oc to-mdl motor_lib-oc           # Rebuild motor_lib.mdl
  oc lint motor_lib.mdl            # Check library structure
  oc watch motor_lib.mdl           # Export on every save`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		verbosity, _ := cmd.Flags().GetCount("verbose")

		level := zapcore.InfoLevel
		if verbosity > 0 {
			level = zapcore.DebugLevel
		}
		if err := logger.InitializeWithLevel(jsonOutput, level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Log in JSON for machine consumption")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity")

	rootCmd.AddCommand(commands.ToOcCmd)
	rootCmd.AddCommand(commands.ToYamlCmd)
	rootCmd.AddCommand(commands.ToMdlCmd)
	rootCmd.AddCommand(commands.DumpCmd)
	rootCmd.AddCommand(commands.LintCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
