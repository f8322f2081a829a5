package commands

import (
	"github.com/spf13/cobra"
)

// ToOcCmd represents the to-oc command
var ToOcCmd = &cobra.Command{
	Use:   "to-oc <model.mdl>",
	Short: "Convert an MDL model to OC elements and YAML schemas",
	Long: `Convert a Simulink MDL file to Open Controls text and YAML schemas.

Output directories are created next to the model file:
  <model_name>-oc/    OC element files plus the .oc.metadata sidecar
  <model_name>-yaml/  YAML schema files

The metadata sidecar lets "oc to-mdl" reproduce the original MDL
byte for byte.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportModel(args[0], true, true)
	},
}

// ToYamlCmd represents the to-yaml command
var ToYamlCmd = &cobra.Command{
	Use:   "to-yaml <model.mdl>",
	Short: "Convert an MDL model to YAML schemas only",
	Long: `Convert a Simulink MDL file to YAML schema files in
<model_name>-yaml/, without writing OC output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportModel(args[0], false, true)
	},
}
