package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/da0x/oc/diagram"
	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/oc"
)

var toMdlOutputFlag string

// ToMdlCmd represents the to-mdl command
var ToMdlCmd = &cobra.Command{
	Use:   "to-mdl <input-dir>",
	Short: "Convert OC files back to an MDL model",
	Long: `Convert the OC files in a directory back to Simulink MDL format.

When the directory holds a .oc.metadata sidecar (written by "oc to-oc"),
the original MDL is reproduced verbatim. Without one, block diagrams are
rebuilt from the OC update bodies with best-guess defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runToMdl,
}

func init() {
	ToMdlCmd.Flags().StringVarP(&toMdlOutputFlag, "output", "o", "", "Output MDL file path (default: <dir-name>.mdl)")
}

func runToMdl(cmd *cobra.Command, args []string) error {
	inputDir := args[0]

	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return errors.Newf("%s is not a directory", inputDir)
	}

	abs, err := filepath.Abs(inputDir)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", inputDir)
	}
	dirName := filepath.Base(abs)
	modelName := strings.TrimSuffix(dirName, "-oc")

	outputFile := toMdlOutputFlag
	if outputFile == "" {
		outputFile = modelName + ".mdl"
	}

	fmt.Printf("Input directory: %s\n", inputDir)
	fmt.Printf("Model name: %s\n", modelName)

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return errors.Wrapf(err, "reading %s", inputDir)
	}

	var ocPaths []string
	metadataPath := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".oc"):
			ocPaths = append(ocPaths, filepath.Join(inputDir, name))
		case strings.HasSuffix(name, ".oc.metadata"):
			metadataPath = filepath.Join(inputDir, name)
		}
	}
	sort.Strings(ocPaths)

	if len(ocPaths) == 0 {
		return errors.Newf("no .oc files found in %s", inputDir)
	}
	fmt.Printf("Found %d .oc file(s)\n", len(ocPaths))

	var sources []diagram.ParsedSource
	parseOK := true
	for _, path := range ocPaths {
		fmt.Printf("  Parsing: %s\n", filepath.Base(path))
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error: could not read %s: %v\n", path, err)
			parseOK = false
			continue
		}

		file, errs := oc.Parse(string(data))
		if len(errs) > 0 {
			fmt.Fprintf(os.Stderr, "  Syntax errors in %s:\n", filepath.Base(path))
			fmt.Fprint(os.Stderr, oc.FormatErrors(filepath.Base(path), errs))
			parseOK = false
			continue
		}
		sources = append(sources, diagram.ParsedSource{File: file, RawSource: string(data)})
	}
	if !parseOK {
		return errors.New("aborting due to parse errors")
	}

	var meta *oc.Metadata
	if metadataPath != "" {
		fmt.Printf("Found metadata: %s\n", filepath.Base(metadataPath))
		meta, err = oc.ReadMetadataFile(metadataPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not parse metadata file, using defaults: %v\n", err)
			meta = nil
		}
	}

	writer := diagram.NewMDLWriter()
	var content string
	if meta != nil {
		fmt.Println("Reconstructing MDL from metadata (verbatim mode)...")
		content = writer.WriteWithMetadata(meta)
	} else {
		fmt.Println("No metadata found, generating MDL with best-guess defaults...")
		content = writer.WriteWithDefaults(sources, modelName)
	}

	if err := os.WriteFile(outputFile, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", outputFile)
	}
	fmt.Printf("Written: %s (%d bytes)\n", outputFile, len(content))
	return nil
}
