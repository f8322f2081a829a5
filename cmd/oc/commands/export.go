package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/da0x/oc/config"
	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/logger"
	"github.com/da0x/oc/mdl"
	"github.com/da0x/oc/oc"
	"github.com/da0x/oc/schema"
)

// sanitizeFilename keeps alphanumerics, underscores, and dashes;
// spaces become underscores.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// libraryName derives the OC library name from the model file stem.
func libraryName(modelName string) string {
	name := strings.ToLower(modelName)
	return strings.TrimSuffix(name, "_lib")
}

func modelStem(inputFile string) string {
	return strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
}

// exportModel converts one MDL file to OC and/or YAML output
// directories, plus the metadata sidecar when OC is exported.
func exportModel(inputFile string, writeOC, writeYAML bool) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}

	modelName := modelStem(inputFile)
	yamlDir := modelName + "-yaml"
	ocDir := modelName + "-oc"

	fmt.Printf("Loading MDL file: %s\n", inputFile)

	model, err := mdl.Load(inputFile)
	if err != nil {
		return errors.Wrapf(err, "loading %s", inputFile)
	}

	fmt.Printf("Model UUID: %s\n", model.UUID)
	fmt.Printf("Library Type: %s\n", model.LibraryType)
	fmt.Printf("Systems: %d\n", len(model.Systems))

	root := model.RootSystem()
	if root == nil {
		return errors.New("no root system found")
	}

	if writeYAML {
		if err := os.MkdirAll(yamlDir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", yamlDir)
		}
	}
	if writeOC {
		if err := os.MkdirAll(ocDir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", ocDir)
		}
	}

	libName := libraryName(modelName)
	yamlConverter := schema.NewConverter(model,
		schema.WithDt(cfg.Codegen.Dt),
		schema.WithMaxDepth(cfg.Codegen.MaxDepth))
	yamlWriter := schema.NewWriter()
	ocConverter := oc.NewWriter(model,
		oc.WithDt(cfg.Codegen.Dt),
		oc.WithIndent(cfg.Codegen.Indent),
		oc.WithMaxDepth(cfg.Codegen.MaxDepth))

	yamlExported, ocExported := 0, 0

	fmt.Println("\nExporting...")

	for _, blk := range root.Subsystems() {
		if blk.SubsystemRef == "" {
			continue
		}
		subsys := model.System(blk.SubsystemRef)
		if subsys == nil {
			logger.Warnw("Referenced system not found", "ref", blk.SubsystemRef)
			continue
		}

		// Element systems carry the subsystem block's display name.
		named := *subsys
		named.Name = blk.Name

		baseFilename := sanitizeFilename(blk.Name)

		if writeYAML {
			elemSchema := yamlConverter.Convert(&named, libName)
			content := yamlWriter.Write(elemSchema)
			path := filepath.Join(yamlDir, baseFilename+"_schema.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				logger.Errorw("Could not write schema", "path", path, "error", err)
			} else {
				yamlExported++
			}
		}

		if writeOC {
			content := ocConverter.Convert(&named, libName)
			path := filepath.Join(ocDir, baseFilename+".oc")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				logger.Errorw("Could not write OC file", "path", path, "error", err)
			} else {
				ocExported++
			}
		}

		fmt.Printf("  %s\n", blk.Name)
	}

	if writeYAML {
		fmt.Printf("\nExported %d YAML schema(s) to %s/\n", yamlExported, yamlDir)
	}
	if writeOC {
		fmt.Printf("Exported %d OC file(s) to %s/\n", ocExported, ocDir)

		meta := oc.BuildMetadata(model)
		metadataPath := filepath.Join(ocDir, modelName+".oc.metadata")
		if err := oc.WriteMetadataFile(metadataPath, meta); err != nil {
			return errors.Wrap(err, "writing metadata")
		}
		fmt.Printf("Exported metadata to %s\n", metadataPath)
	}

	return nil
}
