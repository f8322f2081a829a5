package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/mdl"
)

// DumpCmd represents the dump command
var DumpCmd = &cobra.Command{
	Use:   "dump <model.mdl> [subsystem-name]",
	Short: "Print the block structure of an MDL model",
	Long: `Print the systems, blocks, and connections of an MDL model.

Blocks are grouped by type with their key parameters; subsystems are
walked recursively. An optional subsystem name limits output to that
element.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDump,
}

// keyParams maps block types to the parameters worth showing inline.
var keyParams = map[string][]string{
	"Gain":               {"Gain"},
	"Sum":                {"Inputs"},
	"Product":            {"Inputs"},
	"Saturate":           {"UpperLimit", "LowerLimit"},
	"Constant":           {"Value"},
	"RelationalOperator": {"Operator"},
	"Logic":              {"Operator"},
	"Switch":             {"Criteria", "Threshold"},
	"UnitDelay":          {"InitialCondition"},
	"DiscreteIntegrator": {"InitialCondition"},
	"TransferFcn":        {"Numerator", "Denominator"},
}

func runDump(cmd *cobra.Command, args []string) error {
	model, err := mdl.Load(args[0])
	if err != nil {
		return errors.Wrapf(err, "loading %s", args[0])
	}

	root := model.RootSystem()
	if root == nil {
		return errors.New("no root system found")
	}

	filter := ""
	if len(args) > 1 {
		filter = args[1]
	}

	if filter == "" {
		dumpSystem(model, root, 0)
		return nil
	}

	for _, blk := range root.Subsystems() {
		if blk.Name != filter || blk.SubsystemRef == "" {
			continue
		}
		if subsys := model.System(blk.SubsystemRef); subsys != nil {
			named := *subsys
			named.Name = blk.Name
			dumpSystem(model, &named, 0)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "subsystem %q", filter)
}

func dumpSystem(model *mdl.Model, sys *mdl.System, depth int) {
	indent := strings.Repeat("  ", depth)

	name := sys.Name
	if name == "" {
		name = sys.ID
	}
	fmt.Printf("%sSystem: %s (%s)\n", indent, name, sys.ID)

	byType := map[string][]*mdl.Block{}
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		byType[blk.Type] = append(byType[blk.Type], blk)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("%s  Blocks (%d):\n", indent, len(sys.Blocks))
	for _, t := range types {
		fmt.Printf("%s    %s x%d\n", indent, t, len(byType[t]))
		for _, blk := range byType[t] {
			fmt.Printf("%s      - %s%s\n", indent, blk.Name, formatKeyParams(blk))
		}
	}

	fmt.Printf("%s  Connections (%d):\n", indent, len(sys.Connections))
	for i := range sys.Connections {
		conn := &sys.Connections[i]
		src := endpointName(sys, conn.Src)
		if conn.Dst != "" {
			fmt.Printf("%s    %s -> %s\n", indent, src, endpointName(sys, conn.Dst))
		} else {
			fmt.Printf("%s    %s\n", indent, src)
		}
		for _, br := range conn.Branches {
			fmt.Printf("%s      -> %s\n", indent, endpointName(sys, br.Dst))
		}
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if !blk.IsSubsystem() || blk.SubsystemRef == "" {
			continue
		}
		if subsys := model.System(blk.SubsystemRef); subsys != nil {
			named := *subsys
			named.Name = blk.Name
			dumpSystem(model, &named, depth+1)
		}
	}
}

func formatKeyParams(blk *mdl.Block) string {
	names, ok := keyParams[blk.Type]
	if !ok {
		return ""
	}
	var parts []string
	for _, name := range names {
		if v, ok := blk.Param(name); ok {
			parts = append(parts, name+"="+v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func endpointName(sys *mdl.System, raw string) string {
	ep, err := mdl.ParseEndpoint(raw)
	if err != nil {
		return raw
	}
	blk := sys.FindBlockBySID(ep.BlockSID)
	if blk == nil {
		return raw
	}
	return fmt.Sprintf("%s:%d", blk.Name, ep.PortIndex)
}
