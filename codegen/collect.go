package codegen

import (
	"strconv"

	"github.com/da0x/oc/mdl"
)

// configParamNames are the block parameters scanned for workspace
// variable references.
var configParamNames = []string{
	"Gain", "UpperLimit", "LowerLimit", "Value", "InitialCondition",
	"Threshold", "Numerator", "Denominator",
}

// collectVariables walks the system tree accumulating state variables
// (in traversal order) and config variables (deduplicated globally).
func (g *Generator) collectVariables(sys *mdl.System, prefix string, depth int) {
	if depth > g.maxDepth {
		return
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		vp := varPrefix(prefix, blk.Name)

		if isStateType(blk.Type) {
			scope := prefix
			if scope == "" {
				scope = "root"
			}
			g.stateVars = append(g.stateVars, StateVar{
				Name:    vp + "_state",
				Comment: blk.Type + " in " + scope,
			})
		}

		// A TransferFcn of order N carries N output states and N
		// input-history states.
		if blk.Type == "TransferFcn" {
			tf := ParseTransferFunction(blk)
			scope := prefix
			if scope == "" {
				scope = "root"
			}
			for i := 0; i < tf.Order; i++ {
				g.stateVars = append(g.stateVars, StateVar{
					Name:    vp + "_tf_x" + strconv.Itoa(i),
					Comment: "TransferFcn state " + strconv.Itoa(i) + " in " + scope,
				})
				g.stateVars = append(g.stateVars, StateVar{
					Name:    vp + "_tf_u" + strconv.Itoa(i),
					Comment: "TransferFcn input history " + strconv.Itoa(i),
				})
			}
		}

		g.collectConfigFromBlock(blk)

		if blk.IsSubsystem() && blk.SubsystemRef != "" && g.model != nil {
			if subsys := g.model.System(blk.SubsystemRef); subsys != nil {
				g.collectVariables(subsys, vp, depth+1)
			}
		}
	}
}

func (g *Generator) collectConfigFromBlock(blk *mdl.Block) {
	for _, pname := range configParamNames {
		if v, ok := blk.Param(pname); ok {
			extractConfigVars(v, g.configVars)
		}
	}
	for _, mp := range blk.MaskParameters {
		extractConfigVars(mp.Value, g.configVars)
	}
}
