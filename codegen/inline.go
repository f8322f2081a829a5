package codegen

import (
	"strconv"
	"strings"

	"github.com/da0x/oc/mdl"
)

// generateSubsystemInline splices a subsystem's code into the parent:
// the child's Inports bind to the parent-side input expressions, the
// child body emits with a chained prefix, and the child's Outports
// alias back into the parent signal map.
func (g *Generator) generateSubsystemInline(
	subsys *mdl.System,
	blk *mdl.Block,
	inputs []string,
	vp string,
	parentSignalMap map[string]string,
	code *strings.Builder,
	depth int,
) {
	// Self-referential subsystem chains would inline forever; cut them
	// at first re-entry. The depth ceiling stays as the backstop for
	// indirect blowups.
	if g.visiting[subsys.ID] {
		code.WriteString(g.indent + "// recursive subsystem: " + blk.Name + "\n")
		for p := 1; p <= blk.PortOut; p++ {
			alias := vp + "_out" + strconv.Itoa(p)
			code.WriteString(g.indent + "auto " + alias + " = 0.0f /* recursive subsystem */;\n")
			parentSignalMap[blk.SID+"#out:"+strconv.Itoa(p)] = alias
		}
		g.log.Warnw("Recursive subsystem reference cut",
			"system", subsys.ID,
			"block", blk.Name)
		return
	}
	g.visiting[subsys.ID] = true
	defer delete(g.visiting, subsys.ID)

	code.WriteString(g.indent + "// ─── Subsystem: " + blk.Name + " ───\n")

	// The child scope starts as a copy of the parent's map so signals
	// from the enclosing scope stay visible.
	subSignalMap := make(map[string]string, len(parentSignalMap))
	for k, v := range parentSignalMap {
		subSignalMap[k] = v
	}

	inports := sortedByPort(subsys.Inports())
	for i, inp := range inports {
		key := inp.SID + "#out:1"
		if i < len(inputs) && inputs[i] != "" {
			subSignalMap[key] = inputs[i]
		} else {
			subSignalMap[key] = "0.0f /* missing subsystem input */"
		}
	}

	g.generateSystemCode(subsys, vp, subSignalMap, code, depth+1)

	outports := sortedByPort(subsys.Outports())
	for i, outp := range outports {
		outportValue := "0.0f /* unmapped outport */"
		if v, ok := outportSource(subsys, outp.SID, subSignalMap); ok {
			outportValue = v
		}

		alias := vp + "_out" + strconv.Itoa(i+1)
		code.WriteString(g.indent + "auto " + alias + " = " + outportValue + ";\n")
		parentSignalMap[blk.SID+"#out:"+strconv.Itoa(i+1)] = alias
	}

	code.WriteString(g.indent + "// ─── End: " + blk.Name + " ───\n")
}
