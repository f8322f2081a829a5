package codegen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/da0x/oc/mdl"
)

// generateSystemCode emits update statements for one system in
// dependency order, filling signalMap with the output expression of
// every block along the way.
func (g *Generator) generateSystemCode(
	sys *mdl.System,
	prefix string,
	signalMap map[string]string,
	code *strings.Builder,
	depth int,
) {
	if depth > g.maxDepth {
		code.WriteString(g.indent + "// Max inline depth reached\n")
		g.log.Warnw("Max inline depth reached",
			"system", sys.ID,
			"depth", depth)
		return
	}

	// State blocks read their output from last step's state, so they
	// never gate scheduling. This is what breaks feedback loops.
	stateSIDs := make(map[string]bool)
	stateVarMap := make(map[string]string)
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if isStateType(blk.Type) {
			stateSIDs[blk.SID] = true
			stateVarMap[blk.SID] = "state." + varPrefix(prefix, blk.Name) + "_state"
		}
	}

	// Pre-assign output variable names for every block so forward
	// references (and subsystem outputs) resolve during emission.
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if blk.Type == "Inport" || blk.Type == "Outport" {
			continue
		}

		vp := varPrefix(prefix, blk.Name)

		if blk.IsSubsystem() {
			for p := 1; p <= blk.PortOut; p++ {
				signalMap[blk.SID+"#out:"+strconv.Itoa(p)] = vp + "_out" + strconv.Itoa(p)
			}
			continue
		}

		for p := 1; p <= blk.PortOut; p++ {
			key := blk.SID + "#out:" + strconv.Itoa(p)
			if stateSIDs[blk.SID] {
				signalMap[key] = stateVarMap[blk.SID]
			} else {
				v := vp
				if blk.PortOut > 1 {
					v += "_" + strconv.Itoa(p)
				}
				signalMap[key] = v
			}
		}
	}

	// Dependency graph over non-Inport blocks. Inport and state
	// sources do not count as dependencies.
	deps := make(map[string]map[string]bool)
	blockInputs := make(map[string][]string)
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if blk.Type == "Inport" {
			continue
		}
		deps[blk.SID] = make(map[string]bool)
		blockInputs[blk.SID] = nil
	}

	for i := range sys.Connections {
		conn := &sys.Connections[i]
		src, err := conn.SourceEndpoint()
		if err != nil {
			continue
		}

		srcKey := src.BlockSID + "#out:" + strconv.Itoa(src.PortIndex)
		srcVar, ok := signalMap[srcKey]
		if !ok {
			srcVar = "0.0f /* unknown */"
		}

		for _, dst := range conn.DestinationEndpoints() {
			inputs := blockInputs[dst.BlockSID]
			for len(inputs) < dst.PortIndex {
				inputs = append(inputs, "")
			}
			inputs[dst.PortIndex-1] = srcVar
			blockInputs[dst.BlockSID] = inputs

			if _, tracked := deps[dst.BlockSID]; tracked {
				srcBlk := sys.FindBlockBySID(src.BlockSID)
				isInport := srcBlk != nil && srcBlk.Type == "Inport"
				if !isInport && !stateSIDs[src.BlockSID] {
					deps[dst.BlockSID][src.BlockSID] = true
				}
			}
		}
	}

	sorted, residue := kahnSort(deps)

	for _, sid := range sorted {
		blk := sys.FindBlockBySID(sid)
		if blk == nil || blk.Type == "Inport" || blk.Type == "Outport" {
			continue
		}

		vp := varPrefix(prefix, blk.Name)
		g.generateBlockCode(sys, blk, blockInputs[sid], signalMap[sid+"#out:1"],
			vp, stateVarMap[sid], signalMap, code, depth)
	}

	// Blocks that never reached zero in-degree sit on a dependency
	// cycle with no state block to break it. They are skipped, but
	// visibly: a marker in the output and a warning in the log.
	for _, sid := range residue {
		blk := sys.FindBlockBySID(sid)
		if blk == nil || blk.Type == "Outport" {
			continue
		}
		code.WriteString(g.indent + "// unscheduled (dependency cycle?): " + blk.Type + ": " + blk.Name + "\n")
		g.log.Warnw("Block left unscheduled by dependency cycle",
			"system", sys.ID,
			"block", blk.Name,
			"type", blk.Type)
	}
}

// kahnSort runs Kahn's algorithm over the dependency map and returns
// the scheduled order plus any residue. Ties resolve in lexicographic
// SID order so output is deterministic.
func kahnSort(deps map[string]map[string]bool) (sorted, residue []string) {
	sids := make([]string, 0, len(deps))
	inDegree := make(map[string]int, len(deps))
	for sid, d := range deps {
		sids = append(sids, sid)
		inDegree[sid] = len(d)
	}
	sort.Strings(sids)

	var ready []string
	for _, sid := range sids {
		if inDegree[sid] == 0 {
			ready = append(ready, sid)
		}
	}

	scheduled := make(map[string]bool, len(sids))
	for len(ready) > 0 {
		sid := ready[0]
		ready = ready[1:]
		sorted = append(sorted, sid)
		scheduled[sid] = true

		for _, other := range sids {
			if deps[other][sid] {
				delete(deps[other], sid)
				inDegree[other]--
				if inDegree[other] == 0 {
					ready = append(ready, other)
				}
			}
		}
	}

	for _, sid := range sids {
		if !scheduled[sid] {
			residue = append(residue, sid)
		}
	}
	return sorted, residue
}
