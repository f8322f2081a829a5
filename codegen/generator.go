package codegen

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/da0x/oc/logger"
	"github.com/da0x/oc/mdl"
)

// Port is a named scalar input or output of an element.
type Port struct {
	Name string
	Type string
}

// StateVar is one state variable with a provenance comment.
type StateVar struct {
	Name    string
	Comment string
}

// Parts holds the generated pieces of an element, consumed by the OC
// and YAML writers.
type Parts struct {
	Inports       []Port
	Outports      []Port
	StateVars     []StateVar
	ConfigVars    []string // lexicographic, deduplicated across the whole tree
	OperationCode string
}

// Generator produces update code for one system tree.
type Generator struct {
	model    *mdl.Model
	indent   string
	maxDepth int
	log      *zap.SugaredLogger

	stateVars  []StateVar
	configVars map[string]bool

	// visiting tracks the subsystem chain during inlining so
	// self-referential diagrams are cut at first re-entry.
	visiting map[string]bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithIndent sets the indentation unit of the emitted update body.
func WithIndent(indent string) Option {
	return func(g *Generator) { g.indent = indent }
}

// WithMaxDepth sets the subsystem inlining ceiling.
func WithMaxDepth(depth int) Option {
	return func(g *Generator) { g.maxDepth = depth }
}

// New creates a Generator for the given model.
func New(model *mdl.Model, opts ...Option) *Generator {
	g := &Generator{
		model:    model,
		indent:   "        ",
		maxDepth: 10,
		log:      logger.Logger.Named("codegen"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateParts generates the element parts for one system. Generation
// never fails: unknown constructs degrade to passthrough statements
// with marker comments.
func (g *Generator) GenerateParts(sys *mdl.System, prefix string) Parts {
	g.stateVars = nil
	g.configVars = make(map[string]bool)
	g.visiting = make(map[string]bool)

	g.collectVariables(sys, prefix, 0)

	inports := sortedByPort(sys.Inports())
	outports := sortedByPort(sys.Outports())

	parts := Parts{}
	for _, inp := range inports {
		parts.Inports = append(parts.Inports, Port{Name: SanitizeName(inp.Name), Type: "float"})
	}
	for _, outp := range outports {
		parts.Outports = append(parts.Outports, Port{Name: SanitizeName(outp.Name), Type: "float"})
	}

	var code strings.Builder
	signalMap := make(map[string]string)
	for _, inp := range inports {
		signalMap[inp.SID+"#out:1"] = "in." + SanitizeName(inp.Name)
	}

	g.generateSystemCode(sys, prefix, signalMap, &code, 0)

	code.WriteString("\n" + g.indent + "// Outputs\n")
	for _, outp := range outports {
		if src, ok := outportSource(sys, outp.SID, signalMap); ok {
			code.WriteString(g.indent + "out." + SanitizeName(outp.Name) + " = " + src + ";\n")
		}
	}

	parts.StateVars = g.stateVars
	parts.ConfigVars = sortedKeys(g.configVars)
	parts.OperationCode = code.String()
	return parts
}

// outportSource finds the signal feeding an Outport block.
func outportSource(sys *mdl.System, outportSID string, signalMap map[string]string) (string, bool) {
	for i := range sys.Connections {
		conn := &sys.Connections[i]
		for _, dst := range conn.DestinationEndpoints() {
			if dst.BlockSID != outportSID {
				continue
			}
			src, err := conn.SourceEndpoint()
			if err != nil {
				continue
			}
			key := src.BlockSID + "#out:" + strconv.Itoa(src.PortIndex)
			if v, ok := signalMap[key]; ok {
				return v, true
			}
		}
	}
	return "", false
}

// sortedByPort orders port blocks by their Port parameter (default 1),
// with SID as tiebreaker so the order is stable.
func sortedByPort(blocks []*mdl.Block) []*mdl.Block {
	out := make([]*mdl.Block, len(blocks))
	copy(out, blocks)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := portNumber(out[i]), portNumber(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].SID < out[j].SID
	})
	return out
}

func portNumber(blk *mdl.Block) int {
	if v, ok := blk.Param("Port"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 1
}

func varPrefix(prefix, blockName string) string {
	if prefix == "" {
		return SanitizeName(blockName)
	}
	return prefix + "_" + SanitizeName(blockName)
}

// isStateType reports whether a block's output comes from a state
// variable rather than from this step's computation.
func isStateType(blockType string) bool {
	switch blockType {
	case "UnitDelay", "Integrator", "DiscreteIntegrator", "Memory":
		return true
	}
	return false
}
