package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da0x/oc/mdl"
)

// block builds a minimal test block with default port counts.
func block(sid, blockType, name string, params map[string]string) mdl.Block {
	if params == nil {
		params = map[string]string{}
	}
	return mdl.Block{Type: blockType, Name: name, SID: sid, PortIn: 1, PortOut: 1, Parameters: params}
}

func line(src, dst string) mdl.Connection {
	return mdl.Connection{Src: src, Dst: dst}
}

// integratorModel: in -> Sum -> Gain(kp) -> Integrator -> out, with the
// integrator fed back into the Sum's minus port.
func integratorModel() *mdl.Model {
	sys := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Inport", "u", nil),
			block("2", "Sum", "Error", map[string]string{"Inputs": "+-"}),
			block("3", "Gain", "Kp", map[string]string{"Gain": "kp"}),
			block("4", "Integrator", "Accum", nil),
			block("5", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{
			line("1#out:1", "2#in:1"),
			line("2#out:1", "3#in:1"),
			line("3#out:1", "4#in:1"),
			line("4#out:1", "5#in:1"),
			{Src: "4#out:1", Branches: []mdl.Branch{{Dst: "2#in:2"}}},
		},
	}
	sys.Blocks[1].PortIn = 2
	return &mdl.Model{Systems: map[string]*mdl.System{"system_root": sys}, RootRef: "system_root"}
}

func TestGenerateIntegratorLoop(t *testing.T) {
	m := integratorModel()
	g := New(m)
	parts := g.GenerateParts(m.RootSystem(), "")

	require.Len(t, parts.Inports, 1)
	assert.Equal(t, "u", parts.Inports[0].Name)
	require.Len(t, parts.Outports, 1)
	assert.Equal(t, "y", parts.Outports[0].Name)

	require.Len(t, parts.StateVars, 1)
	assert.Equal(t, "Accum_state", parts.StateVars[0].Name)
	assert.Contains(t, parts.StateVars[0].Comment, "Integrator")

	assert.Equal(t, []string{"kp"}, parts.ConfigVars)

	code := parts.OperationCode
	// The feedback loop is broken by the state block: Sum reads the
	// state variable, and the integrator updates it afterwards.
	assert.Contains(t, code, "auto Error = in.u - state.Accum_state;")
	assert.Contains(t, code, "auto Kp = Error * cfg.kp;")
	assert.Contains(t, code, "state.Accum_state += Kp * cfg.dt;")
	assert.Contains(t, code, "out.y = state.Accum_state;")

	// Statements appear in dependency order
	sumAt := strings.Index(code, "auto Error")
	gainAt := strings.Index(code, "auto Kp")
	integAt := strings.Index(code, "state.Accum_state +=")
	assert.Less(t, sumAt, gainAt)
	assert.Less(t, gainAt, integAt)
}

func TestGenerateIsDeterministic(t *testing.T) {
	m := integratorModel()
	first := New(m).GenerateParts(m.RootSystem(), "")
	second := New(m).GenerateParts(m.RootSystem(), "")
	assert.Equal(t, first, second)
}

func TestMissingInputMarker(t *testing.T) {
	sys := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Gain", "Lonely", map[string]string{"Gain": "2"}),
			block("2", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{line("1#out:1", "2#in:1")},
	}
	m := &mdl.Model{Systems: map[string]*mdl.System{"system_root": sys}, RootRef: "system_root"}

	parts := New(m).GenerateParts(sys, "")
	assert.Contains(t, parts.OperationCode, "0.0f /* missing input 1 */")
}

func TestTransferFcnStateVars(t *testing.T) {
	sys := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Inport", "u", nil),
			block("2", "TransferFcn", "Plant", map[string]string{
				"Numerator":   "[1]",
				"Denominator": "[1 2 1]",
			}),
			block("3", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{
			line("1#out:1", "2#in:1"),
			line("2#out:1", "3#in:1"),
		},
	}
	m := &mdl.Model{Systems: map[string]*mdl.System{"system_root": sys}, RootRef: "system_root"}

	parts := New(m).GenerateParts(sys, "")

	// Order-2 transfer function carries two output states and two
	// input-history states.
	require.Len(t, parts.StateVars, 4)
	names := make([]string, len(parts.StateVars))
	for i, sv := range parts.StateVars {
		names[i] = sv.Name
	}
	assert.Equal(t, []string{"Plant_tf_x0", "Plant_tf_u0", "Plant_tf_x1", "Plant_tf_u1"}, names)

	code := parts.OperationCode
	assert.Contains(t, code, "float k = 2.0f / cfg.dt;")
	assert.Contains(t, code, "float k2 = k * k;")
	assert.Contains(t, code, "state.Plant_tf_x0")
	assert.Contains(t, code, "auto Plant = state.Plant_tf_x0;")
}

func TestSubsystemInlining(t *testing.T) {
	inner := &mdl.System{
		ID: "system_2",
		Blocks: []mdl.Block{
			block("10", "Inport", "in1", nil),
			block("11", "Gain", "Scale", map[string]string{"Gain": "alpha"}),
			block("12", "Outport", "out1", nil),
		},
		Connections: []mdl.Connection{
			line("10#out:1", "11#in:1"),
			line("11#out:1", "12#in:1"),
		},
	}
	sub := block("2", "SubSystem", "Filter", nil)
	sub.SubsystemRef = "system_2"

	root := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Inport", "u", nil),
			sub,
			block("3", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{
			line("1#out:1", "2#in:1"),
			line("2#out:1", "3#in:1"),
		},
	}
	m := &mdl.Model{
		Systems: map[string]*mdl.System{"system_root": root, "system_2": inner},
		RootRef: "system_root",
	}

	parts := New(m).GenerateParts(root, "")
	code := parts.OperationCode

	// Inner gain reads the parent's input directly (signal continuity
	// across the subsystem boundary).
	assert.Contains(t, code, "auto Filter_Scale = in.u * cfg.alpha;")
	// Outport aliased back to the parent scope
	assert.Contains(t, code, "auto Filter_out1 = Filter_Scale;")
	assert.Contains(t, code, "out.y = Filter_out1;")
	assert.Contains(t, code, "Subsystem: Filter")
	assert.Contains(t, code, "End: Filter")

	assert.Equal(t, []string{"alpha"}, parts.ConfigVars)
}

func TestSubsystemMissingInputMarker(t *testing.T) {
	inner := &mdl.System{
		ID: "system_2",
		Blocks: []mdl.Block{
			block("10", "Inport", "in1", nil),
			block("11", "Outport", "out1", nil),
		},
		Connections: []mdl.Connection{line("10#out:1", "11#in:1")},
	}
	sub := block("2", "SubSystem", "Orphan", nil)
	sub.SubsystemRef = "system_2"

	root := &mdl.System{
		ID:     "system_root",
		Blocks: []mdl.Block{sub, block("3", "Outport", "y", nil)},
		Connections: []mdl.Connection{
			line("2#out:1", "3#in:1"),
		},
	}
	m := &mdl.Model{
		Systems: map[string]*mdl.System{"system_root": root, "system_2": inner},
		RootRef: "system_root",
	}

	parts := New(m).GenerateParts(root, "")
	assert.Contains(t, parts.OperationCode, "0.0f /* missing subsystem input */")
}

func TestRecursiveSubsystemCut(t *testing.T) {
	// system_2 contains a SubSystem block referring back to system_2.
	self := block("20", "SubSystem", "Again", nil)
	self.SubsystemRef = "system_2"
	inner := &mdl.System{
		ID: "system_2",
		Blocks: []mdl.Block{
			block("10", "Inport", "in1", nil),
			self,
			block("12", "Outport", "out1", nil),
		},
		Connections: []mdl.Connection{
			line("10#out:1", "20#in:1"),
			line("20#out:1", "12#in:1"),
		},
	}
	sub := block("2", "SubSystem", "Loop", nil)
	sub.SubsystemRef = "system_2"

	root := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Inport", "u", nil),
			sub,
			block("3", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{
			line("1#out:1", "2#in:1"),
			line("2#out:1", "3#in:1"),
		},
	}
	m := &mdl.Model{
		Systems: map[string]*mdl.System{"system_root": root, "system_2": inner},
		RootRef: "system_root",
	}

	parts := New(m).GenerateParts(root, "")
	assert.Contains(t, parts.OperationCode, "// recursive subsystem: Again")
	assert.Contains(t, parts.OperationCode, "0.0f /* recursive subsystem */")
}

func TestSchedulingResidueMarker(t *testing.T) {
	// Two gains in a cycle with no state block to break it.
	sys := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Gain", "A", map[string]string{"Gain": "2"}),
			block("2", "Gain", "B", map[string]string{"Gain": "3"}),
			block("3", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{
			line("1#out:1", "2#in:1"),
			line("2#out:1", "1#in:1"),
			{Src: "2#out:1", Branches: []mdl.Branch{{Dst: "3#in:1"}}},
		},
	}
	m := &mdl.Model{Systems: map[string]*mdl.System{"system_root": sys}, RootRef: "system_root"}

	parts := New(m).GenerateParts(sys, "")
	assert.Contains(t, parts.OperationCode, "// unscheduled (dependency cycle?): Gain: A")
	assert.Contains(t, parts.OperationCode, "// unscheduled (dependency cycle?): Gain: B")
}

func TestDemuxRebindsSignals(t *testing.T) {
	demux := block("2", "Demux", "Split", nil)
	demux.PortOut = 2
	sys := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			block("1", "Inport", "u", nil),
			demux,
			block("3", "Gain", "G", map[string]string{"Gain": "2"}),
			block("4", "Outport", "y", nil),
		},
		Connections: []mdl.Connection{
			line("1#out:1", "2#in:1"),
			line("2#out:2", "3#in:1"),
			line("3#out:1", "4#in:1"),
		},
	}
	m := &mdl.Model{Systems: map[string]*mdl.System{"system_root": sys}, RootRef: "system_root"}

	parts := New(m).GenerateParts(sys, "")
	code := parts.OperationCode

	// Demux emits no statement of its own, only its comment; block
	// inputs are resolved from the pre-assigned signal map before
	// scheduling, so the consumer reads the demux's per-port output
	// variable rather than the rebound marker expression.
	assert.Contains(t, code, "// Demux: Split\n")
	assert.NotContains(t, code, "auto Split")
	assert.Contains(t, code, "auto G = Split_2 * 2;\n")
	assert.NotContains(t, code, "/* demux")
	assert.Contains(t, code, "out.y = G;")
}

func TestPortOrderingBySortedIndex(t *testing.T) {
	in2 := block("1", "Inport", "second", map[string]string{"Port": "2"})
	in1 := block("2", "Inport", "first", map[string]string{"Port": "1"})
	sys := &mdl.System{
		ID:     "system_root",
		Blocks: []mdl.Block{in2, in1, block("3", "Outport", "y", nil)},
		Connections: []mdl.Connection{
			line("2#out:1", "3#in:1"),
		},
	}
	m := &mdl.Model{Systems: map[string]*mdl.System{"system_root": sys}, RootRef: "system_root"}

	parts := New(m).GenerateParts(sys, "")
	require.Len(t, parts.Inports, 2)
	assert.Equal(t, "first", parts.Inports[0].Name)
	assert.Equal(t, "second", parts.Inports[1].Name)
}
