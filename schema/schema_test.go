package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da0x/oc/mdl"
)

func testModel() *mdl.Model {
	inner := &mdl.System{
		ID: "system_3",
		Blocks: []mdl.Block{
			{Type: "Inport", Name: "err", SID: "1", PortIn: 1, PortOut: 1},
			{Type: "Gain", Name: "Kp", SID: "2", PortIn: 1, PortOut: 1,
				Parameters: map[string]string{"Gain": "kp"}},
			{Type: "Integrator", Name: "Accum", SID: "3", PortIn: 1, PortOut: 1},
			{Type: "Outport", Name: "cmd", SID: "4", PortIn: 1, PortOut: 1},
		},
		Connections: []mdl.Connection{
			{Src: "1#out:1", Dst: "2#in:1"},
			{Src: "2#out:1", Dst: "3#in:1"},
			{Src: "3#out:1", Dst: "4#in:1"},
		},
	}

	sub := mdl.Block{Type: "SubSystem", Name: "PID Core", SID: "2", PortIn: 1, PortOut: 1,
		SubsystemRef: "system_3",
		MaskParameters: []mdl.MaskParameter{
			{Name: "kp", Type: "edit", Prompt: "Proportional gain", Value: "1.5"},
		}}

	root := &mdl.System{
		ID:   "system_2",
		Name: "Speed Controller",
		Blocks: []mdl.Block{
			{Type: "Inport", Name: "target[3]", SID: "1", PortIn: 1, PortOut: 1},
			sub,
			{Type: "Outport", Name: "out", SID: "3", PortIn: 1, PortOut: 1},
		},
		Connections: []mdl.Connection{
			{Src: "1#out:1", Dst: "2#in:1"},
			{Src: "2#out:1", Dst: "3#in:1"},
		},
	}

	return &mdl.Model{
		RootRef: "system_2",
		Systems: map[string]*mdl.System{"system_2": root, "system_3": inner},
	}
}

func TestConvertCollectsGroups(t *testing.T) {
	m := testModel()
	schema := NewConverter(m).Convert(m.Systems["system_2"], "motor")

	assert.Equal(t, "Speed_Controller", schema.Name)
	assert.Equal(t, "motor", schema.ParentLibrary)

	require.Len(t, schema.Inputs, 1)
	assert.Equal(t, "target", schema.Inputs[0].Name)
	assert.Equal(t, 3, schema.Inputs[0].ArraySize)

	require.Len(t, schema.Outputs, 1)
	assert.Equal(t, "out", schema.Outputs[0].Name)

	// Mask parameter wins the "kp" slot, carrying prompt and default.
	require.NotEmpty(t, schema.Config)
	assert.Equal(t, "kp", schema.Config[0].Name)
	assert.Equal(t, "Proportional gain", schema.Config[0].Description)
	assert.Equal(t, "1.5", schema.Config[0].Default)

	require.Len(t, schema.State, 1)
	assert.Equal(t, "Accum_state", schema.State[0].Name)
}

func TestConvertEmitsFunctionPerSubsystem(t *testing.T) {
	m := testModel()
	schema := NewConverter(m).Convert(m.Systems["system_2"], "motor")

	require.Len(t, schema.Functions, 1)
	fn := schema.Functions[0]
	assert.Equal(t, "PID_Core", fn.Name)
	require.Len(t, fn.Inputs, 1)
	assert.Equal(t, "err", fn.Inputs[0].Name)
	require.Len(t, fn.Outputs, 1)
	assert.Equal(t, "cmd", fn.Outputs[0].Name)

	// dt is always the last config signal.
	require.NotEmpty(t, fn.Config)
	last := fn.Config[len(fn.Config)-1]
	assert.Equal(t, "dt", last.Name)
	assert.Equal(t, "0.001", last.Default)
}

func TestConvertConfiguredDt(t *testing.T) {
	m := testModel()
	schema := NewConverter(m, WithDt(0.002)).Convert(m.Systems["system_2"], "motor")

	require.Len(t, schema.Functions, 1)
	fn := schema.Functions[0]
	require.NotEmpty(t, fn.Config)
	last := fn.Config[len(fn.Config)-1]
	assert.Equal(t, "dt", last.Name)
	assert.Equal(t, "0.002", last.Default)
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	m := testModel()
	schema := NewConverter(m).Convert(m.Systems["system_2"], "motor")
	text := NewWriter().Write(schema)

	assert.Contains(t, text, "---\n")
	assert.Contains(t, text, "    name: Speed_Controller")
	assert.Contains(t, text, "    parent_library: 'motor'")
	assert.Contains(t, text, "IN:\n    use: inputs_group")
	assert.Contains(t, text, "        array: 3")
	assert.Contains(t, text, "FUNCTIONS:")
	assert.Contains(t, text, "dt: { type: float, default: 0.001 }")

	doc, err := Parse([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, "Speed_Controller", doc.Metadata.Name)
	assert.Equal(t, "element", doc.Metadata.Category)
	require.NotNil(t, doc.In)
	require.Contains(t, doc.In.Signals, "target")
	assert.Equal(t, 3, doc.In.Signals["target"].Array)
	require.Contains(t, doc.Funcs, "PID_Core")
	assert.Equal(t, Scalar("0.001"), doc.Funcs["PID_Core"].Config["dt"].Default)
}

func TestWriterEscapesQuotes(t *testing.T) {
	schema := &ElementSchema{
		Name:        "e",
		Description: "it's quoted",
		Inputs:      []Signal{{Name: "u", Description: "don't", Type: "float"}},
	}
	text := NewWriter().Write(schema)
	assert.Contains(t, text, "description: 'it''s quoted'")

	doc, err := Parse([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, "it's quoted", doc.Metadata.Description)
}
