package oc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da0x/oc/mdl"
)

func gainModel() *mdl.Model {
	sys := &mdl.System{
		ID:   "system_2",
		Name: "Velocity Filter",
		Blocks: []mdl.Block{
			{Type: "Inport", Name: "u", SID: "1", PortIn: 1, PortOut: 1},
			{Type: "Gain", Name: "Scale", SID: "2", PortIn: 1, PortOut: 1,
				Parameters: map[string]string{"Gain": "alpha"}},
			{Type: "Outport", Name: "y", SID: "3", PortIn: 1, PortOut: 1},
		},
		Connections: []mdl.Connection{
			{Src: "1#out:1", Dst: "2#in:1"},
			{Src: "2#out:1", Dst: "3#in:1"},
		},
	}
	return &mdl.Model{
		UUID:        "11112222-3333-4444-5555-666677778888",
		LibraryType: "BlockLibrary",
		Name:        "motor",
		RootRef:     "system_2",
		Systems:     map[string]*mdl.System{"system_2": sys},
		PartOrder:   []string{"/simulink/blockdiagram.xml"},
		RawParts:    map[string]string{"/simulink/blockdiagram.xml": "<xml/>"},
	}
}

func TestWriterConvert(t *testing.T) {
	m := gainModel()
	text := NewWriter(m).Convert(m.Systems["system_2"], "motor")

	assert.Contains(t, text, "namespace motor {")
	assert.Contains(t, text, "element Velocity_Filter {")
	assert.Contains(t, text, "frequency: 1kHz;")
	assert.Contains(t, text, "float u;")
	assert.Contains(t, text, "float y;")
	assert.Contains(t, text, "float alpha;")
	assert.Contains(t, text, "float dt = 0.001;  // sample time")
	assert.Contains(t, text, "auto Scale = in.u * cfg.alpha;")
	assert.Contains(t, text, "out.y = Scale;")
	assert.Contains(t, text, "} // namespace motor")
}

func TestWriterConfiguredDt(t *testing.T) {
	m := gainModel()
	text := NewWriter(m, WithDt(0.5)).Convert(m.Systems["system_2"], "motor")

	assert.Contains(t, text, "float dt = 0.5;  // sample time")
	assert.NotContains(t, text, "0.001")
}

func TestWriterRoundTripsThroughParser(t *testing.T) {
	m := gainModel()
	text := NewWriter(m).Convert(m.Systems["system_2"], "motor")

	file, errs := Parse(text)
	require.Empty(t, errs)
	require.Len(t, file.Namespaces, 1)

	elem := file.Namespaces[0].Elements[0]
	assert.Equal(t, "Velocity_Filter", elem.Name)
	require.NotNil(t, elem.Section("input"))
	require.NotNil(t, elem.Section("output"))
	require.NotNil(t, elem.Section("config"))
}

func TestMetadataRoundTrip(t *testing.T) {
	m := gainModel()
	meta := BuildMetadata(m)

	assert.Equal(t, 1, meta.Version)
	assert.Equal(t, m.UUID, meta.Model.UUID)
	assert.Equal(t, "BlockLibrary", meta.Model.LibraryType)
	require.Contains(t, meta.Systems, "system_2")
	assert.Len(t, meta.Systems["system_2"].Blocks, 3)
	assert.Len(t, meta.Systems["system_2"].Connections, 2)

	path := filepath.Join(t.TempDir(), "motor.oc.metadata")
	require.NoError(t, WriteMetadataFile(path, meta))

	loaded, err := ReadMetadataFile(path)
	require.NoError(t, err)
	assert.Equal(t, meta.Model, loaded.Model)
	assert.Equal(t, meta.PartOrder, loaded.PartOrder)
	assert.Equal(t, meta.RawParts, loaded.RawParts)
	assert.Len(t, loaded.Systems["system_2"].Blocks, 3)
}
