package mdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContainer = `# MathWorks OPC Text Package
__MWOPC_PACKAGE_BEGIN__ R2024b
__MWOPC_PART_BEGIN__ /simulink/blockdiagram.xml
<?xml version="1.0" encoding="utf-8"?>
<ModelInformation Version="1.0">
  <Library>
    <P Name="ModelUUID">aaaabbbb-cccc-dddd-eeee-ffff00001111</P>
    <P Name="LibraryType">BlockLibrary</P>
    <System Ref="system_root"/>
  </Library>
</ModelInformation>

__MWOPC_PART_BEGIN__ /simulink/systems/system_root.xml
<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="Location">[-1, -8, 1921, 1033]</P>
  <P Name="ZoomFactor">100</P>
  <P Name="SIDHighWatermark">3</P>
  <Block BlockType="SubSystem" Name="Low Pass Filter" SID="1">
    <PortCounts in="1" out="1"/>
    <P Name="Position">[100, 100, 220, 180]</P>
    <P Name="ZOrder">1</P>
    <Mask>
      <Display RunInitForIconRedraw="off"/>
      <MaskParameter Name="alpha" Type="edit">
        <Prompt>Filter coefficient</Prompt>
        <Value>0.2</Value>
      </MaskParameter>
    </Mask>
    <System Ref="system_2"/>
  </Block>
</System>

__MWOPC_PART_BEGIN__ /simulink/systems/system_2.xml
<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="ZoomFactor">100</P>
  <Block BlockType="Inport" Name="u" SID="2">
    <P Name="Position">[50, 50, 80, 64]</P>
    <P Name="ZOrder">2</P>
  </Block>
  <Block BlockType="Gain" Name="K" SID="3">
    <P Name="Position">[150, 45, 190, 81]</P>
    <P Name="ZOrder">3</P>
    <P Name="Gain">alpha</P>
  </Block>
  <Block BlockType="Outport" Name="y" SID="4">
    <P Name="Position">[250, 50, 280, 64]</P>
    <P Name="ZOrder">4</P>
  </Block>
  <Line>
    <P Name="ZOrder">1</P>
    <P Name="Src">2#out:1</P>
    <Branch>
      <P Name="ZOrder">2</P>
      <P Name="Dst">3#in:1</P>
    </Branch>
    <Branch>
      <P Name="ZOrder">3</P>
      <P Name="Dst">4#in:1</P>
    </Branch>
  </Line>
</System>
`

func TestSplitParts(t *testing.T) {
	parts, err := SplitParts(testContainer)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	assert.Equal(t, "/simulink/blockdiagram.xml", parts[0].Path)
	assert.False(t, parts[0].Base64)
	assert.Contains(t, parts[0].Content, "ModelUUID")

	ids := SystemParts(parts)
	assert.Equal(t, []string{
		"/simulink/systems/system_2.xml",
		"/simulink/systems/system_root.xml",
	}, ids)
}

func TestSplitPartsNoMarkers(t *testing.T) {
	_, err := SplitParts("not a container")
	assert.Error(t, err)
}

func TestParseModel(t *testing.T) {
	model, err := Parse(testContainer)
	require.NoError(t, err)

	assert.Equal(t, "aaaabbbb-cccc-dddd-eeee-ffff00001111", model.UUID)
	assert.Equal(t, "BlockLibrary", model.LibraryType)
	assert.Len(t, model.Systems, 2)

	root := model.RootSystem()
	require.NotNil(t, root)
	assert.Equal(t, 3, root.SIDHighWatermark)
	require.Len(t, root.Blocks, 1)

	sub := &root.Blocks[0]
	assert.True(t, sub.IsSubsystem())
	assert.Equal(t, "system_2", sub.SubsystemRef)
	require.Len(t, sub.MaskParameters, 1)
	assert.Equal(t, "alpha", sub.MaskParameters[0].Name)
	assert.Equal(t, "0.2", sub.MaskParameters[0].Value)

	inner := model.System("system_2")
	require.NotNil(t, inner)
	assert.Len(t, inner.Blocks, 3)
	assert.Len(t, inner.Inports(), 1)
	assert.Len(t, inner.Outports(), 1)

	gain := inner.FindBlockBySID("3")
	require.NotNil(t, gain)
	v, ok := gain.Param("Gain")
	assert.True(t, ok)
	assert.Equal(t, "alpha", v)
	assert.Equal(t, []int{150, 45, 190, 81}, gain.Position)
}

func TestConnectionEndpoints(t *testing.T) {
	model, err := Parse(testContainer)
	require.NoError(t, err)

	inner := model.System("system_2")
	require.Len(t, inner.Connections, 1)

	conn := inner.Connections[0]
	src, err := conn.SourceEndpoint()
	require.NoError(t, err)
	assert.Equal(t, Endpoint{BlockSID: "2", PortKind: "out", PortIndex: 1}, src)

	dsts := conn.DestinationEndpoints()
	require.Len(t, dsts, 2)
	assert.Equal(t, "3", dsts[0].BlockSID)
	assert.Equal(t, "4", dsts[1].BlockSID)
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    Endpoint
		wantErr bool
	}{
		{"12#out:1", Endpoint{"12", "out", 1}, false},
		{"3#in:2", Endpoint{"3", "in", 2}, false},
		{"nonsense", Endpoint{}, true},
		{"5#out", Endpoint{}, true},
		{"5#out:x", Endpoint{}, true},
	}
	for _, tt := range tests {
		ep, err := ParseEndpoint(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, ep)
		assert.Equal(t, tt.in, ep.String())
	}
}

func TestParseIntArray(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ParseIntArray("[1, 2, 3]"))
	assert.Equal(t, []int{-1, -8, 1921, 1033}, ParseIntArray("[-1, -8, 1921, 1033]"))
	assert.Nil(t, ParseIntArray("[]"))
	assert.Equal(t, "[1, 2]", FormatIntArray([]int{1, 2}))
}

func TestRawPartsPreserved(t *testing.T) {
	model, err := Parse(testContainer)
	require.NoError(t, err)

	require.Len(t, model.PartOrder, 3)
	for _, key := range model.PartOrder {
		assert.NotEmpty(t, model.RawParts[key])
	}
}
