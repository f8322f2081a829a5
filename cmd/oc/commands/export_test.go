package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da0x/oc/config"
	"github.com/da0x/oc/oc"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Speed_Filter", sanitizeFilename("Speed Filter"))
	assert.Equal(t, "PID-2", sanitizeFilename("PID-2"))
	assert.Equal(t, "AB", sanitizeFilename("A/B"))
}

func TestLibraryName(t *testing.T) {
	assert.Equal(t, "motor", libraryName("Motor_Lib"))
	assert.Equal(t, "motor", libraryName("motor"))
	assert.Equal(t, "vehicle", libraryName("vehicle"))
}

func TestModelStem(t *testing.T) {
	assert.Equal(t, "motor_lib", modelStem("models/motor_lib.mdl"))
	assert.Equal(t, "plain", modelStem("plain"))
}

const exportContainer = `# MathWorks OPC Text Package
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
  <P Name="ZoomFactor">100</P>
  <Block BlockType="SubSystem" Name="Low Pass Filter" SID="1">
    <PortCounts in="1" out="1"/>
    <P Name="Position">[100, 100, 220, 180]</P>
    <System Ref="system_2"/>
  </Block>
</System>

__MWOPC_PART_BEGIN__ /simulink/systems/system_2.xml
<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="ZoomFactor">100</P>
  <Block BlockType="Inport" Name="u" SID="2">
    <P Name="Position">[50, 50, 80, 64]</P>
  </Block>
  <Block BlockType="Gain" Name="K" SID="3">
    <P Name="Position">[150, 45, 190, 81]</P>
    <P Name="Gain">alpha</P>
  </Block>
  <Block BlockType="Outport" Name="y" SID="4">
    <P Name="Position">[250, 50, 280, 64]</P>
  </Block>
  <Line>
    <P Name="Src">2#out:1</P>
    <P Name="Dst">3#in:1</P>
  </Line>
  <Line>
    <P Name="Src">3#out:1</P>
    <P Name="Dst">4#in:1</P>
  </Line>
</System>
`

func TestExportModelRoundTrip(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	t.Setenv("OC_CODEGEN_DT", "0.5")
	config.Reset()
	t.Cleanup(config.Reset)

	modelPath := filepath.Join(dir, "motor_lib.mdl")
	require.NoError(t, os.WriteFile(modelPath, []byte(exportContainer), 0o644))

	require.NoError(t, exportModel(modelPath, true, true))

	ocBytes, err := os.ReadFile(filepath.Join(dir, "motor_lib-oc", "Low_Pass_Filter.oc"))
	require.NoError(t, err)
	ocText := string(ocBytes)
	assert.Contains(t, ocText, "namespace motor {")
	assert.Contains(t, ocText, "element Low_Pass_Filter {")
	assert.Contains(t, ocText, "float alpha;")
	// Sample time comes from the loaded configuration, not a baked-in
	// default.
	assert.Contains(t, ocText, "float dt = 0.5;  // sample time")
	assert.Contains(t, ocText, "auto K = in.u * cfg.alpha;")

	yamlBytes, err := os.ReadFile(filepath.Join(dir, "motor_lib-yaml", "Low_Pass_Filter_schema.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(yamlBytes), "name: Low_Pass_Filter")
	assert.Contains(t, string(yamlBytes), "parent_library: 'motor'")

	meta, err := oc.ReadMetadataFile(filepath.Join(dir, "motor_lib-oc", "motor_lib.oc.metadata"))
	require.NoError(t, err)
	assert.Len(t, meta.PartOrder, 3)
	require.Contains(t, meta.Systems, "system_2")
}
