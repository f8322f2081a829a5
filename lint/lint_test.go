package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da0x/oc/mdl"
)

func libraryModel() *mdl.Model {
	root := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			{Type: "SubSystem", Name: "Speed Filter", SID: "1", SubsystemRef: "system_1",
				MaskParameters: []mdl.MaskParameter{{Name: "alpha", Type: "edit", Value: "0.5"}}},
			{Type: "SubSystem", Name: "ab", SID: "2", SubsystemRef: "system_2"},
		},
	}
	sys1 := &mdl.System{
		ID:   "system_1",
		Name: "Speed Filter",
		Blocks: []mdl.Block{
			{Type: "Inport", Name: "u", SID: "1"},
			{Type: "Gain", Name: "Scale", SID: "2"},
			{Type: "Outport", Name: "y", SID: "3"},
		},
	}
	sys2 := &mdl.System{ID: "system_2", Name: "ab"}

	return &mdl.Model{
		Name:        "motor",
		LibraryType: "BlockLibrary",
		RootRef:     "system_root",
		Systems: map[string]*mdl.System{
			"system_root": root,
			"system_1":    sys1,
			"system_2":    sys2,
		},
	}
}

func appModel() *mdl.Model {
	root := &mdl.System{
		ID: "system_root",
		Blocks: []mdl.Block{
			{Type: "Reference", Name: "Filter", SID: "1",
				Parameters: map[string]string{"SourceBlock": "motor/Speed Filter"}},
			{Type: "Reference", Name: "Controller", SID: "2",
				Parameters: map[string]string{"SourceBlock": "motor/PID", "LinkStatus": "inactive"}},
			{Type: "Gain", Name: "Loose", SID: "3"},
		},
		Connections: []mdl.Connection{
			{Src: "1#out:1", Dst: "2#in:1"},
		},
	}
	return &mdl.Model{
		Name:    "vehicle",
		RootRef: "system_root",
		Systems: map[string]*mdl.System{"system_root": root},
	}
}

func findResults(report *Report, rule string) []Result {
	var out []Result
	for _, r := range report.Results {
		if r.Rule == rule {
			out = append(out, r)
		}
	}
	return out
}

func TestDetectModelType(t *testing.T) {
	assert.Equal(t, "library", DetectModelType(libraryModel()))
	assert.Equal(t, "app", DetectModelType(appModel()))
}

func TestLintLibraryRules(t *testing.T) {
	report := Lint(libraryModel(), "motor_lib.mdl")

	assert.Equal(t, "library", report.ModelType)

	naming := findResults(report, "LIB-001")
	require.Len(t, naming, 2)
	assert.True(t, naming[0].Passed)
	assert.False(t, naming[1].Passed, "two-letter name fails the naming rule")

	masked := findResults(report, "LIB-003")
	require.Len(t, masked, 2)
	assert.True(t, masked[0].Passed)
	assert.Contains(t, masked[0].Message, "1 params")
	assert.False(t, masked[1].Passed)

	// No external links, no nested elements.
	for _, r := range findResults(report, "LIB-002") {
		assert.True(t, r.Passed)
	}
	for _, r := range findResults(report, "LIB-004") {
		assert.True(t, r.Passed)
	}
}

func TestLintLibraryExternalLink(t *testing.T) {
	m := libraryModel()
	m.Systems["system_1"].Blocks = append(m.Systems["system_1"].Blocks,
		mdl.Block{Type: "Reference", Name: "Borrowed", SID: "4",
			Parameters: map[string]string{"SourceBlock": "other_lib/Thing"}})

	report := Lint(m, "motor_lib.mdl")
	results := findResults(report, "LIB-002")
	require.NotEmpty(t, results)

	failed := false
	for _, r := range results {
		if !r.Passed {
			failed = true
			assert.Contains(t, r.Message, "other_lib")
		}
	}
	assert.True(t, failed)
}

func TestLintLibraryAllowsBuiltinLinks(t *testing.T) {
	m := libraryModel()
	m.Systems["system_1"].Blocks = append(m.Systems["system_1"].Blocks,
		mdl.Block{Type: "Reference", Name: "Builtin", SID: "4",
			Parameters: map[string]string{"SourceBlock": "simulink/Sum"}})

	report := Lint(m, "motor_lib.mdl")
	for _, r := range findResults(report, "LIB-002") {
		assert.True(t, r.Passed)
	}
}

func TestLintAppRules(t *testing.T) {
	report := Lint(appModel(), "vehicle.mdl")

	assert.Equal(t, "app", report.ModelType)

	links := findResults(report, "APP-001")
	require.Len(t, links, 1)
	assert.True(t, links[0].Passed)
	assert.Contains(t, links[0].Message, "motor")

	enforced := findResults(report, "APP-002")
	require.Len(t, enforced, 2)
	assert.True(t, enforced[0].Passed)
	assert.False(t, enforced[1].Passed, "inactive link fails enforcement")

	loose := findResults(report, "APP-003")
	require.Len(t, loose, 1)
	assert.False(t, loose[0].Passed)
	assert.Contains(t, loose[0].Message, "Gain")

	conns := findResults(report, "APP-004")
	require.Len(t, conns, 1)
	assert.True(t, conns[0].Passed)

	assert.False(t, report.AllPassed())
	assert.Equal(t, report.Passed+report.Failed, len(report.Results))
}

func TestRenderReport(t *testing.T) {
	report := Lint(libraryModel(), "motor_lib.mdl")
	out := Render(report)

	assert.Contains(t, out, "MDL Lint Report: motor_lib.mdl")
	assert.Contains(t, out, "Model Type:")
	assert.Contains(t, out, "[LIB-001]")
	assert.Contains(t, out, "Passed:")
}
