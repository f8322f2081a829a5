// Package lint validates MDL models against the structural rules for
// element libraries and apps. Libraries hold masked, self-contained
// elements; apps wire library elements together and carry no logic of
// their own.
package lint

import (
	"sort"
	"strconv"
	"strings"

	"github.com/da0x/oc/mdl"
)

// Result is one rule evaluation.
type Result struct {
	Passed  bool
	Rule    string
	Message string
	Context string
}

// Report collects rule results for one model.
type Report struct {
	ModelName string
	ModelType string // "library" or "app"
	Results   []Result
	Passed    int
	Failed    int
}

func (r *Report) addPass(rule, message, context string) {
	r.Results = append(r.Results, Result{Passed: true, Rule: rule, Message: message, Context: context})
	r.Passed++
}

func (r *Report) addFail(rule, message, context string) {
	r.Results = append(r.Results, Result{Passed: false, Rule: rule, Message: message, Context: context})
	r.Failed++
}

func (r *Report) AllPassed() bool { return r.Failed == 0 }

// DetectModelType classifies a model as "library" or "app".
func DetectModelType(model *mdl.Model) string {
	if model.LibraryType == "BlockLibrary" {
		return "library"
	}
	return "app"
}

// sourceLibrary returns the library a reference block links to, or "".
func sourceLibrary(blk *mdl.Block) string {
	src, ok := blk.Param("SourceBlock")
	if !ok {
		return ""
	}
	if slash := strings.IndexByte(src, '/'); slash >= 0 {
		return src[:slash]
	}
	return ""
}

// Lint runs the rule set matching the model's type.
func Lint(model *mdl.Model, modelName string) *Report {
	report := &Report{
		ModelName: modelName,
		ModelType: DetectModelType(model),
	}

	if report.ModelType == "library" {
		checkLibraryNaming(model, report)
		checkLibraryNoExternalLinks(model, report)
		checkLibraryMasked(model, report)
		checkLibraryHelperSubsystems(model, report)
	} else {
		checkAppLibraryLinks(model, report)
		checkAppLinksEnforced(model, report)
		checkAppNoLooseLogic(model, report)
		checkAppConnections(model, report)
	}
	return report
}

// sortedSystemIDs keeps report ordering stable across runs.
func sortedSystemIDs(model *mdl.Model) []string {
	ids := make([]string, 0, len(model.Systems))
	for id := range model.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func systemDisplayName(sys *mdl.System, id string) string {
	if sys.Name != "" {
		return sys.Name
	}
	return id
}

// LIB-001: element names should represent their type.
func checkLibraryNaming(model *mdl.Model, report *Report) {
	const rule = "LIB-001"

	root := model.RootSystem()
	if root == nil {
		return
	}

	for i := range root.Blocks {
		blk := &root.Blocks[i]
		if !blk.IsSubsystem() {
			continue
		}
		if len(blk.Name) > 2 {
			report.addPass(rule, "Element has descriptive name", blk.Name)
		} else {
			report.addFail(rule, "Element has non-descriptive name", blk.Name)
		}
	}
}

// LIB-002: elements should not link to other element libraries.
// Built-in Simulink libraries are fine.
func checkLibraryNoExternalLinks(model *mdl.Model, report *Report) {
	const rule = "LIB-002"

	allowed := map[string]bool{
		"simulink":        true,
		"simulink_extras": true,
		"simscape":        true,
		"stateflow":       true,
	}

	for _, id := range sortedSystemIDs(model) {
		if id == "system_root" {
			continue
		}
		sys := model.Systems[id]

		linkedLib := ""
		for i := range sys.Blocks {
			lib := sourceLibrary(&sys.Blocks[i])
			if lib != "" && lib != model.Name && !allowed[lib] {
				linkedLib = lib
				break
			}
		}

		name := systemDisplayName(sys, id)
		if linkedLib == "" {
			report.addPass(rule, "No external element links", name)
		} else {
			report.addFail(rule, "Links to external library: "+linkedLib, name)
		}
	}
}

// LIB-003: elements should be masked with configuration parameters.
func checkLibraryMasked(model *mdl.Model, report *Report) {
	const rule = "LIB-003"

	root := model.RootSystem()
	if root == nil {
		return
	}

	for i := range root.Blocks {
		blk := &root.Blocks[i]
		if !blk.IsSubsystem() {
			continue
		}
		if n := len(blk.MaskParameters); n > 0 {
			report.addPass(rule, "Element is masked ("+strconv.Itoa(n)+" params)", blk.Name)
		} else {
			report.addFail(rule, "Element is not masked (no configuration parameters)", blk.Name)
		}
	}
}

// LIB-004: internal subsystems should be helpers, not full elements.
// A subsystem carrying more than 3 mask parameters looks like an
// element that should live at the library's top level.
func checkLibraryHelperSubsystems(model *mdl.Model, report *Report) {
	const rule = "LIB-004"

	for _, id := range sortedSystemIDs(model) {
		if id == "system_root" {
			continue
		}
		sys := model.Systems[id]
		name := systemDisplayName(sys, id)

		helperCount := 0
		problemSubsystem := ""
		for i := range sys.Blocks {
			blk := &sys.Blocks[i]
			if !blk.IsSubsystem() {
				continue
			}
			helperCount++
			if len(blk.MaskParameters) > 3 {
				problemSubsystem = blk.Name
			}
		}

		switch {
		case problemSubsystem != "":
			report.addFail(rule, "Contains element-like subsystem: "+problemSubsystem, name)
		case helperCount > 0:
			report.addPass(rule, "Has "+strconv.Itoa(helperCount)+" helper subsystem(s)", name)
		default:
			report.addPass(rule, "No subsystems (flat structure)", name)
		}
	}
}

// APP-001: apps should link elements from libraries.
func checkAppLibraryLinks(model *mdl.Model, report *Report) {
	const rule = "APP-001"

	root := model.RootSystem()
	if root == nil {
		report.addFail(rule, "No root system found", "")
		return
	}

	used := map[string]bool{}
	for i := range root.Blocks {
		if lib := sourceLibrary(&root.Blocks[i]); lib != "" {
			used[lib] = true
		}
	}

	if len(used) == 0 {
		report.addFail(rule, "No library links found - app should use element libraries", "")
		return
	}

	libs := make([]string, 0, len(used))
	for lib := range used {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	report.addPass(rule, "Uses element libraries: "+strings.Join(libs, ", "), "")
}

// APP-002: library links should be active, not disabled or broken.
func checkAppLinksEnforced(model *mdl.Model, report *Report) {
	const rule = "APP-002"

	root := model.RootSystem()
	if root == nil {
		return
	}

	for i := range root.Blocks {
		blk := &root.Blocks[i]
		lib := sourceLibrary(blk)
		if lib == "" {
			continue
		}
		status, _ := blk.Param("LinkStatus")
		if status == "inactive" || status == "none" {
			report.addFail(rule, "Link is broken/disabled", blk.Name+" -> "+lib)
		} else {
			report.addPass(rule, "Link is active", blk.Name+" -> "+lib)
		}
	}
}

// APP-003: apps carry wiring only; any computational block at the top
// level belongs in a library element instead.
func checkAppNoLooseLogic(model *mdl.Model, report *Report) {
	const rule = "APP-003"

	root := model.RootSystem()
	if root == nil {
		return
	}

	allowed := map[string]bool{
		"Inport": true, "Outport": true, "SubSystem": true,
		"From": true, "Goto": true, "Terminator": true,
		"Ground": true, "Reference": true,
	}

	foundLoose := false
	for i := range root.Blocks {
		blk := &root.Blocks[i]
		if sourceLibrary(blk) != "" {
			continue
		}
		if allowed[blk.Type] {
			continue
		}
		report.addFail(rule, "Loose logic block found: "+blk.Type, blk.Name)
		foundLoose = true
	}

	if !foundLoose {
		report.addPass(rule, "No loose logic blocks at top level", "")
	}
}

// APP-004: apps should actually connect their elements.
func checkAppConnections(model *mdl.Model, report *Report) {
	const rule = "APP-004"

	root := model.RootSystem()
	if root == nil {
		return
	}

	if n := len(root.Connections); n > 0 {
		report.addPass(rule, "Has "+strconv.Itoa(n)+" connection(s)", "")
	} else {
		report.addFail(rule, "No connections found between elements", "")
	}
}
