package diagram

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/da0x/oc/logger"
	"github.com/da0x/oc/oc"
)

// Builder rebuilds block diagrams from OC elements. Components are
// looked up by name when an update body calls into one.
type Builder struct {
	components []oc.Component
	log        *zap.SugaredLogger
}

func NewBuilder(components []oc.Component) *Builder {
	return &Builder{
		components: components,
		log:        logger.Logger.Named("diagram"),
	}
}

// GenerateElement rebuilds the system for one element. sysCounter
// allocates system ids for component subsystems across the whole
// model.
func (b *Builder) GenerateElement(elem *oc.Element, rawSource string, sysCounter *int) Generated {
	return b.generate(elem.Name, elem.Sections, "element", rawSource, sysCounter)
}

// GenerateComponent rebuilds the system for one component definition.
func (b *Builder) GenerateComponent(comp *oc.Component, rawSource string, sysCounter *int) Generated {
	return b.generate(comp.Name, comp.Sections, "component", rawSource, sysCounter)
}

func (b *Builder) generate(name string, sections []oc.Section, kind, rawSource string, sysCounter *int) Generated {
	var result Generated

	bodyLines := ExtractUpdateBody(rawSource, name, kind)

	bd := &build{
		b:          b,
		varMap:     map[string]portRef{},
		sid:        1,
		sysCounter: sysCounter,
		rawSource:  rawSource,
		result:     &result,
	}

	// Phase 1: Inports from the input section.
	for _, sec := range sections {
		if sec.Kind != "input" {
			continue
		}
		for portNum, v := range sec.Variables {
			blk := Block{SID: bd.sid, Type: "Inport", Name: v.Name, PortOut: 1}
			if portNum > 0 {
				blk.setParam("Port", strconv.Itoa(portNum+1))
			}
			bd.varMap["in."+v.Name] = portRef{sid: bd.sid, port: 1}
			bd.blocks = append(bd.blocks, blk)
			bd.sid++
		}
	}

	// Phase 2: functional blocks from the update body.
	bd.parseUpdateBody(bodyLines)

	// Phase 3: Outports, wired from the "// Outputs" assignments.
	outputAssignments := extractOutputAssignments(bodyLines)
	outPortNum := 1
	for _, sec := range sections {
		if sec.Kind != "output" {
			continue
		}
		for _, v := range sec.Variables {
			blk := Block{SID: bd.sid, Type: "Outport", Name: v.Name, PortIn: 1}
			if outPortNum > 1 {
				blk.setParam("Port", strconv.Itoa(outPortNum))
			}
			if src, ok := outputAssignments[v.Name]; ok {
				if ref, ok := bd.varMap[src]; ok {
					bd.conns = append(bd.conns, Connection{
						SrcSID: ref.sid, SrcPort: ref.port,
						DstSID: bd.sid, DstPort: 1,
					})
				}
			}
			bd.blocks = append(bd.blocks, blk)
			bd.sid++
			outPortNum++
		}
	}

	autoLayout(bd.blocks, bd.conns)

	result.SIDHighWatermark = bd.sid - 1
	result.SystemXML = emitSystemXML(bd.blocks, bd.conns, result.SIDHighWatermark)
	return result
}

// build carries the mutable state of one system rebuild.
type build struct {
	b          *Builder
	blocks     []Block
	conns      []Connection
	varMap     map[string]portRef
	sid        int
	sysCounter *int
	rawSource  string
	result     *Generated
}

type prescanState struct {
	stateKey     string // "state.X_state" or "state.X"
	isIntegrator bool
	reservedSID  int
}

type prescanTF struct {
	inputVar    string
	numerator   string
	denominator string
}

func (bd *build) parseUpdateBody(lines []string) {
	stateVars, tfData := bd.prescan(lines)

	pendingType := ""
	pendingName := ""

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "//") {
			comment := strings.TrimSpace(trimmed[2:])

			// Secondary TransferFcn comment carries the order, not a block.
			if strings.HasPrefix(comment, "TransferFcn:") && pendingType == "TransferFcn" {
				continue
			}
			if comment == "Outputs" {
				break
			}

			if colon := strings.IndexByte(comment, ':'); colon >= 0 {
				pendingType = strings.TrimSpace(comment[:colon])
				pendingName = xmlDecode(strings.TrimSpace(comment[colon+1:]))

				// Demux emits no statement; the comment is the whole block.
				if pendingType == "Demux" {
					blk := Block{SID: bd.sid, Type: "Demux", Name: pendingName, PortIn: 1, PortOut: 2}
					blk.setParam("Outputs", "2")
					bd.blocks = append(bd.blocks, blk)
					bd.sid++
					pendingType, pendingName = "", ""
				}
			}
			continue
		}

		// TransferFcn scoped block internals were consumed by the
		// prescan; skip them here.
		if trimmed == "{" || trimmed == "}" {
			continue
		}
		if strings.HasPrefix(trimmed, "float ") {
			continue
		}
		if strings.HasPrefix(trimmed, "state.") && strings.Contains(trimmed, "_tf_") {
			continue
		}

		if strings.HasPrefix(trimmed, "auto ") {
			eq := strings.IndexByte(trimmed, '=')
			if eq < 0 {
				continue
			}
			varName := strings.TrimSpace(trimmed[5:eq])
			expr := strings.TrimSpace(trimmed[eq+1:])
			expr = strings.TrimSpace(strings.TrimSuffix(expr, ";"))

			if pendingType == "Component call" {
				// Output extraction lines were consumed by the call parser.
				continue
			}
			if pendingType == "" {
				continue
			}

			if pendingType == "TransferFcn" {
				bd.addTransferFcn(pendingName, varName, expr, tfData)
				pendingType, pendingName = "", ""
				continue
			}

			blk := Block{SID: bd.sid, Type: pendingType, Name: pendingName}
			bd.sid++
			bd.applyShape(&blk, Classify(pendingType, pendingName, expr, bd.isVariable))
			bd.blocks = append(bd.blocks, blk)
			bd.varMap[varName] = portRef{sid: blk.SID, port: 1}

			pendingType, pendingName = "", ""
			continue
		}

		// Integrator update: state.X += input * cfg.dt;
		if strings.HasPrefix(trimmed, "state.") && strings.Contains(trimmed, "+=") &&
			strings.Contains(trimmed, "* cfg.dt") {
			if pendingType == "Integrator" {
				bd.addIntegrator(pendingName, trimmed, stateVars)
				pendingType, pendingName = "", ""
			}
			continue
		}

		// UnitDelay update: state.X = input;
		if strings.HasPrefix(trimmed, "state.") && strings.Contains(trimmed, "= ") &&
			!strings.Contains(trimmed, "+=") && !strings.Contains(trimmed, "_tf_") {
			if pendingType == "UnitDelay" {
				bd.addUnitDelay(pendingName, trimmed, stateVars)
				pendingType, pendingName = "", ""
			}
			continue
		}

		if pendingType == "Component call" {
			i = bd.addComponentCall(lines, i, pendingName)
			pendingType, pendingName = "", ""
			continue
		}
	}
}

// prescan registers state variables as forward references (their
// outputs hold last step's value, so they may be read before their
// update line appears) and recovers TransferFcn coefficients from the
// emitted bilinear-transform scope.
func (bd *build) prescan(lines []string) ([]prescanState, map[string]prescanTF) {
	var stateVars []prescanState
	tfData := map[string]prescanTF{}

	scanType := ""
	scanName := ""
	inTFScope := false
	tfBraceDepth := 0
	tfName := ""
	tfUN := ""
	var tfB0, tfA0 float64

	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}

		if strings.HasPrefix(t, "//") {
			comment := strings.TrimSpace(t[2:])
			if comment == "Outputs" {
				break
			}
			if strings.HasPrefix(comment, "TransferFcn:") && scanType == "TransferFcn" {
				continue
			}
			if colon := strings.IndexByte(comment, ':'); colon >= 0 {
				scanType = strings.TrimSpace(comment[:colon])
				scanName = xmlDecode(strings.TrimSpace(comment[colon+1:]))
			}
			continue
		}

		if inTFScope {
			tfBraceDepth += braceDelta(t)

			if strings.HasPrefix(t, "float u_n = ") {
				val := strings.TrimSpace(t[strings.IndexByte(t, '=')+1:])
				tfUN = strings.TrimSpace(strings.TrimSuffix(val, ";"))
			}
			if strings.HasPrefix(t, "float b0_d") {
				tfB0 = extractKCoefficient(t)
			}
			if strings.HasPrefix(t, "float a0_d") {
				tfA0 = extractKCoefficient(t)
			}

			if tfBraceDepth <= 0 {
				// The generator emits "COEFF * k + CONST" with
				// num_s = b0 coefficient, den_s = a0 coefficient.
				ptf := prescanTF{inputVar: tfUN, denominator: "[" + formatCoeff(tfA0) + " 1]"}
				if tfB0 != 0 {
					ptf.numerator = "[" + formatCoeff(tfB0) + " 1]"
				} else {
					ptf.numerator = "[1]"
				}
				tfData[tfName] = ptf
				inTFScope = false
				scanType, scanName = "", ""
			}
			continue
		}

		if t == "{" && scanType == "TransferFcn" {
			inTFScope = true
			tfBraceDepth = 1
			tfName = scanName
			tfUN = ""
			tfB0, tfA0 = 0, 0
			continue
		}

		if strings.HasPrefix(t, "state.") && strings.Contains(t, "+=") &&
			strings.Contains(t, "* cfg.dt") && scanType == "Integrator" {
			stateVar := stateVarName(t, "+=")
			stateVars = append(stateVars, bd.reserveState(stateVar, true))
			scanType = ""
		}

		if strings.HasPrefix(t, "state.") && strings.Contains(t, "= ") &&
			!strings.Contains(t, "+=") && !strings.Contains(t, "_tf_") &&
			scanType == "UnitDelay" {
			stateVar := stateVarName(t, "=")
			stateVars = append(stateVars, bd.reserveState(stateVar, false))
			scanType = ""
		}
	}

	return stateVars, tfData
}

func (bd *build) reserveState(stateVar string, isIntegrator bool) prescanState {
	sv := prescanState{
		stateKey:     "state." + stateVar,
		isIntegrator: isIntegrator,
		reservedSID:  bd.sid,
	}
	bd.varMap[sv.stateKey] = portRef{sid: bd.sid, port: 1}
	bd.sid++
	return sv
}

// stateVarName pulls X from "state.X <op> ...".
func stateVarName(line, op string) string {
	dot := strings.IndexByte(line, '.')
	at := strings.Index(line, op)
	return strings.TrimSpace(line[dot+1 : at])
}

// extractKCoefficient parses "float b0_d = COEFF * k + CONST;" and
// returns COEFF.
func extractKCoefficient(line string) float64 {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return 0
	}
	val := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line[eq+1:]), ";"))
	starK := strings.Index(val, " * k")
	if starK < 0 {
		return 0
	}
	coeff, err := strconv.ParseFloat(strings.TrimSpace(val[:starK]), 64)
	if err != nil {
		return 0
	}
	return coeff
}

func formatCoeff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (bd *build) addTransferFcn(name, varName, expr string, tfData map[string]prescanTF) {
	blk := Block{SID: bd.sid, Type: "TransferFcn", Name: name, PortIn: 1, PortOut: 1}
	bd.sid++

	if ptf, ok := tfData[name]; ok {
		bd.resolveInput(ptf.inputVar, blk.SID, 1)
		blk.setParam("Numerator", ptf.numerator)
		blk.setParam("Denominator", ptf.denominator)
	} else {
		bd.resolveInput(expr, blk.SID, 1)
	}

	bd.blocks = append(bd.blocks, blk)
	bd.varMap[varName] = portRef{sid: blk.SID, port: 1}
}

func (bd *build) addIntegrator(name, line string, stateVars []prescanState) {
	stateVar := stateVarName(line, "+=")

	sid := 0
	for _, sv := range stateVars {
		if sv.stateKey == "state."+stateVar && sv.isIntegrator {
			sid = sv.reservedSID
			break
		}
	}
	if sid == 0 {
		sid = bd.sid
		bd.sid++
	}

	blk := Block{SID: sid, Type: "Integrator", Name: name, PortIn: 1, PortOut: 1}

	inputExpr := line[strings.Index(line, "+=")+2:]
	if dt := strings.Index(inputExpr, "* cfg.dt"); dt >= 0 {
		inputExpr = inputExpr[:dt]
	}
	bd.resolveInput(strings.TrimSpace(inputExpr), blk.SID, 1)
	bd.blocks = append(bd.blocks, blk)
}

func (bd *build) addUnitDelay(name, line string, stateVars []prescanState) {
	stateVar := stateVarName(line, "=")

	expr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line[strings.IndexByte(line, '=')+1:]), ";"))
	if at := strings.Index(expr, "//"); at >= 0 {
		expr = strings.TrimSpace(expr[:at])
	}
	expr = strings.TrimSuffix(expr, ";")

	sid := 0
	for _, sv := range stateVars {
		if sv.stateKey == "state."+stateVar && !sv.isIntegrator {
			sid = sv.reservedSID
			break
		}
	}
	if sid == 0 {
		sid = bd.sid
		bd.sid++
	}

	blk := Block{SID: sid, Type: "UnitDelay", Name: name, PortIn: 1, PortOut: 1}
	bd.resolveInput(expr, blk.SID, 1)
	bd.blocks = append(bd.blocks, blk)
	bd.varMap["state."+stateVar] = portRef{sid: blk.SID, port: 1}
}

// addComponentCall parses the multi-line component call pattern:
//
//	Type_input Name_in{.field = val, ...};
//	Type_output Name_out{};
//	Type_update(Name_in, Type_config{...}, state.Name, Name_out);
//	auto Name_outN = Name_out.field;
//
// It returns the index of the last consumed line.
func (bd *build) addComponentCall(lines []string, i int, displayName string) int {
	inputLine := strings.TrimSpace(lines[i])

	underscoreInput := strings.Index(inputLine, "_input ")
	if underscoreInput < 0 {
		return i
	}
	compType := inputLine[:underscoreInput]

	var compDef *oc.Component
	for j := range bd.b.components {
		if bd.b.components[j].Name == compType {
			compDef = &bd.b.components[j]
			break
		}
	}

	inCount, outCount := 0, 0
	if compDef != nil {
		if sec := compDef.Section("input"); sec != nil {
			inCount = len(sec.Variables)
		}
		if sec := compDef.Section("output"); sec != nil {
			outCount = len(sec.Variables)
		}
	}

	// Input assignments: {.field = value, ...}
	var inputValues []string
	if open := strings.IndexByte(inputLine, '{'); open >= 0 {
		if close := strings.LastIndexByte(inputLine, '}'); close > open {
			fields := inputLine[open+1 : close]
			for pos := 0; pos < len(fields); {
				dot := strings.IndexByte(fields[pos:], '.')
				if dot < 0 {
					break
				}
				dot += pos
				eq := strings.IndexByte(fields[dot:], '=')
				if eq < 0 {
					break
				}
				eq += dot
				comma := strings.IndexByte(fields[eq:], ',')
				if comma < 0 {
					comma = len(fields)
				} else {
					comma += eq
				}
				inputValues = append(inputValues, strings.TrimSpace(fields[eq+1:comma]))
				pos = comma + 1
			}
		}
	}

	blk := Block{
		SID:     bd.sid,
		Type:    "SubSystem",
		Name:    displayName,
		PortIn:  max(inCount, len(inputValues)),
		PortOut: max(outCount, 1),
	}
	bd.sid++

	if compDef != nil {
		*bd.sysCounter++
		childSysID := *bd.sysCounter
		blk.SubsystemRef = systemID(childSysID)

		child := bd.b.GenerateComponent(compDef, bd.rawSource, bd.sysCounter)
		bd.result.ChildSystemXMLs = append(bd.result.ChildSystemXMLs, child.SystemXML)
		bd.result.ChildSystemIDs = append(bd.result.ChildSystemIDs, strconv.Itoa(childSysID))
		bd.result.ChildSystemXMLs = append(bd.result.ChildSystemXMLs, child.ChildSystemXMLs...)
		bd.result.ChildSystemIDs = append(bd.result.ChildSystemIDs, child.ChildSystemIDs...)
	} else {
		bd.b.log.Warnw("Component definition not found",
			"component", compType,
			"call", displayName)
	}

	for p, val := range inputValues {
		bd.resolveInput(val, blk.SID, p+1)
	}
	bd.blocks = append(bd.blocks, blk)

	// Skip the output struct and update call lines, then consume the
	// output extractions.
	i += 2
	outPort := 1
	for i+1 < len(lines) {
		next := strings.TrimSpace(lines[i+1])
		if strings.HasPrefix(next, "auto ") && strings.Contains(next, compType+"_out") {
			if eq := strings.IndexByte(next, '='); eq >= 0 {
				outVar := strings.TrimSpace(next[5:eq])
				bd.varMap[outVar] = portRef{sid: blk.SID, port: outPort}
				outPort++
			}
			i++
		} else {
			break
		}
	}
	return i
}

// resolveInput connects an expression back to the block output that
// produced it. Literals, missing-input markers, and cfg references
// never connect.
func (bd *build) resolveInput(expr string, dstSID, dstPort int) {
	clean := stripTrailingComment(expr)

	if clean == "" {
		return
	}
	if strings.Contains(clean, "/* missing input") {
		return
	}
	if clean == "0.0f" || clean == "0" || clean == "1.0f" || clean == "1" {
		return
	}
	if strings.Contains(clean, "std::numeric_limits") {
		return
	}

	connect := func(ref portRef) {
		bd.conns = append(bd.conns, Connection{
			SrcSID: ref.sid, SrcPort: ref.port,
			DstSID: dstSID, DstPort: dstPort,
		})
	}

	if ref, ok := bd.varMap[clean]; ok {
		connect(ref)
		return
	}

	if !strings.HasPrefix(clean, "state.") {
		if ref, ok := bd.varMap["state."+clean+"_state"]; ok {
			connect(ref)
			return
		}
	} else {
		if ref, ok := bd.varMap[strings.TrimPrefix(clean, "state.")]; ok {
			connect(ref)
			return
		}
	}

	if strings.HasPrefix(clean, "cfg.") {
		return
	}

	bd.b.log.Debugw("Unresolved input expression", "expr", clean)
}

func (bd *build) isVariable(name string) bool {
	if _, ok := bd.varMap[name]; ok {
		return true
	}
	if _, ok := bd.varMap["in."+name]; ok {
		return true
	}
	if _, ok := bd.varMap["state."+name+"_state"]; ok {
		return true
	}
	if name == "" {
		return false
	}
	c := name[0]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return false
	}
	return !strings.ContainsAny(name, "*+(")
}

func (bd *build) applyShape(blk *Block, shape Shape) {
	switch s := shape.(type) {
	case GainShape:
		blk.PortIn, blk.PortOut = 1, 1
		bd.resolveInput(s.Input, blk.SID, 1)
		blk.setParam("Gain", cleanValue(s.Factor))

	case SumShape:
		blk.PortIn, blk.PortOut = len(s.Operands), 1
		blk.setParam("Inputs", "|"+s.Signs)
		for p, op := range s.Operands {
			bd.resolveInput(op, blk.SID, p+1)
		}

	case ProductShape:
		blk.PortOut = 1
		if s.Division {
			blk.PortIn = 2
			blk.setParam("Inputs", "*/")
		} else {
			blk.PortIn = len(s.Operands)
			blk.setParam("Inputs", strings.Repeat("*", blk.PortIn))
		}
		for p, op := range s.Operands {
			bd.resolveInput(op, blk.SID, p+1)
		}

	case ConstantShape:
		blk.PortIn, blk.PortOut = 0, 1
		blk.setParam("Value", s.Value)

	case SaturateShape:
		blk.PortIn, blk.PortOut = 1, 1
		bd.resolveInput(s.Input, blk.SID, 1)
		blk.setParam("LowerLimit", s.Lower)
		blk.setParam("UpperLimit", s.Upper)

	case MinMaxShape:
		blk.PortOut = 1
		blk.setParam("Function", s.Function)
		if len(s.Args) > 0 {
			blk.PortIn = len(s.Args)
			for p, arg := range s.Args {
				bd.resolveInput(arg, blk.SID, p+1)
			}
		} else {
			blk.PortIn = 2
		}

	case SwitchShape:
		blk.PortIn, blk.PortOut = 3, 1
		blk.setParam("Criteria", "u2 > Threshold")
		blk.setParam("Threshold", s.Threshold)
		bd.resolveInput(s.TrueValue, blk.SID, 1)
		bd.resolveInput(s.Condition, blk.SID, 2)
		bd.resolveInput(s.FalseValue, blk.SID, 3)

	case RelationalShape:
		blk.PortIn, blk.PortOut = 2, 1
		blk.setParam("Operator", s.Operator)
		bd.resolveInput(s.Left, blk.SID, 1)
		bd.resolveInput(s.Right, blk.SID, 2)

	case LogicShape:
		blk.PortOut = 1
		blk.setParam("Operator", s.Operator)
		blk.PortIn = len(s.Operands)
		if s.Operator != "NOT" {
			blk.setParam("Ports", "["+strconv.Itoa(len(s.Operands))+", 1]")
		}
		for p, op := range s.Operands {
			bd.resolveInput(op, blk.SID, p+1)
		}

	case AbsShape:
		blk.PortIn, blk.PortOut = 1, 1
		bd.resolveInput(s.Input, blk.SID, 1)

	case TrigShape:
		blk.PortIn, blk.PortOut = 1, 1
		if s.Function == "atan2" {
			blk.PortIn = 2
		}
		blk.setParam("Operator", s.Function)
		for p, arg := range s.Args {
			if p >= blk.PortIn {
				break
			}
			bd.resolveInput(arg, blk.SID, p+1)
		}

	case MathShape:
		blk.PortIn, blk.PortOut = 1, 1
		blk.setParam("Operator", s.Function)
		bd.resolveInput(s.Input, blk.SID, 1)

	case ReferenceShape:
		blk.PortIn, blk.PortOut = 1, 1
		blk.setParam("SourceType", "Compare To Constant")
		if s.Input != "" && s.Input != "0.0f /* missing input 1 */" {
			bd.resolveInput(s.Input, blk.SID, 1)
		}

	case PassthroughShape:
		blk.PortIn, blk.PortOut = 1, 1
		bd.resolveInput(s.Input, blk.SID, 1)
	}
}
