// Package schema builds interface schema documents for block diagram
// systems: the signal groups (inputs, outputs, state, config) plus a
// function entry per nested subsystem.
package schema

import (
	"sort"
	"strconv"
	"strings"

	"github.com/da0x/oc/codegen"
	"github.com/da0x/oc/mdl"
)

// Signal is one named signal in a schema group.
type Signal struct {
	Name        string
	Description string
	Type        string
	ArraySize   int
	Default     string
	Units       string
}

// Function describes the interface of a nested subsystem.
type Function struct {
	Name    string
	Inputs  []Signal
	Outputs []Signal
	State   []Signal
	Config  []Signal
}

// ElementSchema is the full interface description of one element.
type ElementSchema struct {
	Name          string
	Description   string
	ParentLibrary string

	Inputs    []Signal
	Config    []Signal
	Outputs   []Signal
	State     []Signal
	Functions []Function
}

// Converter extracts schemas from parsed models.
type Converter struct {
	model    *mdl.Model
	dt       float64
	maxDepth int
}

// Option configures a Converter.
type Option func(*Converter)

// WithDt sets the default sample time carried by function config groups.
func WithDt(dt float64) Option {
	return func(c *Converter) { c.dt = dt }
}

// WithMaxDepth sets the subsystem walk ceiling.
func WithMaxDepth(depth int) Option {
	return func(c *Converter) { c.maxDepth = depth }
}

func NewConverter(model *mdl.Model, opts ...Option) *Converter {
	c := &Converter{model: model, dt: 0.001, maxDepth: 10}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert builds the schema for one system. Inports are ordered by
// their Port parameter; a "name[N]" port becomes an array signal.
func (c *Converter) Convert(sys *mdl.System, libraryName string) *ElementSchema {
	name := sys.Name
	if name == "" {
		name = sys.ID
	}

	schema := &ElementSchema{
		Name:          codegen.SanitizeName(name),
		ParentLibrary: libraryName,
		Description:   "Imported from Simulink subsystem " + sys.ID,
	}

	inports := sys.Inports()
	sort.SliceStable(inports, func(i, j int) bool {
		return portIndex(inports[i]) < portIndex(inports[j])
	})
	for _, inp := range inports {
		schema.Inputs = append(schema.Inputs, portSignal(inp.Name, "Input port "))
	}
	for _, outp := range sys.Outports() {
		schema.Outputs = append(schema.Outputs, portSignal(outp.Name, "Output port "))
	}

	seen := map[string]bool{}
	c.extractConfig(sys, schema, seen, 0)

	c.collectFunctions(sys, &schema.Functions, map[string]bool{})

	return schema
}

func portIndex(blk *mdl.Block) int {
	if v, ok := blk.Param("Port"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 1
}

// portSignal turns a port block name into a signal, splitting off a
// trailing "[N]" array suffix.
func portSignal(name, descPrefix string) Signal {
	sig := Signal{
		Name:        codegen.SanitizeName(name),
		Description: descPrefix + name,
		Type:        "float",
		Default:     "0.0f",
	}
	if open := strings.IndexByte(name, '['); open >= 0 {
		if close := strings.IndexByte(name[open:], ']'); close > 0 {
			if n, err := strconv.Atoi(name[open+1 : open+close]); err == nil {
				sig.ArraySize = n
				sig.Name = codegen.SanitizeName(name[:open])
			}
		}
	}
	return sig
}

// extractConfig walks the system tree collecting config signals from
// mask parameters and block parameter expressions, and state signals
// from state-holding blocks. Mask parameters win on name collisions
// because they carry prompts and defaults.
func (c *Converter) extractConfig(sys *mdl.System, schema *ElementSchema, seen map[string]bool, depth int) {
	if depth > c.maxDepth {
		return
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]

		for _, mp := range blk.MaskParameters {
			if seen[mp.Name] {
				continue
			}
			seen[mp.Name] = true

			desc := mp.Prompt
			if desc == "" {
				desc = mp.Name
			}
			def := mp.Value
			if def == "" {
				def = "0.0f"
			}
			schema.Config = append(schema.Config, Signal{
				Name:        mp.Name,
				Description: desc,
				Type:        "float",
				Default:     def,
			})
		}

		c.extractBlockParams(blk, schema, seen)

		switch blk.Type {
		case "UnitDelay", "Integrator", "DiscreteIntegrator", "Memory":
			stateName := codegen.SanitizeName(blk.Name) + "_state"
			if !seen[stateName] {
				seen[stateName] = true
				schema.State = append(schema.State, Signal{
					Name:        stateName,
					Description: "State for " + blk.Name,
					Type:        "float",
					Default:     "0.0f",
				})
			}
		}

		if blk.IsSubsystem() && blk.SubsystemRef != "" && c.model != nil {
			if subsys := c.model.System(blk.SubsystemRef); subsys != nil {
				c.extractConfig(subsys, schema, seen, depth+1)
			}
		}
	}
}

var blockParamNames = []string{
	"Gain", "UpperLimit", "LowerLimit", "Value", "InitialCondition",
	"SampleTime", "Threshold", "OnSwitchValue", "OffSwitchValue",
}

func (c *Converter) extractBlockParams(blk *mdl.Block, schema *ElementSchema, seen map[string]bool) {
	addVars := func(expr, origin string) {
		for _, v := range codegen.WorkspaceVars(expr) {
			if seen[v] {
				continue
			}
			seen[v] = true
			schema.Config = append(schema.Config, Signal{
				Name:        v,
				Description: "Workspace variable used in " + origin,
				Type:        "float",
				Default:     "0.0f",
			})
		}
	}

	for _, pname := range blockParamNames {
		if val, ok := blk.Param(pname); ok && val != "" {
			addVars(val, blk.Name+"."+pname)
		}
	}
	for _, mp := range blk.MaskParameters {
		addVars(mp.Value, blk.Name+"."+mp.Name)
	}
}

// collectFunctions emits one function entry per nested subsystem,
// children before parents.
func (c *Converter) collectFunctions(sys *mdl.System, out *[]Function, visited map[string]bool) {
	if c.model == nil {
		return
	}

	for _, blk := range sys.Subsystems() {
		if blk.SubsystemRef == "" || visited[blk.SubsystemRef] {
			continue
		}
		subsys := c.model.System(blk.SubsystemRef)
		if subsys == nil {
			continue
		}
		visited[blk.SubsystemRef] = true

		c.collectFunctions(subsys, out, visited)

		parts := codegen.New(c.model, codegen.WithMaxDepth(c.maxDepth)).GenerateParts(subsys, "")

		fn := Function{Name: codegen.SanitizeName(blk.Name)}
		for _, p := range parts.Inports {
			fn.Inputs = append(fn.Inputs, Signal{Name: p.Name, Type: p.Type, Default: "0.0f"})
		}
		for _, p := range parts.Outports {
			fn.Outputs = append(fn.Outputs, Signal{Name: p.Name, Type: p.Type, Default: "0.0f"})
		}
		for _, sv := range parts.StateVars {
			fn.State = append(fn.State, Signal{
				Name:        sv.Name,
				Description: sv.Comment,
				Type:        "float",
				Default:     "0.0f",
			})
		}
		for _, v := range parts.ConfigVars {
			fn.Config = append(fn.Config, Signal{Name: v, Type: "float", Default: "0.0f"})
		}
		fn.Config = append(fn.Config, Signal{
			Name:    "dt",
			Type:    "float",
			Default: strconv.FormatFloat(c.dt, 'g', -1, 64),
		})

		*out = append(*out, fn)
	}
}
