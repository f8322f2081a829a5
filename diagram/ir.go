// Package diagram rebuilds block diagrams from OC element text: the
// reverse of code generation. Update bodies are scanned for the block
// markers the generator emits, expressions are classified back into
// block parameters, and the result is laid out and emitted as system
// XML.
package diagram

import "strconv"

// Block is one reconstructed diagram block.
type Block struct {
	SID          int
	Type         string
	Name         string
	PortIn       int
	PortOut      int
	Parameters   map[string]string
	SubsystemRef string
	Position     []int
}

func (b *Block) setParam(name, value string) {
	if b.Parameters == nil {
		b.Parameters = map[string]string{}
	}
	b.Parameters[name] = value
}

// Connection links a source block port to a destination block port.
type Connection struct {
	SrcSID  int
	SrcPort int
	DstSID  int
	DstPort int
}

// Generated is the output of rebuilding one element or component:
// its own system XML plus any child systems created for component
// calls.
type Generated struct {
	SystemXML        string
	ChildSystemXMLs  []string
	ChildSystemIDs   []string
	SIDHighWatermark int
}

// portRef locates a block output: the value a generated variable held.
type portRef struct {
	sid  int
	port int
}

func systemID(n int) string { return "system_" + strconv.Itoa(n) }
