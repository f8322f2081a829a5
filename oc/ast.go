package oc

// VarDecl is one declaration inside a section:
// "float kp = 1.0;" or "pid_controller ctrl;".
type VarDecl struct {
	Type         string
	Name         string
	DefaultValue string
	Comment      string
}

// Section groups variable declarations by kind: input, output, state,
// config, or memory.
type Section struct {
	Kind      string
	Variables []VarDecl
}

// UpdateBody holds the raw code of an update/operation block,
// reconstructed from tokens. Comments are not preserved here.
type UpdateBody struct {
	RawCode string
}

// Component is a reusable block with its own sections and update body.
type Component struct {
	Name     string
	Sections []Section
	Update   UpdateBody
}

// Element is a top-level control element.
type Element struct {
	Name      string
	Frequency string
	Sections  []Section
	Update    UpdateBody
}

// Namespace groups elements and components.
type Namespace struct {
	Name       string
	Elements   []Element
	Components []Component
}

// File is a parsed OC source file.
type File struct {
	Namespaces []Namespace
}

// FindSection returns the first section of the given kind, or nil.
func findSection(sections []Section, kind string) *Section {
	for i := range sections {
		if sections[i].Kind == kind {
			return &sections[i]
		}
	}
	return nil
}

// Section returns the element's first section of the given kind, or nil.
func (e *Element) Section(kind string) *Section { return findSection(e.Sections, kind) }

// Section returns the component's first section of the given kind, or nil.
func (c *Component) Section(kind string) *Section { return findSection(c.Sections, kind) }

// FindComponent looks a component up by name across the file.
func (f *File) FindComponent(name string) *Component {
	for i := range f.Namespaces {
		for j := range f.Namespaces[i].Components {
			if f.Namespaces[i].Components[j].Name == name {
				return &f.Namespaces[i].Components[j]
			}
		}
	}
	return nil
}
