package mdl

import (
	"path"
	"sort"
	"strings"

	"github.com/da0x/oc/errors"
)

// PartMarker frames each part inside the OPC text package.
const PartMarker = "__MWOPC_PART_BEGIN__ "

// Part is one file inside the OPC container.
type Part struct {
	Path    string
	Base64  bool
	Content string
}

// SplitParts splits OPC text package data into its parts. Anything
// before the first marker (the package header) is ignored.
func SplitParts(data string) ([]Part, error) {
	chunks := strings.Split(data, PartMarker)
	if len(chunks) < 2 {
		return nil, errors.Wrap(errors.ErrParse, "no OPC part markers found")
	}

	parts := make([]Part, 0, len(chunks)-1)
	for _, chunk := range chunks[1:] {
		nl := strings.IndexByte(chunk, '\n')
		if nl < 0 {
			continue
		}
		header := strings.TrimRight(chunk[:nl], "\r")

		part := Part{Path: header}
		if strings.HasSuffix(header, " BASE64") {
			part.Path = strings.TrimSuffix(header, " BASE64")
			part.Base64 = true
		}
		// The writer re-adds the trailing newline (and the blank
		// separator line for XML parts) on output.
		part.Content = strings.TrimRight(chunk[nl+1:], "\n")
		parts = append(parts, part)
	}

	return parts, nil
}

// PartMap indexes parts by path, preserving order separately.
func PartMap(parts []Part) (order []string, byPath map[string]Part) {
	byPath = make(map[string]Part, len(parts))
	for _, p := range parts {
		order = append(order, p.Path)
		byPath[p.Path] = p
	}
	return order, byPath
}

// SystemParts returns the paths of system XML parts, sorted, excluding
// relationship files.
func SystemParts(parts []Part) []string {
	var out []string
	for _, p := range parts {
		if !strings.HasPrefix(p.Path, "/simulink/systems/system_") {
			continue
		}
		if strings.HasSuffix(p.Path, ".rels") {
			continue
		}
		if path.Ext(p.Path) != ".xml" {
			continue
		}
		out = append(out, p.Path)
	}
	sort.Strings(out)
	return out
}

// SystemID extracts "system_root" from "/simulink/systems/system_root.xml".
func SystemID(partPath string) string {
	base := path.Base(partPath)
	return strings.TrimSuffix(base, ".xml")
}
