package diagram

import (
	"sort"
	"strconv"
	"strings"
)

// emitSystemXML renders a rebuilt system in the Simulink system XML
// part format.
func emitSystemXML(blocks []Block, conns []Connection, sidHighWatermark int) string {
	var out strings.Builder

	out.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	out.WriteString("<System>\n")
	out.WriteString("  <P Name=\"Location\">[-1, -8, 1921, 1033]</P>\n")
	out.WriteString("  <P Name=\"ZoomFactor\">100</P>\n")
	out.WriteString("  <P Name=\"SIDHighWatermark\">" + strconv.Itoa(sidHighWatermark) + "</P>\n")

	for i := range blocks {
		blk := &blocks[i]
		out.WriteString("  <Block BlockType=\"" + xmlEscape(blk.Type) +
			"\" Name=\"" + xmlEscape(blk.Name) +
			"\" SID=\"" + strconv.Itoa(blk.SID) + "\">\n")

		if blk.Type == "SubSystem" || blk.PortIn > 1 || blk.PortOut > 1 {
			out.WriteString("    <P Name=\"Ports\">[" + strconv.Itoa(blk.PortIn) +
				", " + strconv.Itoa(blk.PortOut) + "]</P>\n")
		}
		if len(blk.Position) == 4 {
			out.WriteString("    <P Name=\"Position\">[" +
				strconv.Itoa(blk.Position[0]) + ", " + strconv.Itoa(blk.Position[1]) + ", " +
				strconv.Itoa(blk.Position[2]) + ", " + strconv.Itoa(blk.Position[3]) + "]</P>\n")
		}
		out.WriteString("    <P Name=\"ZOrder\">" + strconv.Itoa(blk.SID) + "</P>\n")

		names := make([]string, 0, len(blk.Parameters))
		for name := range blk.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out.WriteString("    <P Name=\"" + xmlEscape(name) + "\">" +
				xmlEscape(blk.Parameters[name]) + "</P>\n")
		}

		if blk.SubsystemRef != "" {
			out.WriteString("    <System Ref=\"" + xmlEscape(blk.SubsystemRef) + "\"/>\n")
		}
		out.WriteString("  </Block>\n")
	}

	// Connections sharing a source port collapse into one line with
	// branches.
	type srcKey struct {
		sid  int
		port int
	}
	var order []srcKey
	grouped := map[srcKey][]Connection{}
	for _, c := range conns {
		key := srcKey{c.SrcSID, c.SrcPort}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], c)
	}

	zorder := 1
	for _, key := range order {
		group := grouped[key]
		out.WriteString("  <Line>\n")
		out.WriteString("    <P Name=\"ZOrder\">" + strconv.Itoa(zorder) + "</P>\n")
		zorder++
		out.WriteString("    <P Name=\"Src\">" + strconv.Itoa(key.sid) +
			"#out:" + strconv.Itoa(key.port) + "</P>\n")

		if len(group) == 1 {
			out.WriteString("    <P Name=\"Dst\">" + strconv.Itoa(group[0].DstSID) +
				"#in:" + strconv.Itoa(group[0].DstPort) + "</P>\n")
		} else {
			for _, c := range group {
				out.WriteString("    <Branch>\n")
				out.WriteString("      <P Name=\"ZOrder\">" + strconv.Itoa(zorder) + "</P>\n")
				zorder++
				out.WriteString("      <P Name=\"Dst\">" + strconv.Itoa(c.DstSID) +
					"#in:" + strconv.Itoa(c.DstPort) + "</P>\n")
				out.WriteString("    </Branch>\n")
			}
		}
		out.WriteString("  </Line>\n")
	}

	out.WriteString("</System>")
	return out.String()
}

func xmlEscape(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			out.WriteString("&amp;")
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		case '"':
			out.WriteString("&quot;")
		case '\'':
			out.WriteString("&apos;")
		case '\n':
			out.WriteString("&#xA;")
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func xmlDecode(s string) string {
	s = strings.ReplaceAll(s, "&#xA;", "\n")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&apos;", "'")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}
