package diagram

import "strings"

// ExtractUpdateBody pulls the update block's lines for one entity out
// of raw OC source. The parser's reconstructed code has no comments,
// and the rebuild is driven by the "// Type: Name" markers, so this
// works on the original text.
func ExtractUpdateBody(rawSource, entityName, entityKind string) []string {
	var result []string

	foundEntity := false
	foundUpdate := false
	braceDepth := 0

	for _, line := range strings.Split(rawSource, "\n") {
		if !foundEntity {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, entityKind+" "+entityName+" {") ||
				strings.HasPrefix(trimmed, entityKind+" "+entityName+"{") ||
				trimmed == entityKind+" "+entityName {
				foundEntity = true
				braceDepth = braceDelta(line)
			}
			continue
		}

		if !foundUpdate {
			trimmed := strings.TrimSpace(line)
			braceDepth += braceDelta(line)
			if strings.HasPrefix(trimmed, "update {") || strings.HasPrefix(trimmed, "update{") || trimmed == "update" {
				foundUpdate = true
				braceDepth = 1
			}
			continue
		}

		braceDepth += braceDelta(line)
		if braceDepth <= 0 {
			break
		}
		result = append(result, line)
	}

	return result
}

func braceDelta(line string) int {
	delta := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

// extractOutputAssignments reads the "out.X = Y;" lines after the
// "// Outputs" marker.
func extractOutputAssignments(lines []string) map[string]string {
	result := map[string]string{}
	inOutputs := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "// Outputs" {
			inOutputs = true
			continue
		}
		if !inOutputs || !strings.HasPrefix(trimmed, "out.") {
			continue
		}

		dot := strings.IndexByte(trimmed, '.')
		eq := strings.IndexByte(trimmed, '=')
		if dot < 0 || eq < 0 || eq < dot {
			continue
		}
		name := strings.TrimSpace(trimmed[dot+1 : eq])
		src := strings.TrimSpace(trimmed[eq+1:])
		src = strings.TrimSuffix(src, ";")
		result[name] = strings.TrimSpace(src)
	}

	return result
}
