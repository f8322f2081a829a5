package codegen

import (
	"sort"
	"strings"
	"unicode"
)

// SanitizeName turns a block or port name into a valid identifier.
// Alphanumerics and underscores are kept, spaces and dashes become
// underscores, everything else is dropped. A leading digit gets an
// underscore prefix.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	result := b.String()
	if result != "" && unicode.IsDigit(rune(result[0])) {
		result = "_" + result
	}
	return result
}

// matlabBuiltins are identifiers in parameter expressions that are
// functions or constants, not workspace variables.
var matlabBuiltins = map[string]bool{
	"sqrt": true, "exp": true, "log": true, "log10": true,
	"sin": true, "cos": true, "tan": true, "asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true, "abs": true,
	"floor": true, "ceil": true, "round": true, "mod": true, "sign": true,
	"max": true, "min": true,
	"pi": true, "inf": true, "nan": true, "eps": true,
	"true": true, "false": true,
}

// extractConfigVars scans a parameter expression for workspace
// variable references: identifier tokens that start with a letter and
// are not MATLAB builtins.
func extractConfigVars(expr string, vars map[string]bool) {
	var current strings.Builder
	flush := func() {
		tok := current.String()
		current.Reset()
		if tok == "" {
			return
		}
		if !unicode.IsLetter(rune(tok[0])) {
			return
		}
		if matlabBuiltins[tok] {
			return
		}
		vars[tok] = true
	}

	for _, r := range expr {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
}

// WorkspaceVars returns the workspace variable references in a
// parameter expression, in order of first appearance.
func WorkspaceVars(expr string) []string {
	var out []string
	seen := map[string]bool{}

	var current strings.Builder
	flush := func() {
		tok := current.String()
		current.Reset()
		if tok == "" || !unicode.IsLetter(rune(tok[0])) || matlabBuiltins[tok] || seen[tok] {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}

	for _, r := range expr {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// formatParamValue rewrites a block parameter for emission: MATLAB
// constants become their generated-code equivalents and a bare
// workspace identifier becomes a cfg reference.
func formatParamValue(value string) string {
	if value == "" {
		return "0.0f"
	}

	result := replaceWord(value, "pi", "3.14159265358979f")
	result = replaceWord(result, "inf", "std::numeric_limits<float>::infinity()")
	result = replaceWord(result, "eps", "std::numeric_limits<float>::epsilon()")

	if isIdentifier(result) {
		return "cfg." + result
	}
	return result
}

func isIdentifier(s string) bool {
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// replaceWord replaces whole-word occurrences only, so "pi" inside
// "spin" stays untouched.
func replaceWord(s, from, to string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		j := strings.Index(s[i:], from)
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		j += i

		wordStart := j == 0 || !isWordByte(s[j-1])
		wordEnd := j+len(from) >= len(s) || !isWordByte(s[j+len(from)])
		b.WriteString(s[i:j])
		if wordStart && wordEnd {
			b.WriteString(to)
		} else {
			b.WriteString(from)
		}
		i = j + len(from)
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
