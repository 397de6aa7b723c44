package sceneconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// Write renders root's subsections back into the nested-section
// grammar's textual form (§6), suitable for re-parsing with Parse.
func Write(root *Section) string {
	var sb strings.Builder
	for _, name := range root.SubNames {
		writeSection(&sb, root.Subsections[name], 0)
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, s *Section, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%q [\n", indent, s.Name)
	inner := indent + "  "
	for _, key := range s.Keys {
		fmt.Fprintf(sb, "%s%q = %s\n", inner, key, writeValue(s.Values[key]))
	}
	for _, name := range s.SubNames {
		writeSection(sb, s.Subsections[name], depth+1)
	}
	fmt.Fprintf(sb, "%s]\n", indent)
}

func writeValue(v Value) string {
	switch v.Kind {
	case KindInt, KindEnum:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.S)
	case KindVec3:
		return fmt.Sprintf("(%s, %s, %s)",
			strconv.FormatFloat(v.Vec.X, 'g', -1, 64),
			strconv.FormatFloat(v.Vec.Y, 'g', -1, 64),
			strconv.FormatFloat(v.Vec.Z, 'g', -1, 64))
	case KindInterval:
		return fmt.Sprintf("(%s, %s)",
			strconv.FormatFloat(v.Iv.Lo, 'g', -1, 64),
			strconv.FormatFloat(v.Iv.Hi, 'g', -1, 64))
	default:
		return "0"
	}
}
