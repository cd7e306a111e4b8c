package serializer

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	maxFieldNumber    = 31767
	reservedRangeLow  = 19000
	reservedRangeHigh = 19999
)

// allocateFieldNumbers numbers fields from a hash of their names so a field
// keeps its number when other fields are added or reordered.
func allocateFieldNumbers(fieldBuilders []*protobuilder.FieldBuilder) {
	names := make([]string, len(fieldBuilders))
	for i, fb := range fieldBuilders {
		names[i] = string(fb.Name())
	}
	for i, n := range hashedNumbers(names) {
		fieldBuilders[i].SetNumber(protoreflect.FieldNumber(n))
	}
}

// hashedNumbers maps each name to (FNV32a(name) % 31767) + 1. Numbers in
// the protobuf reserved block and numbers already taken are resolved by
// probing upwards, wrapping to 1. Names are processed in sorted order so the
// outcome does not depend on input order.
func hashedNumbers(names []string) []int {
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return names[order[a]] < names[order[b]] })

	out := make([]int, len(names))
	used := make(map[int]bool, len(names))
	for _, idx := range order {
		n := int(fnv32(names[idx])%maxFieldNumber) + 1
		for used[n] || (n >= reservedRangeLow && n <= reservedRangeHigh) {
			n++
			if n > maxFieldNumber {
				n = 1
			}
		}
		used[n] = true
		out[idx] = n
	}
	return out
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// snakeCase converts a CamelCase Go identifier to snake_case.
func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
