// FILE: lixenwraith/nodeconf/merge.go
package nodeconf

// Merge combines mappings left to right into a new mapping. At each key two
// mappings merge recursively; in every other case, lists included, the later
// value replaces the earlier one. Keys keep the position of their first
// appearance. Inputs are never modified and nil inputs are skipped.
func Merge(maps ...*Map) *Map {
	out := NewMap()
	for _, m := range maps {
		mergeInto(out, m)
	}
	return out
}

func mergeInto(dst, src *Map) {
	for key, value := range src.All() {
		if srcMap, ok := value.(*Map); ok {
			if dstMap, ok := dst.values[key].(*Map); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
		}
		dst.Set(key, deepCopy(value))
	}
}
