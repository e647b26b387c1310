package catalog

import "github.com/fastcodec/fast/token"

// MatchGroupClose scans forward from openIdx+1, returning the index of the
// Group token that closes the scope opened at openIdx.
func MatchGroupClose(script []uint32, openIdx int) int {
	depth := 1
	for i := openIdx + 1; i < len(script); i++ {
		tok := token.Unpack(script[i])
		if tok.Kind != token.KindGroup {
			continue
		}
		if tok.IsGroupOpen() {
			depth++
			continue
		}

		depth--
		if depth == 0 {
			return i
		}
	}

	return len(script)
}

// PMapBitsForRange sums the PMap bits consumed by tokens in [start, limit)
// at this scope's own nesting level, skipping over nested groups'
// interiors since each owns its own separately-sized PMap.
func PMapBitsForRange(script []uint32, start, limit int) int {
	bits := 0
	i := start

	for i < limit {
		tok := token.Unpack(script[i])

		if tok.Kind == token.KindGroup && tok.IsGroupOpen() {
			closeIdx := MatchGroupClose(script, i)
			bits++ // the group's own open gate bit, in this (enclosing) scope
			i = closeIdx + 1
			continue
		}

		if token.ConsumesPMapBit(tok.Operator) {
			bits++
		}

		i++
	}

	return bits
}

// FragmentLayout is the physical shape of one scope's fragment: how many
// of its own fields occupy a ring slot (each contributing one
// null-presence bit, per FAST's "a group's worth of fixed-size slots"
// fragment definition) and how many fixed-size words those fields'
// scalar/decimal/variable-length-meta slots occupy in total.
//
// A nested group or sequence iteration gets its own separate
// FragmentLayout and its own separate ring fragment; it contributes
// nothing to its enclosing scope's layout beyond the GroupLength field a
// sequence already emits as a plain field of the enclosing scope.
type FragmentLayout struct {
	FieldCount int
	FixedWords int
}

// FragmentLayoutForRange computes the FragmentLayout of the scope whose
// own tokens occupy [start, limit), skipping nested groups' interiors the
// same way PMapBitsForRange does.
func FragmentLayoutForRange(script []uint32, start, limit int) FragmentLayout {
	var layout FragmentLayout
	i := start

	for i < limit {
		tok := token.Unpack(script[i])

		if tok.Kind == token.KindGroup && tok.IsGroupOpen() {
			i = MatchGroupClose(script, i) + 1
			continue
		}

		if words := tok.FragmentSize(); words > 0 {
			layout.FieldCount++
			layout.FixedWords += words
		}

		i++
	}

	return layout
}
