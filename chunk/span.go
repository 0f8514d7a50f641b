package chunk

import "unicode/utf8"

// span is a half-open interval of rune indices into a source.
type span struct {
	start, end int
}

func (s span) empty() bool { return s.end <= s.start }

// source wraps a document with rune-index bookkeeping so strategies can
// work in rune positions while chunks report byte offsets.
type source struct {
	raw     string
	runes   []rune
	bytePos []int // bytePos[i] = byte offset of rune i; bytePos[len(runes)] = len(raw)
}

func newSource(s string) *source {
	runes := []rune(s)
	pos := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		pos[i] = b
		b += utf8.RuneLen(r)
	}
	pos[len(runes)] = b
	return &source{raw: s, runes: runes, bytePos: pos}
}

func (s *source) len() int        { return len(s.runes) }
func (s *source) byteAt(i int) int { return s.bytePos[i] }

func (s *source) content(sp span) string {
	return s.raw[s.bytePos[sp.start]:s.bytePos[sp.end]]
}

// windowSpans tiles a region with consecutive windows of at most size
// runes, advancing by stride runes. A trailing window is emitted only if
// it covers text the previous window did not.
func windowSpans(region span, size, stride int) []span {
	var out []span
	for start := region.start; start < region.end; start += stride {
		end := start + size
		if end > region.end {
			end = region.end
		}
		out = append(out, span{start: start, end: end})
		if end == region.end {
			break
		}
	}
	return out
}

// mergeUnits greedily packs consecutive unit spans into chunk spans whose
// measured length stays at or under size, carrying the last overlap runes
// of each flushed chunk into the next one. A single unit measuring over
// the limit is window-split on rune boundaries so the size bound holds.
// Because the carried tail is re-measured as part of the next chunk, no
// merged chunk ever exceeds size+overlap in the configured measure.
func mergeUnits(src *source, units []span, size, overlap int, measure func(string) int) []span {
	var out []span
	var cur span
	curLen := 0
	active := false

	flush := func() {
		if active {
			out = append(out, cur)
			active = false
			curLen = 0
		}
	}

	for _, u := range units {
		if u.empty() {
			continue
		}
		uLen := measure(src.content(u))
		if uLen > size {
			flush()
			out = append(out, windowSpans(u, size, size)...)
			continue
		}
		if !active {
			cur = u
			curLen = uLen
			active = true
			continue
		}
		// Text between units (separators the splitter dropped) becomes part
		// of the merged span, so it counts toward the measured size too.
		joinLen := uLen
		if u.start > cur.end {
			joinLen += measure(src.content(span{start: cur.end, end: u.start}))
		}
		if curLen+joinLen > size {
			out = append(out, cur)
			tail := cur.end - overlap
			if tail < cur.start {
				tail = cur.start
			}
			cur = span{start: tail, end: u.end}
			curLen = measure(src.content(cur))
			continue
		}
		cur.end = u.end
		curLen += joinLen
	}
	flush()
	return out
}
