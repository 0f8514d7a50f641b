package chunk

import "github.com/poiesic/retrievit/core"

// The recursive separator ladder, coarse to fine. Each level either splits
// after a separator sequence or after any rune in a set; the final level
// splits into individual runes.
type sepLevel int

const (
	levelBlankLine sepLevel = iota
	levelNewline
	levelSentence
	levelClause
	levelSpace
	levelRune
)

var (
	sentenceLevelEnders = map[rune]bool{'。': true, '！': true, '？': true, '.': true, '!': true, '?': true}
	clauseLevelEnders   = map[rune]bool{'；': true, ';': true, '，': true, ',': true}
)

// recursiveChunker tries separators from coarse to fine: a unit that alone
// exceeds the size limit is re-split with the next finer separator before
// accumulation. Emitted chunks respect the size bound except for a single
// indivisible rune whose measured length exceeds the chunk size (possible
// only under a custom length measure); such a unit is emitted oversized.
type recursiveChunker struct {
	cfg Config
}

var _ Chunker = (*recursiveChunker)(nil)

func (c *recursiveChunker) Strategy() Strategy { return StrategyRecursive }

func (c *recursiveChunker) Chunk(text string) ([]core.Chunk, error) {
	return chunkText(text, c.spans), nil
}

func (c *recursiveChunker) ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error) {
	chunks, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	return stampChunks(chunks, docID, metadata), nil
}

func (c *recursiveChunker) spans(src *source) []span {
	units := c.decompose(src, span{start: 0, end: src.len()}, levelBlankLine)
	return mergeUnits(src, units, c.cfg.ChunkSize, c.cfg.Overlap, c.cfg.LengthFunc)
}

// decompose splits a region at the given ladder level and recurses into
// any unit still measuring over the size limit. The returned units tile
// the region in order.
func (c *recursiveChunker) decompose(src *source, region span, level sepLevel) []span {
	units := splitAtLevel(src, region, level)
	var out []span
	for _, u := range units {
		if u.empty() {
			continue
		}
		if level == levelRune || u.end-u.start == 1 || c.cfg.LengthFunc(src.content(u)) <= c.cfg.ChunkSize {
			out = append(out, u)
			continue
		}
		out = append(out, c.decompose(src, u, level+1)...)
	}
	return out
}

// splitAtLevel tiles a region with units that each end right after a
// separator occurrence of the given level (or at the region end).
func splitAtLevel(src *source, region span, level sepLevel) []span {
	switch level {
	case levelBlankLine:
		return splitAfterBlankLines(src, region)
	case levelNewline:
		return splitAfterRune(src, region, map[rune]bool{'\n': true})
	case levelSentence:
		return splitAfterRune(src, region, sentenceLevelEnders)
	case levelClause:
		return splitAfterRune(src, region, clauseLevelEnders)
	case levelSpace:
		return splitAfterRune(src, region, map[rune]bool{' ': true})
	default: // levelRune
		units := make([]span, 0, region.end-region.start)
		for i := region.start; i < region.end; i++ {
			units = append(units, span{start: i, end: i + 1})
		}
		return units
	}
}

// splitAfterRune ends a unit after each maximal run of separator runes.
func splitAfterRune(src *source, region span, seps map[rune]bool) []span {
	var units []span
	start := region.start
	i := region.start
	for i < region.end {
		if !seps[src.runes[i]] {
			i++
			continue
		}
		for i < region.end && seps[src.runes[i]] {
			i++
		}
		units = append(units, span{start: start, end: i})
		start = i
	}
	if start < region.end {
		units = append(units, span{start: start, end: region.end})
	}
	return units
}

// splitAfterBlankLines ends a unit after each blank-line separator run, so
// the units tile the region (unlike the paragraph strategy, which drops
// separators between paragraphs).
func splitAfterBlankLines(src *source, region span) []span {
	var units []span
	start := region.start
	i := region.start
	for i < region.end {
		if src.runes[i] != '\n' {
			i++
			continue
		}
		j := i + 1
		newlines := 1
		lastNL := i
	scan:
		for j < region.end {
			switch src.runes[j] {
			case '\n':
				newlines++
				lastNL = j
			case ' ', '\t', '\r':
			default:
				break scan
			}
			j++
		}
		if newlines >= 2 {
			units = append(units, span{start: start, end: lastNL + 1})
			start = lastNL + 1
			i = start
		} else {
			i = j
		}
	}
	if start < region.end {
		units = append(units, span{start: start, end: region.end})
	}
	return units
}
