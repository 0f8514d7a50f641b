package chunk

import "github.com/poiesic/retrievit/core"

// paragraphChunker splits on blank-line boundaries and merges adjacent
// paragraphs with the same logic as the sentence strategy. Chunk spans
// bridge the blank lines between merged paragraphs, so offsets stay exact.
type paragraphChunker struct {
	cfg Config
}

var _ Chunker = (*paragraphChunker)(nil)

func (c *paragraphChunker) Strategy() Strategy { return StrategyParagraph }

func (c *paragraphChunker) Chunk(text string) ([]core.Chunk, error) {
	return chunkText(text, c.spans), nil
}

func (c *paragraphChunker) ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error) {
	chunks, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	return stampChunks(chunks, docID, metadata), nil
}

func (c *paragraphChunker) spans(src *source) []span {
	units := splitParagraphs(src)
	return mergeUnits(src, units, c.cfg.ChunkSize, c.cfg.Overlap, c.cfg.LengthFunc)
}

// splitParagraphs returns one span per paragraph. A paragraph boundary is
// a newline, optional horizontal whitespace, and at least one more
// newline; the separator belongs to no paragraph.
func splitParagraphs(src *source) []span {
	var units []span
	n := src.len()
	start := 0
	i := 0
	for i < n {
		if src.runes[i] != '\n' {
			i++
			continue
		}
		j := i + 1
		newlines := 1
		lastNL := i
	scan:
		for j < n {
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
			if i > start {
				units = append(units, span{start: start, end: i})
			}
			start = lastNL + 1
			i = start
		} else {
			i = j
		}
	}
	if start < n {
		units = append(units, span{start: start, end: n})
	}
	return units
}
