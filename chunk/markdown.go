package chunk

import "github.com/poiesic/retrievit/core"

// markdownChunker splits on heading lines. Each heading starts a new
// section that keeps its heading text; a section within the size limit
// becomes one chunk, an oversized section is split recursively so its
// first sub-chunk still begins with the heading line. Text before the
// first heading forms a section of its own.
type markdownChunker struct {
	cfg Config
}

var _ Chunker = (*markdownChunker)(nil)

func (c *markdownChunker) Strategy() Strategy { return StrategyMarkdown }

func (c *markdownChunker) Chunk(text string) ([]core.Chunk, error) {
	return chunkText(text, c.spans), nil
}

func (c *markdownChunker) ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error) {
	chunks, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	return stampChunks(chunks, docID, metadata), nil
}

func (c *markdownChunker) spans(src *source) []span {
	rec := &recursiveChunker{cfg: c.cfg}
	var out []span
	for _, section := range splitSections(src) {
		if c.cfg.LengthFunc(src.content(section)) <= c.cfg.ChunkSize {
			out = append(out, section)
			continue
		}
		units := rec.decompose(src, section, levelBlankLine)
		out = append(out, mergeUnits(src, units, c.cfg.ChunkSize, c.cfg.Overlap, c.cfg.LengthFunc)...)
	}
	return out
}

// splitSections tiles the source with heading-delimited sections.
func splitSections(src *source) []span {
	var sections []span
	n := src.len()
	start := 0
	lineStart := 0
	for i := 0; i <= n; i++ {
		if i < n && src.runes[i] != '\n' {
			continue
		}
		if isHeadingLine(src, lineStart, i) && lineStart > start {
			sections = append(sections, span{start: start, end: lineStart})
			start = lineStart
		}
		lineStart = i + 1
	}
	if start < n {
		sections = append(sections, span{start: start, end: n})
	}
	return sections
}

// isHeadingLine reports whether the line [lineStart, lineEnd) is an ATX
// heading: one to six '#' runes followed by a space.
func isHeadingLine(src *source, lineStart, lineEnd int) bool {
	i := lineStart
	hashes := 0
	for i < lineEnd && src.runes[i] == '#' {
		hashes++
		i++
	}
	if hashes < 1 || hashes > 6 {
		return false
	}
	return i < lineEnd && src.runes[i] == ' '
}
