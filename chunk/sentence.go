package chunk

import "github.com/poiesic/retrievit/core"

// sentenceEnders are the CJK and Latin terminators that close a sentence.
var sentenceEnders = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true,
	'.': true, '!': true, '?': true, ';': true,
}

// sentenceChunker splits on sentence-ending punctuation and greedily
// merges adjacent sentences up to the size limit, carrying an
// overlap-sized tail into the next chunk. A single sentence measuring
// over the limit is window-split.
type sentenceChunker struct {
	cfg Config
}

var _ Chunker = (*sentenceChunker)(nil)

func (c *sentenceChunker) Strategy() Strategy { return StrategySentence }

func (c *sentenceChunker) Chunk(text string) ([]core.Chunk, error) {
	return chunkText(text, c.spans), nil
}

func (c *sentenceChunker) ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error) {
	chunks, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	return stampChunks(chunks, docID, metadata), nil
}

func (c *sentenceChunker) spans(src *source) []span {
	units := splitSentences(src)
	return mergeUnits(src, units, c.cfg.ChunkSize, c.cfg.Overlap, c.cfg.LengthFunc)
}

// splitSentences tiles the source with sentence spans. A run of terminator
// runes ends a sentence and belongs to it; text without any terminator is
// a single sentence. Whitespace after a terminator run starts the next
// sentence.
func splitSentences(src *source) []span {
	var units []span
	n := src.len()
	start := 0
	i := 0
	for i < n {
		if !sentenceEnders[src.runes[i]] {
			i++
			continue
		}
		for i < n && sentenceEnders[src.runes[i]] {
			i++
		}
		units = append(units, span{start: start, end: i})
		start = i
	}
	if start < n {
		units = append(units, span{start: start, end: n})
	}
	return units
}
