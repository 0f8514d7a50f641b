package chunk

import "github.com/poiesic/retrievit/core"

// fixedChunker emits consecutive windows of ChunkSize runes, each window
// starting ChunkSize-Overlap runes after the previous one. The final
// window may be shorter.
type fixedChunker struct {
	cfg Config
}

var _ Chunker = (*fixedChunker)(nil)

func (c *fixedChunker) Strategy() Strategy { return StrategyFixedSize }

func (c *fixedChunker) Chunk(text string) ([]core.Chunk, error) {
	return chunkText(text, c.spans), nil
}

func (c *fixedChunker) ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error) {
	chunks, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	return stampChunks(chunks, docID, metadata), nil
}

func (c *fixedChunker) spans(src *source) []span {
	return windowSpans(span{start: 0, end: src.len()}, c.cfg.ChunkSize, c.cfg.ChunkSize-c.cfg.Overlap)
}

// slidingChunker strides over raw runes with no regard for structure; it
// is the fallback when nothing can be assumed about the input. Mechanically
// it matches fixedChunker, the distinct strategy name is part of the
// configuration surface.
type slidingChunker struct {
	cfg Config
}

var _ Chunker = (*slidingChunker)(nil)

func (c *slidingChunker) Strategy() Strategy { return StrategySlidingWindow }

func (c *slidingChunker) Chunk(text string) ([]core.Chunk, error) {
	return chunkText(text, c.spans), nil
}

func (c *slidingChunker) ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error) {
	chunks, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	return stampChunks(chunks, docID, metadata), nil
}

func (c *slidingChunker) spans(src *source) []span {
	return windowSpans(span{start: 0, end: src.len()}, c.cfg.ChunkSize, c.cfg.ChunkSize-c.cfg.Overlap)
}
