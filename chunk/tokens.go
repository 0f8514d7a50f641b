package chunk

import (
	"math"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// runeLen is the default length measure.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

func isCJK(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }

// EstimateTokens approximates how many BPE tokens a text encodes to.
// CJK text averages about 1.5 characters per token, other text about 4;
// the estimate is the ceiling of the summed fractions.
func EstimateTokens(text string) int {
	var cjk, other int
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	if cjk+other == 0 {
		return 0
	}
	return int(math.Ceil(float64(cjk)/1.5 + float64(other)/4.0))
}

// TiktokenCounter measures text in real BPE tokens. Construction may
// download the encoding's vocabulary, so it is never used implicitly; pass
// its Count as Config.LengthFunc to size chunks in tokens.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named tiktoken encoding, e.g. "cl100k_base".
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the exact token count of text under the loaded encoding.
func (t *TiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
