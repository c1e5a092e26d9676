package bpe

import "strings"

// DecodeOptions controls Vocabulary.Decode.
type DecodeOptions struct {
	// SkipSpecial drops control tokens of the form <|...|>.
	SkipSpecial bool
}

// Decode turns token ids into text. Unknown ids contribute nothing.
func Decode(ids []int64, v *Vocabulary) string {
	return v.Decode(ids, DecodeOptions{})
}

// Decode turns token ids into text.
//
// Ids missing from the vocabulary contribute the empty piece, and runes
// outside the byte alphabet contribute no byte. Byte runs that are not valid
// UTF-8 are replaced with U+FFFD. Decode never fails.
func (v *Vocabulary) Decode(ids []int64, opts DecodeOptions) string {
	var sb strings.Builder
	for _, id := range ids {
		p, ok := v.pieces[id]
		if !ok {
			continue
		}
		if opts.SkipSpecial && isSpecialPiece(p) {
			continue
		}
		sb.WriteString(p)
	}

	buf := make([]byte, 0, sb.Len())
	for _, r := range sb.String() {
		if b, ok := symbolToByte[r]; ok {
			buf = append(buf, b)
		}
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}
