// Package bpe decodes byte-level BPE token ids (GPT-2 / Whisper vocabularies)
// back into UTF-8 text.
//
// Vocabulary pieces are written in a 256-symbol printable alphabet where
// every raw byte has a stand-in rune. Decoding concatenates pieces, maps each
// rune back to its byte and interprets the bytes as UTF-8.
package bpe

// Number of symbols in the byte alphabet.
const alphabetSize = 256

var (
	byteToSymbol [alphabetSize]rune
	symbolToByte map[rune]byte
)

func init() {
	symbolToByte = make(map[rune]byte, alphabetSize)
	next := rune(alphabetSize)
	for b := 0; b < alphabetSize; b++ {
		r := rune(b)
		if !printable(byte(b)) {
			r = next
			next++
		}
		byteToSymbol[b] = r
		symbolToByte[r] = byte(b)
	}
}

// printable reports whether b stands for itself in the alphabet.
func printable(b byte) bool {
	return (b >= 0x21 && b <= 0x7E) || (b >= 0xA1 && b <= 0xAC) || b >= 0xAE
}

// ByteToSymbol returns the alphabet symbol standing for b.
func ByteToSymbol(b byte) rune {
	return byteToSymbol[b]
}

// SymbolToByte returns the byte a symbol stands for. ok is false for runes
// outside the alphabet.
func SymbolToByte(r rune) (b byte, ok bool) {
	b, ok = symbolToByte[r]
	return b, ok
}

// EncodeBytes writes raw bytes in the symbol alphabet. It is the inverse of
// the rune-to-byte step of decoding.
func EncodeBytes(data []byte) string {
	out := make([]rune, len(data))
	for i, b := range data {
		out[i] = byteToSymbol[b]
	}
	return string(out)
}
