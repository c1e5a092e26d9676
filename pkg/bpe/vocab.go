package bpe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Vocabulary maps token ids to pieces. It is immutable after construction
// and safe for concurrent use.
type Vocabulary struct {
	pieces map[int64]string
	ids    map[string]int64
}

// NewVocabulary builds a vocabulary from an id to piece mapping. The map is
// copied.
func NewVocabulary(pieces map[int64]string) *Vocabulary {
	v := &Vocabulary{
		pieces: make(map[int64]string, len(pieces)),
		ids:    make(map[string]int64, len(pieces)),
	}
	for id, p := range pieces {
		v.pieces[id] = p
		v.ids[p] = id
	}
	return v
}

// ParseVocabulary parses a JSON object of piece to id, the layout of
// Whisper's vocab.json.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var raw map[string]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bpe: parse vocabulary: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("bpe: empty vocabulary")
	}
	pieces := make(map[int64]string, len(raw))
	for p, id := range raw {
		if id < 0 {
			return nil, fmt.Errorf("bpe: negative id %d for piece %q", id, p)
		}
		if prev, dup := pieces[id]; dup {
			return nil, fmt.Errorf("bpe: id %d assigned to both %q and %q", id, prev, p)
		}
		pieces[id] = p
	}
	return NewVocabulary(pieces), nil
}

// Len returns the number of tokens.
func (v *Vocabulary) Len() int {
	return len(v.pieces)
}

// Piece returns the piece for id.
func (v *Vocabulary) Piece(id int64) (string, bool) {
	p, ok := v.pieces[id]
	return p, ok
}

// ID returns the id of piece.
func (v *Vocabulary) ID(piece string) (int64, bool) {
	id, ok := v.ids[piece]
	return id, ok
}

// IsSpecial reports whether id is a control token such as <|endoftext|>.
func (v *Vocabulary) IsSpecial(id int64) bool {
	p, ok := v.pieces[id]
	return ok && isSpecialPiece(p)
}

func isSpecialPiece(p string) bool {
	return len(p) > 4 && strings.HasPrefix(p, "<|") && strings.HasSuffix(p, "|>")
}
