package whisper

import (
	"context"
	"fmt"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/bpe"
	"github.com/haivivi/whisperedge/pkg/storage"
)

// Default asset names inside an asset store.
const (
	DefaultFilterbankAsset = "mel_filters.json"
	DefaultVocabularyAsset = "vocab.json"
	DefaultModelAsset      = "model.onnx"
)

// AssetNames locates assets inside a store. An empty Filterbank name uses
// the computed Whisper filterbank; an empty Model name skips the model.
type AssetNames struct {
	Filterbank string
	Vocabulary string
	Model      string
}

// Assets are the immutable inputs of a Transcriber.
type Assets struct {
	Filterbank *melspec.Filterbank
	Vocabulary *bpe.Vocabulary
	Model      []byte
}

// LoadAssets reads and parses assets from store.
func LoadAssets(ctx context.Context, store storage.Store, names AssetNames) (*Assets, error) {
	var a Assets

	if names.Filterbank == "" {
		a.Filterbank = melspec.WhisperFilterbank()
	} else {
		data, err := storage.ReadAll(ctx, store, names.Filterbank)
		if err != nil {
			return nil, fmt.Errorf("whisper: load filterbank: %w", err)
		}
		if a.Filterbank, err = melspec.ParseFilterbank(data); err != nil {
			return nil, fmt.Errorf("whisper: %s: %w", names.Filterbank, err)
		}
	}

	if names.Vocabulary == "" {
		return nil, fmt.Errorf("whisper: vocabulary asset name is required")
	}
	data, err := storage.ReadAll(ctx, store, names.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("whisper: load vocabulary: %w", err)
	}
	if a.Vocabulary, err = bpe.ParseVocabulary(data); err != nil {
		return nil, fmt.Errorf("whisper: %s: %w", names.Vocabulary, err)
	}

	if names.Model != "" {
		if a.Model, err = storage.ReadAll(ctx, store, names.Model); err != nil {
			return nil, fmt.Errorf("whisper: load model: %w", err)
		}
	}
	return &a, nil
}
