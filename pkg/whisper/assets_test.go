package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/storage"
)

func newAssetStore(t *testing.T) *storage.Local {
	t.Helper()
	s, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	fb, err := json.Marshal(melspec.WhisperFilterbank())
	if err != nil {
		t.Fatal(err)
	}
	for name, data := range map[string][]byte{
		DefaultFilterbankAsset: fb,
		DefaultVocabularyAsset: []byte(`{"H": 0, "i": 1}`),
		DefaultModelAsset:      []byte("onnx-bytes"),
	} {
		if err := s.Put(ctx, name, data); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestLoadAssets(t *testing.T) {
	s := newAssetStore(t)
	a, err := LoadAssets(context.Background(), s, AssetNames{
		Filterbank: DefaultFilterbankAsset,
		Vocabulary: DefaultVocabularyAsset,
		Model:      DefaultModelAsset,
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Filterbank.NumBands != 80 || a.Filterbank.NumBins != 201 {
		t.Errorf("filterbank = %dx%d", a.Filterbank.NumBands, a.Filterbank.NumBins)
	}
	if a.Vocabulary.Len() != 2 {
		t.Errorf("vocabulary has %d tokens", a.Vocabulary.Len())
	}
	if string(a.Model) != "onnx-bytes" {
		t.Errorf("model = %q", a.Model)
	}
}

func TestLoadAssetsComputedFilterbank(t *testing.T) {
	s := newAssetStore(t)
	a, err := LoadAssets(context.Background(), s, AssetNames{Vocabulary: DefaultVocabularyAsset})
	if err != nil {
		t.Fatal(err)
	}
	if a.Filterbank.NumBands != 80 || a.Model != nil {
		t.Fatalf("assets = %+v", a)
	}
}

func TestLoadAssetsMissing(t *testing.T) {
	s := newAssetStore(t)
	_, err := LoadAssets(context.Background(), s, AssetNames{Vocabulary: "vocab_en.json"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
	if _, err := LoadAssets(context.Background(), s, AssetNames{}); err == nil {
		t.Fatal("expected error without vocabulary name")
	}
}
