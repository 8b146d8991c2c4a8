package encoder_test

import (
	"os"
	"path/filepath"
	"testing"

	"pbr-texpacker/internal/encoder"
	"pbr-texpacker/internal/mipmap"
)

func TestWebPPreview_WritesLevelZero(t *testing.T) {
	chain := mipmap.Constant(16, 16, 0.5)
	path := filepath.Join(t.TempDir(), "nested", "out.webp")

	enc := encoder.WebPPreview{}
	if enc.Extension() != ".webp" {
		t.Fatalf("extension = %q", enc.Extension())
	}
	if err := enc.Encode(path, chain, encoder.Options{}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("empty output file")
	}
}
