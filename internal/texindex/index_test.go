package texindex_test

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pbr-texpacker/internal/texindex"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
}

func TestIndex_ResolveNormalByStem(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "stone_gloss.png"))
	writePNG(t, filepath.Join(dir, "stone_normal.png"))
	writePNG(t, filepath.Join(dir, "sub", "brick_roughness.png"))
	writePNG(t, filepath.Join(dir, "sub", "brick_nrm.png"))
	writePNG(t, filepath.Join(dir, "bare_ao.png"))

	idx := texindex.Build(dir)
	if idx.Len() != 5 {
		t.Fatalf("indexed %d files, want 5", idx.Len())
	}

	if path, ok := idx.ResolveNormal(filepath.Join(dir, "stone_gloss.png")); !ok || filepath.Base(path) != "stone_normal.png" {
		t.Errorf("stone: got %q ok=%v", path, ok)
	}
	if path, ok := idx.ResolveNormal(filepath.Join(dir, "sub", "brick_roughness.png")); !ok || filepath.Base(path) != "brick_nrm.png" {
		t.Errorf("brick: got %q ok=%v", path, ok)
	}
	if _, ok := idx.ResolveNormal(filepath.Join(dir, "bare_ao.png")); ok {
		t.Error("bare: resolved a normal map that does not exist")
	}
}

func TestCache_ResolveAndMemoize(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "wood_gloss.png"))
	writePNG(t, filepath.Join(dir, "wood_normal.png"))

	cache := texindex.NewCache(texindex.Build(dir))

	img := cache.ResolveNormal(filepath.Join(dir, "wood_gloss.png"))
	if img == nil {
		t.Fatal("normal map not resolved")
	}
	if again := cache.ResolveNormal(filepath.Join(dir, "wood_gloss.png")); again != img {
		t.Error("second resolve did not hit the cache")
	}
	if cache.ResolveNormal(filepath.Join(dir, "missing_gloss.png")) != nil {
		t.Error("resolved normal map for unindexed stem")
	}
}
