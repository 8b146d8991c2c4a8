// Package texindex resolves companion normal maps for channel textures
// by filename stem and caches the decoded images across batch tasks.
package texindex

import (
	"os"
	"path/filepath"
	"strings"
)

// channelSuffixes are stripped from a source stem before looking for the
// material's base name.
var channelSuffixes = []string{
	"_ao", "_occlusion", "_gloss", "_glossiness", "_roughness",
	"_rough", "_metallic", "_metalness", "_metal", "_height", "_disp",
}

// normalSuffixes are tried, in order, against the base stem.
var normalSuffixes = []string{"_normal", "_nrm", "_n"}

// Index maps lowercase texture stems to filesystem paths under a root.
type Index struct {
	entries map[string]string // stem.lower() -> full path
}

// Build scans root recursively for supported raster files. The first path
// seen for a stem wins.
func Build(root string) *Index {
	idx := &Index{entries: make(map[string]string)}
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !supportedExt(path) {
			return nil
		}
		stem := stemOf(path)
		if _, exists := idx.entries[stem]; !exists {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

// ResolveNormal returns the path of the normal map matching srcPath's
// material stem, or ("", false) when none is indexed.
func (idx *Index) ResolveNormal(srcPath string) (string, bool) {
	base := stemOf(srcPath)
	for _, suffix := range channelSuffixes {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}
	for _, suffix := range normalSuffixes {
		if path, ok := idx.entries[base+suffix]; ok {
			return path, true
		}
	}
	return "", false
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func supportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".tga", ".bmp":
		return true
	}
	return false
}
