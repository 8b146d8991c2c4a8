// Package encoder defines the boundary to the external GPU texture
// encoder. The core hands it a correctly-ordered, correctly-packed RGBA
// mip chain; compression itself happens outside this module.
package encoder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"

	"pbr-texpacker/internal/mipmap"
)

// Format is the GPU compression format requested from the encoder.
type Format int

const (
	FormatETC1S Format = iota
	FormatUASTC
)

// Container is the output container requested from the encoder.
type Container int

const (
	ContainerKTX2 Container = iota
	ContainerBasis
)

// Options are the quality/compression knobs forwarded to the encoder.
type Options struct {
	Format           Format
	Container        Container
	Quality          int     // 1..255, encoder-defined scale
	RDOLambda        float64 // 0 disables rate-distortion optimization
	Supercompression bool
}

// Encoder consumes a packed RGBA mip chain and writes the output file.
type Encoder interface {
	// Extension returns the output file extension, including the dot.
	Extension() string
	// Encode writes the chain to path, creating parent directories.
	Encode(path string, chain *mipmap.Chain, opts Options) error
}

// WebPPreview is the built-in fallback encoder: it writes the packed
// level-0 image as lossless WebP. Useful for inspecting pack results
// without a GPU encoder on the machine.
type WebPPreview struct{}

func (WebPPreview) Extension() string { return ".webp" }

func (WebPPreview) Encode(path string, chain *mipmap.Chain, _ Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("encoder: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("encoder: create %s: %w", path, err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, chain.Level(0), nil); err != nil {
		return fmt.Errorf("encoder: webp encode %s: %w", path, err)
	}
	return nil
}
