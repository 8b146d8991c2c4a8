// Package batch runs the per-image pipeline over a directory tree under
// bounded concurrency.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"pbr-texpacker/internal/encoder"
	"pbr-texpacker/internal/imaging"
	"pbr-texpacker/internal/mipmap"
	"pbr-texpacker/internal/packing"
)

// Plan tells the driver how to convert one file: either channel packing
// (Pack set, the walked file feeding PackChannel) or a plain per-texture
// mip conversion with Profile.
type Plan struct {
	Profile     mipmap.Profile
	Pack        *packing.Settings
	PackChannel packing.ChannelType
}

// Config holds all shared resources for a batch run.
type Config struct {
	InputDir    string
	OutputDir   string
	SelectPlan  func(path string) Plan // nil selects a generic plain conversion
	OutputSize  int
	Encoder     encoder.Encoder // nil selects the WebP preview encoder
	Options     encoder.Options
	MaxParallel int            // <=0 selects NumCPU
	Progress    func(Progress) // optional, called after each file completes
}

// ConversionResult holds the outcome of converting one file.
type ConversionResult struct {
	InputPath  string `json:"input"`
	OutputPath string `json:"output,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Result aggregates a whole batch run. succeeded+failed always equals total.
type Result struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Files     []ConversionResult `json:"files"`
}

// Progress is reported once per completed file. Report ordering is not
// guaranteed under concurrent completion; the counts are consistent at
// the time of the call.
type Progress struct {
	Index     int // completed files so far, 1-based
	Total     int
	Path      string
	Succeeded int
	Failed    int
}

// ProcessDirectory converts every supported raster file under InputDir,
// mirroring the directory structure into OutputDir with the encoder's
// extension. At most MaxParallel conversions run at once. One file's
// failure never aborts the batch. On cancellation no new files are
// scheduled, in-flight conversions finish, unscheduled files are recorded
// as failed, and the context error is returned alongside the result.
func ProcessDirectory(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Encoder == nil {
		cfg.Encoder = encoder.WebPPreview{}
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = runtime.NumCPU()
	}

	files, err := collectFiles(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &Result{}, nil
	}

	results := make([]ConversionResult, len(files))
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
		succeeded int
		failed    int
	)

	sem := semaphore.NewWeighted(int64(cfg.MaxParallel))
	var schedErr error
	for i, path := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			schedErr = err
			// Cancelled: record everything not yet scheduled as failed.
			for j := i; j < len(files); j++ {
				results[j] = ConversionResult{
					InputPath: files[j],
					Error:     fmt.Sprintf("not scheduled: %v", err),
				}
			}
			break
		}

		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			defer sem.Release(1)

			res := convertFile(cfg, path)

			mu.Lock()
			results[idx] = res
			completed++
			if res.Success {
				succeeded++
			} else {
				failed++
			}
			if cfg.Progress != nil {
				cfg.Progress(Progress{
					Index:     completed,
					Total:     len(files),
					Path:      path,
					Succeeded: succeeded,
					Failed:    failed,
				})
			}
			mu.Unlock()
		}(i, path)
	}
	wg.Wait()

	out := &Result{Total: len(files), Files: results}
	for _, r := range results {
		if r.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out, schedErr
}

// collectFiles enumerates supported raster files under root, recursively.
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imaging.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: walk %s: %w", root, err)
	}
	return files, nil
}

func convertFile(cfg Config, path string) ConversionResult {
	plan := Plan{Profile: mipmap.ProfileFor(mipmap.TextureGeneric)}
	if cfg.SelectPlan != nil {
		plan = cfg.SelectPlan(path)
	}

	outPath, err := outputPathFor(cfg, path)
	if err != nil {
		return ConversionResult{InputPath: path, Error: err.Error()}
	}

	var chain *mipmap.Chain
	if plan.Pack != nil {
		settings := withFileChannel(*plan.Pack, plan.PackChannel, path)
		chain, err = packing.Pack(settings, cfg.OutputSize)
	} else {
		src, lerr := imaging.Load(path)
		if lerr != nil {
			return ConversionResult{InputPath: path, Error: lerr.Error()}
		}
		if cfg.OutputSize > 0 {
			src = imaging.Resize(src, cfg.OutputSize, cfg.OutputSize, true)
		}
		chain = mipmap.Generate(src, plan.Profile)
	}
	if err != nil {
		return ConversionResult{InputPath: path, Error: err.Error()}
	}

	if err := cfg.Encoder.Encode(outPath, chain, cfg.Options); err != nil {
		return ConversionResult{InputPath: path, Error: err.Error()}
	}
	return ConversionResult{InputPath: path, OutputPath: outPath, Success: true}
}

// withFileChannel copies the packing template and feeds the walked file
// into the plan's channel slot.
func withFileChannel(s packing.Settings, ch packing.ChannelType, path string) packing.Settings {
	set := func(src **packing.ChannelSource) {
		if *src == nil {
			*src = &packing.ChannelSource{Type: ch}
		} else {
			cp := **src
			*src = &cp
		}
		(*src).SourcePath = path
	}
	switch ch {
	case packing.ChannelGloss:
		set(&s.Gloss)
	case packing.ChannelMetallic:
		set(&s.Metallic)
	case packing.ChannelHeight:
		set(&s.Height)
	default:
		set(&s.AO)
	}
	return s
}

func outputPathFor(cfg Config, path string) (string, error) {
	rel, err := filepath.Rel(cfg.InputDir, path)
	if err != nil {
		return "", fmt.Errorf("batch: relativize %s: %w", path, err)
	}
	ext := filepath.Ext(rel)
	rel = strings.TrimSuffix(rel, ext) + cfg.Encoder.Extension()
	return filepath.Join(cfg.OutputDir, rel), nil
}
