package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pbr-texpacker/internal/batch"
	"pbr-texpacker/internal/config"
	"pbr-texpacker/internal/encoder"
	"pbr-texpacker/internal/mipmap"
	"pbr-texpacker/internal/packing"
	"pbr-texpacker/internal/remap"
	"pbr-texpacker/internal/texindex"
	"pbr-texpacker/internal/toksvig"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	inputDir := flag.String("input", "", "Input directory (batch mode)")
	outputDir := flag.String("output", "", "Output directory")
	mode := flag.String("mode", "", "Packing mode: og, ogm, ogmh or plain (default: ogm)")
	size := flag.Int("size", 0, "Square output size; 0 keeps source resolution")
	workers := flag.Int("workers", 0, "Max parallel conversions (default: NumCPU)")
	quality := flag.Int("quality", 0, "Encoder quality 1-255 (default: 128)")
	aoPath := flag.String("ao", "", "AO source image (single-material mode)")
	glossPath := flag.String("gloss", "", "Gloss source image (single-material mode)")
	metallicPath := flag.String("metallic", "", "Metallic source image (single-material mode)")
	heightPath := flag.String("height", "", "Height source image (single-material mode)")
	normalPath := flag.String("normal", "", "Normal map for Toksvig correction")
	useToksvig := flag.Bool("toksvig", false, "Enable Toksvig gloss correction")
	out := flag.String("o", "", "Output file (single-material mode)")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg.Resolve(config.Flags{
		InputDir:   *inputDir,
		OutputDir:  *outputDir,
		Mode:       *mode,
		OutputSize: *size,
		Workers:    *workers,
		Quality:    *quality,
	})
	if *aoPath != "" {
		cfg.AOPath = *aoPath
	}
	if *glossPath != "" {
		cfg.GlossPath = *glossPath
	}
	if *metallicPath != "" {
		cfg.MetallicPath = *metallicPath
	}
	if *heightPath != "" {
		cfg.HeightPath = *heightPath
	}
	if *normalPath != "" {
		cfg.NormalPath = *normalPath
	}
	if *useToksvig {
		cfg.Toksvig = true
	}

	opts := encodeOptions(cfg)
	enc := encoder.WebPPreview{}

	singleMaterial := cfg.AOPath != "" || cfg.GlossPath != "" || cfg.MetallicPath != "" || cfg.HeightPath != ""
	if singleMaterial {
		runSingle(cfg, enc, opts, *out)
		return
	}

	if cfg.InputDir == "" || cfg.OutputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: batch mode needs -input and -output (or channel paths for single-material mode)")
		os.Exit(1)
	}
	runBatch(cfg, enc, opts)
}

func runSingle(cfg config.Config, enc encoder.Encoder, opts encoder.Options, out string) {
	settings, err := packSettings(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	chain, err := packing.Pack(*settings, cfg.OutputSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if out == "" {
		out = "packed" + enc.Extension()
	}
	if err := enc.Encode(out, chain, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Packed %s: %dx%d, %d mip levels -> %s\n",
		settings.Mode, chain.Width(), chain.Height(), chain.NumLevels(), out)
}

func runBatch(cfg config.Config, enc encoder.Encoder, opts encoder.Options) {
	normals := texindex.NewCache(texindex.Build(cfg.InputDir))

	var plan batch.Plan
	if cfg.Mode == "plain" {
		plan = batch.Plan{Profile: mipmap.ProfileFor(mipmap.TextureGeneric)}
	} else {
		settings, err := packSettings(cfg, normals)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		plan = batch.Plan{Pack: settings, PackChannel: packing.ChannelAO}
	}

	fmt.Printf("PBR texture packer, mode %s\n", cfg.Mode)
	fmt.Printf("Input: %s, Workers: %d\n", cfg.InputDir, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := batch.ProcessDirectory(ctx, batch.Config{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		SelectPlan: func(path string) batch.Plan {
			if cfg.Mode == "plain" {
				return batch.Plan{Profile: profileForFile(path)}
			}
			return plan
		},
		OutputSize:  cfg.OutputSize,
		Encoder:     enc,
		Options:     opts,
		MaxParallel: cfg.Workers,
		Progress: func(p batch.Progress) {
			fmt.Printf("  [%d/%d] %s (ok %d, failed %d)\n",
				p.Index, p.Total, filepath.Base(p.Path), p.Succeeded, p.Failed)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: batch interrupted: %v\n", err)
	}
	if result == nil {
		os.Exit(1)
	}

	if err := batch.WriteReport(filepath.Join(cfg.OutputDir, "report.json"), result); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report: %v\n", err)
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %s: %d total, %d succeeded, %d failed\n",
		time.Since(start).Round(time.Millisecond), result.Total, result.Succeeded, result.Failed)
	if result.Failed > 0 {
		for _, f := range result.Files {
			if !f.Success {
				fmt.Fprintf(os.Stderr, "  FAILED %s: %s\n", f.InputPath, f.Error)
			}
		}
		os.Exit(1)
	}
}

// packSettings builds the packing template from config values.
func packSettings(cfg config.Config, normals packing.NormalResolver) (*packing.Settings, error) {
	mode, err := parseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	remapMode, err := parseRemap(cfg.RemapMode)
	if err != nil {
		return nil, err
	}

	ts := toksvig.Settings{
		Enabled:           cfg.Toksvig,
		CompositePower:    cfg.CompositePower,
		MinMipLevel:       cfg.MinToksvigLevel,
		EnergyPreserving:  cfg.EnergyPreserving,
		SmoothVariance:    cfg.SmoothVariance,
		VarianceThreshold: cfg.VarianceThreshold,
		NormalMapPath:     cfg.NormalPath,
	}
	if cfg.ToksvigSimplified {
		ts.Mode = toksvig.ModeSimplified
	}

	s := &packing.Settings{
		Mode:    mode,
		Normals: normals,
		AO: &packing.ChannelSource{
			Type:         packing.ChannelAO,
			SourcePath:   cfg.AOPath,
			DefaultValue: cfg.AODefault,
			RemapMode:    remapMode,
			RemapBias:    cfg.RemapBias,
			RemapPct:     cfg.RemapPct,
		},
		Gloss: &packing.ChannelSource{
			Type:         packing.ChannelGloss,
			SourcePath:   cfg.GlossPath,
			DefaultValue: cfg.GlossDefault,
			Toksvig:      ts,
		},
	}
	if mode != packing.ModeOG && cfg.MetallicPath != "" {
		s.Metallic = &packing.ChannelSource{
			Type:       packing.ChannelMetallic,
			SourcePath: cfg.MetallicPath,
			RemapMode:  remapMode,
			RemapBias:  cfg.RemapBias,
			RemapPct:   cfg.RemapPct,
		}
	}
	if mode == packing.ModeOGMH && cfg.HeightPath != "" {
		s.Height = &packing.ChannelSource{
			Type:       packing.ChannelHeight,
			SourcePath: cfg.HeightPath,
		}
	}
	return s, nil
}

// profileForFile guesses the texture type from the filename stem suffix.
func profileForFile(path string) mipmap.Profile {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	switch {
	case strings.HasSuffix(stem, "_normal"), strings.HasSuffix(stem, "_nrm"), strings.HasSuffix(stem, "_n"):
		return mipmap.ProfileFor(mipmap.TextureNormal)
	case strings.HasSuffix(stem, "_albedo"), strings.HasSuffix(stem, "_basecolor"), strings.HasSuffix(stem, "_diffuse"):
		return mipmap.ProfileFor(mipmap.TextureAlbedo)
	case strings.HasSuffix(stem, "_ao"), strings.HasSuffix(stem, "_occlusion"):
		return mipmap.ProfileFor(mipmap.TextureAO)
	case strings.HasSuffix(stem, "_gloss"), strings.HasSuffix(stem, "_roughness"):
		return mipmap.ProfileFor(mipmap.TextureGloss)
	case strings.HasSuffix(stem, "_metallic"), strings.HasSuffix(stem, "_metal"):
		return mipmap.ProfileFor(mipmap.TextureMetallic)
	case strings.HasSuffix(stem, "_height"), strings.HasSuffix(stem, "_disp"):
		return mipmap.ProfileFor(mipmap.TextureHeight)
	}
	return mipmap.ProfileFor(mipmap.TextureGeneric)
}

func parseMode(s string) (packing.Mode, error) {
	switch s {
	case "og":
		return packing.ModeOG, nil
	case "ogm", "":
		return packing.ModeOGM, nil
	case "ogmh":
		return packing.ModeOGMH, nil
	}
	return 0, fmt.Errorf("unknown packing mode %q", s)
}

func parseRemap(s string) (remap.Mode, error) {
	switch s {
	case "none", "":
		return remap.ModeNone, nil
	case "bias":
		return remap.ModeBiasedDarkening, nil
	case "percentile":
		return remap.ModePercentile, nil
	}
	return 0, fmt.Errorf("unknown remap mode %q", s)
}

func encodeOptions(cfg config.Config) encoder.Options {
	opts := encoder.Options{
		Quality:          cfg.Quality,
		RDOLambda:        cfg.RDOLambda,
		Supercompression: cfg.Supercompression,
	}
	if cfg.Format == "uastc" {
		opts.Format = encoder.FormatUASTC
	}
	if cfg.Container == "basis" {
		opts.Container = encoder.ContainerBasis
	}
	return opts
}
