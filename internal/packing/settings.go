// Package packing interleaves per-channel mip chains into one RGBA
// ("ORM") mip chain with deterministic, byte-exact rules.
package packing

import (
	"fmt"
	"image"

	"pbr-texpacker/internal/mipmap"
	"pbr-texpacker/internal/remap"
	"pbr-texpacker/internal/toksvig"
)

// ChannelType identifies the semantic role of a packed channel.
type ChannelType int

const (
	ChannelAO ChannelType = iota
	ChannelGloss
	ChannelMetallic
	ChannelHeight
)

func (t ChannelType) String() string {
	switch t {
	case ChannelAO:
		return "ao"
	case ChannelGloss:
		return "gloss"
	case ChannelMetallic:
		return "metallic"
	case ChannelHeight:
		return "height"
	}
	return "unknown"
}

// Mode is the packing layout.
type Mode int

const (
	// ModeOG packs AO into RGB and Gloss into A.
	ModeOG Mode = iota
	// ModeOGM packs AO/Gloss/Metallic into RGB with opaque A.
	ModeOGM
	// ModeOGMH packs AO/Gloss/Metallic/Height into RGBA.
	ModeOGMH
)

func (m Mode) String() string {
	switch m {
	case ModeOG:
		return "og"
	case ModeOGM:
		return "ogm"
	case ModeOGMH:
		return "ogmh"
	}
	return "unknown"
}

// ChannelSource declares where one channel's level-0 content comes from
// and how its chain is processed. An empty SourcePath means a constant
// fill of DefaultValue.
type ChannelSource struct {
	Type         ChannelType
	SourcePath   string
	DefaultValue float64
	Profile      *mipmap.Profile // nil selects the per-type default
	RemapMode    remap.Mode
	RemapBias    float64
	RemapPct     float64
	Toksvig      toksvig.Settings
}

func (c *ChannelSource) profile() mipmap.Profile {
	if c.Profile != nil {
		return *c.Profile
	}
	switch c.Type {
	case ChannelAO:
		return mipmap.ProfileFor(mipmap.TextureAO)
	case ChannelGloss:
		return mipmap.ProfileFor(mipmap.TextureGloss)
	case ChannelMetallic:
		return mipmap.ProfileFor(mipmap.TextureMetallic)
	case ChannelHeight:
		return mipmap.ProfileFor(mipmap.TextureHeight)
	}
	return mipmap.ProfileFor(mipmap.TextureGeneric)
}

// NormalResolver finds and decodes companion normal maps for the Toksvig
// pass. texindex.Cache satisfies it.
type NormalResolver interface {
	ResolveNormal(srcPath string) *image.NRGBA
	Load(path string) *image.NRGBA
}

// Settings describes one packing job.
type Settings struct {
	Mode     Mode
	AO       *ChannelSource
	Gloss    *ChannelSource
	Metallic *ChannelSource
	Height   *ChannelSource

	// Normals resolves normal maps for Toksvig-enabled gloss channels.
	// Optional; explicit ToksvigSettings.NormalMapPath works without it.
	Normals NormalResolver
}

// Validate checks the channel assignments against the mode invariants.
// AO and Gloss must always be assigned; Metallic and Height fall back to
// a 0.0 fill where the mode uses them; channels the mode does not use
// must not be assigned.
func (s *Settings) Validate() error {
	switch s.Mode {
	case ModeOG:
		if s.Metallic != nil {
			return fmt.Errorf("packing: mode og does not pack a metallic channel")
		}
		if s.Height != nil {
			return fmt.Errorf("packing: mode og does not pack a height channel")
		}
	case ModeOGM:
		if s.Height != nil {
			return fmt.Errorf("packing: mode ogm does not pack a height channel")
		}
	case ModeOGMH:
	default:
		return fmt.Errorf("packing: unknown mode %d", int(s.Mode))
	}

	if s.AO == nil {
		return fmt.Errorf("packing: mode %s requires an ao channel (source path or default fill)", s.Mode)
	}
	if s.Gloss == nil {
		return fmt.Errorf("packing: mode %s requires a gloss channel (source path or default fill)", s.Mode)
	}
	for _, c := range []*ChannelSource{s.AO, s.Gloss, s.Metallic, s.Height} {
		if c == nil {
			continue
		}
		if c.SourcePath == "" && (c.DefaultValue < 0 || c.DefaultValue > 1) {
			return fmt.Errorf("packing: %s default fill %v outside [0,1]", c.Type, c.DefaultValue)
		}
	}
	return nil
}

// activeChannels returns the mode's channels in processing order
// (AO first: it is the reference channel). Channels the mode uses but the
// caller left unassigned become implicit 0.0 fills.
func (s *Settings) activeChannels() []*ChannelSource {
	chans := []*ChannelSource{s.AO, s.Gloss}
	switch s.Mode {
	case ModeOGM:
		chans = append(chans, orFill(s.Metallic, ChannelMetallic))
	case ModeOGMH:
		chans = append(chans, orFill(s.Metallic, ChannelMetallic), orFill(s.Height, ChannelHeight))
	}
	return chans
}

func orFill(c *ChannelSource, t ChannelType) *ChannelSource {
	if c != nil {
		return c
	}
	return &ChannelSource{Type: t, DefaultValue: 0}
}
