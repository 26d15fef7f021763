package pixelart

// HardwareProfile describes the pixel grid and palette constraints of one
// strength tier. Name and Description go into the instruction text verbatim;
// Label is what front-ends show next to the tier selector.
type HardwareProfile struct {
	Tier        int
	Name        string
	Description string
	Label       string
}

const (
	MinTier     = 1
	MaxTier     = 4
	DefaultTier = 2
)

// Ordered from highest to lowest fidelity. Index = tier-1.
var hardwareProfiles = [MaxTier]HardwareProfile{
	{
		Tier:        1,
		Name:        "32-bit High Resolution",
		Description: "Detailed 128x128 grid style. Sharp edges, rich color palette, subtle dithering, professional arcade game aesthetic.",
		Label:       "High-Def (32-Bit)",
	},
	{
		Tier:        2,
		Name:        "16-bit Console Style",
		Description: "64x64 grid style. Restricted color palette (max 64 colors), visible checkerboard dithering, SNES/Genesis aesthetic.",
		Label:       "Balanced (16-Bit)",
	},
	{
		Tier:        3,
		Name:        "8-bit Home Computer",
		Description: "32x32 grid style. Highly restricted 16-color palette, chunky pixels, simplified silhouettes, NES/C64 aesthetic.",
		Label:       "Retro (8-Bit)",
	},
	{
		Tier:        4,
		Name:        "Vintage 4-bit Handheld",
		Description: "16x16 or 24x24 grid style. 4-tone monochrome or highly limited color, massive chunky blocks, minimalist Atari/GameBoy aesthetic.",
		Label:       "Vintage (Atari)",
	},
}

// ProfileForTier never fails: tiers outside 1..4 get the Balanced profile.
func ProfileForTier(tier int) HardwareProfile {
	return hardwareProfiles[NormalizeTier(tier)-1]
}

func NormalizeTier(tier int) int {
	if tier < MinTier || tier > MaxTier {
		return DefaultTier
	}
	return tier
}

func Profiles() []HardwareProfile {
	out := make([]HardwareProfile, len(hardwareProfiles))
	copy(out, hardwareProfiles[:])
	return out
}
