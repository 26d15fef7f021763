package pixelart

import (
	"fmt"
	"strings"
	"time"
)

const instructionTemplate = `ACT AS A MASTER PIXEL ARTIST.
Transform the input image into AUTHENTIC pixel art.

TARGET HARDWARE: %s
TECHNICAL SPECS: %s

STRICT GUIDELINES:
1. SHARP EDGES: Absolutely NO anti-aliasing or blurry gradients. Every pixel must be a solid, distinct square.
2. COLOR INDEXING: Quantize colors into a limited, retro-style palette. No smooth photographic gradients.
3. GRID ALIGNMENT: The output must appear as if drawn on a fixed coordinate grid.
4. SPRITE SILHOUETTE: Simplify complex forms into clear, readable game-style icons or sprites.
5. NO DOWNSCALED PHOTO LOOK: Do not just make a low-resolution photo. Create a stylized piece of digital art that looks hand-placed.
6. Use classic dithering patterns for shading instead of transparency or fades.`

const userModificationDelimiter = " \nUSER MODIFICATION: "

// BaseInstruction is the fixed instruction for a tier. Same tier, same bytes.
func BaseInstruction(tier int) string {
	p := ProfileForTier(tier)
	return fmt.Sprintf(instructionTemplate, p.Name, p.Description)
}

// BuildInstruction appends a non-blank user prompt, unchanged, after the base
// rules so it reads as a refinement of them.
func BuildInstruction(tier int, userPrompt string) string {
	base := BaseInstruction(tier)
	if strings.TrimSpace(userPrompt) == "" {
		return base
	}
	return base + userModificationDelimiter + userPrompt
}

// HistoryLabel is the caption used for a finished result.
func HistoryLabel(tier int, userPrompt string) string {
	if p := strings.TrimSpace(userPrompt); p != "" {
		return p
	}
	return ProfileForTier(tier).Label + " Conversion"
}

func ExportFilename(t time.Time) string {
	return fmt.Sprintf("pixelgen-export-%d.png", t.UnixMilli())
}
