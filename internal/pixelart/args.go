package pixelart

import (
	"strconv"
	"strings"
)

// Settings are the user-chosen knobs, without the image.
type Settings struct {
	Tier        int
	AspectRatio AspectRatio
	Prompt      string
}

func DefaultSettings() Settings {
	return Settings{Tier: DefaultTier, AspectRatio: DefaultAspectRatio}
}

var tierKeywords = map[string]int{
	"hd":      1,
	"32bit":   1,
	"32-bit":  1,
	"16bit":   2,
	"16-bit":  2,
	"8bit":    3,
	"8-bit":   3,
	"nes":     3,
	"4bit":    4,
	"4-bit":   4,
	"atari":   4,
	"gameboy": 4,
}

// ParseArgs reads "tier=3 ar=16:9 neon city" style captions. Recognised tokens
// update the settings; whatever is left over becomes the prompt. An invalid
// ratio token is kept as prompt text.
func ParseArgs(raw string, defaults Settings) Settings {
	out := defaults
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out
	}

	var rest []string
	for _, orig := range strings.Fields(raw) {
		tok := strings.ToLower(orig)

		if v, ok := cutAny(tok, "tier=", "t="); ok {
			if n, err := strconv.Atoi(v); err == nil {
				out.Tier = NormalizeTier(n)
				continue
			}
		}
		if v, ok := cutAny(tok, "ar=", "ratio=", "aspect="); ok {
			if ar, err := ParseAspectRatio(v); err == nil && v != "" {
				out.AspectRatio = ar
				continue
			}
		}
		if n, ok := tierKeywords[tok]; ok {
			out.Tier = n
			continue
		}
		if strings.Contains(tok, ":") {
			if ar, err := ParseAspectRatio(tok); err == nil {
				out.AspectRatio = ar
				continue
			}
		}

		rest = append(rest, orig)
	}

	if len(rest) > 0 {
		out.Prompt = strings.Join(rest, " ")
	}
	return out
}

func cutAny(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if after, ok := strings.CutPrefix(s, p); ok {
			return after, true
		}
	}
	return "", false
}
