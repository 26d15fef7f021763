package pixelart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	defaults := DefaultSettings()

	tests := []struct {
		name string
		raw  string
		want Settings
	}{
		{"empty keeps defaults", "", defaults},
		{"tier and ratio", "tier=3 ar=16:9", Settings{Tier: 3, AspectRatio: AspectWide}},
		{"bare ratio and keyword", "9:16 gameboy", Settings{Tier: 4, AspectRatio: AspectStory}},
		{"leftover text is the prompt", "t=1 Neon City at night", Settings{Tier: 1, AspectRatio: AspectSquare, Prompt: "Neon City at night"}},
		{"bad tier clamps", "tier=9", Settings{Tier: 2, AspectRatio: AspectSquare}},
		{"bad ratio stays in prompt", "ar=2:1 castle", Settings{Tier: 2, AspectRatio: AspectSquare, Prompt: "ar=2:1 castle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.raw, defaults))
		})
	}
}

func TestParseArgsKeepsDefaultPrompt(t *testing.T) {
	got := ParseArgs("8bit", Settings{Tier: 1, AspectRatio: AspectWide, Prompt: "keep me"})
	assert.Equal(t, Settings{Tier: 3, AspectRatio: AspectWide, Prompt: "keep me"}, got)
}
