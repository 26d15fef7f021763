package pixelart

import "strconv"

type NamedOption struct {
	Key  string
	Name string
}

func TierOptions() []NamedOption {
	out := make([]NamedOption, 0, MaxTier)
	for _, p := range hardwareProfiles {
		out = append(out, NamedOption{Key: strconv.Itoa(p.Tier), Name: p.Label})
	}
	return out
}

var aspectNames = map[AspectRatio]string{
	AspectSquare:    "Square",
	AspectPortrait:  "Portrait",
	AspectLandscape: "Landscape",
	AspectStory:     "Story",
	AspectWide:      "Widescreen",
}

func AspectOptions() []NamedOption {
	out := make([]NamedOption, 0, len(aspectRatios))
	for _, ar := range aspectRatios {
		out = append(out, NamedOption{Key: string(ar), Name: aspectNames[ar]})
	}
	return out
}
