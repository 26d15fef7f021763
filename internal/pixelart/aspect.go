package pixelart

import (
	"errors"
	"fmt"
	"strings"
)

type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectStory     AspectRatio = "9:16"
	AspectWide      AspectRatio = "16:9"

	DefaultAspectRatio = AspectSquare
)

var ErrInvalidAspectRatio = errors.New("invalid aspect ratio")

var aspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectStory, AspectWide}

func AspectRatios() []AspectRatio {
	return append([]AspectRatio(nil), aspectRatios...)
}

func (a AspectRatio) Valid() bool {
	for _, v := range aspectRatios {
		if v == a {
			return true
		}
	}
	return false
}

func (a AspectRatio) String() string {
	return string(a)
}

// exactAspectRatio is the check applied to requests: the value must be one of
// the five ratios as written. Only the empty string selects 1:1.
func exactAspectRatio(value string) (AspectRatio, error) {
	if value == "" {
		return DefaultAspectRatio, nil
	}
	if ar := AspectRatio(value); ar.Valid() {
		return ar, nil
	}
	return "", fmt.Errorf("%w: %q (want one of 1:1, 3:4, 4:3, 9:16, 16:9)", ErrInvalidAspectRatio, value)
}

// ParseAspectRatio is the lenient form for user-typed input. It accepts the five supported ratios, tolerating spaces around
// the colon and an "x" separator ("16x9"). An empty value selects 1:1.
func ParseAspectRatio(value string) (AspectRatio, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultAspectRatio, nil
	}
	value = strings.ReplaceAll(value, " ", "")
	value = strings.Replace(value, "x", ":", 1)

	ar := AspectRatio(value)
	if !ar.Valid() {
		return "", fmt.Errorf("%w: %q (want one of 1:1, 3:4, 4:3, 9:16, 16:9)", ErrInvalidAspectRatio, value)
	}
	return ar, nil
}
