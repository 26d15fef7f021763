package pixelart

import (
	"context"
	"errors"
)

var (
	// ErrEngineFailure means the response had no candidate/content/parts at all.
	ErrEngineFailure = errors.New("engine failure")
	// ErrEmptyGeneration means the response was well formed but carried no image.
	ErrEmptyGeneration = errors.New("empty generation")

	ErrEmptyImage   = errors.New("image is empty")
	ErrInvalidImage = errors.New("image is not valid base64")
)

const (
	msgEngineFailure   = "The AI engine failed to generate the pixel data. Please try a different image."
	msgEmptyGeneration = "No pixel data returned. The prompt might be too restrictive or the image too complex."
	msgInvalidRatio    = "Unsupported aspect ratio. Choose one of 1:1, 3:4, 4:3, 9:16 or 16:9."
	msgInvalidImage    = "Please provide a valid image."
	msgTimeout         = "The engine took too long to answer. Please try again."
	msgGeneric         = "Engine failure. Please check your image format or connection."
)

// UserMessage returns text that can be shown to an end user for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEngineFailure):
		return msgEngineFailure
	case errors.Is(err, ErrEmptyGeneration):
		return msgEmptyGeneration
	case errors.Is(err, ErrInvalidAspectRatio):
		return msgInvalidRatio
	case errors.Is(err, ErrEmptyImage), errors.Is(err, ErrInvalidImage):
		return msgInvalidImage
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	default:
		return msgGeneric
	}
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the engine or the transport.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidAspectRatio) ||
		errors.Is(err, ErrEmptyImage) ||
		errors.Is(err, ErrInvalidImage)
}

// IsGenerationError reports whether the engine answered without an image.
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrEngineFailure) || errors.Is(err, ErrEmptyGeneration)
}
