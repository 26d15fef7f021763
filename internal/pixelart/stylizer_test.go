package pixelart

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewStylizer(t *testing.T) {
	_, err := NewStylizer(Options{})
	require.Error(t, err)

	s, err := NewStylizer(Options{Generator: &fakeGenerator{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.Model())
}

func TestStylize(t *testing.T) {
	ctx := context.Background()

	t.Run("tier 3 wide scenario", func(t *testing.T) {
		gen := &fakeGenerator{}
		s, err := NewStylizer(Options{Generator: gen, Model: "test-model"})
		require.NoError(t, err)

		res, err := s.Stylize(ctx, Input{Image: "data:image/png;base64," + rawBase64, Tier: 3, AspectRatio: "16:9"})
		require.NoError(t, err)

		assert.Equal(t, 1, gen.calls)
		assert.Equal(t, "test-model", gen.lastModel)
		require.NotNil(t, gen.lastConfig.ImageConfig)
		assert.Equal(t, "16:9", gen.lastConfig.ImageConfig.AspectRatio)
		require.Len(t, gen.lastParts, 2)
		assert.Contains(t, gen.lastParts[0].Text, "32x32 grid style. Highly restricted 16-color palette")
		assert.NotContains(t, gen.lastParts[0].Text, "USER MODIFICATION")

		assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("pixels")), res.DataURL)
		assert.Equal(t, "image/png", res.MIMEType)
		assert.Equal(t, AspectWide, res.AspectRatio)
		assert.Equal(t, "Retro (8-Bit) Conversion", res.Label)
	})

	t.Run("input errors make no call", func(t *testing.T) {
		gen := &fakeGenerator{}
		s, _ := NewStylizer(Options{Generator: gen})

		_, err := s.Stylize(ctx, Input{Image: rawBase64, AspectRatio: "7:5"})
		assert.ErrorIs(t, err, ErrInvalidAspectRatio)
		_, err = s.Stylize(ctx, Input{})
		assert.ErrorIs(t, err, ErrEmptyImage)
		assert.Zero(t, gen.calls)
	})

	t.Run("transport error passes through once", func(t *testing.T) {
		boom := errors.New("connection reset")
		gen := &fakeGenerator{GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, boom
		}}
		s, _ := NewStylizer(Options{Generator: gen})

		_, err := s.Stylize(ctx, Input{Image: rawBase64})
		require.ErrorIs(t, err, boom)
		assert.False(t, IsGenerationError(err))
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("context error surfaces", func(t *testing.T) {
		gen := &fakeGenerator{GenerateContentFunc: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, ctx.Err()
		}}
		s, _ := NewStylizer(Options{Generator: gen})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Stylize(cctx, Input{Image: rawBase64})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("engine failure and empty generation", func(t *testing.T) {
		gen := &fakeGenerator{GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		}}
		s, _ := NewStylizer(Options{Generator: gen})
		_, err := s.Stylize(ctx, Input{Image: rawBase64})
		assert.ErrorIs(t, err, ErrEngineFailure)

		gen.GenerateContentFunc = func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "nope"}}},
			}}}, nil
		}
		_, err = s.Stylize(ctx, Input{Image: rawBase64})
		assert.ErrorIs(t, err, ErrEmptyGeneration)
	})

	t.Run("user prompt reaches the request", func(t *testing.T) {
		gen := &fakeGenerator{}
		s, _ := NewStylizer(Options{Generator: gen})

		res, err := s.Stylize(ctx, Input{Image: rawBase64, Prompt: "make it spooky", Tier: 1})
		require.NoError(t, err)
		assert.Equal(t, BuildInstruction(1, "make it spooky"), gen.lastParts[0].Text)
		assert.Equal(t, "make it spooky", res.Label)
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "The AI engine failed to generate the pixel data. Please try a different image.", UserMessage(ErrEngineFailure))
	assert.Equal(t, "No pixel data returned. The prompt might be too restrictive or the image too complex.",
		UserMessage(errors.Join(errors.New("x"), ErrEmptyGeneration)))
	assert.Contains(t, UserMessage(ErrInvalidAspectRatio), "16:9")
	assert.Equal(t, msgTimeout, UserMessage(context.DeadlineExceeded))
	assert.Equal(t, msgGeneric, UserMessage(errors.New("dial tcp: refused")))

	assert.True(t, IsInputError(ErrEmptyImage))
	assert.False(t, IsInputError(ErrEngineFailure))
}
