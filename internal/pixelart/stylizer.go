package pixelart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash-image"

// Generator is the outbound generateContent call. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	Generator Generator
	Model     string
	Logger    *slog.Logger
}

// Stylizer turns an Input into a pixel-art data URL with one generateContent
// call. It holds no per-call state and is safe for concurrent use. It never
// retries and never imposes a deadline of its own; callers bound ctx.
type Stylizer struct {
	gen    Generator
	model  string
	logger *slog.Logger
}

type Result struct {
	DataURL     string
	MIMEType    string
	Profile     HardwareProfile
	AspectRatio AspectRatio
	Label       string
}

func NewStylizer(opts Options) (*Stylizer, error) {
	if opts.Generator == nil {
		return nil, errors.New("generator is nil")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Stylizer{gen: opts.Generator, model: model, logger: logger}, nil
}

func (s *Stylizer) Model() string {
	return s.model
}

func (s *Stylizer) Stylize(ctx context.Context, in Input) (Result, error) {
	req, err := NewRequest(in)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	resp, err := s.gen.GenerateContent(ctx, s.model, req.Contents(), req.Config())
	if err != nil {
		return Result{}, fmt.Errorf("generate content: %w", err)
	}

	blob, err := firstImage(resp)
	if err != nil {
		s.logger.WarnContext(ctx, "no image in response",
			"tier", req.Profile.Tier, "aspect_ratio", req.AspectRatio, "err", err)
		return Result{}, err
	}

	s.logger.InfoContext(ctx, "stylized image",
		"tier", req.Profile.Tier,
		"aspect_ratio", req.AspectRatio,
		"input_bytes", len(req.Image),
		"output_bytes", len(blob.Data),
		"dur_ms", time.Since(start).Milliseconds(),
	)

	dataURL := encodeDataURL(blob)
	mimeType := strings.TrimSpace(blob.MIMEType)
	if mimeType == "" {
		mimeType = defaultMIMEType
	}

	return Result{
		DataURL:     dataURL,
		MIMEType:    mimeType,
		Profile:     req.Profile,
		AspectRatio: req.AspectRatio,
		Label:       HistoryLabel(req.Profile.Tier, in.Prompt),
	}, nil
}
