package pixelart

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const defaultMIMEType = "image/png"

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+)(;[^,]*)?,`)

// Input is what a front-end hands to the builder.
type Input struct {
	// Image is base64, optionally prefixed with a data URL header.
	Image string
	// MIMEType wins over the data URL header when set.
	MIMEType    string
	Prompt      string
	Tier        int
	AspectRatio string
}

// Request is a fully resolved generation request.
type Request struct {
	Profile     HardwareProfile
	Instruction string
	Image       []byte
	MIMEType    string
	AspectRatio AspectRatio
}

// StripDataURLPrefix drops everything up to and including the first comma.
// Raw base64 has no comma and is returned unchanged.
func StripDataURLPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

func NewRequest(in Input) (Request, error) {
	raw := strings.TrimSpace(in.Image)
	if raw == "" {
		return Request{}, ErrEmptyImage
	}

	mimeType := strings.TrimSpace(in.MIMEType)
	if mimeType == "" {
		if m := dataURLRegex.FindStringSubmatch(raw); len(m) >= 2 {
			mimeType = m[1]
		}
	}
	if mimeType == "" {
		mimeType = defaultMIMEType
	}

	payload := strings.TrimSpace(StripDataURLPrefix(raw))
	if payload == "" {
		return Request{}, ErrEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return Request{}, ErrEmptyImage
	}

	ar, err := exactAspectRatio(in.AspectRatio)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Profile:     ProfileForTier(in.Tier),
		Instruction: BuildInstruction(in.Tier, in.Prompt),
		Image:       data,
		MIMEType:    mimeType,
		AspectRatio: ar,
	}, nil
}

// Contents is the single user turn: instruction text first, then the image.
func (r Request) Contents() []*genai.Content {
	return []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: r.Instruction},
				{InlineData: &genai.Blob{MIMEType: r.MIMEType, Data: r.Image}},
			},
		},
	}
}

func (r Request) Config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: string(r.AspectRatio)},
	}
}

// ExtractImage returns the first inline image of the first candidate as a
// data URL.
func ExtractImage(resp *genai.GenerateContentResponse) (string, error) {
	blob, err := firstImage(resp)
	if err != nil {
		return "", err
	}
	return encodeDataURL(blob), nil
}

func firstImage(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrEngineFailure
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || cand.Content.Parts == nil {
		return nil, ErrEngineFailure
	}

	for _, p := range cand.Content.Parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData, nil
		}
	}

	if reason := string(cand.FinishReason); reason != "" && cand.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w (finish reason %s)", ErrEmptyGeneration, reason)
	}
	return nil, ErrEmptyGeneration
}

func encodeDataURL(blob *genai.Blob) string {
	mimeType := strings.TrimSpace(blob.MIMEType)
	if mimeType == "" {
		mimeType = defaultMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(blob.Data))
}
