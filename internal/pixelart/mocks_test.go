package pixelart

import (
	"context"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	calls      int
	lastModel  string
	lastConfig *genai.GenerateContentConfig
	lastParts  []*genai.Part
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.lastModel = model
	f.lastConfig = config
	if len(contents) > 0 {
		f.lastParts = contents[0].Parts
	}
	if f.GenerateContentFunc != nil {
		return f.GenerateContentFunc(ctx, model, contents, config)
	}
	return imageResponse("image/png", []byte("pixels")), nil
}

func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
				},
			},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}
