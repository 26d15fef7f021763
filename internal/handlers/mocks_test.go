package handlers

import (
	"context"
	"sync"

	"pixelgen/internal/pixelart"
	"pixelgen/internal/telegram"
)

type sentPhoto struct {
	ChatID  int64
	DataURL string
	Caption string
}

type fakeMessenger struct {
	mu sync.Mutex

	DownloadFunc func(ctx context.Context, fileID string) ([]byte, string, error)

	texts     []string
	keyboards []telegram.InlineKeyboard
	edits     int
	answers   []string
	photos    []sentPhoto
	documents []string
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, kb telegram.InlineKeyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	return 42, nil
}

func (f *fakeMessenger) EditTextWithKeyboard(int64, int, string, telegram.InlineKeyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) SendPhotoDataURL(chatID int64, dataURL, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{ChatID: chatID, DataURL: dataURL, Caption: caption})
	return nil
}

func (f *fakeMessenger) SendDocumentDataURL(_ int64, _ string, filename, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, filename)
	return nil
}

func (f *fakeMessenger) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	if f.DownloadFunc != nil {
		return f.DownloadFunc(ctx, fileID)
	}
	return []byte("img-" + fileID), "image/jpeg", nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeStylizer struct {
	mu         sync.Mutex
	StylizeFunc func(ctx context.Context, in pixelart.Input) (pixelart.Result, error)
	inputs     []pixelart.Input
}

func (f *fakeStylizer) Stylize(ctx context.Context, in pixelart.Input) (pixelart.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	fn := f.StylizeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, in)
	}
	p := pixelart.ProfileForTier(in.Tier)
	return pixelart.Result{
		DataURL:     "data:image/png;base64,cGl4",
		MIMEType:    "image/png",
		Profile:     p,
		AspectRatio: pixelart.AspectRatio(in.AspectRatio),
		Label:       pixelart.HistoryLabel(in.Tier, in.Prompt),
	}, nil
}
