package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelgen/internal/pixelart"
)

type stubStylizer struct {
	in  pixelart.Input
	err error
}

func (s *stubStylizer) Stylize(_ context.Context, in pixelart.Input) (pixelart.Result, error) {
	s.in = in
	if s.err != nil {
		return pixelart.Result{}, s.err
	}
	return pixelart.Result{
		DataURL:     "data:image/png;base64,cGl4ZWxz",
		MIMEType:    "image/png",
		AspectRatio: pixelart.AspectWide,
		Label:       pixelart.HistoryLabel(in.Tier, in.Prompt),
	}, nil
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 5, 3))))
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestRunStylize(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir)
	out := filepath.Join(dir, "out.png")

	st := &stubStylizer{}
	var stdout bytes.Buffer
	err := runStylize(context.Background(), st, stylizeOptions{Input: in, Output: out, Tier: 4, AspectRatio: "16x9"}, &stdout, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 4, st.in.Tier)
	assert.Equal(t, "image/png", st.in.MIMEType)
	assert.Equal(t, "16:9", st.in.AspectRatio)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), got)
	assert.Contains(t, stdout.String(), "Vintage (Atari) Conversion")
	assert.Contains(t, stdout.String(), "5x3 source")
}

func TestRunStylizeDefaultOutputName(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir)
	t.Chdir(dir)

	now := time.UnixMilli(1700000000000)
	require.NoError(t, runStylize(context.Background(), &stubStylizer{}, stylizeOptions{Input: in}, &bytes.Buffer{}, now))
	_, err := os.Stat(filepath.Join(dir, "pixelgen-export-1700000000000.png"))
	assert.NoError(t, err)
}

func TestRunStylizeErrors(t *testing.T) {
	dir := t.TempDir()
	notImage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0o600))

	err := runStylize(context.Background(), &stubStylizer{}, stylizeOptions{Input: notImage}, &bytes.Buffer{}, time.Now())
	require.Error(t, err)

	in := writePNG(t, dir)
	err = runStylize(context.Background(), &stubStylizer{}, stylizeOptions{Input: in, AspectRatio: "5:4"}, &bytes.Buffer{}, time.Now())
	require.ErrorIs(t, err, pixelart.ErrInvalidAspectRatio)

	err = runStylize(context.Background(), &stubStylizer{err: pixelart.ErrEmptyGeneration}, stylizeOptions{Input: in}, &bytes.Buffer{}, time.Now())
	require.ErrorIs(t, err, pixelart.ErrEmptyGeneration)
	assert.Contains(t, err.Error(), "No pixel data returned")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestPrintProfilesReportsWriteError(t *testing.T) {
	assert.EqualError(t, printProfiles(failingWriter{}), "closed pipe")
}

func TestPrintProfiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printProfiles(&buf))
	assert.Contains(t, buf.String(), "* 2  Balanced (16-Bit)")
	assert.Contains(t, buf.String(), "16:9")
}
