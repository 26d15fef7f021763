package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pixelgen/internal/config"
	"pixelgen/internal/gemini"
	"pixelgen/internal/httpclient"
	"pixelgen/internal/imagedata"
	"pixelgen/internal/pixelart"
)

type stylizeOptions struct {
	Input       string
	Output      string
	Tier        int
	AspectRatio string
	Prompt      string
}

type stylizer interface {
	Stylize(ctx context.Context, in pixelart.Input) (pixelart.Result, error)
}

func newStylizeCmd() *cobra.Command {
	var opts stylizeOptions

	cmd := &cobra.Command{
		Use:   "stylize",
		Short: "Convert one image file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			gem, err := gemini.New(ctx, gemini.Options{
				APIKey:     cfg.GeminiAPIKey,
				BaseURL:    cfg.GeminiBaseURL,
				APIVersion: cfg.GeminiAPIVersion,
				HTTPClient: httpclient.New(httpclient.Options{PreferIPv4: cfg.PreferIPv4, Timeout: cfg.HTTPTimeout, Logger: logger}),
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			st, err := pixelart.NewStylizer(pixelart.Options{Generator: gem, Model: cfg.GeminiModel, Logger: logger})
			if err != nil {
				return err
			}

			return runStylize(ctx, st, opts, cmd.OutOrStdout(), time.Now())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "source image path")
	f.StringVarP(&opts.Output, "output", "o", "", "output path (default pixelgen-export-<ms>.png)")
	f.IntVarP(&opts.Tier, "tier", "t", pixelart.DefaultTier, "hardware tier 1-4")
	f.StringVarP(&opts.AspectRatio, "ratio", "r", string(pixelart.DefaultAspectRatio), "aspect ratio: 1:1, 3:4, 4:3, 9:16 or 16:9")
	f.StringVarP(&opts.Prompt, "prompt", "p", "", "extra style instruction")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runStylize(ctx context.Context, st stylizer, opts stylizeOptions, out io.Writer, now time.Time) error {
	ratio, err := pixelart.ParseAspectRatio(opts.AspectRatio)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return err
	}
	info, err := imagedata.Probe(data)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.Input, err)
	}

	res, err := st.Stylize(ctx, pixelart.Input{
		Image:       base64.StdEncoding.EncodeToString(data),
		MIMEType:    info.MIMEType,
		Prompt:      opts.Prompt,
		Tier:        opts.Tier,
		AspectRatio: string(ratio),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", pixelart.UserMessage(err), err)
	}

	_, payload, err := imagedata.ParseDataURL(res.DataURL, res.MIMEType)
	if err != nil {
		return err
	}

	path := opts.Output
	if path == "" {
		path = pixelart.ExportFilename(now)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s -> %s (%s, %s, %dx%d source)\n",
		opts.Input, path, res.Label, res.AspectRatio, info.Width, info.Height)
	return err
}
