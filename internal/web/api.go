package web

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"pixelgen/internal/imagedata"
	"pixelgen/internal/pixelart"
)

type tierOption struct {
	Tier        int    `json:"tier"`
	Label       string `json:"label"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ratioOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type optionsResponse struct {
	Tiers              []tierOption  `json:"tiers"`
	AspectRatios       []ratioOption `json:"aspectRatios"`
	DefaultTier        int           `json:"defaultTier"`
	DefaultAspectRatio string        `json:"defaultAspectRatio"`
	MaxUploadBytes     int64         `json:"maxUploadBytes"`
}

// stylizeRequest is the JSON form of POST /api/stylize. Image is a data URL
// or bare base64.
type stylizeRequest struct {
	Image       string `json:"image" validate:"required"`
	Tier        int    `json:"tier"`
	AspectRatio string `json:"aspectRatio"`
	Prompt      string `json:"prompt" validate:"max=2000"`
}

type stylizeResponse struct {
	Image       string `json:"image"`
	MIMEType    string `json:"mimeType"`
	Label       string `json:"label"`
	Tier        int    `json:"tier"`
	Profile     string `json:"profile"`
	AspectRatio string `json:"aspectRatio"`
	Filename    string `json:"filename"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOptions(c echo.Context) error {
	resp := optionsResponse{
		DefaultTier:        pixelart.DefaultTier,
		DefaultAspectRatio: string(pixelart.DefaultAspectRatio),
		MaxUploadBytes:     s.maxUploadBytes,
	}
	for _, p := range pixelart.Profiles() {
		resp.Tiers = append(resp.Tiers, tierOption{Tier: p.Tier, Label: p.Label, Name: p.Name, Description: p.Description})
	}
	for _, o := range pixelart.AspectOptions() {
		resp.AspectRatios = append(resp.AspectRatios, ratioOption{Key: o.Key, Name: o.Name})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStylize(c echo.Context) error {
	r := c.Request()
	// Base64 in JSON inflates the payload by a third; leave room for it and
	// for the other fields.
	r.Body = http.MaxBytesReader(c.Response(), r.Body, s.maxUploadBytes*4/3+64<<10)

	var (
		req stylizeRequest
		err error
	)
	if strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		req, err = s.readMultipart(c)
	} else {
		req, err = s.readJSON(c)
	}
	if err != nil {
		return err
	}

	mimeType, data, err := imagedata.ParseDataURL(req.Image, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image must be a base64 data URL.")
	}
	if int64(len(data)) > s.maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("Image exceeds the %d KB upload limit.", s.maxUploadBytes>>10))
	}
	info, err := imagedata.Probe(data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported image format.")
	}
	if mimeType == "" {
		mimeType = info.MIMEType
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	res, err := s.stylizer.Stylize(ctx, pixelart.Input{
		Image:       base64.StdEncoding.EncodeToString(data),
		MIMEType:    mimeType,
		Prompt:      req.Prompt,
		Tier:        req.Tier,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		return s.stylizeError(err)
	}

	return c.JSON(http.StatusOK, stylizeResponse{
		Image:       res.DataURL,
		MIMEType:    res.MIMEType,
		Label:       res.Label,
		Tier:        res.Profile.Tier,
		Profile:     res.Profile.Name,
		AspectRatio: string(res.AspectRatio),
		Filename:    pixelart.ExportFilename(s.now()),
	})
}

func (s *Server) readJSON(c echo.Context) (stylizeRequest, error) {
	var req stylizeRequest
	if err := c.Bind(&req); err != nil {
		return stylizeRequest{}, tooLargeOr(err, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body."))
	}
	if err := c.Validate(&req); err != nil {
		return stylizeRequest{}, err
	}
	return req, nil
}

func (s *Server) readMultipart(c echo.Context) (stylizeRequest, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return stylizeRequest{}, tooLargeOr(err, echo.NewHTTPError(http.StatusBadRequest, "Missing image file."))
	}
	f, err := fh.Open()
	if err != nil {
		return stylizeRequest{}, echo.NewHTTPError(http.StatusBadRequest, "Failed to read image.")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return stylizeRequest{}, echo.NewHTTPError(http.StatusBadRequest, "Failed to read image.")
	}
	if len(data) == 0 {
		return stylizeRequest{}, echo.NewHTTPError(http.StatusBadRequest, "Missing image file.")
	}

	// A non-numeric tier is treated like any other out-of-range tier.
	tier, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("tier")))

	req := stylizeRequest{
		Image:       imagedata.EncodeDataURL(imagedata.DetectMIME(fh.Header.Get(echo.HeaderContentType), data), data),
		Tier:        tier,
		AspectRatio: c.FormValue("aspect_ratio"),
		Prompt:      c.FormValue("prompt"),
	}
	if err := c.Validate(&req); err != nil {
		return stylizeRequest{}, err
	}
	return req, nil
}

func (s *Server) stylizeError(err error) error {
	msg := pixelart.UserMessage(err)
	switch {
	case pixelart.IsInputError(err):
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	case pixelart.IsGenerationError(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, msg).SetInternal(err)
	case errors.Is(err, context.Canceled):
		// Client went away; the status is never seen.
		return echo.NewHTTPError(499, "request canceled").SetInternal(err)
	default:
		s.logger.Error("stylize failed", "err", err)
		return echo.NewHTTPError(http.StatusBadGateway, msg).SetInternal(err)
	}
}

func tooLargeOr(err error, fallback *echo.HTTPError) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Upload is too large.")
	}
	return fallback
}
