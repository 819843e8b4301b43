package main

import (
	"encoding/json"
	"image"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/youruser/imageapi/internal/api"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/model"
	"go.trai.ch/zerr"
)

var errUnknownKind = zerr.New("unknown render kind")

type renderOptions struct {
	*rootOptions
	locale    string
	statsType string
	lossless  bool
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "render <shop|section|locker|stats|progressbar|drop|qr> <request.json|text> <out|->",
		Short: "Render one image without starting the server",
		Long: `Render reads a request body from a JSON file and writes the image to out,
or to stdout when out is "-". The qr kind takes the text to encode instead
of a file.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0], args[1], args[2])
		},
	}
	cmd.Flags().StringVar(&opts.locale, "locale", model.DefaultLocale, "locale of shop text")
	cmd.Flags().StringVar(&opts.statsType, "type", string(model.StatsNormal), "stats layout: normal or competitive")
	cmd.Flags().BoolVar(&opts.lossless, "lossless", false, "encode lockers at full quality")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions, kind, input, out string) error {
	if kind == "qr" {
		img, err := imagepkg.GenerateQRImage(input, imagepkg.DefaultQRSize)
		if err != nil {
			return err
		}
		return writeImage(cmd, out, img, imagepkg.PNG, 0)
	}

	a, err := newApp(opts.rootOptions)
	if err != nil {
		return err
	}
	defer a.pipeline.Close()

	ctx := cmd.Context()
	p := a.pipeline
	var (
		surface *imagepkg.Surface
		format  = imagepkg.PNG
		quality int
	)
	switch strings.ToLower(kind) {
	case "shop":
		var req model.Shop
		if err := readJSON(input, &req); err != nil {
			return err
		}
		surface, err = p.Shop(ctx, &req, opts.locale, false)
	case "section":
		var req model.ShopSection
		if err := readJSON(input, &req); err != nil {
			return err
		}
		surface, err = p.ShopSection(ctx, &req, opts.locale, false)
	case "locker":
		var req model.Locker
		if err := readJSON(input, &req); err != nil {
			return err
		}
		format, quality = imagepkg.JPEG, api.LockerQuality(len(req.Items), opts.lossless)
		surface, err = p.Locker(ctx, &req)
	case "stats":
		t, perr := model.ParseStatsType(strings.ToLower(opts.statsType))
		if perr != nil {
			return perr
		}
		var req model.Stats
		if err := readJSON(input, &req); err != nil {
			return err
		}
		surface, err = p.Stats(ctx, &req, t)
	case "progressbar":
		var req model.ProgressBar
		if err := readJSON(input, &req); err != nil {
			return err
		}
		surface, err = p.ProgressBar(ctx, &req)
	case "drop":
		var req model.Drop
		if err := readJSON(input, &req); err != nil {
			return err
		}
		if req.Locale == "" {
			req.Locale = model.DefaultLocale
		}
		format, quality = imagepkg.JPEG, 100
		surface, err = p.Drop(ctx, &req)
	default:
		return zerr.With(zerr.Wrap(errUnknownKind, "render"), "kind", kind)
	}
	if err != nil {
		return err
	}
	defer surface.Release()

	return writeImage(cmd, out, surface.Image(), format, quality)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "read request"), "path", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return zerr.With(zerr.Wrap(err, "decode request"), "path", path)
	}
	return nil
}

func writeImage(cmd *cobra.Command, out string, img image.Image, f imagepkg.Format, quality int) error {
	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		file, err := os.Create(out)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "create output"), "path", out)
		}
		defer file.Close()
		w = file
	}
	return imagepkg.Encode(w, img, f, quality)
}
