package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli"

	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/log"
	"github.com/df07/go-whitted-raytracer/pkg/output"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

var logger = log.New("raytracer")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// renderFlags are accepted both by the render command and at the top level,
// where rendering is the default action
func renderFlags() []cli.Flag {
	def := renderer.DefaultConfig()
	return []cli.Flag{
		cli.IntFlag{Name: "width", Value: def.Width, Usage: "frame width in pixels"},
		cli.IntFlag{Name: "height", Value: def.Height, Usage: "frame height in pixels"},
		cli.IntFlag{Name: "spp", Value: def.SamplesPerPixel, Usage: "samples per pixel"},
		cli.IntFlag{Name: "depth", Value: def.MaxDepth, Usage: "maximum reflection and refraction depth"},
		cli.BoolFlag{Name: "preview", Usage: "quick preview: 1 sample per pixel and depth 1"},
		cli.StringFlag{Name: "scene, s", Value: "cornell", Usage: "built-in scene name or path to a .toml scene description"},
		cli.StringFlag{Name: "camera", Value: "pinhole", Usage: "camera model: pinhole or thinlens"},
		cli.Float64Flag{Name: "aperture", Value: 0, Usage: "thin lens aperture diameter (0 keeps the scene's value, or picks one from the focus distance)"},
		cli.Float64Flag{Name: "focus-distance", Value: 0, Usage: "thin lens focus distance (0 keeps the scene's value)"},
		cli.IntFlag{Name: "workers", Value: def.NumWorkers, Usage: "parallel workers (0 = number of CPUs)"},
		cli.IntFlag{Name: "tile-size", Value: def.TileSize, Usage: "tile edge length in pixels"},
		cli.Float64Flag{Name: "gamma", Value: def.Gamma, Usage: "gamma applied when writing the image"},
		cli.IntFlag{Name: "supersample", Value: 1, Usage: "render at N times the size and downsample the written image"},
		cli.StringFlag{Name: "out, o", Value: "output.png", Usage: "output image (.png, .bmp or .tiff)"},
		cli.BoolFlag{Name: "stats", Usage: "print render statistics"},
	}
}

func newApp(stdout io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "whitted"
	app.Usage = "render scenes with Whitted-style ray tracing"
	app.Version = "0.1.0"
	app.Writer = stdout
	app.Flags = append([]cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, notice, warning or error); overrides -v and --vv",
		},
	}, renderFlags()...)
	app.Action = RenderFrame
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene to an image file",
			Description: `
Load a built-in scene or a TOML scene description, trace it with the given
options and write the frame to --out. The image format follows the file
extension.`,
			Flags:  renderFlags(),
			Action: RenderFrame,
		},
		{
			Name:   "scenes",
			Usage:  "list the built-in scenes",
			Action: ListScenes,
		},
	}
	return app
}

func setupLogging(ctx *cli.Context) error {
	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	}

	verbose := ctx.GlobalBool("v") || ctx.Bool("v")
	veryVerbose := ctx.GlobalBool("vv") || ctx.Bool("vv")
	log.SetLevel(log.Verbosity(verbose, veryVerbose))
	return nil
}

// renderConfig converts command line flags into render options and the
// options of the written image
func renderConfig(ctx *cli.Context) (renderer.Config, output.Options, error) {
	cfg := renderer.Config{
		Width:           ctx.Int("width"),
		Height:          ctx.Int("height"),
		SamplesPerPixel: ctx.Int("spp"),
		MaxDepth:        ctx.Int("depth"),
		NumWorkers:      ctx.Int("workers"),
		TileSize:        ctx.Int("tile-size"),
		Gamma:           ctx.Float64("gamma"),
	}
	if ctx.Bool("preview") {
		preview := renderer.PreviewConfig()
		cfg.SamplesPerPixel = preview.SamplesPerPixel
		cfg.MaxDepth = preview.MaxDepth
	}

	opts := output.Options{Gamma: cfg.Gamma, Width: cfg.Width, Height: cfg.Height}
	factor := ctx.Int("supersample")
	if factor < 1 {
		return cfg, opts, fmt.Errorf("%w: supersample factor %d must be at least 1", renderer.ErrInvalidConfig, factor)
	}
	cfg.Width *= factor
	cfg.Height *= factor
	return cfg, opts, cfg.Validate()
}

// loadScene loads the scene and applies the camera model flags
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	s, err := scene.Load(ctx.String("scene"))
	if err != nil {
		return nil, err
	}

	cam := s.Camera.Config()
	switch strings.ToLower(ctx.String("camera")) {
	case "pinhole":
		cam.Aperture = 0
	case "thinlens":
		if a := ctx.Float64("aperture"); a > 0 {
			cam.Aperture = a
		}
		if f := ctx.Float64("focus-distance"); f > 0 {
			cam.FocusDistance = f
		}
		if cam.Aperture <= 0 {
			cam.Aperture = cam.Focus() * geometry.DefaultApertureRatio
		}
	default:
		return nil, fmt.Errorf("unknown camera %q (use pinhole or thinlens)", ctx.String("camera"))
	}
	return s.WithCamera(cam), nil
}

// RenderFrame renders a single frame and writes it to disk
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, opts, err := renderConfig(ctx)
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if _, err := output.FormatFor(out); err != nil {
		return err
	}

	s, err := loadScene(ctx)
	if err != nil {
		return err
	}

	// Stop handing out tiles on Ctrl-C and save what was rendered
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fb, stats, renderErr := renderer.Render(sigCtx, s, cfg)
	if renderErr != nil && !errors.Is(renderErr, renderer.ErrInterrupted) {
		return renderErr
	}

	if err := output.WriteImage(out, fb, opts); err != nil {
		return err
	}
	logger.Noticef("wrote %s", out)

	if ctx.Bool("stats") {
		stats.WriteTable(ctx.App.Writer)
	}
	return renderErr
}

// ListScenes prints the names of the built-in scenes
func ListScenes(ctx *cli.Context) error {
	for _, name := range scene.Names() {
		fmt.Fprintln(ctx.App.Writer, name)
	}
	return nil
}
