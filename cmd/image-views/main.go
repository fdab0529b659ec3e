package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/image-views/internal/config"
	"github.com/ironsheep/image-views/internal/imaging"
	"github.com/ironsheep/image-views/internal/server"
	"github.com/ironsheep/image-views/internal/viewset"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const envPrefix = "IMAGE_VIEWS_"

func main() {
	// Log to stderr; stdout carries the MCP protocol.
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "image-views",
		Usage:   "Derived image views over MCP or on the command line",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the view tools over MCP on stdin/stdout",
				Flags:  viewFlags(),
				Action: serveAction,
			},
			{
				Name:      "render",
				Usage:     "Compute every view of FILE and write them to a directory",
				ArgsUsage: "FILE",
				Flags: append(viewFlags(),
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Value: "png",
						Usage: "Output file extension (png, jpg, gif, bmp, tif)",
					},
					&cli.BoolFlag{
						Name:  "gallery",
						Usage: "Also write gallery.<format>, a contact sheet of every view",
					},
				),
				Action: renderAction,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "image-views %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}

// viewFlags are shared by serve and render. Each flag overrides the config
// file and can also be set from the environment.
func viewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{envPrefix + "CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{envPrefix + "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "feature-level",
			Usage:   "Views to compute: minimal, filters or full",
			EnvVars: []string{envPrefix + "FEATURE_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "default-view",
			Usage:   "View selected after every load",
			EnvVars: []string{envPrefix + "DEFAULT_VIEW"},
		},
		&cli.Float64Flag{
			Name:    "threshold",
			Usage:   "Highlight edge attenuation",
			EnvVars: []string{envPrefix + "HIGHLIGHT_THRESHOLD"},
		},
		&cli.IntFlag{
			Name:    "reduce-colors",
			Usage:   "Palette size of the reduce view",
			EnvVars: []string{envPrefix + "REDUCE_COLORS"},
		},
		&cli.StringFlag{
			Name:    "clamp-mode",
			Usage:   "Highlight clamping: independent or legacy",
			EnvVars: []string{envPrefix + "CLAMP_MODE"},
		},
		&cli.StringFlag{
			Name:    "edge-detector",
			Usage:   "Edge view algorithm: sobel or canny",
			EnvVars: []string{envPrefix + "EDGE_DETECTOR"},
		},
		&cli.BoolFlag{
			Name:    "parallel",
			Usage:   "Compute the views of a load concurrently",
			EnvVars: []string{envPrefix + "PARALLEL"},
		},
		&cli.IntFlag{
			Name:    "cache-size",
			Usage:   "Number of decoded image files kept in memory",
			EnvVars: []string{envPrefix + "CACHE_SIZE"},
		},
	}
}

// loadConfig reads the config file, if any, then applies flags that were set.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return config.Config{}, err
		}
		if cfg, err = config.Load(expanded); err != nil {
			return config.Config{}, err
		}
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("feature-level") {
		cfg.FeatureLevel = c.String("feature-level")
	}
	if c.IsSet("default-view") {
		cfg.DefaultView = c.String("default-view")
	}
	if c.IsSet("threshold") {
		cfg.HighlightThreshold = c.Float64("threshold")
	}
	if c.IsSet("reduce-colors") {
		cfg.ReduceColors = c.Int("reduce-colors")
	}
	if c.IsSet("clamp-mode") {
		cfg.ClampMode = c.String("clamp-mode")
	}
	if c.IsSet("edge-detector") {
		cfg.EdgeDetector = c.String("edge-detector")
	}
	if c.IsSet("parallel") {
		cfg.Parallel = c.Bool("parallel")
	}
	if c.IsSet("cache-size") {
		cfg.CacheSize = c.Int("cache-size")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	log.SetLevel(cfg.Level())
	return cfg, nil
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
		"level":   cfg.FeatureLevel,
	}).Debug("starting image-views server")

	server.Version = Version
	srv, err := server.New(cfg, log.StandardLogger())
	if err != nil {
		return err
	}
	return srv.Run()
}

func renderAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("render: expected exactly one FILE argument", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	in, err := homedir.Expand(c.Args().First())
	if err != nil {
		return err
	}
	out, err := homedir.Expand(c.String("out"))
	if err != nil {
		return err
	}

	written, err := render(cfg, in, out, c.String("format"), c.Bool("gallery"))
	for _, p := range written {
		fmt.Fprintln(c.App.Writer, p)
	}
	return err
}

// render loads in, computes its views and writes them to dir. Files that
// were written are returned even when others failed.
func render(cfg config.Config, in, dir, format string, gallery bool) ([]string, error) {
	cache, err := imaging.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	lib, err := cfg.Library()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.ViewOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = log.StandardLogger()

	set, err := viewset.New(opts, lib, nil)
	if err != nil {
		return nil, err
	}
	src, err := cache.Raster(in)
	if err != nil {
		return nil, err
	}
	if err := set.Load(src); err != nil {
		return nil, err
	}

	entries := make([]imaging.Entry, 0, len(set.Names()))
	for _, n := range set.Names() {
		img, _ := set.View(n)
		entries = append(entries, imaging.Entry{Name: n.String(), Image: img})
	}

	var result *multierror.Error
	written, err := imaging.SaveAll(entries, dir, format)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if gallery {
		path := filepath.Join(dir, "gallery."+format)
		if err := imaging.SaveGallery(entries, imaging.GalleryOptions{}, path); err != nil {
			result = multierror.Append(result, err)
		} else {
			written = append(written, path)
		}
	}
	return written, result.ErrorOrNil()
}
