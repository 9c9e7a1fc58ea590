package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

const envPrefix = "PATHTRACER"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand wires flags, PATHTRACER_* environment variables and an optional
// config file into one viper instance. Flags beat env, env beats the file.
func newRootCommand() *cobra.Command {
	vip := viper.New()
	logger := logrus.New()

	cmd := &cobra.Command{
		Use:          "pathtracer",
		Short:        "Monte Carlo path tracer for sphere scenes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, vip, logger)
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (YAML) with default flag values")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newRenderCommand(vip, logger),
		newScenesCommand(vip),
	)
	return cmd
}

func initConfig(cmd *cobra.Command, vip *viper.Viper, logger *logrus.Logger) error {
	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if path := vip.GetString("config"); path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	level, err := logrus.ParseLevel(vip.GetString("log-level"))
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetOutput(cmd.ErrOrStderr())
	return nil
}

type renderOpts struct {
	sceneName string
	sceneFile string
	output    string
	format    string
	width     int
	samples   int
	maxDepth  int
	workers   int
	seed      int64
	quiet     bool
	bvh       bool
}

func newRenderCommand(vip *viper.Viper, logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to PPM or PNG",
		Long: `Render a built-in scene or a YAML scene file.

The image is written as ASCII PPM to stdout unless --output names a file.
Progress goes to stderr, so the PPM stream can be piped directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := renderOpts{
				sceneName: vip.GetString("scene"),
				sceneFile: vip.GetString("scene-file"),
				output:    vip.GetString("output"),
				format:    vip.GetString("format"),
				width:     vip.GetInt("width"),
				samples:   vip.GetInt("samples"),
				maxDepth:  vip.GetInt("max-depth"),
				workers:   vip.GetInt("workers"),
				seed:      vip.GetInt64("seed"),
				quiet:     vip.GetBool("quiet"),
				bvh:       vip.GetBool("bvh"),
			}
			return runRender(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
		},
	}

	addRenderFlags(cmd.Flags())
	return cmd
}

// addRenderFlags registers the render flags; each can also come from PATHTRACER_* or the config file
func addRenderFlags(flags *pflag.FlagSet) {
	flags.String("scene", "default", "Built-in scene name (see 'pathtracer scenes')")
	flags.String("scene-file", "", "Path to a YAML scene file; overrides --scene")
	flags.StringP("output", "o", "", "Output file (default stdout)")
	flags.String("format", "", "Output format: ppm or png (default from --output extension, else ppm)")
	flags.Int("width", 0, "Image width in pixels (0 = scene default)")
	flags.Int("samples", 0, "Samples per pixel (0 = scene default)")
	flags.Int("max-depth", -1, "Maximum ray bounces (-1 = scene default)")
	flags.Int("workers", 0, "Number of parallel workers (0 = auto-detect)")
	flags.Int64("seed", 42, "Random seed for sampling and random scenes")
	flags.BoolP("quiet", "q", false, "Suppress progress output")
	flags.Bool("bvh", false, "Intersect through a bounding volume hierarchy instead of a linear scan")
}

// createScene loads a scene file when one is given, otherwise a built-in scene
func createScene(name, file string, seed int64) (*scene.Scene, error) {
	if file != "" {
		return scene.LoadSceneFile(file)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no scene name given", scene.ErrUnknownScene)
	}
	return scene.NewBuiltinScene(name, seed)
}

func runRender(ctx context.Context, opts renderOpts, stdout, stderr io.Writer, logger *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := createScene(opts.sceneName, opts.sceneFile, opts.seed)
	if err != nil {
		return err
	}
	if opts.width > 0 {
		s.Camera.ImageWidth = opts.width
	}
	if opts.samples > 0 {
		s.Camera.SamplesPerPixel = opts.samples
	}
	if opts.maxDepth >= 0 {
		s.Camera.MaxDepth = opts.maxDepth
	}
	if opts.bvh {
		bvhStats := s.BuildBVH()
		logger.WithFields(logrus.Fields{
			"nodes":     bvhStats.Nodes,
			"leaves":    bvhStats.Leaves,
			"max_depth": bvhStats.MaxDepth,
		}).Debug("Built BVH")
	}

	format := output.FormatPPM
	switch {
	case opts.format != "":
		if format, err = output.ParseFormat(opts.format); err != nil {
			return err
		}
	case opts.output != "" && opts.output != "-":
		format = output.FormatFromPath(opts.output)
	}

	renderOptions := renderer.RenderOptions{
		NumWorkers: opts.workers,
		Seed:       opts.seed,
		Logger:     logger,
	}
	if !opts.quiet {
		renderOptions.Progress = func(remaining int) {
			fmt.Fprintf(stderr, "\rScanlines remaining: %d ", remaining)
		}
	}

	rt, err := renderer.NewRaytracer(s, renderOptions)
	if err != nil {
		return fmt.Errorf("scene %s: %w", s.Name, err)
	}

	var out io.Writer = stdout
	if opts.output != "" && opts.output != "-" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	logger.WithFields(logrus.Fields{
		"scene":   s.Name,
		"objects": s.GetPrimitiveCount(),
		"format":  format,
	}).Info("Starting render")

	var stats renderer.RenderStats
	switch format {
	case output.FormatPNG:
		sink := output.NewImageSink()
		if stats, err = rt.Render(ctx, sink); err != nil {
			return err
		}
		if err := output.EncodePNG(out, sink.Image()); err != nil {
			return err
		}
	default:
		sink := output.NewPPMWriter(out)
		if stats, err = rt.Render(ctx, sink); err != nil {
			return err
		}
		if err := sink.Close(); err != nil {
			return err
		}
	}

	if !opts.quiet {
		fmt.Fprint(stderr, "\rDone.                 \n")
	}

	bounds := s.Bounds()
	fields := logrus.Fields{
		"scene":          s.Name,
		"size":           fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		"samples":        stats.TotalSamples,
		"workers":        stats.NumWorkers,
		"duration":       stats.Duration,
		"mean_luminance": fmt.Sprintf("%.4f", stats.MeanLuminance),
	}
	if bounds.IsValid() {
		fields["bounds_min"] = bounds.Min().String()
		fields["bounds_max"] = bounds.Max().String()
	}
	logger.WithFields(fields).Info("Render completed")

	if opts.output != "" && opts.output != "-" {
		logger.Infof("Render saved as %s", opts.output)
	}
	return nil
}

func newScenesCommand(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes and scene files",
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := scene.ListAllScenes(vip.GetString("dir"))
			if err != nil {
				return err
			}
			if vip.GetBool("json") {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(response)
			}
			return printScenes(cmd.OutOrStdout(), response)
		},
	}

	cmd.Flags().String("dir", "scenes", "Directory to search for YAML scene files")
	cmd.Flags().Bool("json", false, "Print scenes as JSON")
	return cmd
}

func printScenes(w io.Writer, response scene.ScenesResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, group := range response.Groups {
		fmt.Fprintf(tw, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", info.ID, info.DisplayName, info.Description)
		}
	}
	return tw.Flush()
}
