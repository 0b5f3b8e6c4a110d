package main

import (
	"os"
	"sync"

	"github.com/spf13/cobra"

	"movie-maker/internal/assets"
	"movie-maker/internal/logging"
	"movie-maker/internal/startup"
)

type commandContext struct {
	uploadDir   string
	outputDir   string
	ffprobePath string

	uploadsOnce sync.Once
	uploads     *assets.Store
	uploadsErr  error

	outputsOnce sync.Once
	outputs     *assets.Store
	outputsErr  error
}

func (c *commandContext) uploadStore() (*assets.Store, error) {
	c.uploadsOnce.Do(func() {
		c.uploads, c.uploadsErr = assets.New(c.uploadDir, "uploads")
	})
	return c.uploads, c.uploadsErr
}

func (c *commandContext) outputStore() (*assets.Store, error) {
	c.outputsOnce.Do(func() {
		c.outputs, c.outputsErr = assets.New(c.outputDir, "output")
	})
	return c.outputs, c.outputsErr
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "mediactl",
		Short:         "Inspect and maintain movie maker media directories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelWarn
			if verbose {
				level = logging.LevelDebug
			}
			logging.SetLevel(level)
			logging.SetOutput(cmd.ErrOrStderr(), "console")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.uploadDir, "upload-dir", envOr("UPLOAD_DIR", startup.DefaultUploadDir), "Upload directory")
	flags.StringVar(&ctx.outputDir, "output-dir", envOr("OUTPUT_DIR", startup.DefaultOutputDir), "Output directory")
	flags.StringVar(&ctx.ffprobePath, "ffprobe", envOr("FFPROBE_PATH", "ffprobe"), "ffprobe binary")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newFilesCommand(ctx))
	rootCmd.AddCommand(newOutputsCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
