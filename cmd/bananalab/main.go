package main

import (
	"fmt"
	"os"
	"runtime"

	"bananalab/internal/logging"
	"bananalab/internal/startup"

	"github.com/spf13/cobra"
)

var (
	width    int
	height   int
	outDir   string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "bananalab",
	Short: "Render photo-book pages into thumbnails",
	Long: `bananalab composites photo-book page documents (cells of image and
text elements with filters, masks and transforms) into small JPEG or PNG
thumbnails, caching decoded assets and unchanged pages between renders.`,
	Version:       startup.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		level, ok := logging.ParseLevel(logLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", logLevel)
		}
		logging.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVar(&width, "width", 300, "thumbnail bounding box width")
	rootCmd.PersistentFlags().IntVar(&height, "height", 300, "thumbnail bounding box height")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print generation progress")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"bananalab %s (%s, %s/%s, %s)\n",
		startup.Version, startup.Commit, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bananalab:", err)
		os.Exit(1)
	}
}
