package main

import (
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chaos-io/imgedit/dump"
	"github.com/chaos-io/imgedit/rembg"
	"github.com/chaos-io/imgedit/server"
	"github.com/chaos-io/imgedit/util"
)

var (
	serveAddr string

	rembgBackend string
	onnxModel    string
	onnxLib      string
	remoteURL    string

	dumpDir       string
	dumpRetention time.Duration
	janitorSpec   string

	runOutput  string
	runVerbose bool
)

func NewRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "imgedit",
		Short: "imgedit is a stateless HTTP backend for image background removal, background editing and resizing",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if runVerbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&rembgBackend, "rembg", "noop", "background removal backend: onnx, remote or noop")
	rootCmd.PersistentFlags().StringVar(&onnxModel, "onnx-model", "", "path to the onnx model file (u2net style)")
	rootCmd.PersistentFlags().StringVar(&onnxLib, "onnx-lib", "", "path to the onnxruntime shared library")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote-url", "", "endpoint of the remote rembg service")

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Run: func(cmd *cobra.Command, args []string) {
			remover, cleanup, err := newRemover()
			if err != nil {
				log.Errorf("Failed to create rembg backend: %v", err)
				os.Exit(1)
			}
			defer cleanup()

			var dumper *dump.Dumper
			if dumpDir != "" {
				dumper, err = dump.New(dumpDir, dumpRetention)
				if err != nil {
					log.Errorf("Failed to create dumper: %v", err)
					os.Exit(1)
				}
				if err := dumper.StartJanitor(janitorSpec); err != nil {
					log.Errorf("Failed to start janitor: %v", err)
					os.Exit(1)
				}
				defer dumper.Stop()
			}

			s := server.New(remover, dumper)
			log.Infof("Listening on %s with rembg backend %q", serveAddr, rembgBackend)
			if err := s.Run(serveAddr); err != nil {
				log.Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
	serveCmd.Flags().StringVar(&dumpDir, "dump-dir", "", "directory for debug dumps of processed images (empty disables)")
	serveCmd.Flags().DurationVar(&dumpRetention, "dump-retention", 24*time.Hour, "how long to keep debug dumps")
	serveCmd.Flags().StringVar(&janitorSpec, "janitor-spec", "@every 10m", "cron spec for pruning debug dumps")
	rootCmd.AddCommand(serveCmd)

	// 本地一次性处理，不起服务
	var rembgCmd = &cobra.Command{
		Use:   "rembg <path-or-url>",
		Short: "Remove the background of a single image and write the result as PNG",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer util.Trace("rembg")()

			src, err := loadImage(args[0])
			if err != nil {
				log.Errorf("Failed to load image: %v", err)
				os.Exit(1)
			}

			remover, cleanup, err := newRemover()
			if err != nil {
				log.Errorf("Failed to create rembg backend: %v", err)
				os.Exit(1)
			}
			defer cleanup()

			out, err := remover.Remove(cmd.Context(), src)
			if err != nil {
				log.Errorf("Failed to remove background: %v", err)
				os.Exit(1)
			}

			if err := util.SaveImage(runOutput, out); err != nil {
				log.Errorf("Failed to save output: %v", err)
				os.Exit(1)
			}
			log.Infof("Wrote %s", runOutput)
		},
	}
	rembgCmd.Flags().StringVarP(&runOutput, "output", "o", "output.png", "output file")
	rootCmd.AddCommand(rembgCmd)

	return rootCmd
}

// loadImage 支持本地路径和 http(s) URL
func loadImage(input string) (image.Image, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return util.DownloadImage(input)
	}
	return util.OpenImage(input)
}

func newRemover() (rembg.Remover, func(), error) {
	switch strings.ToLower(rembgBackend) {
	case "onnx":
		r, err := rembg.NewONNX(rembg.ONNXConfig{
			ModelPath:   onnxModel,
			LibraryPath: onnxLib,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Destroy, nil
	case "remote":
		if remoteURL == "" {
			return nil, nil, fmt.Errorf("remote backend needs --remote-url")
		}
		return rembg.NewRemote(remoteURL), func() {}, nil
	case "noop", "none", "":
		return rembg.NewNoop(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown rembg backend %q", rembgBackend)
	}
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Errorf("Error: %v", err)
		os.Exit(1)
	}
}
