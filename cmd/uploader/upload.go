package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"filerelay/internal/client"
	"filerelay/internal/config"
	"filerelay/internal/logging"
	"filerelay/internal/otel"
	"filerelay/internal/upload"
)

func uploadCmd() *cobra.Command {
	var (
		server    string
		fromStdin bool
		copyURL   bool
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload one or more files",
		Long: `Upload files in the order given.

Invalid files are reported and skipped; a failed upload does not stop
the remaining ones.

Examples:
  uploader upload photo.png clip.mp4
  find . -name '*.pdf' | uploader upload --stdin
  uploader upload --copy report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if fromStdin {
				more, err := client.ReadPaths(cmd.InOrStdin())
				if err != nil {
					return err
				}
				paths = append(paths, more...)
			}
			if len(paths) == 0 {
				return errors.New("no files given")
			}
			return runUpload(cmd, paths, server, copyURL, !noColor)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server base URL (default $UPLOADER_SERVER_URL)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read file paths from stdin, one per line")
	cmd.Flags().BoolVar(&copyURL, "copy", false, "Copy the last uploaded URL to the clipboard")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	return cmd
}

func runUpload(cmd *cobra.Command, paths []string, server string, copyURL, color bool) error {
	cfg := config.LoadClient()
	if server != "" {
		cfg.ServerURL = server
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// exporting is opt-in for the CLI
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") != "" {
		shutdown, err := otel.Init(ctx, "filerelay-uploader", logging.New(cmd.ErrOrStderr(), time.Local))
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	prefs, err := client.LoadPrefs(cfg.PrefsPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "ignoring prefs: %v\n", err)
	}

	color = color && os.Getenv("NO_COLOR") == "" && isatty.IsTerminal(os.Stdout.Fd())
	ui := client.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), prefs.Theme, color)

	s := &client.Session{
		Uploader:  client.NewHTTPUploader(cfg.ServerURL, cfg.Timeout),
		Rules:     upload.DefaultRules(),
		UI:        ui,
		Clipboard: client.SystemClipboard{},
	}

	ui.Info("Uploading to %s", cfg.ServerURL)
	attempted := s.Run(ctx, client.Select(paths))

	if copyURL && ui.Result != nil {
		_ = s.CopyURL()
	}

	failed := 0
	for _, f := range attempted {
		if f.State != client.StateSucceeded {
			failed++
		}
	}
	if failed > 0 || len(attempted) < len(paths) {
		return fmt.Errorf("%d of %d files were not uploaded", len(paths)-len(attempted)+failed, len(paths))
	}
	return nil
}
