package cli

import (
	"fmt"
	"os"

	"github.com/fmueller/voxlate/internal/config"
	"github.com/fmueller/voxlate/internal/controller"
	"github.com/spf13/cobra"
)

func newDownloadCmd(app *appState) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <file-name>...",
		Short: "Download files produced by an earlier transcription",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, false)
			if err != nil {
				return err
			}

			links := make([]controller.Link, 0, len(args))
			for _, name := range args {
				links = append(links, controller.Link{Name: name, Download: true})
			}

			dir := flagOrConfig(cmd, "output-dir", outputDir, app.cfg.OutputDir)
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
				dir = cwd
			}
			return app.downloadLinks(cmd, s, dir, links)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for downloaded files (env "+config.EnvOutputDir+"; default working directory)")
	return cmd
}
