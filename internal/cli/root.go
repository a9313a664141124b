package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/voxlate/internal/config"
	"github.com/fmueller/voxlate/internal/controller"
	"github.com/fmueller/voxlate/internal/logging"
	"github.com/fmueller/voxlate/internal/progress"
	"github.com/fmueller/voxlate/internal/service"
	"github.com/fmueller/voxlate/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	serverURL  string
	envFiles   []string

	cfg    config.Config
	logger *zap.Logger

	lookupEnv    func(string) (string, bool)
	copyFn       func(ctx context.Context, value string) error
	progressOpts progress.Options
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		serverURL: config.DefaultServerURL,
		cfg:       config.Default(),
		lookupEnv: os.LookupEnv,
	}

	cmd := &cobra.Command{
		Use:           "voxlate",
		Short:         "Transcribe and translate media files through a voxlate server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger

			cfg, err := config.Load(app.lookupEnv, app.envFiles...)
			if err != nil {
				return err
			}
			app.cfg = cfg
			if !cmd.Flags().Changed("server") {
				app.serverURL = cfg.ServerURL
			}
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindGlobalFlags(cmd, app)

	cmd.AddCommand(newLanguagesCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newDownloadCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindGlobalFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&app.serverURL, "server", app.serverURL, "Base URL of the transcription server (env "+config.EnvServerURL+")")
	flags.StringSliceVar(&app.envFiles, "env-file", nil, "Read settings from these .env files (default .env)")
	flags.BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	flags.BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	flags.BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindOutputDirFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "output-dir", "", "Directory for downloaded files (env "+config.EnvOutputDir+")")
}

// flagOrConfig prefers an explicitly set flag, then the configured value,
// then the flag default.
func flagOrConfig(cmd *cobra.Command, name, flagValue, configured string) string {
	if cmd.Flags().Changed(name) || strings.TrimSpace(configured) == "" {
		return flagValue
	}
	return configured
}

type session struct {
	client     *service.Client
	controller *controller.Controller
	view       *terminalView
}

func (a *appState) newSession(cmd *cobra.Command, printLanguages bool) (*session, error) {
	client, err := a.newClient()
	if err != nil {
		return nil, err
	}

	view := newTerminalView(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.log(), a.progressEnabled())
	view.printLanguages = printLanguages
	view.linkURL = func(link controller.Link) string {
		return client.DownloadURL(link.Name)
	}

	ctrl, err := controller.New(controller.Options{
		Backend:  client,
		View:     view,
		Logger:   a.log(),
		Progress: a.progressOpts,
	})
	if err != nil {
		return nil, err
	}

	return &session{client: client, controller: ctrl, view: view}, nil
}

func (a *appState) newClient() (*service.Client, error) {
	return service.New(service.Options{
		BaseURL:   a.serverURL,
		Logger:    a.log(),
		UserAgent: version.UserAgent(),
	})
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
