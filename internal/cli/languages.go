package cli

import "github.com/spf13/cobra"

func newLanguagesCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages offered by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, true)
			if err != nil {
				return err
			}
			return s.controller.Initialize(cmd.Context())
		},
	}
}
