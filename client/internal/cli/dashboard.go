package cli

import (
	"github.com/spf13/cobra"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/tui"
)

func (a *app) dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   "Интерактивная панель своих хранилищ",
		Args:    cobra.NoArgs,
		PreRunE: a.requireLogin,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refresh, _ := cmd.Flags().GetDuration("refresh")
			return tui.Run(cmd.Context(), tui.Config{
				Client:  a.client,
				Owner:   a.session.Address,
				Format:  FormatSTX,
				Refresh: refresh,
			})
		},
	}
	cmd.Flags().Duration("refresh", 0, "период автообновления, 0 - вручную по r")
	return cmd
}
