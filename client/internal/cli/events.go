package cli

import (
	"github.com/spf13/cobra"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

func (a *app) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Журнал событий реестра",
		Long: `Выводит события с номером больше --after. С флагом --follow после журнала
выводит новые события по мере фиксации, до прерывания.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			after, _ := cmd.Flags().GetUint64("after")
			limit, _ := cmd.Flags().GetInt("limit")
			follow, _ := cmd.Flags().GetBool("follow")

			if !follow {
				list, err := a.client.Events(cmd.Context(), after, limit)
				if err != nil {
					return err
				}
				return a.out.events(list)
			}

			a.logger.Debug("Подключение к потоку событий", "after", after)
			return a.client.StreamEvents(cmd.Context(), after, func(ev models.Event) error {
				return a.out.event(&ev)
			})
		},
	}
	cmd.Flags().Uint64("after", 0, "номер последнего известного события")
	cmd.Flags().Int("limit", 0, "не больше стольких событий")
	cmd.Flags().BoolP("follow", "f", false, "следить за новыми событиями")
	return cmd
}
