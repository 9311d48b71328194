package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "admin",
		Short:             "Операции администратора протокола",
		PersistentPreRunE: a.chainLogin,
	}

	approve := &cobra.Command{
		Use:   "approve-bot <адрес>",
		Short: "Одобрить бота-делегата",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.ApproveBot(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("Бот одобрен", "bot", args[0])
			return nil
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke-bot <адрес>",
		Short: "Отозвать одобрение бота",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.RevokeBot(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("Одобрение бота отозвано", "bot", args[0])
			return nil
		},
	}

	treasury := &cobra.Command{
		Use:   "treasury <адрес>",
		Short: "Сменить адрес казначейства",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.SetTreasury(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("Казначейство изменено", "treasury", args[0])
			return nil
		},
	}

	pause := &cobra.Command{
		Use:   "pause",
		Short: "Приостановить создание хранилищ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.client.SetPaused(cmd.Context(), true)
		},
	}
	unpause := &cobra.Command{
		Use:   "unpause",
		Short: "Возобновить работу протокола",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.client.SetPaused(cmd.Context(), false)
		},
	}

	fund := &cobra.Command{
		Use:   "fund-rewards",
		Short: "Пополнить фонд вознаграждений",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}
			if err = a.client.FundRewards(cmd.Context(), amount); err != nil {
				return err
			}
			a.logger.Info("Фонд вознаграждений пополнен", "amount", FormatSTX(amount))
			return nil
		},
	}
	fund.Flags().String("amount", "", "сумма в STX")

	clock := &cobra.Command{
		Use:   "clock",
		Short: "Продвинуть высоту реестра",
		Long:  "Продвигает высоту на --advance или устанавливает --height. Назад высота не идет.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			advance, _ := cmd.Flags().GetUint64("advance")
			height, _ := cmd.Flags().GetUint64("height")
			if (advance == 0) == (height == 0) {
				return errors.New("укажите ровно один из флагов --advance и --height")
			}
			h, err := a.client.AdvanceClock(cmd.Context(), advance, height)
			if err != nil {
				return err
			}
			return a.out.value(h)
		},
	}
	clock.Flags().Uint64("advance", 0, "на сколько продвинуть")
	clock.Flags().Uint64("height", 0, "установить высоту")

	archive := &cobra.Command{
		Use:   "archive",
		Short: "Сохранить снимок реестра в объектное хранилище",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arc, err := a.client.Archive(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.print(arc, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (высота %d, событий %d, %d байт)\n",
					arc.ObjectKey, arc.Height, arc.Events, arc.SizeBytes)
				return err
			})
		},
	}

	archives := &cobra.Command{
		Use:   "archives",
		Short: "Список архивных снимков",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			list, err := a.client.ListArchives(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return a.out.archives(list)
		},
	}
	archives.Flags().Int("limit", 0, "размер страницы")
	archives.Flags().Int("offset", 0, "смещение")

	cmd.AddCommand(approve, revoke, treasury, pause, unpause, fund, clock, archive, archives)
	return cmd
}
