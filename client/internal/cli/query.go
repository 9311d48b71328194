package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) protocolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protocol",
		Short: "Параметры и счетчики протокола",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.client.Protocol(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.protocol(info)
		},
	}
}

func (a *app) feesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fees <сумма STX>",
		Short: "Рассчитать комиссию за депозит",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := ParseSTX(args[0])
			if err != nil {
				return err
			}
			quote, err := a.client.Fees(cmd.Context(), amount)
			if err != nil {
				return err
			}
			return a.out.print(quote, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Сумма: %s\nКомиссия: %s\nВ хранилище: %s\n",
					FormatSTX(quote.Amount), FormatSTX(quote.Fee), FormatSTX(quote.Net))
				return err
			})
		},
	}
}

func (a *app) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "balance [адрес]",
		Short:   "Баланс счета, по умолчанию своего",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: a.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			var addr string
			if len(args) == 1 {
				addr = args[0]
			}
			b, err := a.client.Balance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return a.out.print(b, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %s\n", b.Address, FormatSTX(b.Amount))
				return err
			})
		},
	}
}

func (a *app) botStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot-status <адрес>",
		Short: "Проверить, одобрен ли бот",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.client.IsBot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.value(ok)
		},
	}
}
