package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

func (a *app) vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "vault",
		Short:             "Хранилища: создание, просмотр, вывод и управление",
		PersistentPreRunE: a.chainLogin,
	}
	cmd.AddCommand(
		a.vaultCreateCmd(),
		a.vaultListCmd(),
		a.vaultShowCmd(),
		a.vaultWithdrawCmd(),
		a.vaultEmergencyCmd(),
		a.vaultTopUpCmd(),
		a.vaultExtendCmd(),
		a.vaultAddressCmd("beneficiary", "Назначить получателя средств", a.setBeneficiary),
		a.vaultAddressCmd("transfer", "Предложить передачу хранилища новому владельцу", a.initiateTransfer),
		a.vaultAcceptCmd(),
		a.vaultBotCmd(),
		a.vaultRewardsCmd(),
		a.vaultClaimCmd(),
	)
	return cmd
}

// chainLogin выполняет корневую инициализацию и проверяет вход. Cobra
// вызывает только ближайший PersistentPreRunE.
func (a *app) chainLogin(cmd *cobra.Command, args []string) error {
	if err := a.init(cmd, args); err != nil {
		return err
	}
	return a.requireLogin(cmd, args)
}

func (a *app) vaultCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Создать хранилище",
		Long: `Создает хранилище, блокируя сумму на заданный срок. С суммы удерживается
комиссия 0.5%. Срок задается длительностью: 1h, 720h и т.п.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}
			lock, _ := cmd.Flags().GetDuration("lock")
			if lock <= 0 {
				return errors.New("срок блокировки должен быть положительным")
			}
			id, err := a.client.CreateVault(cmd.Context(), amount, uint64(lock/time.Second))
			if err != nil {
				return err
			}
			a.logger.Info("Хранилище создано", "id", id, "amount", FormatSTX(amount))
			return a.out.value(id)
		},
	}
	cmd.Flags().String("amount", "", "сумма в STX")
	cmd.Flags().Duration("lock", 0, "срок блокировки")
	return cmd
}

func (a *app) vaultListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Список хранилищ владельца",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			ids, err := a.client.ListVaults(cmd.Context(), owner)
			if err != nil {
				return err
			}
			list := make([]models.Vault, 0, len(ids))
			for _, id := range ids {
				v, gErr := a.client.GetVault(cmd.Context(), id)
				if gErr != nil {
					return gErr
				}
				list = append(list, *v)
			}
			return a.out.vaults(list)
		},
	}
	cmd.Flags().String("owner", "", "адрес владельца (по умолчанию свой)")
	return cmd
}

func (a *app) vaultShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Показать хранилище",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := a.client.GetVault(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.out.format != formatText {
				return a.out.vault(v)
			}
			remaining, err := a.client.TimeRemaining(cmd.Context(), id)
			if err != nil {
				return err
			}
			power, err := a.client.VotingPower(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err = a.out.vault(v); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out.out, "Осталось:     %d\nСила голоса:  %d\n", remaining, power)
			return err
		},
	}
}

func (a *app) vaultWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id>",
		Short: "Вывести средства после окончания блокировки",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := a.client.Withdraw(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.logger.Info("Средства выведены", "id", id)
			return a.out.value(ok)
		},
	}
}

func (a *app) vaultEmergencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency-withdraw <id>",
		Short: "Досрочный вывод со штрафом 25%",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				payout, pErr := a.client.EmergencyPayout(cmd.Context(), id)
				if pErr != nil {
					return pErr
				}
				return fmt.Errorf("к выплате %s, для подтверждения повторите с --yes", FormatSTX(payout))
			}
			return a.payout("Досрочный вывод выполнен", func(ctx context.Context, id uint64) (uint64, error) {
				return a.client.EmergencyWithdraw(ctx, id)
			})(cmd, args)
		},
	}
	cmd.Flags().Bool("yes", false, "подтвердить досрочный вывод")
	return cmd
}

func (a *app) vaultTopUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top-up <id>",
		Short: "Пополнить хранилище",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}
			if err = a.client.TopUp(cmd.Context(), id, amount); err != nil {
				return err
			}
			a.logger.Info("Хранилище пополнено", "id", id, "amount", FormatSTX(amount))
			return nil
		},
	}
	cmd.Flags().String("amount", "", "сумма в STX")
	return cmd
}

func (a *app) vaultExtendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend <id>",
		Short: "Продлить блокировку",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			by, _ := cmd.Flags().GetDuration("by")
			if by <= 0 {
				return errors.New("продление должно быть положительным")
			}
			if err = a.client.ExtendLock(cmd.Context(), id, uint64(by/time.Second)); err != nil {
				return err
			}
			a.logger.Info("Блокировка продлена", "id", id, "by", by)
			return nil
		},
	}
	cmd.Flags().Duration("by", 0, "на сколько продлить")
	return cmd
}

func (a *app) setBeneficiary(ctx context.Context, id uint64, addr string) error {
	return a.client.SetBeneficiary(ctx, id, addr)
}

func (a *app) initiateTransfer(ctx context.Context, id uint64, addr string) error {
	return a.client.InitiateTransfer(ctx, id, addr)
}

// vaultAddressCmd - команда вида "<name> <id> <адрес>".
func (a *app) vaultAddressCmd(name, short string, fn func(ctx context.Context, id uint64, addr string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id> <адрес>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err = fn(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			a.logger.Info("Готово", "command", name, "id", id, "address", args[1])
			return nil
		},
	}
}

func (a *app) vaultAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id>",
		Short: "Принять передачу хранилища",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err = a.client.AcceptTransfer(cmd.Context(), id); err != nil {
				return err
			}
			a.logger.Info("Хранилище принято", "id", id)
			return nil
		},
	}
}

func (a *app) vaultBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Бот-делегат хранилища",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "assign <id> <бот>",
			Short: "Назначить одобренного бота",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err = a.client.AssignBot(cmd.Context(), id, args[1]); err != nil {
					return err
				}
				a.logger.Info("Бот назначен", "id", id, "bot", args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "unassign <id>",
			Short: "Снять бота",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err = a.client.UnassignBot(cmd.Context(), id); err != nil {
					return err
				}
				a.logger.Info("Бот снят", "id", id)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) vaultRewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards <id>",
		Short: "Вознаграждение хранилища",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			info, err := a.client.Rewards(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.out.print(info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Начислено: %s\nК получению: %s\nПолучено: %t\n",
					FormatSTX(info.Rewards), FormatSTX(info.Pending), info.Claimed)
				return err
			})
		},
	}
}

func (a *app) vaultClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <id>",
		Short: "Получить вознаграждение",
		Args:  cobra.ExactArgs(1),
		RunE: a.payout("Вознаграждение получено", func(ctx context.Context, id uint64) (uint64, error) {
			return a.client.ClaimRewards(ctx, id)
		}),
	}
}

// payout - общий RunE для операций, возвращающих сумму выплаты.
func (a *app) payout(msg string, fn func(ctx context.Context, id uint64) (uint64, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, err := fn(cmd.Context(), id)
		if err != nil {
			return err
		}
		a.logger.Info(msg, "id", id, "amount", FormatSTX(amount))
		return a.out.amount(amount)
	}
}
