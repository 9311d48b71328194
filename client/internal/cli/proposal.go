package cli

import (
	"github.com/spf13/cobra"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

func (a *app) proposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "proposal",
		Aliases:           []string{"gov"},
		Short:             "Предложения управления и голосование хранилищами",
		PersistentPreRunE: a.chainLogin,
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Создать предложение от имени своего хранилища",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req models.CreateProposalRequest
			req.VaultID, _ = cmd.Flags().GetUint64("vault")
			req.Title, _ = cmd.Flags().GetString("title")
			req.Description, _ = cmd.Flags().GetString("description")
			req.Type, _ = cmd.Flags().GetString("type")
			req.Data, _ = cmd.Flags().GetString("data")
			id, err := a.client.CreateProposal(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.logger.Info("Предложение создано", "id", id)
			return a.out.value(id)
		},
	}
	create.Flags().Uint64("vault", 0, "хранилище автора")
	create.Flags().String("title", "", "заголовок")
	create.Flags().String("description", "", "описание")
	create.Flags().String("type", "", "тип предложения")
	create.Flags().String("data", "", "данные предложения")
	_ = create.MarkFlagRequired("vault")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("type")

	list := &cobra.Command{
		Use:   "list",
		Short: "Список предложений",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.client.ListProposals(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.proposals(l)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Показать предложение",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.client.GetProposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.out.proposal(p)
		},
	}

	vote := &cobra.Command{
		Use:   "vote <id>",
		Short: "Проголосовать хранилищем",
		Long:  "Голосует хранилищем за предложение. С флагом --against голос против.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			vaultID, _ := cmd.Flags().GetUint64("vault")
			against, _ := cmd.Flags().GetBool("against")
			if err = a.client.CastVote(cmd.Context(), id, vaultID, !against); err != nil {
				return err
			}
			a.logger.Info("Голос учтен", "proposal", id, "vault", vaultID, "support", !against)
			return nil
		},
	}
	vote.Flags().Uint64("vault", 0, "хранилище, которым голосовать")
	vote.Flags().Bool("against", false, "голос против")
	_ = vote.MarkFlagRequired("vault")

	voted := &cobra.Command{
		Use:   "voted <id> <хранилище>",
		Short: "Проверить, голосовало ли хранилище",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			vaultID, err := parseID(args[1])
			if err != nil {
				return err
			}
			ok, err := a.client.HasVoted(cmd.Context(), id, vaultID)
			if err != nil {
				return err
			}
			return a.out.value(ok)
		},
	}

	resolve := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Подвести итог после окончания голосования",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			passed, err := a.client.ResolveProposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.logger.Info("Голосование завершено", "proposal", id, "passed", passed)
			return a.out.value(passed)
		},
	}

	cmd.AddCommand(create, list, show, vote, voted, resolve)
	return cmd
}
