package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const passwordEnv = envPrefix + "_PASSWORD"

// password берет пароль из флага или переменной окружения.
func password(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("password")
	if p == "" {
		p = os.Getenv(passwordEnv)
	}
	if p == "" {
		return "", errors.New("не указан пароль (--password или " + passwordEnv + ")")
	}
	return p, nil
}

func (a *app) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <адрес>",
		Short: "Зарегистрировать учетную запись",
		Long: `Регистрирует учетную запись на сервере. Имя пользователя становится адресом
в реестре. Вид учетной записи (wallet или delegate) задается один раз.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := password(cmd)
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			if err = a.client.Register(cmd.Context(), args[0], pass, kind); err != nil {
				return err
			}
			a.logger.Info("Учетная запись зарегистрирована", "address", args[0])
			return nil
		},
	}
	cmd.Flags().String("password", "", "пароль")
	cmd.Flags().String("kind", "wallet", "вид учетной записи: wallet или delegate")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <адрес>",
		Short: "Войти и сохранить токен в файл сессии",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := password(cmd)
			if err != nil {
				return err
			}
			resp, err := a.client.Login(cmd.Context(), args[0], pass)
			if err != nil {
				return err
			}
			server := a.v.GetString(keyServer)
			if server == "" {
				server = defaultServer
				if a.session != nil && a.session.Server != "" {
					server = a.session.Server
				}
			}
			s := &Session{
				Server:  server,
				Address: resp.Address,
				Kind:    resp.Kind,
				Token:   resp.Token,
				SavedAt: time.Now().UTC(),
			}
			if err = SaveSession(cmd.Context(), a.sessionPath(), s); err != nil {
				return err
			}
			a.session = s
			a.logger.Info("Вход выполнен", "address", resp.Address, "kind", resp.Kind)
			return nil
		},
	}
	cmd.Flags().String("password", "", "пароль")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Удалить файл сессии",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := RemoveSession(cmd.Context(), a.sessionPath()); err != nil {
				return err
			}
			a.session = nil
			a.logger.Info("Сессия удалена")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Показать текущую сессию",
		Args:    cobra.NoArgs,
		PreRunE: a.requireLogin,
		RunE: func(_ *cobra.Command, _ []string) error {
			view := struct {
				Server  string    `json:"server" yaml:"server"`
				Address string    `json:"address" yaml:"address"`
				Kind    string    `json:"kind" yaml:"kind"`
				SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
			}{a.session.Server, a.session.Address, a.session.Kind, a.session.SavedAt}
			return a.out.print(view, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (%s) на %s\n", view.Address, view.Kind, view.Server)
				return err
			})
		},
	}
}
