// Package cli реализует команды vaultctl - консольного клиента TimeFi.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/api"
)

const (
	defaultServer = "http://localhost:8443"
	envPrefix     = "VAULTCTL"
)

// Ключи конфигурации viper.
const (
	keyServer  = "server"
	keySession = "session"
	keyOutput  = "output"
	keyVerbose = "verbose"
	keyConfig  = "config"
)

// ErrNotLoggedIn возвращается командами, требующими входа, если сессии нет.
var ErrNotLoggedIn = errors.New("вход не выполнен, используйте vaultctl login")

// Options - внешние зависимости корневой команды.
type Options struct {
	Out       io.Writer
	Err       io.Writer
	NewClient func(baseURL string) api.Client
	Version   string
}

// app - состояние, общее для всех команд одного запуска.
type app struct {
	opts    Options
	v       *viper.Viper
	logger  *log.Logger
	client  api.Client
	session *Session
	out     *printer
}

// NewRootCmd создает корневую команду vaultctl со всеми подкомандами.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.NewClient == nil {
		opts.NewClient = api.NewHTTPClient
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	a := &app{opts: opts, v: viper.New()}

	cmd := &cobra.Command{
		Use:   "vaultctl",
		Short: "Клиент протокола TimeFi: хранилища с блокировкой по времени",
		Long: `vaultctl работает с сервером TimeFi по HTTP API.

Суммы задаются и выводятся в STX (1 STX = 1 000 000 микро-единиц).
В форматах json и yaml суммы выводятся в микро-единицах.

Настройки берутся из флагов, переменных окружения VAULTCTL_*
и файла конфигурации (по умолчанию $HOME/.vaultctl.yaml).`,
		Version:           opts.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	flags := cmd.PersistentFlags()
	flags.String(keyConfig, "", "файл конфигурации (по умолчанию $HOME/.vaultctl.yaml)")
	flags.String(keyServer, "", "адрес сервера TimeFi (по умолчанию "+defaultServer+")")
	flags.String(keySession, DefaultSessionPath(), "файл сессии")
	flags.StringP(keyOutput, "o", formatText, "формат вывода: text, json, yaml")
	flags.BoolP(keyVerbose, "v", false, "подробный журнал в stderr")
	for _, key := range []string{keyConfig, keyServer, keySession, keyOutput, keyVerbose} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.protocolCmd(),
		a.feesCmd(),
		a.balanceCmd(),
		a.botStatusCmd(),
		a.vaultCmd(),
		a.proposalCmd(),
		a.adminCmd(),
		a.eventsCmd(),
		a.dashboardCmd(),
	)
	return cmd
}

// init читает конфигурацию, сессию и создает API клиент.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	if err := a.readConfig(); err != nil {
		return err
	}

	level := log.InfoLevel
	if a.v.GetBool(keyVerbose) {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.opts.Err, log.Options{Prefix: "vaultctl", Level: level})

	format := a.v.GetString(keyOutput)
	if err := validFormat(format); err != nil {
		return err
	}
	a.out = &printer{out: a.opts.Out, format: format}

	session, err := LoadSession(cmd.Context(), a.sessionPath())
	if err != nil {
		return err
	}
	a.session = session

	server := a.v.GetString(keyServer)
	if server == "" && session != nil {
		server = session.Server
	}
	if server == "" {
		server = defaultServer
	}
	a.client = a.opts.NewClient(server)
	if session != nil && session.Token != "" && (session.Server == "" || session.Server == server) {
		a.client.SetAuthToken(session.Token)
	}
	a.logger.Debug("Клиент настроен", "server", server, "session", a.sessionPath(), "logged_in", a.loggedIn())
	return nil
}

func (a *app) readConfig() error {
	if path := a.v.GetString(keyConfig); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
	}
	a.v.AddConfigPath(".")
	a.v.SetConfigType("yaml")
	a.v.SetConfigName(".vaultctl")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
	}
	return nil
}

func (a *app) sessionPath() string {
	return a.v.GetString(keySession)
}

func (a *app) loggedIn() bool {
	return a.session != nil && a.session.Token != ""
}

// requireLogin проверяет наличие сессии до обращения к серверу.
func (a *app) requireLogin(*cobra.Command, []string) error {
	if !a.loggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("неверный идентификатор %q", s)
	}
	return id, nil
}

// amountFlag читает флаг суммы в STX.
func amountFlag(cmd *cobra.Command, name string) (uint64, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return 0, fmt.Errorf("не указан флаг --%s", name)
	}
	return ParseSTX(s)
}

// Execute запускает корневую команду и печатает ошибку в stderr.
// Возвращает код завершения процесса.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Ошибка:", describe(err))
		return 1
	}
	return 0
}

// describe дополняет ошибку реестра именем кода.
func describe(err error) string {
	code, ok := api.CodeOf(err)
	if !ok {
		return err.Error()
	}
	if name, known := codeNames[code]; known {
		return fmt.Sprintf("%s (%s)", err.Error(), name)
	}
	return err.Error()
}

var codeNames = map[uint32]string{
	100: "нет прав",
	101: "не найдено",
	102: "неактивно или приостановлено",
	103: "неверная сумма",
	104: "срок блокировки",
	105: "уже выполнено",
	106: "бот не одобрен",
}
