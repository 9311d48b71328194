package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/api"
	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

const requestTimeout = 10 * time.Second

// vaultsLoadedMsg содержит хранилища владельца и параметры протокола.
type vaultsLoadedMsg struct {
	protocol *models.ProtocolInfo
	vaults   []models.Vault
}

// payoutMsg сообщает о выполненной выплате.
type payoutMsg struct {
	action string
	id     uint64
	amount uint64
}

// errMsg - ошибка фоновой команды.
type errMsg struct{ err error }

// clearStatusMsg очищает статусную строку.
type clearStatusMsg struct{}

// refreshTickMsg запускает периодическое обновление.
type refreshTickMsg struct{}

// clearStatusCmd возвращает команду, которая отправит clearStatusMsg через delay.
func clearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func refreshTickCmd(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// fetchVaultsCmd загружает протокол и все хранилища owner.
func fetchVaultsCmd(ctx context.Context, client api.Client, owner string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		info, err := client.Protocol(ctx)
		if err != nil {
			return errMsg{err}
		}
		ids, err := client.ListVaults(ctx, owner)
		if err != nil {
			return errMsg{err}
		}
		vaults := make([]models.Vault, 0, len(ids))
		for _, id := range ids {
			v, gErr := client.GetVault(ctx, id)
			if gErr != nil {
				return errMsg{gErr}
			}
			vaults = append(vaults, *v)
		}
		return vaultsLoadedMsg{protocol: info, vaults: vaults}
	}
}

// payoutCmd выполняет операцию с выплатой (вывод или получение вознаграждения).
func payoutCmd(ctx context.Context, action string, id uint64,
	fn func(ctx context.Context, id uint64) (uint64, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		amount, err := fn(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return payoutMsg{action: action, id: id, amount: amount}
	}
}
