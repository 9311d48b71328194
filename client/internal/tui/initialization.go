package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(22)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	docStyle    = lipgloss.NewStyle().Margin(docStyleMarginVertical, docStyleMarginHorizontal)
)

// vaultItem - элемент списка хранилищ.
type vaultItem struct {
	vault  models.Vault
	format func(uint64) string
}

func (i vaultItem) Title() string {
	return fmt.Sprintf("#%d  %s", i.vault.ID, i.format(i.vault.Amount))
}

func (i vaultItem) Description() string {
	d := fmt.Sprintf("%s, разблокировка на высоте %d", i.vault.Status, i.vault.UnlockHeight)
	if i.vault.Bot != "" {
		d += ", бот " + i.vault.Bot
	}
	return d
}

func (i vaultItem) FilterValue() string {
	return fmt.Sprintf("%d %s", i.vault.ID, i.vault.Status)
}

// initVaultList инициализирует список хранилищ.
func initVaultList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("212")).
		BorderLeftForeground(lipgloss.Color("212"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("240")).
		BorderLeftForeground(lipgloss.Color("212"))

	l := list.New([]list.Item{}, delegate, defaultListWidth, defaultListHeight)
	l.Title = "Хранилища"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = list.DefaultStyles().Title.Bold(true)
	return l
}
