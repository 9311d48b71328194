// Package tui реализует интерактивную панель хранилищ на bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/api"
	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

const (
	statusMessageTimeout     = 3 * time.Second // Время отображения статусных сообщений
	defaultListWidth         = 80
	defaultListHeight        = 20
	headerHeight             = 4 // Заголовок, статус и справка
	docStyleMarginVertical   = 1
	docStyleMarginHorizontal = 2
)

// Клавиши.
const (
	keyQuit     = "q"
	keyCtrlC    = "ctrl+c"
	keyRefresh  = "r"
	keyEnter    = "enter"
	keyBack     = "esc"
	keyWithdraw = "w"
	keyClaim    = "c"
)

type screenState int

const (
	vaultListScreen screenState = iota
	vaultDetailScreen
)

// Config - параметры панели.
type Config struct {
	Client  api.Client
	Owner   string              // Адрес владельца
	Format  func(uint64) string // Форматирование сумм
	Refresh time.Duration       // Период обновления, 0 - только вручную
}

type model struct {
	ctx     context.Context
	client  api.Client
	owner   string
	format  func(uint64) string
	refresh time.Duration

	state    screenState
	vaults   list.Model
	protocol *models.ProtocolInfo
	selected *models.Vault
	loading  bool
	status   string
	err      error
}

func newModel(ctx context.Context, cfg Config) *model {
	format := cfg.Format
	if format == nil {
		format = func(v uint64) string { return fmt.Sprintf("%d", v) }
	}
	return &model{
		ctx:     ctx,
		client:  cfg.Client,
		owner:   cfg.Owner,
		format:  format,
		refresh: cfg.Refresh,
		state:   vaultListScreen,
		vaults:  initVaultList(),
		loading: true,
	}
}

// Run запускает панель и блокируется до выхода пользователя или отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Client == nil {
		return errors.New("не задан API клиент")
	}
	p := tea.NewProgram(newModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("ошибка панели: %w", err)
	}
	return nil
}

// Init - команда, выполняемая при запуске.
func (m *model) Init() tea.Cmd {
	return tea.Batch(fetchVaultsCmd(m.ctx, m.client, m.owner), refreshTickCmd(m.refresh))
}

// setStatusMessage устанавливает статусное сообщение и запускает таймер его очистки.
func (m *model) setStatusMessage(status string) tea.Cmd {
	m.status = status
	return clearStatusCmd(statusMessageTimeout)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.vaults.SetSize(msg.Width-h, msg.Height-v-headerHeight)
		return m, nil

	case vaultsLoadedMsg:
		return m, m.handleVaultsLoaded(msg)

	case payoutMsg:
		m.loading = true
		status := fmt.Sprintf("%s: хранилище #%d, выплачено %s", msg.action, msg.id, m.format(msg.amount))
		return m, tea.Batch(m.setStatusMessage(status), fetchVaultsCmd(m.ctx, m.client, m.owner))

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case clearStatusMsg:
		m.status = ""
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(fetchVaultsCmd(m.ctx, m.client, m.owner), refreshTickCmd(m.refresh))

	case tea.KeyMsg:
		if msg.String() == keyCtrlC {
			return m, tea.Quit
		}
		if m.state == vaultDetailScreen {
			return m.updateDetailScreen(msg)
		}
		return m.updateListScreen(msg)
	}

	var cmd tea.Cmd
	m.vaults, cmd = m.vaults.Update(msg)
	return m, cmd
}

func (m *model) handleVaultsLoaded(msg vaultsLoadedMsg) tea.Cmd {
	m.loading = false
	m.err = nil
	m.protocol = msg.protocol

	items := make([]list.Item, len(msg.vaults))
	for i, v := range msg.vaults {
		items[i] = vaultItem{vault: v, format: m.format}
		if m.selected != nil && m.selected.ID == v.ID {
			selected := v
			m.selected = &selected
		}
	}
	return m.vaults.SetItems(items)
}

// updateListScreen обрабатывает клавиши на экране списка.
func (m *model) updateListScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.vaults.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.vaults, cmd = m.vaults.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case keyQuit:
		return m, tea.Quit
	case keyRefresh:
		m.loading = true
		return m, fetchVaultsCmd(m.ctx, m.client, m.owner)
	case keyEnter:
		if item, ok := m.vaults.SelectedItem().(vaultItem); ok {
			v := item.vault
			m.selected = &v
			m.state = vaultDetailScreen
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.vaults, cmd = m.vaults.Update(msg)
	return m, cmd
}

// updateDetailScreen обрабатывает клавиши на экране хранилища.
func (m *model) updateDetailScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit:
		return m, tea.Quit
	case keyBack, "backspace":
		m.state = vaultListScreen
		m.selected = nil
		return m, nil
	case keyRefresh:
		m.loading = true
		return m, fetchVaultsCmd(m.ctx, m.client, m.owner)
	case keyWithdraw:
		m.err = nil
		return m, payoutCmd(m.ctx, "Вывод", m.selected.ID, m.withdraw)
	case keyClaim:
		m.err = nil
		return m, payoutCmd(m.ctx, "Вознаграждение", m.selected.ID, m.client.ClaimRewards)
	}
	return m, nil
}

// withdraw выводит хранилище целиком, выплата равна его сумме.
func (m *model) withdraw(ctx context.Context, id uint64) (uint64, error) {
	amount := m.selected.Amount
	if _, err := m.client.Withdraw(ctx, id); err != nil {
		return 0, err
	}
	return amount, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	switch m.state {
	case vaultDetailScreen:
		b.WriteString(m.detailView())
	default:
		b.WriteString(m.vaults.View())
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Ошибка: " + m.err.Error()))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	case m.loading:
		b.WriteString(helpStyle.Render("Загрузка..."))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpView()))
	return docStyle.Render(b.String())
}

func (m *model) headerView() string {
	title := "TimeFi: " + m.owner
	if m.protocol == nil {
		return headerStyle.Render(title)
	}
	p := m.protocol
	line := fmt.Sprintf("высота %d | хранилищ %d | TVL %s", p.Height, p.VaultCount, m.format(p.TVL))
	if p.Paused {
		line += " | ПРИОСТАНОВЛЕН"
	}
	return headerStyle.Render(title) + "\n" + helpStyle.Render(line)
}

func (m *model) detailView() string {
	v := m.selected
	if v == nil {
		return ""
	}
	rows := [][2]string{
		{"Хранилище", fmt.Sprintf("#%d", v.ID)},
		{"Сумма", m.format(v.Amount)},
		{"Статус", v.Status},
		{"Создано на высоте", fmt.Sprintf("%d", v.CreatedAt)},
		{"Разблокировка", fmt.Sprintf("%d", v.UnlockHeight)},
		{"Бот", orDash(v.Bot)},
		{"Получатель", orDash(v.Beneficiary)},
		{"Ожидает передачи", orDash(v.PendingOwner)},
	}
	if m.protocol != nil && v.Active && v.UnlockHeight > m.protocol.Height {
		rows = append(rows, [2]string{"Осталось", fmt.Sprintf("%d", v.UnlockHeight-m.protocol.Height)})
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) helpView() string {
	if m.state == vaultDetailScreen {
		return "w: вывести | c: получить вознаграждение | r: обновить | esc: назад | q: выход"
	}
	return "enter: открыть | /: фильтр | r: обновить | q: выход"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
