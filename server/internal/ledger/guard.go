package ledger

import (
	"fmt"
	"sort"
)

// Address - идентификатор учетной записи (кошелька или делегата).
type Address string

// Kind - вид учетной записи. Определяется один раз при регистрации.
type Kind int

const (
	KindWallet   Kind = iota // Конечный пользователь
	KindDelegate             // Бот/контракт, которому можно делегировать действия
)

func (k Kind) String() string {
	switch k {
	case KindWallet:
		return "wallet"
	case KindDelegate:
		return "delegate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind разбирает строковое представление вида учетной записи.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "wallet":
		return KindWallet, nil
	case "delegate", "bot":
		return KindDelegate, nil
	default:
		return KindWallet, fmt.Errorf("неизвестный вид учетной записи: %q", s)
	}
}

// Guard хранит классификацию адресов, администратора и список одобренных ботов.
type Guard struct {
	admin    Address
	kinds    map[Address]Kind
	approved map[Address]bool
}

func newGuard(admin Address) *Guard {
	return &Guard{
		admin:    admin,
		kinds:    make(map[Address]Kind),
		approved: make(map[Address]bool),
	}
}

// Register фиксирует вид учетной записи. Повторная регистрация запрещена.
func (g *Guard) Register(addr Address, kind Kind) error {
	if addr == "" {
		return ErrUnauthorized
	}
	if _, ok := g.kinds[addr]; ok {
		return ErrAlready
	}
	g.kinds[addr] = kind
	return nil
}

// KindOf возвращает вид адреса. Незарегистрированные адреса считаются кошельками.
func (g *Guard) KindOf(addr Address) Kind {
	return g.kinds[addr]
}

// IsAdmin сообщает, является ли адрес администратором протокола.
func (g *Guard) IsAdmin(addr Address) bool {
	return addr != "" && addr == g.admin
}

// IsBot сообщает, одобрен ли адрес как делегат.
func (g *Guard) IsBot(addr Address) bool {
	return g.approved[addr]
}

// requireAdmin проверяет права администратора.
func (g *Guard) requireAdmin(caller Address) error {
	if !g.IsAdmin(caller) {
		return ErrUnauthorized
	}
	return nil
}

// requireDelegate проверяет, что адрес зарегистрирован как делегат.
func (g *Guard) requireDelegate(addr Address) error {
	if g.KindOf(addr) != KindDelegate {
		return ErrBot
	}
	return nil
}

// approvedBots возвращает отсортированный список одобренных ботов.
func (g *Guard) approvedBots() []Address {
	out := make([]Address, 0, len(g.approved))
	for a := range g.approved {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Guard) clone() *Guard {
	c := newGuard(g.admin)
	for k, v := range g.kinds {
		c.kinds[k] = v
	}
	for k, v := range g.approved {
		c.approved[k] = v
	}
	return c
}
