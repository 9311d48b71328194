package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
)

const (
	deployer ledger.Address = "deployer"
	contract ledger.Address = "timefi-vault"
	wallet1  ledger.Address = "wallet_1"
	wallet2  ledger.Address = "wallet_2"
	botAddr  ledger.Address = "deployer.timefi-bot"

	startBalance uint64 = 100_000_000_000_000 // Как у счетов simnet
)

// fixture - реестр с часами и учетом балансов, доступными тесту.
type fixture struct {
	ledger  *ledger.Ledger
	clock   *ledger.ManualClock
	custody *ledger.MemoryCustody
}

// newFixture создает реестр, регистрирует делегата и пополняет счета.
func newFixture(t *testing.T, opts ...func(*ledger.Config)) *fixture {
	t.Helper()
	clock := ledger.NewManualClock(1)
	custody := ledger.NewMemoryCustody()
	for _, a := range []ledger.Address{deployer, wallet1, wallet2, botAddr} {
		custody.Fund(a, startBalance)
	}
	cfg := ledger.Config{
		Admin:    deployer,
		Contract: contract,
		Clock:    clock,
		Custody:  custody,
	}
	for _, o := range opts {
		o(&cfg)
	}
	l, err := ledger.New(cfg)
	require.NoError(t, err)
	require.NoError(t, l.Guard().Register(botAddr, ledger.KindDelegate))
	return &fixture{ledger: l, clock: clock, custody: custody}
}

// createVault создает хранилище и падает при ошибке.
func (f *fixture) createVault(t *testing.T, owner ledger.Address, amount, lock uint64) uint64 {
	t.Helper()
	id, err := f.ledger.CreateVault(owner, amount, lock)
	require.NoError(t, err)
	return id
}
