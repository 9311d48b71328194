package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
)

func TestLedger_RequestEmergencyWithdraw(t *testing.T) {
	f := newFixture(t)
	id := f.createVault(t, wallet1, 1_000_000, ledger.MaxLock)

	payout, err := f.ledger.EmergencyPayout(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(746_250), payout)

	_, err = f.ledger.RequestEmergencyWithdraw(wallet2, id)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	walletBefore := f.custody.Balance(wallet1)
	treasuryBefore := f.custody.Balance(deployer)
	got, err := f.ledger.RequestEmergencyWithdraw(wallet1, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(746_250), got)
	assert.Equal(t, walletBefore+746_250, f.custody.Balance(wallet1))
	assert.Equal(t, treasuryBefore+248_750, f.custody.Balance(deployer))
	assert.Equal(t, uint64(0), f.custody.Balance(contract))
	assert.Equal(t, uint64(5_000+248_750), f.ledger.TotalFees())

	status, err := f.ledger.VaultStatus(id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusEmergency, status)

	_, err = f.ledger.RequestEmergencyWithdraw(wallet1, id)
	require.ErrorIs(t, err, ledger.ErrInactive)
	_, err = f.ledger.EmergencyPayout(id)
	require.ErrorIs(t, err, ledger.ErrInactive)
	_, err = f.ledger.Withdraw(wallet1, id)
	require.ErrorIs(t, err, ledger.ErrInactive)

	last := f.ledger.Events().Since(1, 0)
	require.Len(t, last, 1)
	assert.Equal(t, ledger.EventEmergencyWithdrawn, last[0].Type)
	assert.Equal(t, uint64(248_750), last[0].Penalty)
}

func TestLedger_EmergencyWithdrawWhilePaused(t *testing.T) {
	f := newFixture(t)
	id := f.createVault(t, wallet1, 1_000_000, 3600)
	require.NoError(t, f.ledger.SetPaused(deployer, true))

	_, err := f.ledger.RequestEmergencyWithdraw(wallet1, id)
	require.NoError(t, err)
}

func TestLedger_EmergencyPayoutNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.EmergencyPayout(3)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
