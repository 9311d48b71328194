package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
)

func TestLedger_Governance(t *testing.T) {
	f := newFixture(t)
	v1 := f.createVault(t, wallet1, 1_000_000, 3600) // вес 995 000
	v2 := f.createVault(t, wallet2, 2_000_000, 3600) // вес 1 990 000

	_, err := f.ledger.CreateProposal(wallet2, v1, "fee", "снизить комиссию", "param", "fee=25")
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	pid, err := f.ledger.CreateProposal(wallet1, v1, "fee", "снизить комиссию", "param", "fee=25")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pid)
	assert.Equal(t, uint64(1), f.ledger.ProposalCount())

	require.ErrorIs(t, f.ledger.CastVote(wallet1, 99, v1, true), ledger.ErrNotFound)
	require.ErrorIs(t, f.ledger.CastVote(wallet1, pid, v2, true), ledger.ErrUnauthorized)

	require.NoError(t, f.ledger.CastVote(wallet1, pid, v1, true))
	require.ErrorIs(t, f.ledger.CastVote(wallet1, pid, v1, false), ledger.ErrAlready)
	require.NoError(t, f.ledger.CastVote(wallet2, pid, v2, false))
	assert.True(t, f.ledger.HasVoted(pid, v1))
	assert.True(t, f.ledger.HasVoted(pid, v2))

	p, err := f.ledger.GetProposal(pid)
	require.NoError(t, err)
	assert.Equal(t, uint64(995_000), p.VotesFor)
	assert.Equal(t, uint64(1_990_000), p.VotesAgainst)
	assert.Equal(t, uint64(1)+ledger.DefaultVotingPeriod, p.EndHeight)

	_, err = f.ledger.ResolveProposal(deployer, pid)
	require.ErrorIs(t, err, ledger.ErrVotingOpen)

	f.clock.Advance(ledger.DefaultVotingPeriod + 1)
	v3 := f.createVault(t, wallet1, 1_000_000, 3600)
	require.ErrorIs(t, f.ledger.CastVote(wallet1, pid, v3, true), ledger.ErrVotingClosed)

	passed, err := f.ledger.ResolveProposal(deployer, pid)
	require.NoError(t, err)
	assert.False(t, passed)

	_, err = f.ledger.ResolveProposal(deployer, pid)
	require.ErrorIs(t, err, ledger.ErrAlready)

	p, err = f.ledger.GetProposal(pid)
	require.NoError(t, err)
	assert.True(t, p.Resolved)
	assert.False(t, p.Passed)
}

func TestLedger_ProposalPasses(t *testing.T) {
	f := newFixture(t, func(c *ledger.Config) { c.VotingPeriod = 10 })
	v1 := f.createVault(t, wallet1, 3_000_000, 3600)
	v2 := f.createVault(t, wallet2, 1_000_000, 3600)

	pid, err := f.ledger.CreateProposal(wallet2, v2, "treasury", "", "treasury", "wallet_2")
	require.NoError(t, err)
	require.NoError(t, f.ledger.CastVote(wallet1, pid, v1, true))
	require.NoError(t, f.ledger.CastVote(wallet2, pid, v2, false))

	// На последней высоте голосования голос еще принимается, но подвести итог нельзя.
	f.clock.Advance(10)
	_, err = f.ledger.ResolveProposal(wallet2, pid)
	require.ErrorIs(t, err, ledger.ErrVotingOpen)

	f.clock.Advance(1)
	passed, err := f.ledger.ResolveProposal(wallet2, pid)
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestLedger_VotingClosedVault(t *testing.T) {
	f := newFixture(t)
	v1 := f.createVault(t, wallet1, 1_000_000, 3600)
	v2 := f.createVault(t, wallet1, 1_000_000, 3600)
	pid, err := f.ledger.CreateProposal(wallet1, v1, "t", "", "", "")
	require.NoError(t, err)

	_, err = f.ledger.RequestEmergencyWithdraw(wallet1, v2)
	require.NoError(t, err)
	require.ErrorIs(t, f.ledger.CastVote(wallet1, pid, v2, true), ledger.ErrInactive)

	power, err := f.ledger.VotingPowerOf(v2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), power)
}

func TestLedger_ProposalWhilePaused(t *testing.T) {
	f := newFixture(t)
	v1 := f.createVault(t, wallet1, 1_000_000, 3600)
	require.NoError(t, f.ledger.SetPaused(deployer, true))

	_, err := f.ledger.CreateProposal(wallet1, v1, "t", "", "", "")
	require.ErrorIs(t, err, ledger.ErrPaused)
}

func TestVotingPower(t *testing.T) {
	tests := []struct {
		name  string
		power ledger.VotingPower
		vault ledger.Vault
		want  uint64
	}{
		{
			name:  "По сумме депозита",
			power: ledger.StakeWeighted{},
			vault: ledger.Vault{Amount: 1_000, CreatedAt: 0, UnlockHeight: ledger.MaxLock},
			want:  1_000,
		},
		{
			name:  "Максимальная блокировка удваивает вес",
			power: ledger.LockWeighted{},
			vault: ledger.Vault{Amount: 1_000, CreatedAt: 0, UnlockHeight: ledger.MaxLock},
			want:  2_000,
		},
		{
			name:  "Половина года",
			power: ledger.LockWeighted{},
			vault: ledger.Vault{Amount: 1_000, CreatedAt: 100, UnlockHeight: 100 + ledger.MaxLock/2},
			want:  1_500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.power.Power(tt.vault))
		})
	}
}

func TestParseVotingPower(t *testing.T) {
	p, err := ledger.ParseVotingPower("")
	require.NoError(t, err)
	assert.IsType(t, ledger.StakeWeighted{}, p)

	p, err = ledger.ParseVotingPower("lock")
	require.NoError(t, err)
	assert.IsType(t, ledger.LockWeighted{}, p)

	_, err = ledger.ParseVotingPower("quadratic")
	require.Error(t, err)
}

func TestLedger_LockWeightedVoting(t *testing.T) {
	f := newFixture(t, func(c *ledger.Config) { c.VotingPower = ledger.LockWeighted{} })
	id := f.createVault(t, wallet1, 1_000_000, ledger.MaxLock)

	power, err := f.ledger.VotingPowerOf(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*995_000), power)
}
