package services

import (
	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
)

// VaultDTO переводит хранилище в представление API со статусом на высоте height.
func VaultDTO(v ledger.Vault, height uint64) models.Vault {
	return models.Vault{
		ID:             v.ID,
		Owner:          string(v.Owner),
		Amount:         v.Amount,
		Principal:      v.Principal,
		UnlockHeight:   v.UnlockHeight,
		CreatedAt:      v.CreatedAt,
		Active:         v.Active,
		Bot:            string(v.Bot),
		Beneficiary:    string(v.Beneficiary),
		PendingOwner:   string(v.PendingOwner),
		Emergency:      v.Emergency,
		RewardsClaimed: v.RewardsClaimed,
		Status:         string(v.StatusAt(height)),
	}
}

// ProposalDTO переводит предложение в представление API.
func ProposalDTO(p ledger.Proposal) models.Proposal {
	return models.Proposal{
		ID:           p.ID,
		VaultID:      p.VaultID,
		Proposer:     string(p.Proposer),
		Title:        p.Title,
		Description:  p.Description,
		Type:         p.Type,
		Data:         p.Data,
		VotesFor:     p.VotesFor,
		VotesAgainst: p.VotesAgainst,
		CreatedAt:    p.CreatedAt,
		EndHeight:    p.EndHeight,
		Resolved:     p.Resolved,
		Passed:       p.Passed,
	}
}

// ProtocolDTO собирает глобальные параметры и счетчики.
func ProtocolDTO(l *ledger.Ledger) models.ProtocolInfo {
	st := l.State()
	return models.ProtocolInfo{
		Height:        l.Height(),
		VaultCount:    st.VaultCount,
		ProposalCount: st.ProposalCount,
		TotalFees:     st.TotalFees,
		TVL:           l.TVL(),
		RewardsPool:   st.RewardsPool,
		Treasury:      string(st.Treasury),
		Admin:         string(st.Admin),
		Paused:        st.Paused,
		MinDeposit:    ledger.MinDeposit,
		MinLock:       ledger.MinLock,
		MaxLock:       ledger.MaxLock,
		FeeBPS:        ledger.FeeBPS,
	}
}

// EventDTO переводит событие журнала в представление API.
func EventDTO(ev ledger.Event) models.Event {
	return models.Event{
		Seq:          ev.Seq,
		Tick:         ev.Tick,
		Type:         string(ev.Type),
		Caller:       string(ev.Caller),
		VaultID:      ev.VaultID,
		ProposalID:   ev.ProposalID,
		Amount:       ev.Amount,
		Ticks:        ev.Ticks,
		Address:      string(ev.Address),
		Support:      ev.Support,
		Paused:       ev.Paused,
		Title:        ev.Title,
		Description:  ev.Description,
		ProposalType: ev.ProposalType,
		Data:         ev.Data,
		Fee:          ev.Fee,
		Payout:       ev.Payout,
		Penalty:      ev.Penalty,
		Weight:       ev.Weight,
	}
}

// EventDTOs переводит пачку событий.
func EventDTOs(events []ledger.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, EventDTO(ev))
	}
	return out
}

// SnapshotDTO собирает содержимое архивного снимка.
func SnapshotDTO(l *ledger.Ledger) models.Snapshot {
	snap := l.Snapshot()
	out := models.Snapshot{
		Height:    snap.Height,
		Events:    snap.Events,
		Protocol:  ProtocolDTO(l),
		Vaults:    make([]models.Vault, 0, len(snap.Vaults)),
		Proposals: make([]models.Proposal, 0, len(snap.Proposals)),
		Bots:      make([]string, 0, len(snap.Bots)),
		Balances:  make(map[string]uint64),
	}
	out.Protocol.Height = snap.Height
	for _, v := range snap.Vaults {
		out.Vaults = append(out.Vaults, VaultDTO(v, snap.Height))
	}
	for _, p := range snap.Proposals {
		out.Proposals = append(out.Proposals, ProposalDTO(p))
	}
	for _, b := range snap.Bots {
		out.Bots = append(out.Bots, string(b))
	}
	if mc, ok := l.Custody().(*ledger.MemoryCustody); ok {
		for _, a := range mc.Accounts() {
			out.Balances[string(a)] = mc.Balance(a)
		}
	}
	return out
}
