package ledger

import "sort"

// Snapshot - согласованный срез состояния реестра для архива и аудита.
type Snapshot struct {
	Height    uint64
	Events    uint64
	Protocol  ProtocolState
	Vaults    []Vault
	Proposals []Proposal
	Bots      []Address
}

// Snapshot возвращает срез текущего состояния. Записи отсортированы по id.
func (l *Ledger) Snapshot() Snapshot {
	s := Snapshot{
		Height:    l.clock.Now(),
		Events:    l.log.Len(),
		Protocol:  l.state,
		Vaults:    make([]Vault, 0, len(l.vaults)),
		Proposals: make([]Proposal, 0, len(l.proposals)),
		Bots:      l.guard.approvedBots(),
	}
	for _, v := range l.vaults {
		s.Vaults = append(s.Vaults, v)
	}
	sort.Slice(s.Vaults, func(i, j int) bool { return s.Vaults[i].ID < s.Vaults[j].ID })
	for _, p := range l.proposals {
		s.Proposals = append(s.Proposals, p)
	}
	sort.Slice(s.Proposals, func(i, j int) bool { return s.Proposals[i].ID < s.Proposals[j].ID })
	return s
}
