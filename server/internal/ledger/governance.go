package ledger

// Proposal - предложение управления. Вес голосов берется из хранилищ.
type Proposal struct {
	ID           uint64
	VaultID      uint64 // Хранилище-источник права на предложение
	Proposer     Address
	Title        string
	Description  string
	Type         string
	Data         string
	VotesFor     uint64
	VotesAgainst uint64
	CreatedAt    uint64
	EndHeight    uint64
	Resolved     bool
	Passed       bool
}

// voteKey - пара (предложение, хранилище). По каждой паре допускается один голос.
type voteKey struct {
	proposal uint64
	vault    uint64
}

// CreateProposal создает предложение от имени владельца активного хранилища.
func (l *Ledger) CreateProposal(caller Address, vaultID uint64, title, description, typ, data string) (uint64, error) {
	if l.state.Paused {
		return 0, ErrPaused
	}
	if _, err := l.ownedActive(caller, vaultID); err != nil {
		return 0, err
	}
	now := l.clock.Now()
	end, ok := addChecked(now, l.votingPeriod)
	if !ok {
		return 0, ErrLockPeriod
	}

	id := l.state.ProposalCount + 1
	l.proposals[id] = Proposal{
		ID:          id,
		VaultID:     vaultID,
		Proposer:    caller,
		Title:       title,
		Description: description,
		Type:        typ,
		Data:        data,
		CreatedAt:   now,
		EndHeight:   end,
	}
	l.state.ProposalCount = id
	l.emit(now, caller, Event{
		Type:         EventProposalCreated,
		ProposalID:   id,
		VaultID:      vaultID,
		Title:        title,
		Description:  description,
		ProposalType: typ,
		Data:         data,
	})
	return id, nil
}

// CastVote голосует весом хранилища vaultID. Повторный голос той же парой запрещен.
func (l *Ledger) CastVote(caller Address, proposalID, vaultID uint64, support bool) error {
	p, ok := l.proposals[proposalID]
	if !ok {
		return ErrNotFound
	}
	v, err := l.ownedActive(caller, vaultID)
	if err != nil {
		return err
	}
	now := l.clock.Now()
	if p.Resolved || now > p.EndHeight {
		return ErrVotingClosed
	}
	key := voteKey{proposal: proposalID, vault: vaultID}
	if l.votes[key] {
		return ErrAlready
	}
	weight := l.power.Power(v)
	if support {
		sum, ok := addChecked(p.VotesFor, weight)
		if !ok {
			return ErrAmount
		}
		p.VotesFor = sum
	} else {
		sum, ok := addChecked(p.VotesAgainst, weight)
		if !ok {
			return ErrAmount
		}
		p.VotesAgainst = sum
	}

	l.proposals[proposalID] = p
	l.votes[key] = true
	l.emit(now, caller, Event{
		Type:       EventVoteCast,
		ProposalID: proposalID,
		VaultID:    vaultID,
		Support:    support,
		Weight:     weight,
	})
	return nil
}

// ResolveProposal подводит итог после окончания голосования. Может вызвать любой адрес.
func (l *Ledger) ResolveProposal(caller Address, proposalID uint64) (bool, error) {
	if caller == "" {
		return false, ErrUnauthorized
	}
	p, ok := l.proposals[proposalID]
	if !ok {
		return false, ErrNotFound
	}
	if p.Resolved {
		return false, ErrAlready
	}
	now := l.clock.Now()
	if now <= p.EndHeight {
		return false, ErrVotingOpen
	}
	p.Resolved = true
	p.Passed = p.VotesFor > p.VotesAgainst
	l.proposals[proposalID] = p
	l.emit(now, caller, Event{Type: EventProposalResolved, ProposalID: proposalID, Support: p.Passed})
	return p.Passed, nil
}

// GetProposal возвращает копию предложения.
func (l *Ledger) GetProposal(id uint64) (Proposal, error) {
	p, ok := l.proposals[id]
	if !ok {
		return Proposal{}, ErrNotFound
	}
	return p, nil
}

// ProposalCount возвращает количество предложений.
func (l *Ledger) ProposalCount() uint64 { return l.state.ProposalCount }

// HasVoted сообщает, голосовало ли хранилище по предложению.
func (l *Ledger) HasVoted(proposalID, vaultID uint64) bool {
	return l.votes[voteKey{proposal: proposalID, vault: vaultID}]
}

// VotingPowerOf возвращает вес голоса хранилища.
func (l *Ledger) VotingPowerOf(vaultID uint64) (uint64, error) {
	v, err := l.GetVault(vaultID)
	if err != nil {
		return 0, err
	}
	if !v.Active {
		return 0, nil
	}
	return l.power.Power(v), nil
}
