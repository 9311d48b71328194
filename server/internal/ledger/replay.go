package ledger

import "fmt"

// Replay повторно выполняет вызовы из журнала на высотах, на которых они были сделаны.
// Результат должен совпасть с журналом по номерам событий; иначе ErrJournalDiverged.
// После воспроизведения реестр снова читает высоту из своих часов.
func (l *Ledger) Replay(events []Event) error {
	live := l.clock
	defer func() { l.clock = live }()

	for _, ev := range events {
		if want := l.log.Len() + 1; ev.Seq != want {
			return fmt.Errorf("%w: ожидалось событие %d, получено %d", ErrJournalDiverged, want, ev.Seq)
		}
		l.clock = fixedClock(ev.Tick)
		if err := l.apply(ev); err != nil {
			return fmt.Errorf("%w: событие %d (%s): %w", ErrJournalDiverged, ev.Seq, ev.Type, err)
		}
		if l.log.Len() != ev.Seq {
			return fmt.Errorf("%w: событие %d (%s) не записано", ErrJournalDiverged, ev.Seq, ev.Type)
		}
	}
	return nil
}

// apply вызывает операцию, породившую событие.
func (l *Ledger) apply(ev Event) error {
	var err error
	switch ev.Type {
	case EventVaultCreated:
		var id uint64
		id, err = l.CreateVault(ev.Caller, ev.Amount, ev.Ticks)
		if err == nil && id != ev.VaultID {
			err = fmt.Errorf("создано хранилище %d вместо %d", id, ev.VaultID)
		}
	case EventWithdrawn:
		_, err = l.Withdraw(ev.Caller, ev.VaultID)
	case EventToppedUp:
		err = l.TopUp(ev.Caller, ev.VaultID, ev.Amount)
	case EventLockExtended:
		err = l.ExtendLock(ev.Caller, ev.VaultID, ev.Ticks)
	case EventBeneficiarySet:
		err = l.SetBeneficiary(ev.Caller, ev.VaultID, ev.Address)
	case EventTransferInitiated:
		err = l.InitiateTransfer(ev.Caller, ev.VaultID, ev.Address)
	case EventTransferAccepted:
		err = l.AcceptTransfer(ev.Caller, ev.VaultID)
	case EventBotAssigned:
		err = l.AssignBot(ev.Caller, ev.VaultID, ev.Address)
	case EventBotUnassigned:
		err = l.UnassignBot(ev.Caller, ev.VaultID)
	case EventBotApproved:
		err = l.ApproveBot(ev.Caller, ev.Address)
	case EventBotRevoked:
		err = l.RevokeBot(ev.Caller, ev.Address)
	case EventTreasuryUpdated:
		err = l.SetTreasury(ev.Caller, ev.Address)
	case EventPausedSet:
		err = l.SetPaused(ev.Caller, ev.Paused)
	case EventEmergencyWithdrawn:
		_, err = l.RequestEmergencyWithdraw(ev.Caller, ev.VaultID)
	case EventProposalCreated:
		var id uint64
		id, err = l.CreateProposal(ev.Caller, ev.VaultID, ev.Title, ev.Description, ev.ProposalType, ev.Data)
		if err == nil && id != ev.ProposalID {
			err = fmt.Errorf("создано предложение %d вместо %d", id, ev.ProposalID)
		}
	case EventVoteCast:
		err = l.CastVote(ev.Caller, ev.ProposalID, ev.VaultID, ev.Support)
	case EventProposalResolved:
		_, err = l.ResolveProposal(ev.Caller, ev.ProposalID)
	case EventRewardsFunded:
		err = l.FundRewards(ev.Caller, ev.Amount)
	case EventRewardsClaimed:
		_, err = l.ClaimRewards(ev.Caller, ev.VaultID)
	default:
		err = fmt.Errorf("неизвестный тип события %q", ev.Type)
	}
	return err
}
