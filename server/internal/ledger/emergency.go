package ledger

// RequestEmergencyWithdraw закрывает активное хранилище досрочно, удерживая штраф 25%.
// Штраф уходит в казначейство и учитывается в TotalFees. Возвращает выплату.
func (l *Ledger) RequestEmergencyWithdraw(caller Address, id uint64) (uint64, error) {
	v, err := l.ownedActive(caller, id)
	if err != nil {
		return 0, err
	}
	penalty := CalculatePenalty(v.Amount)
	payout := v.Amount - penalty
	totalFees, ok := addChecked(l.state.TotalFees, penalty)
	if !ok {
		return 0, ErrAmount
	}
	if err = l.custody.Settle([]Transfer{
		{From: l.contract, To: v.payee(), Amount: payout},
		{From: l.contract, To: l.state.Treasury, Amount: penalty},
	}); err != nil {
		return 0, err
	}

	v.Active = false
	v.Emergency = true
	l.vaults[id] = v
	l.state.TotalFees = totalFees
	l.emit(l.clock.Now(), caller, Event{
		Type:    EventEmergencyWithdrawn,
		VaultID: id,
		Payout:  payout,
		Penalty: penalty,
		Address: v.payee(),
	})
	return payout, nil
}

// EmergencyPayout возвращает выплату, которую получил бы владелец при экстренном выводе.
func (l *Ledger) EmergencyPayout(id uint64) (uint64, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return 0, err
	}
	if !v.Active {
		return 0, ErrInactive
	}
	return CalculateEmergencyPayout(v.Amount), nil
}
