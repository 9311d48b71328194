package ledger

// Пороги периодов блокировки для уровней вознаграждения, тиков.
const (
	month        uint64 = 2_592_000
	threeMonths         = 3 * month
	sixMonths           = 6 * month
	nineMonths          = 9 * month
	year                = MaxLock
)

// RewardBPS возвращает годовую ставку вознаграждения (в базисных пунктах) для периода блокировки.
func RewardBPS(span uint64) uint64 {
	switch {
	case span >= year:
		return 1200
	case span >= nineMonths:
		return 900
	case span >= sixMonths:
		return 600
	case span >= threeMonths:
		return 300
	case span >= month:
		return 100
	default:
		return 0
	}
}

// CalculateRewards возвращает вознаграждение за весь период блокировки:
// floor(principal * bps * span / (10000 * MaxLock)). Пополнения заблокированы
// не весь период и в базу не входят.
func CalculateRewards(v Vault) uint64 {
	span := v.LockSpan()
	bps := RewardBPS(span)
	if bps == 0 {
		return 0
	}
	// amount*bps/10000 не переполняется для bps <= 10000, дальше умножение на долю года.
	return mulDiv(mulDiv(v.Principal, bps, BPSDenominator), span, MaxLock)
}

// Rewards возвращает расчетное вознаграждение хранилища.
func (l *Ledger) Rewards(id uint64) (uint64, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return 0, err
	}
	return CalculateRewards(v), nil
}

// PendingRewards возвращает невыплаченное вознаграждение.
func (l *Ledger) PendingRewards(id uint64) (uint64, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return 0, err
	}
	if v.RewardsClaimed || v.Emergency {
		return 0, nil
	}
	return CalculateRewards(v), nil
}

// HasClaimed сообщает, выплачено ли вознаграждение.
func (l *Ledger) HasClaimed(id uint64) (bool, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return false, err
	}
	return v.RewardsClaimed, nil
}

// RewardsPool возвращает остаток пула вознаграждений.
func (l *Ledger) RewardsPool() uint64 { return l.state.RewardsPool }

// FundRewards пополняет пул вознаграждений со счета администратора.
func (l *Ledger) FundRewards(caller Address, amount uint64) error {
	if err := l.guard.requireAdmin(caller); err != nil {
		return err
	}
	if amount == 0 {
		return ErrAmount
	}
	pool, ok := addChecked(l.state.RewardsPool, amount)
	if !ok {
		return ErrAmount
	}
	if err := l.custody.Settle([]Transfer{{From: caller, To: l.contract, Amount: amount}}); err != nil {
		return err
	}
	l.state.RewardsPool = pool
	l.emit(l.clock.Now(), caller, Event{Type: EventRewardsFunded, Amount: amount})
	return nil
}

// ClaimRewards выплачивает вознаграждение после разблокировки. Вызывать может владелец
// или назначенный делегат; средства всегда уходят получателю хранилища.
func (l *Ledger) ClaimRewards(caller Address, id uint64) (uint64, error) {
	v, ok := l.vaults[id]
	if !ok {
		return 0, ErrNotFound
	}
	if !l.isAgent(caller, v) {
		return 0, ErrUnauthorized
	}
	if v.Emergency {
		return 0, ErrInactive
	}
	now := l.clock.Now()
	if now < v.UnlockHeight {
		return 0, ErrStillLocked
	}
	if v.RewardsClaimed {
		return 0, ErrAlready
	}
	reward := CalculateRewards(v)
	if reward == 0 || reward > l.state.RewardsPool {
		return 0, ErrAmount
	}
	if err := l.custody.Settle([]Transfer{{From: l.contract, To: v.payee(), Amount: reward}}); err != nil {
		return 0, err
	}

	v.RewardsClaimed = true
	l.vaults[id] = v
	l.state.RewardsPool -= reward
	l.emit(now, caller, Event{Type: EventRewardsClaimed, VaultID: id, Payout: reward, Address: v.payee()})
	return reward, nil
}
