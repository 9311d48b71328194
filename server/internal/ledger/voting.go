package ledger

import (
	"fmt"
	"math"
)

// VotingPower - стратегия расчета веса голоса хранилища.
// Функция должна быть монотонной по сумме депозита.
type VotingPower interface {
	Power(v Vault) uint64
}

// StakeWeighted - вес равен сумме депозита.
type StakeWeighted struct{}

func (StakeWeighted) Power(v Vault) uint64 { return v.Amount }

// LockWeighted - сумма депозита плюс бонус, пропорциональный периоду блокировки:
// amount + amount*span/MaxLock. Хранилище с максимальной блокировкой получает двойной вес.
type LockWeighted struct{}

func (LockWeighted) Power(v Vault) uint64 {
	span := v.LockSpan()
	if span > MaxLock {
		span = MaxLock
	}
	bonus := mulDiv(v.Amount, span, MaxLock)
	total, ok := addChecked(v.Amount, bonus)
	if !ok {
		return math.MaxUint64
	}
	return total
}

// ParseVotingPower возвращает стратегию по имени ("stake" или "lock").
func ParseVotingPower(name string) (VotingPower, error) {
	switch name {
	case "", "stake":
		return StakeWeighted{}, nil
	case "lock":
		return LockWeighted{}, nil
	default:
		return nil, fmt.Errorf("неизвестная стратегия веса голоса: %q", name)
	}
}
