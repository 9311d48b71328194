package ledger

import "sort"

// Transfer - перевод средств между счетами.
type Transfer struct {
	From   Address `json:"from"`
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
}

// Custody - внешний провайдер переводов. Settle применяет все переводы
// атомарно: либо все, либо ни одного.
type Custody interface {
	Settle(transfers []Transfer) error
	Clone() Custody
}

// MemoryCustody - учет балансов в памяти. Балансы не уходят в минус,
// начальные средства зачисляются через Fund.
type MemoryCustody struct {
	balances map[Address]uint64
}

// NewMemoryCustody создает пустой учет балансов.
func NewMemoryCustody() *MemoryCustody {
	return &MemoryCustody{balances: make(map[Address]uint64)}
}

// Fund зачисляет средства на счет (генезис, регистрация).
func (c *MemoryCustody) Fund(addr Address, amount uint64) {
	c.balances[addr] += amount
}

// Balance возвращает баланс счета.
func (c *MemoryCustody) Balance(addr Address) uint64 {
	return c.balances[addr]
}

// Accounts возвращает отсортированный список счетов с ненулевым балансом.
func (c *MemoryCustody) Accounts() []Address {
	out := make([]Address, 0, len(c.balances))
	for a, b := range c.balances {
		if b > 0 {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Settle проверяет покрытие всех списаний и только затем проводит переводы.
func (c *MemoryCustody) Settle(transfers []Transfer) error {
	next := make(map[Address]uint64, len(transfers)*2)
	get := func(a Address) uint64 {
		if v, ok := next[a]; ok {
			return v
		}
		return c.balances[a]
	}
	for _, t := range transfers {
		if t.Amount == 0 {
			continue
		}
		from := get(t.From)
		if from < t.Amount {
			return ErrInsufficientFunds
		}
		next[t.From] = from - t.Amount
		to, ok := addChecked(get(t.To), t.Amount)
		if !ok {
			return ErrAmount
		}
		next[t.To] = to
	}
	for a, v := range next {
		c.balances[a] = v
	}
	return nil
}

// Clone возвращает независимую копию учета.
func (c *MemoryCustody) Clone() Custody {
	cp := NewMemoryCustody()
	for a, v := range c.balances {
		cp.balances[a] = v
	}
	return cp
}
