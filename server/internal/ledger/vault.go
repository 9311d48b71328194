package ledger

// Vault - запись о заблокированном депозите.
type Vault struct {
	ID             uint64
	Owner          Address
	Amount         uint64 // Сумма за вычетом комиссии, в микро-единицах
	Principal      uint64 // Сумма при создании; база вознаграждения, пополнения не учитываются
	UnlockHeight   uint64
	CreatedAt      uint64
	Active         bool
	Bot            Address // Назначенный владельцем делегат (может быть пустым)
	Beneficiary    Address // Получатель выплат (если пусто - владелец)
	PendingOwner   Address // Адрес, которому предложена передача владения
	Emergency      bool    // Закрыто экстренным выводом
	RewardsClaimed bool
}

// Status - производное состояние хранилища на заданной высоте.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusUnlocked  Status = "unlocked"
	StatusWithdrawn Status = "withdrawn"
	StatusEmergency Status = "emergency"
)

// StatusAt возвращает состояние хранилища на высоте now.
func (v Vault) StatusAt(now uint64) Status {
	switch {
	case v.Active && now < v.UnlockHeight:
		return StatusLocked
	case v.Active:
		return StatusUnlocked
	case v.Emergency:
		return StatusEmergency
	default:
		return StatusWithdrawn
	}
}

// LockSpan возвращает полный период блокировки в тиках.
func (v Vault) LockSpan() uint64 {
	return v.UnlockHeight - v.CreatedAt
}

// payee возвращает адрес получателя выплат.
func (v Vault) payee() Address {
	if v.Beneficiary != "" {
		return v.Beneficiary
	}
	return v.Owner
}

// ProtocolState - глобальные счетчики протокола.
type ProtocolState struct {
	VaultCount    uint64
	ProposalCount uint64
	TotalFees     uint64
	RewardsPool   uint64
	Treasury      Address
	Admin         Address
	Paused        bool
}
