// Package ledger реализует детерминированный реестр хранилищ с блокировкой по времени:
// создание и закрытие депозитов, комиссии протокола, правила владения и делегирования,
// голосование и досрочный выход со штрафом.
//
// Реестр не выполняет ввод-вывод и не использует системное время. Каждая изменяющая
// операция сначала полностью проверяет предусловия и только потом меняет состояние,
// поэтому неудачный вызов оставляет реестр без изменений. Реестр не потокобезопасен:
// вызовы сериализует вызывающая сторона.
package ledger

import (
	"errors"
	"math"
	"sort"
)

// DefaultVotingPeriod - длительность голосования по умолчанию, тиков (7 дней).
const DefaultVotingPeriod uint64 = 604_800

// Config содержит зависимости и параметры реестра.
type Config struct {
	Admin        Address     // Администратор (деплойер), неизменяем
	Contract     Address     // Счет, на котором хранятся депозиты
	Clock        Clock       // Источник высот
	Custody      Custody     // Провайдер переводов; по умолчанию MemoryCustody
	VotingPower  VotingPower // Стратегия веса голоса; по умолчанию StakeWeighted
	VotingPeriod uint64      // Длительность голосования; по умолчанию DefaultVotingPeriod
}

// Ledger - единственное хранилище состояния. Все изменения проходят через его методы.
type Ledger struct {
	clock        Clock
	custody      Custody
	power        VotingPower
	contract     Address
	votingPeriod uint64

	guard     *Guard
	state     ProtocolState
	vaults    map[uint64]Vault
	byOwner   map[Address][]uint64
	proposals map[uint64]Proposal
	votes     map[voteKey]bool
	log       *EventLog
}

// New создает пустой реестр.
func New(cfg Config) (*Ledger, error) {
	if cfg.Admin == "" {
		return nil, errors.New("не задан адрес администратора")
	}
	if cfg.Contract == "" {
		return nil, errors.New("не задан адрес контракта")
	}
	if cfg.Clock == nil {
		return nil, errors.New("не задан источник высот")
	}
	if cfg.Custody == nil {
		cfg.Custody = NewMemoryCustody()
	}
	if cfg.VotingPower == nil {
		cfg.VotingPower = StakeWeighted{}
	}
	if cfg.VotingPeriod == 0 {
		cfg.VotingPeriod = DefaultVotingPeriod
	}
	return &Ledger{
		clock:        cfg.Clock,
		custody:      cfg.Custody,
		power:        cfg.VotingPower,
		contract:     cfg.Contract,
		votingPeriod: cfg.VotingPeriod,
		guard:        newGuard(cfg.Admin),
		state:        ProtocolState{Treasury: cfg.Admin, Admin: cfg.Admin},
		vaults:       make(map[uint64]Vault),
		byOwner:      make(map[Address][]uint64),
		proposals:    make(map[uint64]Proposal),
		votes:        make(map[voteKey]bool),
		log:          &EventLog{},
	}, nil
}

// Clone возвращает независимую копию реестра. Часы общие: они внешние.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		clock:        l.clock,
		custody:      l.custody.Clone(),
		power:        l.power,
		contract:     l.contract,
		votingPeriod: l.votingPeriod,
		guard:        l.guard.clone(),
		state:        l.state,
		vaults:       make(map[uint64]Vault, len(l.vaults)),
		byOwner:      make(map[Address][]uint64, len(l.byOwner)),
		proposals:    make(map[uint64]Proposal, len(l.proposals)),
		votes:        make(map[voteKey]bool, len(l.votes)),
		log:          l.log.clone(),
	}
	for k, v := range l.vaults {
		c.vaults[k] = v
	}
	for k, ids := range l.byOwner {
		c.byOwner[k] = append([]uint64(nil), ids...)
	}
	for k, p := range l.proposals {
		c.proposals[k] = p
	}
	for k, v := range l.votes {
		c.votes[k] = v
	}
	return c
}

// Guard возвращает классификатор адресов.
func (l *Ledger) Guard() *Guard { return l.guard }

// Custody возвращает провайдера переводов.
func (l *Ledger) Custody() Custody { return l.custody }

// Contract возвращает адрес счета контракта.
func (l *Ledger) Contract() Address { return l.contract }

// Height возвращает текущую высоту.
func (l *Ledger) Height() uint64 { return l.clock.Now() }

// Events возвращает журнал событий.
func (l *Ledger) Events() *EventLog { return l.log }

// emit добавляет событие в журнал от имени вызывающего на текущей высоте.
func (l *Ledger) emit(now uint64, caller Address, ev Event) {
	ev.Tick = now
	ev.Caller = caller
	l.log.append(ev)
}

// --- Чтение ---

// GetVault возвращает копию записи хранилища.
func (l *Ledger) GetVault(id uint64) (Vault, error) {
	v, ok := l.vaults[id]
	if !ok {
		return Vault{}, ErrNotFound
	}
	return v, nil
}

// IsActive сообщает, активно ли хранилище.
func (l *Ledger) IsActive(id uint64) (bool, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return false, err
	}
	return v.Active, nil
}

// CanWithdraw сообщает, можно ли вывести средства на текущей высоте.
func (l *Ledger) CanWithdraw(id uint64) (bool, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return false, err
	}
	return v.Active && l.clock.Now() >= v.UnlockHeight, nil
}

// IsVaultOwner сообщает, владеет ли адрес хранилищем.
func (l *Ledger) IsVaultOwner(id uint64, addr Address) (bool, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return false, err
	}
	return v.Owner == addr, nil
}

// TimeRemaining возвращает число тиков до разблокировки (0, если уже можно выводить).
func (l *Ledger) TimeRemaining(id uint64) (uint64, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return 0, err
	}
	now := l.clock.Now()
	if now >= v.UnlockHeight {
		return 0, nil
	}
	return v.UnlockHeight - now, nil
}

// VaultStatus возвращает состояние хранилища на текущей высоте.
func (l *Ledger) VaultStatus(id uint64) (Status, error) {
	v, err := l.GetVault(id)
	if err != nil {
		return "", err
	}
	return v.StatusAt(l.clock.Now()), nil
}

// UserVaults возвращает идентификаторы хранилищ адреса по возрастанию.
func (l *Ledger) UserVaults(addr Address) []uint64 {
	return append([]uint64(nil), l.byOwner[addr]...)
}

// TVL возвращает сумму активных депозитов. При переполнении возвращает math.MaxUint64.
func (l *Ledger) TVL() uint64 {
	var total uint64
	for _, v := range l.vaults {
		if !v.Active {
			continue
		}
		sum, ok := addChecked(total, v.Amount)
		if !ok {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

// IsBot сообщает, одобрен ли адрес как делегат.
func (l *Ledger) IsBot(addr Address) bool { return l.guard.IsBot(addr) }

// State возвращает копию глобального состояния протокола.
func (l *Ledger) State() ProtocolState { return l.state }

// TotalFees возвращает накопленные комиссии и штрафы.
func (l *Ledger) TotalFees() uint64 { return l.state.TotalFees }

// VaultCount возвращает количество созданных хранилищ.
func (l *Ledger) VaultCount() uint64 { return l.state.VaultCount }

// Treasury возвращает адрес казначейства.
func (l *Ledger) Treasury() Address { return l.state.Treasury }

// IsPaused сообщает, приостановлен ли протокол.
func (l *Ledger) IsPaused() bool { return l.state.Paused }

// --- Хранилища ---

// CreateVault принимает депозит amount на lockSeconds тиков и возвращает id хранилища.
func (l *Ledger) CreateVault(caller Address, amount, lockSeconds uint64) (uint64, error) {
	if caller == "" {
		return 0, ErrUnauthorized
	}
	if l.state.Paused {
		return 0, ErrPaused
	}
	if amount < MinDeposit {
		return 0, ErrAmount
	}
	if lockSeconds < MinLock || lockSeconds > MaxLock {
		return 0, ErrLockPeriod
	}
	now := l.clock.Now()
	unlock, ok := addChecked(now, lockSeconds)
	if !ok {
		return 0, ErrLockPeriod
	}
	fee := CalculateFee(amount)
	totalFees, ok := addChecked(l.state.TotalFees, fee)
	if !ok {
		return 0, ErrAmount
	}
	if err := l.custody.Settle([]Transfer{
		{From: caller, To: l.contract, Amount: amount},
		{From: l.contract, To: l.state.Treasury, Amount: fee},
	}); err != nil {
		return 0, err
	}

	id := l.state.VaultCount + 1
	l.vaults[id] = Vault{
		ID:           id,
		Owner:        caller,
		Amount:       amount - fee,
		Principal:    amount - fee,
		UnlockHeight: unlock,
		CreatedAt:    now,
		Active:       true,
	}
	l.byOwner[caller] = append(l.byOwner[caller], id)
	l.state.VaultCount = id
	l.state.TotalFees = totalFees
	l.emit(now, caller, Event{Type: EventVaultCreated, VaultID: id, Amount: amount, Ticks: lockSeconds, Fee: fee})
	return id, nil
}

// Withdraw закрывает разблокированное хранилище и возвращает выплату.
func (l *Ledger) Withdraw(caller Address, id uint64) (uint64, error) {
	v, ok := l.vaults[id]
	if !ok {
		return 0, ErrNotFound
	}
	if caller != v.Owner {
		return 0, ErrUnauthorized
	}
	if !v.Active {
		return 0, ErrInactive
	}
	now := l.clock.Now()
	if now < v.UnlockHeight {
		return 0, ErrStillLocked
	}
	if err := l.custody.Settle([]Transfer{{From: l.contract, To: v.payee(), Amount: v.Amount}}); err != nil {
		return 0, err
	}

	v.Active = false
	l.vaults[id] = v
	l.emit(now, caller, Event{Type: EventWithdrawn, VaultID: id, Payout: v.Amount, Address: v.payee()})
	return v.Amount, nil
}

// TopUp пополняет активное хранилище. Комиссия взимается как при создании.
func (l *Ledger) TopUp(caller Address, id, amount uint64) error {
	if l.state.Paused {
		return ErrPaused
	}
	v, err := l.ownedActive(caller, id)
	if err != nil {
		return err
	}
	if amount == 0 {
		return ErrAmount
	}
	fee := CalculateFee(amount)
	net := amount - fee
	newAmount, ok := addChecked(v.Amount, net)
	if !ok {
		return ErrAmount
	}
	totalFees, ok := addChecked(l.state.TotalFees, fee)
	if !ok {
		return ErrAmount
	}
	if err = l.custody.Settle([]Transfer{
		{From: caller, To: l.contract, Amount: amount},
		{From: l.contract, To: l.state.Treasury, Amount: fee},
	}); err != nil {
		return err
	}

	v.Amount = newAmount
	l.vaults[id] = v
	l.state.TotalFees = totalFees
	l.emit(l.clock.Now(), caller, Event{Type: EventToppedUp, VaultID: id, Amount: amount, Fee: fee})
	return nil
}

// ExtendLock сдвигает высоту разблокировки вперед. Доступно владельцу
// и назначенному одобренному делегату.
func (l *Ledger) ExtendLock(caller Address, id, additional uint64) error {
	if l.state.Paused {
		return ErrPaused
	}
	v, ok := l.vaults[id]
	if !ok {
		return ErrNotFound
	}
	if !l.isAgent(caller, v) {
		return ErrUnauthorized
	}
	if !v.Active {
		return ErrInactive
	}
	if additional == 0 {
		return ErrLockPeriod
	}
	unlock, ok := addChecked(v.UnlockHeight, additional)
	if !ok || unlock-v.CreatedAt > MaxLock {
		return ErrLockPeriod
	}

	v.UnlockHeight = unlock
	l.vaults[id] = v
	l.emit(l.clock.Now(), caller, Event{Type: EventLockExtended, VaultID: id, Ticks: additional})
	return nil
}

// SetBeneficiary задает получателя выплат. Пустой адрес или адрес владельца сбрасывает его.
func (l *Ledger) SetBeneficiary(caller Address, id uint64, beneficiary Address) error {
	v, err := l.ownedActive(caller, id)
	if err != nil {
		return err
	}
	if beneficiary == v.Owner {
		beneficiary = ""
	}
	v.Beneficiary = beneficiary
	l.vaults[id] = v
	l.emit(l.clock.Now(), caller, Event{Type: EventBeneficiarySet, VaultID: id, Address: beneficiary})
	return nil
}

// InitiateTransfer предлагает передать владение хранилищем адресу to.
// Владелец меняется только после AcceptTransfer.
func (l *Ledger) InitiateTransfer(caller Address, id uint64, to Address) error {
	v, err := l.ownedActive(caller, id)
	if err != nil {
		return err
	}
	if to == "" {
		return ErrNotFound
	}
	if to == v.Owner || to == v.PendingOwner {
		return ErrAlready
	}
	v.PendingOwner = to
	l.vaults[id] = v
	l.emit(l.clock.Now(), caller, Event{Type: EventTransferInitiated, VaultID: id, Address: to})
	return nil
}

// AcceptTransfer завершает передачу владения. Назначенный делегат сбрасывается.
func (l *Ledger) AcceptTransfer(caller Address, id uint64) error {
	v, ok := l.vaults[id]
	if !ok {
		return ErrNotFound
	}
	if caller == "" || caller != v.PendingOwner {
		return ErrUnauthorized
	}
	if !v.Active {
		return ErrInactive
	}
	prev := v.Owner
	v.Owner = caller
	v.PendingOwner = ""
	v.Bot = ""
	l.vaults[id] = v
	l.byOwner[prev] = removeID(l.byOwner[prev], id)
	if len(l.byOwner[prev]) == 0 {
		delete(l.byOwner, prev)
	}
	l.byOwner[caller] = insertID(l.byOwner[caller], id)
	l.emit(l.clock.Now(), caller, Event{Type: EventTransferAccepted, VaultID: id, Address: prev})
	return nil
}

// AssignBot назначает хранилищу одобренного делегата.
func (l *Ledger) AssignBot(caller Address, id uint64, bot Address) error {
	v, err := l.ownedActive(caller, id)
	if err != nil {
		return err
	}
	if err = l.guard.requireDelegate(bot); err != nil {
		return err
	}
	if !l.guard.IsBot(bot) {
		return ErrBotNotApproved
	}
	if v.Bot == bot {
		return ErrAlready
	}
	v.Bot = bot
	l.vaults[id] = v
	l.emit(l.clock.Now(), caller, Event{Type: EventBotAssigned, VaultID: id, Address: bot})
	return nil
}

// UnassignBot снимает назначенного делегата.
func (l *Ledger) UnassignBot(caller Address, id uint64) error {
	v, err := l.ownedActive(caller, id)
	if err != nil {
		return err
	}
	if v.Bot == "" {
		return ErrBot
	}
	bot := v.Bot
	v.Bot = ""
	l.vaults[id] = v
	l.emit(l.clock.Now(), caller, Event{Type: EventBotUnassigned, VaultID: id, Address: bot})
	return nil
}

// --- Администрирование ---

// ApproveBot одобряет делегата. Только для администратора.
func (l *Ledger) ApproveBot(caller, bot Address) error {
	if err := l.guard.requireAdmin(caller); err != nil {
		return err
	}
	if err := l.guard.requireDelegate(bot); err != nil {
		return err
	}
	l.guard.approved[bot] = true
	l.emit(l.clock.Now(), caller, Event{Type: EventBotApproved, Address: bot})
	return nil
}

// RevokeBot отзывает одобрение делегата. Только для администратора.
func (l *Ledger) RevokeBot(caller, bot Address) error {
	if err := l.guard.requireAdmin(caller); err != nil {
		return err
	}
	if err := l.guard.requireDelegate(bot); err != nil {
		return err
	}
	delete(l.guard.approved, bot)
	l.emit(l.clock.Now(), caller, Event{Type: EventBotRevoked, Address: bot})
	return nil
}

// SetTreasury меняет адрес казначейства. Только для администратора.
func (l *Ledger) SetTreasury(caller, treasury Address) error {
	if err := l.guard.requireAdmin(caller); err != nil {
		return err
	}
	if treasury == "" {
		return ErrNotFound
	}
	l.state.Treasury = treasury
	l.emit(l.clock.Now(), caller, Event{Type: EventTreasuryUpdated, Address: treasury})
	return nil
}

// SetPaused приостанавливает или возобновляет прием депозитов. Только для администратора.
// Вывод средств (обычный и экстренный) работает и на паузе.
func (l *Ledger) SetPaused(caller Address, paused bool) error {
	if err := l.guard.requireAdmin(caller); err != nil {
		return err
	}
	l.state.Paused = paused
	l.emit(l.clock.Now(), caller, Event{Type: EventPausedSet, Paused: paused})
	return nil
}

// --- Вспомогательное ---

// ownedActive возвращает хранилище, если вызывающий - владелец и хранилище активно.
func (l *Ledger) ownedActive(caller Address, id uint64) (Vault, error) {
	v, ok := l.vaults[id]
	if !ok {
		return Vault{}, ErrNotFound
	}
	if caller != v.Owner {
		return Vault{}, ErrUnauthorized
	}
	if !v.Active {
		return Vault{}, ErrInactive
	}
	return v, nil
}

// isAgent: владелец или назначенный делегат, одобрение которого не отозвано.
func (l *Ledger) isAgent(caller Address, v Vault) bool {
	if caller == "" {
		return false
	}
	if caller == v.Owner {
		return true
	}
	return v.Bot != "" && caller == v.Bot && l.guard.IsBot(caller)
}

func removeID(ids []uint64, id uint64) []uint64 {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func insertID(ids []uint64, id uint64) []uint64 {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
