package ledger

// EventType - тип события журнала. Совпадает с именем операции, породившей событие.
type EventType string

// Типы событий.
const (
	EventVaultCreated       EventType = "create-vault"
	EventWithdrawn          EventType = "withdraw"
	EventToppedUp           EventType = "top-up-vault"
	EventLockExtended       EventType = "extend-lock"
	EventBeneficiarySet     EventType = "set-beneficiary"
	EventTransferInitiated  EventType = "initiate-transfer"
	EventTransferAccepted   EventType = "accept-transfer"
	EventBotAssigned        EventType = "assign-bot"
	EventBotUnassigned      EventType = "unassign-bot"
	EventBotApproved        EventType = "approve-bot"
	EventBotRevoked         EventType = "revoke-bot"
	EventTreasuryUpdated    EventType = "set-treasury"
	EventPausedSet          EventType = "set-paused"
	EventEmergencyWithdrawn EventType = "request-emergency-withdraw"
	EventProposalCreated    EventType = "create-proposal"
	EventVoteCast           EventType = "cast-vote"
	EventProposalResolved   EventType = "resolve-proposal"
	EventRewardsFunded      EventType = "fund-rewards"
	EventRewardsClaimed     EventType = "claim-rewards"
)

// Event - запись журнала. Содержит входные данные вызова (для воспроизведения)
// и ключевые результаты (для аудита и уведомлений).
type Event struct {
	Seq    uint64    `json:"seq"`
	Tick   uint64    `json:"tick"`
	Type   EventType `json:"type"`
	Caller Address   `json:"caller"`

	VaultID      uint64  `json:"vault_id,omitempty"`
	ProposalID   uint64  `json:"proposal_id,omitempty"`
	Amount       uint64  `json:"amount,omitempty"`
	Ticks        uint64  `json:"ticks,omitempty"`
	Address      Address `json:"address,omitempty"`
	Support      bool    `json:"support,omitempty"`
	Paused       bool    `json:"paused,omitempty"`
	Title        string  `json:"title,omitempty"`
	Description  string  `json:"description,omitempty"`
	ProposalType string  `json:"proposal_type,omitempty"`
	Data         string  `json:"data,omitempty"`

	Fee     uint64 `json:"fee,omitempty"`
	Payout  uint64 `json:"payout,omitempty"`
	Penalty uint64 `json:"penalty,omitempty"`
	Weight  uint64 `json:"weight,omitempty"`
}

// EventLog - журнал событий только на добавление.
type EventLog struct {
	events []Event
}

// append присваивает событию следующий номер и добавляет его в журнал.
func (l *EventLog) append(ev Event) Event {
	ev.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, ev)
	return ev
}

// Len возвращает количество событий.
func (l *EventLog) Len() uint64 {
	return uint64(len(l.events))
}

// Since возвращает до limit событий с номером больше after.
// limit <= 0 означает "все".
func (l *EventLog) Since(after uint64, limit int) []Event {
	if after >= uint64(len(l.events)) {
		return nil
	}
	rest := l.events[after:]
	if limit > 0 && len(rest) > limit {
		rest = rest[:limit]
	}
	out := make([]Event, len(rest))
	copy(out, rest)
	return out
}

// clone разделяет массив с оригиналом. Копия дописывает только за пределами
// len оригинала, а оригинал эти элементы не читает.
func (l *EventLog) clone() *EventLog {
	return &EventLog{events: l.events}
}
