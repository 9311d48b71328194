package models

import (
	"encoding/json"
	"time"
)

// Vault - представление хранилища в API.
type Vault struct {
	ID             uint64 `json:"id"`
	Owner          string `json:"owner"`
	Amount         uint64 `json:"amount"`
	Principal      uint64 `json:"principal"`
	UnlockHeight   uint64 `json:"unlock_height"`
	CreatedAt      uint64 `json:"created_at"`
	Active         bool   `json:"active"`
	Bot            string `json:"bot,omitempty"`
	Beneficiary    string `json:"beneficiary,omitempty"`
	PendingOwner   string `json:"pending_owner,omitempty"`
	Emergency      bool   `json:"emergency,omitempty"`
	RewardsClaimed bool   `json:"rewards_claimed,omitempty"`
	Status         string `json:"status"`
}

// Proposal - представление предложения управления в API.
type Proposal struct {
	ID           uint64 `json:"id"`
	VaultID      uint64 `json:"vault_id"`
	Proposer     string `json:"proposer"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Data         string `json:"data,omitempty"`
	VotesFor     uint64 `json:"votes_for"`
	VotesAgainst uint64 `json:"votes_against"`
	CreatedAt    uint64 `json:"created_at"`
	EndHeight    uint64 `json:"end_height"`
	Resolved     bool   `json:"resolved"`
	Passed       bool   `json:"passed"`
}

// ProtocolInfo - глобальные параметры и счетчики протокола.
type ProtocolInfo struct {
	Height        uint64 `json:"height"`
	VaultCount    uint64 `json:"vault_count"`
	ProposalCount uint64 `json:"proposal_count"`
	TotalFees     uint64 `json:"total_fees"`
	TVL           uint64 `json:"tvl"`
	RewardsPool   uint64 `json:"rewards_pool"`
	Treasury      string `json:"treasury"`
	Admin         string `json:"admin"`
	Paused        bool   `json:"paused"`
	MinDeposit    uint64 `json:"min_deposit"`
	MinLock       uint64 `json:"min_lock"`
	MaxLock       uint64 `json:"max_lock"`
	FeeBPS        uint64 `json:"fee_bps"`
}

// FeeQuote - расчет комиссии для суммы.
type FeeQuote struct {
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`
	Net    uint64 `json:"net"`
}

// RewardsInfo - сведения о вознаграждении хранилища.
type RewardsInfo struct {
	Rewards uint64 `json:"rewards"`
	Pending uint64 `json:"pending"`
	Claimed bool   `json:"claimed"`
}

// Event - запись журнала событий в API.
type Event struct {
	Seq          uint64 `json:"seq"`
	Tick         uint64 `json:"tick"`
	Type         string `json:"type"`
	Caller       string `json:"caller"`
	VaultID      uint64 `json:"vault_id,omitempty"`
	ProposalID   uint64 `json:"proposal_id,omitempty"`
	Amount       uint64 `json:"amount,omitempty"`
	Ticks        uint64 `json:"ticks,omitempty"`
	Address      string `json:"address,omitempty"`
	Support      bool   `json:"support,omitempty"`
	Paused       bool   `json:"paused,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ProposalType string `json:"proposal_type,omitempty"`
	Data         string `json:"data,omitempty"`
	Fee          uint64 `json:"fee,omitempty"`
	Payout       uint64 `json:"payout,omitempty"`
	Penalty      uint64 `json:"penalty,omitempty"`
	Weight       uint64 `json:"weight,omitempty"`
}

// Archive - метаданные архивного снимка реестра в объектном хранилище.
type Archive struct {
	ObjectKey string    `json:"object_key"`
	Height    uint64    `json:"height"`
	Events    uint64    `json:"events"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Envelope - ответ API: либо {"ok": ...}, либо {"err": код, "message": ...}.
type Envelope struct {
	OK      json.RawMessage `json:"ok,omitempty"`
	Err     uint32          `json:"err,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Тела запросов.
type (
	// CreateVaultRequest - создание хранилища.
	CreateVaultRequest struct {
		Amount      uint64 `json:"amount"`
		LockSeconds uint64 `json:"lock_seconds"`
	}

	// AmountRequest - операция с суммой (пополнение, фонд вознаграждений).
	AmountRequest struct {
		Amount uint64 `json:"amount"`
	}

	// ExtendLockRequest - продление блокировки.
	ExtendLockRequest struct {
		Additional uint64 `json:"additional"`
	}

	// AddressRequest - операция с адресом (получатель, новый владелец, бот, казначейство).
	AddressRequest struct {
		Address string `json:"address"`
	}

	// PausedRequest - приостановка протокола.
	PausedRequest struct {
		Paused bool `json:"paused"`
	}

	// CreateProposalRequest - создание предложения.
	CreateProposalRequest struct {
		VaultID     uint64 `json:"vault_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Data        string `json:"data,omitempty"`
	}

	// VoteRequest - голос хранилищем.
	VoteRequest struct {
		VaultID uint64 `json:"vault_id"`
		Support bool   `json:"support"`
	}

	// ClockRequest - продвижение высоты. Задается либо Advance, либо Height.
	ClockRequest struct {
		Advance uint64 `json:"advance,omitempty"`
		Height  uint64 `json:"height,omitempty"`
	}
)

// Snapshot - содержимое архивного снимка реестра.
type Snapshot struct {
	Height    uint64            `json:"height"`
	Events    uint64            `json:"events"`
	Protocol  ProtocolInfo      `json:"protocol"`
	Vaults    []Vault           `json:"vaults"`
	Proposals []Proposal        `json:"proposals"`
	Bots      []string          `json:"bots"`
	Balances  map[string]uint64 `json:"balances"`
	TakenAt   time.Time         `json:"taken_at"`
}

// ProposalList - число предложений и их содержимое.
type ProposalList struct {
	Count     uint64     `json:"count"`
	Proposals []Proposal `json:"proposals"`
}

// Balance - баланс счета в учете реестра.
type Balance struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// ClockResponse - высота после изменения часов.
type ClockResponse struct {
	Height uint64 `json:"height"`
}
