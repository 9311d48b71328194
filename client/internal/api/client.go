package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

// ErrAuthorization сигнализирует об ошибке авторизации (401).
var ErrAuthorization = errors.New("ошибка авторизации")

const defaultTimeout = 30 * time.Second

// APIError - ошибка, возвращенная сервером.
type APIError struct {
	Status  int    // HTTP статус
	Code    uint32 // Код ошибки реестра, 0 если ошибка не из реестра
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("ошибка u%d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("ошибка сервера (статус %d): %s", e.Status, e.Message)
}

// CodeOf возвращает код ошибки реестра из ответа сервера.
func CodeOf(err error) (uint32, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return apiErr.Code, true
	}
	return 0, false
}

// Client определяет интерфейс для взаимодействия с API сервера TimeFi.
type Client interface {
	// Register регистрирует новую учетную запись. Пустой kind - кошелек.
	Register(ctx context.Context, username, password, kind string) error
	// Login аутентифицирует пользователя и сохраняет JWT токен в клиенте.
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)

	Protocol(ctx context.Context) (*models.ProtocolInfo, error)
	Fees(ctx context.Context, amount uint64) (*models.FeeQuote, error)
	IsBot(ctx context.Context, address string) (bool, error)
	// Balance возвращает баланс адреса, пустой адрес - баланс вызывающего.
	Balance(ctx context.Context, address string) (*models.Balance, error)

	// Хранилища.
	CreateVault(ctx context.Context, amount, lockSeconds uint64) (uint64, error)
	ListVaults(ctx context.Context, owner string) ([]uint64, error)
	GetVault(ctx context.Context, id uint64) (*models.Vault, error)
	VaultStatus(ctx context.Context, id uint64) (string, error)
	CanWithdraw(ctx context.Context, id uint64) (bool, error)
	TimeRemaining(ctx context.Context, id uint64) (uint64, error)
	EmergencyPayout(ctx context.Context, id uint64) (uint64, error)
	VotingPower(ctx context.Context, id uint64) (uint64, error)
	Rewards(ctx context.Context, id uint64) (*models.RewardsInfo, error)
	Withdraw(ctx context.Context, id uint64) (bool, error)
	EmergencyWithdraw(ctx context.Context, id uint64) (uint64, error)
	ClaimRewards(ctx context.Context, id uint64) (uint64, error)
	TopUp(ctx context.Context, id, amount uint64) error
	ExtendLock(ctx context.Context, id, additional uint64) error
	SetBeneficiary(ctx context.Context, id uint64, address string) error
	InitiateTransfer(ctx context.Context, id uint64, newOwner string) error
	AcceptTransfer(ctx context.Context, id uint64) error
	AssignBot(ctx context.Context, id uint64, bot string) error
	UnassignBot(ctx context.Context, id uint64) error

	// Управление.
	CreateProposal(ctx context.Context, req models.CreateProposalRequest) (uint64, error)
	ListProposals(ctx context.Context) (*models.ProposalList, error)
	GetProposal(ctx context.Context, id uint64) (*models.Proposal, error)
	CastVote(ctx context.Context, proposalID, vaultID uint64, support bool) error
	HasVoted(ctx context.Context, proposalID, vaultID uint64) (bool, error)
	ResolveProposal(ctx context.Context, id uint64) (bool, error)

	// Администрирование.
	ApproveBot(ctx context.Context, bot string) error
	RevokeBot(ctx context.Context, bot string) error
	SetTreasury(ctx context.Context, address string) error
	SetPaused(ctx context.Context, paused bool) error
	FundRewards(ctx context.Context, amount uint64) error
	AdvanceClock(ctx context.Context, advance, height uint64) (uint64, error)
	Archive(ctx context.Context) (*models.Archive, error)
	ListArchives(ctx context.Context, limit, offset int) ([]models.Archive, error)

	// Журнал событий.
	Events(ctx context.Context, after uint64, limit int) ([]models.Event, error)
	// StreamEvents читает поток событий с номером больше after до отмены ctx
	// или ошибки fn.
	StreamEvents(ctx context.Context, after uint64, fn func(models.Event) error) error
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:8443"
	httpClient *http.Client // HTTP клиент для выполнения запросов
	authToken  string       // JWT токен для аутентифицированных запросов
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetAuthToken устанавливает токен аутентификации для клиента.
func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

// Register отправляет запрос на регистрацию на сервер.
func (c *httpClient) Register(ctx context.Context, username, password, kind string) error {
	req := models.RegisterRequest{Username: username, Password: password, Kind: kind}
	if err := c.do(ctx, http.MethodPost, "/api/register", nil, req, nil); err != nil {
		return fmt.Errorf("ошибка регистрации: %w", err)
	}
	return nil
}

// Login отправляет запрос на вход и сохраняет полученный токен.
func (c *httpClient) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("ошибка входа: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.Token
	return &resp, nil
}

func (c *httpClient) Protocol(ctx context.Context) (*models.ProtocolInfo, error) {
	var info models.ProtocolInfo
	if err := c.do(ctx, http.MethodGet, "/api/protocol", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *httpClient) Fees(ctx context.Context, amount uint64) (*models.FeeQuote, error) {
	var quote models.FeeQuote
	q := url.Values{"amount": {strconv.FormatUint(amount, 10)}}
	if err := c.do(ctx, http.MethodGet, "/api/fees", q, nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *httpClient) IsBot(ctx context.Context, address string) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodGet, "/api/bots/"+url.PathEscape(address), nil, nil, &ok)
	return ok, err
}

func (c *httpClient) Balance(ctx context.Context, address string) (*models.Balance, error) {
	var q url.Values
	if address != "" {
		q = url.Values{"address": {address}}
	}
	var b models.Balance
	if err := c.do(ctx, http.MethodGet, "/api/balance", q, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *httpClient) CreateVault(ctx context.Context, amount, lockSeconds uint64) (uint64, error) {
	var id uint64
	req := models.CreateVaultRequest{Amount: amount, LockSeconds: lockSeconds}
	if err := c.do(ctx, http.MethodPost, "/api/vaults", nil, req, &id); err != nil {
		return 0, fmt.Errorf("ошибка создания хранилища: %w", err)
	}
	return id, nil
}

func (c *httpClient) ListVaults(ctx context.Context, owner string) ([]uint64, error) {
	var q url.Values
	if owner != "" {
		q = url.Values{"owner": {owner}}
	}
	var ids []uint64
	if err := c.do(ctx, http.MethodGet, "/api/vaults", q, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *httpClient) GetVault(ctx context.Context, id uint64) (*models.Vault, error) {
	var v models.Vault
	if err := c.do(ctx, http.MethodGet, vaultPath(id, ""), nil, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *httpClient) VaultStatus(ctx context.Context, id uint64) (string, error) {
	var st string
	err := c.do(ctx, http.MethodGet, vaultPath(id, "status"), nil, nil, &st)
	return st, err
}

func (c *httpClient) CanWithdraw(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodGet, vaultPath(id, "can-withdraw"), nil, nil, &ok)
	return ok, err
}

func (c *httpClient) TimeRemaining(ctx context.Context, id uint64) (uint64, error) {
	return c.getUint(ctx, vaultPath(id, "time-remaining"))
}

func (c *httpClient) EmergencyPayout(ctx context.Context, id uint64) (uint64, error) {
	return c.getUint(ctx, vaultPath(id, "emergency-payout"))
}

func (c *httpClient) VotingPower(ctx context.Context, id uint64) (uint64, error) {
	return c.getUint(ctx, vaultPath(id, "voting-power"))
}

func (c *httpClient) Rewards(ctx context.Context, id uint64) (*models.RewardsInfo, error) {
	var info models.RewardsInfo
	if err := c.do(ctx, http.MethodGet, vaultPath(id, "rewards"), nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *httpClient) Withdraw(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodPost, vaultPath(id, "withdraw"), nil, nil, &ok)
	return ok, err
}

func (c *httpClient) EmergencyWithdraw(ctx context.Context, id uint64) (uint64, error) {
	return c.postUint(ctx, vaultPath(id, "emergency-withdraw"))
}

func (c *httpClient) ClaimRewards(ctx context.Context, id uint64) (uint64, error) {
	return c.postUint(ctx, vaultPath(id, "rewards/claim"))
}

func (c *httpClient) TopUp(ctx context.Context, id, amount uint64) error {
	return c.do(ctx, http.MethodPost, vaultPath(id, "top-up"), nil, models.AmountRequest{Amount: amount}, nil)
}

func (c *httpClient) ExtendLock(ctx context.Context, id, additional uint64) error {
	return c.do(ctx, http.MethodPost, vaultPath(id, "extend-lock"), nil,
		models.ExtendLockRequest{Additional: additional}, nil)
}

func (c *httpClient) SetBeneficiary(ctx context.Context, id uint64, address string) error {
	return c.do(ctx, http.MethodPut, vaultPath(id, "beneficiary"), nil, models.AddressRequest{Address: address}, nil)
}

func (c *httpClient) InitiateTransfer(ctx context.Context, id uint64, newOwner string) error {
	return c.do(ctx, http.MethodPost, vaultPath(id, "transfer"), nil, models.AddressRequest{Address: newOwner}, nil)
}

func (c *httpClient) AcceptTransfer(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodPost, vaultPath(id, "transfer/accept"), nil, nil, nil)
}

func (c *httpClient) AssignBot(ctx context.Context, id uint64, bot string) error {
	return c.do(ctx, http.MethodPut, vaultPath(id, "bot"), nil, models.AddressRequest{Address: bot}, nil)
}

func (c *httpClient) UnassignBot(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, vaultPath(id, "bot"), nil, nil, nil)
}

func (c *httpClient) CreateProposal(ctx context.Context, req models.CreateProposalRequest) (uint64, error) {
	var id uint64
	if err := c.do(ctx, http.MethodPost, "/api/proposals", nil, req, &id); err != nil {
		return 0, fmt.Errorf("ошибка создания предложения: %w", err)
	}
	return id, nil
}

func (c *httpClient) ListProposals(ctx context.Context) (*models.ProposalList, error) {
	var list models.ProposalList
	if err := c.do(ctx, http.MethodGet, "/api/proposals", nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *httpClient) GetProposal(ctx context.Context, id uint64) (*models.Proposal, error) {
	var p models.Proposal
	if err := c.do(ctx, http.MethodGet, proposalPath(id, ""), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *httpClient) CastVote(ctx context.Context, proposalID, vaultID uint64, support bool) error {
	req := models.VoteRequest{VaultID: vaultID, Support: support}
	return c.do(ctx, http.MethodPost, proposalPath(proposalID, "votes"), nil, req, nil)
}

func (c *httpClient) HasVoted(ctx context.Context, proposalID, vaultID uint64) (bool, error) {
	var voted bool
	path := proposalPath(proposalID, "votes/"+strconv.FormatUint(vaultID, 10))
	err := c.do(ctx, http.MethodGet, path, nil, nil, &voted)
	return voted, err
}

func (c *httpClient) ResolveProposal(ctx context.Context, id uint64) (bool, error) {
	var passed bool
	err := c.do(ctx, http.MethodPost, proposalPath(id, "resolve"), nil, nil, &passed)
	return passed, err
}

func (c *httpClient) ApproveBot(ctx context.Context, bot string) error {
	return c.do(ctx, http.MethodPost, "/api/admin/bots", nil, models.AddressRequest{Address: bot}, nil)
}

func (c *httpClient) RevokeBot(ctx context.Context, bot string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/bots/"+url.PathEscape(bot), nil, nil, nil)
}

func (c *httpClient) SetTreasury(ctx context.Context, address string) error {
	return c.do(ctx, http.MethodPut, "/api/admin/treasury", nil, models.AddressRequest{Address: address}, nil)
}

func (c *httpClient) SetPaused(ctx context.Context, paused bool) error {
	return c.do(ctx, http.MethodPut, "/api/admin/paused", nil, models.PausedRequest{Paused: paused}, nil)
}

func (c *httpClient) FundRewards(ctx context.Context, amount uint64) error {
	return c.do(ctx, http.MethodPost, "/api/admin/rewards", nil, models.AmountRequest{Amount: amount}, nil)
}

func (c *httpClient) AdvanceClock(ctx context.Context, advance, height uint64) (uint64, error) {
	var resp models.ClockResponse
	req := models.ClockRequest{Advance: advance, Height: height}
	if err := c.do(ctx, http.MethodPost, "/api/admin/clock", nil, req, &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

func (c *httpClient) Archive(ctx context.Context) (*models.Archive, error) {
	var a models.Archive
	if err := c.do(ctx, http.MethodPost, "/api/admin/archive", nil, nil, &a); err != nil {
		return nil, fmt.Errorf("ошибка архивации: %w", err)
	}
	return &a, nil
}

// ListArchives получает список архивов. Если limit или offset <= 0,
// используются значения сервера по умолчанию.
func (c *httpClient) ListArchives(ctx context.Context, limit, offset int) ([]models.Archive, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var list []models.Archive
	if err := c.do(ctx, http.MethodGet, "/api/admin/archives", q, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *httpClient) Events(ctx context.Context, after uint64, limit int) ([]models.Event, error) {
	q := url.Values{"after": {strconv.FormatUint(after, 10)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var events []models.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *httpClient) getUint(ctx context.Context, path string) (uint64, error) {
	var v uint64
	err := c.do(ctx, http.MethodGet, path, nil, nil, &v)
	return v, err
}

func (c *httpClient) postUint(ctx context.Context, path string) (uint64, error) {
	var v uint64
	err := c.do(ctx, http.MethodPost, path, nil, nil, &v)
	return v, err
}

func vaultPath(id uint64, suffix string) string {
	p := "/api/vaults/" + strconv.FormatUint(id, 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func proposalPath(id uint64, suffix string) string {
	p := "/api/proposals/" + strconv.FormatUint(id, 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// endpoint собирает полный URL запроса.
func (c *httpClient) endpoint(path string, query url.Values) (string, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return "", fmt.Errorf("ошибка формирования URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// do выполняет запрос и раскрывает конверт ответа. Если out не nil,
// в него декодируется значение поля ok.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint, err := c.endpoint(path, query)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", mErr)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	var env models.Envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	if len(env.OK) == 0 {
		return errors.New("ответ сервера не содержит результата")
	}
	if err = json.Unmarshal(env.OK, out); err != nil {
		return fmt.Errorf("ошибка декодирования результата: %w", err)
	}
	return nil
}

// decodeError строит ошибку по ответу с кодом 4xx/5xx. Ответы middleware
// приходят обычным текстом.
func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err == nil && (env.Err != 0 || env.Message != "") {
		apiErr.Code = env.Err
		apiErr.Message = env.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrAuthorization, apiErr.Message)
	}
	return apiErr
}
