package ledger

import (
	"errors"
	"fmt"
)

// Code - числовой код ошибки, совместимый с клиентами контракта.
type Code uint32

// Коды ошибок. Значения фиксированы и не должны меняться.
const (
	CodeUnauthorized Code = 100
	CodeNotFound     Code = 101
	CodeInactive     Code = 102
	CodeAmount       Code = 103
	CodeLockPeriod   Code = 104
	CodeAlready      Code = 105
	CodeBot          Code = 106
)

// String возвращает символьное имя кода.
func (c Code) String() string {
	switch c {
	case CodeUnauthorized:
		return "ERR_UNAUTHORIZED"
	case CodeNotFound:
		return "ERR_NOT_FOUND"
	case CodeInactive:
		return "ERR_INACTIVE"
	case CodeAmount:
		return "ERR_AMOUNT"
	case CodeLockPeriod:
		return "ERR_LOCK_PERIOD"
	case CodeAlready:
		return "ERR_ALREADY"
	case CodeBot:
		return "ERR_BOT"
	default:
		return fmt.Sprintf("ERR_%d", uint32(c))
	}
}

// Error - ошибка операции реестра. Reason уточняет причину в пределах одного кода
// (например, ErrStillLocked и ErrLockPeriod имеют один код, но это разные ошибки).
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (u%d): %s", e.Code, uint32(e.Code), e.Reason)
}

// CodeOf извлекает код ошибки реестра. Второй результат false, если err не ошибка реестра.
func CodeOf(err error) (Code, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Code, true
	}
	return 0, false
}

// Ошибки реестра.
var (
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Reason: "вызывающий не имеет прав на операцию"}
	ErrNotFound     = &Error{Code: CodeNotFound, Reason: "запись не найдена"}
	ErrInactive     = &Error{Code: CodeInactive, Reason: "хранилище уже закрыто"}
	ErrAmount       = &Error{Code: CodeAmount, Reason: "неверная сумма"}
	ErrLockPeriod   = &Error{Code: CodeLockPeriod, Reason: "неверный период блокировки"}
	ErrAlready      = &Error{Code: CodeAlready, Reason: "запись уже существует"}
	ErrBot          = &Error{Code: CodeBot, Reason: "адрес не является делегатом"}

	ErrStillLocked       = &Error{Code: CodeLockPeriod, Reason: "высота разблокировки еще не достигнута"}
	ErrPaused            = &Error{Code: CodeInactive, Reason: "протокол приостановлен"}
	ErrVotingClosed      = &Error{Code: CodeInactive, Reason: "голосование по предложению завершено"}
	ErrVotingOpen        = &Error{Code: CodeLockPeriod, Reason: "голосование по предложению еще идет"}
	ErrInsufficientFunds = &Error{Code: CodeAmount, Reason: "недостаточно средств"}
	ErrBotNotApproved    = &Error{Code: CodeBot, Reason: "делегат не одобрен администратором"}

	// ErrJournalDiverged не является ошибкой вызывающего: журнал не воспроизводится.
	ErrJournalDiverged = errors.New("журнал событий не воспроизводится на текущем реестре")
)
