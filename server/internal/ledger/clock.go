package ledger

import (
	"errors"
	"sync"
)

// Clock - внешний монотонный источник тиков (высот). Это не системное время:
// реестр никогда не обращается к time.Now.
type Clock interface {
	Now() uint64
}

// ManualClock - источник тиков, который двигается только явными вызовами.
// Используется сервером (продвигается администратором) и тестами.
type ManualClock struct {
	mu     sync.RWMutex
	height uint64
}

// NewManualClock создает часы с начальной высотой.
func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

// Now возвращает текущую высоту.
func (c *ManualClock) Now() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// Advance сдвигает высоту на n тиков и возвращает новую высоту.
func (c *ManualClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
	return c.height
}

// Set устанавливает высоту. Часы не идут назад.
func (c *ManualClock) Set(height uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height < c.height {
		return ErrClockBackwards
	}
	c.height = height
	return nil
}

// fixedClock всегда возвращает одну высоту (воспроизведение журнала).
type fixedClock uint64

func (c fixedClock) Now() uint64 { return uint64(c) }

// ErrClockBackwards - попытка перевести часы назад.
var ErrClockBackwards = errors.New("высота не может уменьшаться")
