package cli

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// stxExp - порядок микро-единицы: 1 STX = 10^6.
const stxExp = 6

var errAmountFormat = errors.New("неверная сумма")

// FormatSTX переводит сумму в микро-единицах в строку STX, например 1.5 STX.
func FormatSTX(micro uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(micro), -stxExp)
	return d.StringFixed(stxExp) + " STX"
}

// ParseSTX разбирает сумму в STX ("1.5") в микро-единицы. Дробная часть
// не может быть точнее 10^-6.
func ParseSTX(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", errAmountFormat, s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w %q: отрицательное значение", errAmountFormat, s)
	}
	micro := d.Shift(stxExp)
	if !micro.Equal(micro.Truncate(0)) {
		return 0, fmt.Errorf("%w %q: точность выше 0.000001 STX", errAmountFormat, s)
	}
	n := micro.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w %q: слишком большое значение", errAmountFormat, s)
	}
	return n.Uint64(), nil
}
