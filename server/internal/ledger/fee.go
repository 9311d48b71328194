package ledger

import (
	"math"
	"math/bits"
)

// Параметры протокола.
const (
	FeeBPS              uint64 = 50         // Комиссия протокола, 0.5%
	EmergencyPenaltyBPS uint64 = 2500       // Штраф за досрочный выход, 25%
	BPSDenominator      uint64 = 10_000     // Знаменатель базисных пунктов
	MinDeposit          uint64 = 10_000     // Минимальный депозит в микро-единицах
	MinLock             uint64 = 3600       // Минимальный период блокировки, тиков
	MaxLock             uint64 = 31_536_000 // Максимальный период блокировки, тиков
)

// CalculateFee возвращает комиссию floor(amount*50/10000).
func CalculateFee(amount uint64) uint64 {
	return mulDiv(amount, FeeBPS, BPSDenominator)
}

// CalculateDepositAfterFee возвращает сумму депозита за вычетом комиссии.
func CalculateDepositAfterFee(amount uint64) uint64 {
	return amount - CalculateFee(amount)
}

// CalculatePenalty возвращает штраф за экстренный вывод floor(amount*2500/10000).
func CalculatePenalty(amount uint64) uint64 {
	return mulDiv(amount, EmergencyPenaltyBPS, BPSDenominator)
}

// CalculateEmergencyPayout возвращает выплату при экстренном выводе.
func CalculateEmergencyPayout(amount uint64) uint64 {
	return amount - CalculatePenalty(amount)
}

// mulDiv считает floor(a*b/d) через 128-битное произведение.
// Если результат не помещается в uint64, возвращает math.MaxUint64.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// addChecked складывает без переполнения. ok=false при переполнении.
func addChecked(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}
