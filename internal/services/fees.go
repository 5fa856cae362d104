package services

import (
	"github.com/shopspring/decimal"
)

const (
	DefaultWithdrawalFeePercent  = 5.0
	DefaultSaleCommissionPercent = 10.0
)

// FeePolicy computes the platform's cut of withdrawals and sales.
// All splits are done in decimal arithmetic and rounded to centavos.
type FeePolicy struct {
	WithdrawalFeePercent  float64
	SaleCommissionPercent float64
}

func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		WithdrawalFeePercent:  DefaultWithdrawalFeePercent,
		SaleCommissionPercent: DefaultSaleCommissionPercent,
	}
}

// SplitWithdrawal returns the admin fee and the net amount the vendor
// receives for a withdrawal of the given gross amount. The two parts
// always add back up to the rounded gross.
func (p FeePolicy) SplitWithdrawal(gross float64) (fee, net float64) {
	return split(gross, p.WithdrawalFeePercent)
}

// SplitSale returns the platform commission and the vendor's net share
// of a sale.
func (p FeePolicy) SplitSale(gross float64) (commission, net float64) {
	return split(gross, p.SaleCommissionPercent)
}

func split(gross, percent float64) (cut, net float64) {
	g := decimal.NewFromFloat(gross).Round(2)
	c := g.Mul(decimal.NewFromFloat(percent)).Div(decimal.NewFromInt(100)).Round(2)
	cut, _ = c.Float64()
	net, _ = g.Sub(c).Float64()
	return cut, net
}
