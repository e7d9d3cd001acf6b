package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReward_RequiresVoucher(t *testing.T) {
	voucher := Reward{Name: "TNG RM5 Voucher", Category: RewardCategoryVoucher, Denomination: "RM5"}
	standard := Reward{Name: "Tote Bag", Category: RewardCategoryStandard}

	assert.True(t, voucher.RequiresVoucher())
	assert.False(t, standard.RequiresVoucher())
}

func TestTransaction_IsDebit(t *testing.T) {
	redeem := Transaction{Delta: -20, Type: TransactionTypeRedeem}
	credit := Transaction{Delta: 10, Type: TransactionTypeCredit}

	assert.True(t, redeem.IsDebit())
	assert.False(t, credit.IsDebit())
}
