package domain

// RewardCategory distinguishes rewards fulfilled by stock alone from rewards
// that additionally hand out a single-use voucher code.
type RewardCategory string

const (
	RewardCategoryStandard RewardCategory = "STANDARD"
	RewardCategoryVoucher  RewardCategory = "VOUCHER"
)

// Reward is a redeemable catalog item. Stock only decreases at runtime;
// replenishment is an administrative action. Denomination is set at catalog
// authoring time for VOUCHER rewards and selects the code pool to draw from;
// it is never inferred from the reward name.
type Reward struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Category       RewardCategory `json:"category"`
	PointsRequired int64          `json:"points_required"` // positive
	Stock          int64          `json:"stock"`           // never negative
	Denomination   string         `json:"denomination,omitempty"`
}

// RequiresVoucher reports whether redeeming this reward must allocate a code.
func (r *Reward) RequiresVoucher() bool {
	return r.Category == RewardCategoryVoucher
}
