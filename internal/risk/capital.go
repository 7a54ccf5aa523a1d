package risk

import "github.com/alejandrodnm/arbot/internal/domain"

const (
	// ROI above this gets the full base allocation; below it scales linearly.
	fullAllocationROI = 5.0
	// A losing day shrinks new allocations down to this floor.
	dailyLossFloor = 0.25
)

// Allocator sizes the capital for one opportunity from a base per-trade
// amount, scaled by ROI, market quality and how the day is going.
type Allocator struct {
	baseCapital float64 // per-trade capital before scaling
	minOrder    float64 // below this the trade is not worth the fees
}

// NewAllocator creates an Allocator. minOrder sets the smallest allocation
// that still results in ShouldTrade=true.
func NewAllocator(baseCapital, minOrder float64) *Allocator {
	return &Allocator{baseCapital: baseCapital, minOrder: minOrder}
}

// Allocation computes the capital for an opportunity.
//
// Factors: ROI (linear up to fullAllocationROI), qualityScore in [0,1]
// (liquidity/volume quality; 0 means unknown and is treated as neutral),
// and dailyPnl (negative days damp sizing toward dailyLossFloor).
func (a *Allocator) Allocation(roiPercent, qualityScore, dailyPnl float64) domain.Allocation {
	if roiPercent <= 0 {
		return domain.Allocation{Reason: "non-positive ROI"}
	}

	roiFactor := roiPercent / fullAllocationROI
	if roiFactor > 1 {
		roiFactor = 1
	}

	quality := qualityScore
	if quality <= 0 {
		quality = 0.5
	} else if quality > 1 {
		quality = 1
	}

	lossDamp := 1.0
	if dailyPnl < 0 && a.baseCapital > 0 {
		lossDamp = 1.0 + dailyPnl/a.baseCapital
		if lossDamp < dailyLossFloor {
			lossDamp = dailyLossFloor
		}
	}

	capital := a.baseCapital * roiFactor * quality * lossDamp
	if capital < a.minOrder {
		return domain.Allocation{Reason: "allocation below minimum order"}
	}

	return domain.Allocation{
		AllocatedCapital: capital,
		ShouldTrade:      true,
		Reason:           "ok",
	}
}
