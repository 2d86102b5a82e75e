package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Score bands for discount kinds that cannot be reduced to a percentage.
// Quantified discounts score at their effective percent, so a BOGO ranks
// above any quantified discount under 50% and below anything above it.
const (
	scoreBOGO     = 50.0
	scoreFreeItem = 40.0
	scoreFixed    = 30.0
	scoreSpecial  = 15.0
	scoreMax      = 95.0
)

var boilerplateDescriptions = []string{
	"great local business",
	"check us out",
	"visit us today",
	"come on down",
	"ask for details",
	"see store for details",
}

type Savings struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DealScorer reduces heterogeneous discount representations to a single
// comparable scale, used purely as a sort key.
type DealScorer struct{}

func NewDealScorer() *DealScorer {
	return &DealScorer{}
}

func (s *DealScorer) Score(deal NormalizedDeal) float64 {
	if pct, ok := s.effectivePercent(deal); ok {
		return math.Min(pct, scoreMax)
	}

	switch deal.DiscountKind {
	case DiscountBOGO:
		return scoreBOGO
	case DiscountFreeItem:
		return scoreFreeItem
	case DiscountFixed:
		return scoreFixed
	default:
		return scoreSpecial
	}
}

// IsRealDeal reports whether a deal carries any extractable savings
// signal. Deals failing this predicate are excluded from the collection
// entirely, never merely scored low.
func (s *DealScorer) IsRealDeal(deal NormalizedDeal) bool {
	if deal.DiscountValue > 0 {
		return true
	}
	if deal.OriginalPrice > 0 && deal.DealPrice >= 0 && deal.DealPrice < deal.OriginalPrice {
		return true
	}
	if deal.DiscountKind == DiscountBOGO || deal.DiscountKind == DiscountFreeItem {
		return true
	}
	return s.actionableDescription(deal)
}

func (s *DealScorer) SavingsDisplay(deal NormalizedDeal) *Savings {
	switch deal.DiscountKind {
	case DiscountPercent:
		if deal.DiscountValue > 0 {
			return &Savings{Type: "percent", Text: fmt.Sprintf("%.0f%% off", deal.DiscountValue)}
		}
	case DiscountFixed:
		if deal.DiscountValue > 0 {
			return &Savings{Type: "fixed", Text: fmt.Sprintf("$%.0f off", deal.DiscountValue)}
		}
	case DiscountBOGO:
		return &Savings{Type: "bogo", Text: "2-for-1"}
	case DiscountFreeItem:
		return &Savings{Type: "free_item", Text: "Freebie"}
	}

	if deal.OriginalPrice > 0 && deal.DealPrice >= 0 && deal.DealPrice < deal.OriginalPrice {
		return &Savings{
			Type: "save",
			Text: fmt.Sprintf("Save $%.0f", deal.OriginalPrice-deal.DealPrice),
		}
	}

	if s.actionableDescription(deal) {
		return &Savings{Type: "special", Text: "Special offer"}
	}

	return nil
}

func (s *DealScorer) effectivePercent(deal NormalizedDeal) (float64, bool) {
	if deal.DiscountKind == DiscountPercent && deal.DiscountValue > 0 {
		return deal.DiscountValue, true
	}

	if deal.OriginalPrice > 0 && deal.DealPrice >= 0 && deal.DealPrice < deal.OriginalPrice {
		return (deal.OriginalPrice - deal.DealPrice) / deal.OriginalPrice * 100, true
	}

	if deal.DiscountKind == DiscountFixed && deal.DiscountValue > 0 && deal.OriginalPrice > 0 {
		return deal.DiscountValue / deal.OriginalPrice * 100, true
	}

	return 0, false
}

func (s *DealScorer) actionableDescription(deal NormalizedDeal) bool {
	description := strings.TrimSpace(deal.Description)
	if description == "" {
		return false
	}
	if strings.EqualFold(description, strings.TrimSpace(deal.Title)) {
		return false
	}

	lower := strings.ToLower(description)
	for _, phrase := range boilerplateDescriptions {
		if lower == phrase {
			return false
		}
	}

	return len(description) >= 20
}
