package catalog

// Rarity represents the scarcity tier of a creature.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

// AllRarities returns all rarities in order from lowest to highest.
func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// Valid reports whether r is one of the known tiers.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// HatchWeight returns the probability mass of the tier in an egg draw.
// Weights over AllRarities sum to 1.
func (r Rarity) HatchWeight() float64 {
	switch r {
	case RarityCommon:
		return 0.60
	case RarityRare:
		return 0.25
	case RarityEpic:
		return 0.12
	case RarityLegendary:
		return 0.03
	default:
		return 0
	}
}

// DrawRarity maps a uniform sample in [0,1) onto a tier using the
// cumulative hatch weights.
func DrawRarity(sample float64) Rarity {
	cumulative := 0.0
	for _, r := range AllRarities() {
		cumulative += r.HatchWeight()
		if sample < cumulative {
			return r
		}
	}
	// Float rounding can leave the last bucket a hair short of 1.
	return RarityLegendary
}

// EggPrice is a shop offer. Every tier yields one generic egg; the tier only
// sets the price.
type EggPrice struct {
	Rarity Rarity
	Cost   int
}

// ShopPrices lists the egg offers in display order.
func ShopPrices() []EggPrice {
	return []EggPrice{
		{RarityCommon, 50},
		{RarityRare, 150},
		{RarityEpic, 300},
		{RarityLegendary, 600},
	}
}

// PriceFor returns the shop cost of the given tier.
func PriceFor(r Rarity) (int, bool) {
	for _, p := range ShopPrices() {
		if p.Rarity == r {
			return p.Cost, true
		}
	}
	return 0, false
}
