package refdata

import "github.com/google/uuid"

// StorePrice is one currency's cost for a StoreArticle. Currency is kept
// as a plain string here (rather than model.CurrencyType) so refdata stays
// free of a dependency on internal/model; callers compare against
// string(model.CurrencyType).
type StorePrice struct {
	Currency      string
	OriginalPrice uint32
	FinalPrice    uint32
}

// StoreLimit caps how many times an article may be purchased within a
// scope (store_catalogs.rs StoreLimit; scope is always "USER" upstream).
type StoreLimit struct {
	Scope   string
	Maximum uint32
}

// StoreArticle is a purchasable entry in the store catalog (store_catalogs.rs
// StoreArticle, trimmed to the fields the purchase pipeline needs).
type StoreArticle struct {
	Name     uuid.UUID
	ItemName uuid.UUID
	Prices   []StorePrice
	Limits   []StoreLimit
}

// Price returns the final price of a for currency, or false if the
// article isn't sold in that currency.
func (a StoreArticle) Price(currency string) (uint32, bool) {
	for _, p := range a.Prices {
		if p.Currency == currency {
			return p.FinalPrice, true
		}
	}
	return 0, false
}
