package models

// AssetInfo describes one supported asset from the asset catalog.
type AssetInfo struct {
	Code     AssetCode
	Name     string
	Chain    string // bitcoin, litecoin, ethereum, solana, ton
	Decimals int32

	// PriceId is the asset's identifier on the price API (e.g. "bitcoin").
	PriceId string

	// RequiredConfirmations is the minimum confirmation count a matching
	// transaction must carry before the payment completes.
	RequiredConfirmations int64

	// MemoSupported marks assets whose transfers carry a text memo/comment
	// channel usable for unique-memo attribution (TON, SOL).
	MemoSupported bool

	// TokenContract is set for ERC-20 assets only.
	TokenContract string
}

// IsToken reports whether the asset is an ERC-20 token rather than a
// chain-native coin.
func (a AssetInfo) IsToken() bool {
	return a.TokenContract != ""
}

// AssetCatalog indexes supported assets by code.
type AssetCatalog map[AssetCode]AssetInfo

// TierCatalog indexes subscription tiers by name.
type TierCatalog map[string]Tier
