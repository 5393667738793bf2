package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type assetEntry struct {
	Code                  string `yaml:"code"`
	Name                  string `yaml:"name"`
	Chain                 string `yaml:"chain"`
	Decimals              int32  `yaml:"decimals"`
	PriceId               string `yaml:"price_id"`
	RequiredConfirmations int64  `yaml:"required_confirmations"`
	MemoSupported         bool   `yaml:"memo_supported"`
	TokenContract         string `yaml:"token_contract"`
}

type assetsFile struct {
	Assets []assetEntry `yaml:"assets"`
}

type tierEntry struct {
	Name         string `yaml:"name"`
	PriceUSD     string `yaml:"price_usd"`
	DurationDays int    `yaml:"duration_days"`
	AdSlots      int    `yaml:"ad_slots"`
}

type tiersFile struct {
	Tiers []tierEntry `yaml:"tiers"`
}

// LoadAssetCatalog reads the supported-asset list from a yaml file.
func LoadAssetCatalog(path string) (models.AssetCatalog, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	var file assetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}

	catalog := make(models.AssetCatalog, len(file.Assets))
	for i, entry := range file.Assets {
		if entry.Code == "" {
			return nil, fmt.Errorf("asset at index %d missing code", i)
		}
		if entry.Chain == "" {
			return nil, fmt.Errorf("asset %s missing chain", entry.Code)
		}
		if entry.PriceId == "" {
			return nil, fmt.Errorf("asset %s missing price_id", entry.Code)
		}
		if entry.RequiredConfirmations < 1 {
			return nil, fmt.Errorf("asset %s needs required_confirmations >= 1", entry.Code)
		}

		code := models.AssetCode(entry.Code)
		if _, exists := catalog[code]; exists {
			return nil, fmt.Errorf("duplicate asset %s", entry.Code)
		}

		catalog[code] = models.AssetInfo{
			Code:                  code,
			Name:                  entry.Name,
			Chain:                 entry.Chain,
			Decimals:              entry.Decimals,
			PriceId:               entry.PriceId,
			RequiredConfirmations: entry.RequiredConfirmations,
			MemoSupported:         entry.MemoSupported,
			TokenContract:         entry.TokenContract,
		}
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("no assets defined in %s", path)
	}

	return catalog, nil
}

// LoadTierCatalog reads the purchasable subscription tiers from a yaml file.
func LoadTierCatalog(path string) (models.TierCatalog, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	var file tiersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}

	catalog := make(models.TierCatalog, len(file.Tiers))
	for i, entry := range file.Tiers {
		if entry.Name == "" {
			return nil, fmt.Errorf("tier at index %d missing name", i)
		}
		if _, exists := catalog[entry.Name]; exists {
			return nil, fmt.Errorf("duplicate tier %s", entry.Name)
		}

		price, err := decimal.NewFromString(entry.PriceUSD)
		if err != nil {
			return nil, fmt.Errorf("tier %s has invalid price_usd %q: %w", entry.Name, entry.PriceUSD, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("tier %s needs a positive price_usd", entry.Name)
		}
		if entry.DurationDays < 1 {
			return nil, fmt.Errorf("tier %s needs duration_days >= 1", entry.Name)
		}
		if entry.AdSlots < 0 {
			return nil, fmt.Errorf("tier %s has negative ad_slots", entry.Name)
		}

		catalog[entry.Name] = models.Tier{
			Name:         entry.Name,
			PriceUSD:     price,
			DurationDays: entry.DurationDays,
			AdSlots:      entry.AdSlots,
		}
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("no tiers defined in %s", path)
	}

	return catalog, nil
}

func readConfigFile(path string) ([]byte, error) {
	resolved := path
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		resolved = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return data, nil
}
