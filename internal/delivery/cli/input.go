package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/common"

	"gopkg.in/yaml.v3"
)

// ParseHoldings reads "AAPL:0.3,MSFT:0.2" into holdings. Tickers are upper-cased.
func ParseHoldings(raw string) ([]dto.Holding, error) {
	pairs, err := parsePairs(raw)
	if err != nil {
		return nil, err
	}

	holdings := make([]dto.Holding, 0, len(pairs))
	for _, p := range pairs {
		holdings = append(holdings, dto.Holding{Ticker: p.key, Weight: p.value})
	}
	return holdings, nil
}

// ParsePrices reads "AAPL:190.5,MSFT:410" into a price map. An empty string yields an empty map.
func ParsePrices(raw string) (map[string]float64, error) {
	prices := map[string]float64{}
	if strings.TrimSpace(raw) == "" {
		return prices, nil
	}

	pairs, err := parsePairs(raw)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		prices[p.key] = p.value
	}
	return prices, nil
}

type pair struct {
	key   string
	value float64
}

func parsePairs(raw string) ([]pair, error) {
	var pairs []pair
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%q is not TICKER:VALUE: %w", part, common.ErrInvalidInput)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%q has invalid value %q: %w", part, value, common.ErrInvalidInput)
		}
		pairs = append(pairs, pair{key: strings.ToUpper(strings.TrimSpace(key)), value: v})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no TICKER:VALUE pairs in %q: %w", raw, common.ErrInvalidInput)
	}
	return pairs, nil
}

type lotFile struct {
	Lots []dto.TaxLot `json:"lots" yaml:"lots"`
}

// LoadLots accepts inline JSON or a path to a .json, .yaml or .yml file. Both a bare list of
// lots and an object with a "lots" key are understood.
func LoadLots(arg string) ([]dto.TaxLot, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("lots are required: %w", common.ErrInvalidInput)
	}

	if strings.HasPrefix(arg, "[") || strings.HasPrefix(arg, "{") {
		return decodeLots([]byte(arg), json.Unmarshal)
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to read lots file %s: %v: %w", arg, err, common.ErrInvalidInput)
	}

	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		return decodeLots(data, yaml.Unmarshal)
	default:
		return decodeLots(data, json.Unmarshal)
	}
}

func decodeLots(data []byte, unmarshal func([]byte, interface{}) error) ([]dto.TaxLot, error) {
	var lots []dto.TaxLot
	if err := unmarshal(data, &lots); err == nil {
		return lots, nil
	}

	var wrapped lotFile
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %v: %w", err, common.ErrParseFailure)
	}
	return wrapped.Lots, nil
}
