package utils

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strings"
	"unicode"

	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,14}$`)

// ContainsString checks if a slice of strings contains a specific string.
func ContainsString(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

func ToPointer[T any](value T) *T {
	return &value
}

// Deref returns the pointed value or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("bad ticker %q: %w", raw, common.ErrInvalidInput)
	}
	return t, nil
}

// ParseTickers splits a comma or space separated list, normalizes and de-duplicates it
// keeping the first occurrence order.
func ParseTickers(args ...string) ([]string, error) {
	var tickers []string
	seen := map[string]bool{}
	for _, arg := range args {
		for _, part := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
			t, err := NormalizeTicker(part)
			if err != nil {
				return nil, err
			}
			if seen[t] {
				continue
			}
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers given: %w", common.ErrInvalidInput)
	}
	return tickers, nil
}

func CapitalizeSentence(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	runes := []rune(input)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value)
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
