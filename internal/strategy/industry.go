package strategy

import (
	"fmt"
	"strings"
)

const standardMaxDebtToEquity = 1.5

// IndustryProfile describes what normal leverage looks like for a group of businesses.
// LeverageNormal marks industries whose business model runs on debt.
type IndustryProfile struct {
	Name            string
	TypicalLeverage string
	LeverageNormal  bool
	LeverageReason  string
	MaxDebtToEquity float64
}

var (
	profileDefense = IndustryProfile{
		Name:            "Defense Contractors",
		TypicalLeverage: "D/E 2-4x",
		LeverageNormal:  true,
		LeverageReason:  "long-term government contracts make high leverage safe",
		MaxDebtToEquity: 5.0,
	}
	profileTechnology = IndustryProfile{
		Name:            "Technology",
		TypicalLeverage: "D/E < 0.5x",
		LeverageReason:  "growth should be funded from operations, not debt",
		MaxDebtToEquity: 1.0,
	}
	profileUtilities = IndustryProfile{
		Name:            "Utilities",
		TypicalLeverage: "D/E 1.5-3x",
		LeverageNormal:  true,
		LeverageReason:  "regulated, predictable cash flows service the debt",
		MaxDebtToEquity: 4.0,
	}
	profileREITs = IndustryProfile{
		Name:            "REITs",
		TypicalLeverage: "debt/assets 40-60%",
		LeverageNormal:  true,
		LeverageReason:  "stable rental income services the debt",
		MaxDebtToEquity: 6.0,
	}
	profileBanks = IndustryProfile{
		Name:            "Banking & Financials",
		TypicalLeverage: "assets/equity 10-20x",
		LeverageNormal:  true,
		LeverageReason:  "borrowing short and lending long is the business",
		MaxDebtToEquity: 15.0,
	}
)

var (
	defenseKeywords = []string{"defense", "aerospace", "military", "weapons", "government services"}
	techKeywords    = []string{"technology", "software", "internet", "semiconductor"}
	utilityKeywords = []string{"utilities", "electric", "gas", "water"}
	reitKeywords    = []string{"reit", "real estate"}
	bankKeywords    = []string{"banks", "financial services", "insurance"}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// IndustryProfileFor matches a sector and industry to a profile. Defense is checked on both
// because data sources file it under Industrials.
func IndustryProfileFor(sector, industry string) (IndustryProfile, bool) {
	sector, industry = strings.ToLower(sector), strings.ToLower(industry)
	switch {
	case containsAny(sector, defenseKeywords) || containsAny(industry, defenseKeywords):
		return profileDefense, true
	case containsAny(sector, techKeywords):
		return profileTechnology, true
	case containsAny(sector, utilityKeywords):
		return profileUtilities, true
	case containsAny(sector, reitKeywords):
		return profileREITs, true
	case containsAny(sector, bankKeywords):
		return profileBanks, true
	default:
		return IndustryProfile{}, false
	}
}

// LeverageView is debt/equity judged against the company's industry. Tolerated is true when
// the debt would look high elsewhere but is normal for the industry.
type LeverageView struct {
	Concerning  bool
	Tolerated   bool
	Threshold   float64
	Explanation string
}

func AssessLeverage(de float64, sector, industry string) LeverageView {
	profile, ok := IndustryProfileFor(sector, industry)
	if !ok {
		v := LeverageView{Concerning: de > standardMaxDebtToEquity, Threshold: standardMaxDebtToEquity}
		v.Explanation = fmt.Sprintf("D/E %.2fx is acceptable", de)
		if v.Concerning {
			v.Explanation = fmt.Sprintf("D/E %.2fx is high", de)
		}
		return v
	}

	v := LeverageView{Threshold: profile.MaxDebtToEquity}
	high := de > profile.MaxDebtToEquity
	switch {
	case profile.LeverageNormal && !high:
		v.Tolerated = true
		v.Explanation = fmt.Sprintf("D/E %.2fx is within %s norm (%s): %s", de, profile.Name, profile.TypicalLeverage, profile.LeverageReason)
	case profile.LeverageNormal:
		v.Concerning = de > profile.MaxDebtToEquity*1.3
		v.Tolerated = !v.Concerning
		if v.Concerning {
			v.Explanation = fmt.Sprintf("D/E %.2fx is high even for %s", de, profile.Name)
		} else {
			v.Explanation = fmt.Sprintf("D/E %.2fx is within acceptable range for %s", de, profile.Name)
		}
	default:
		v.Concerning = high
		if high {
			v.Explanation = fmt.Sprintf("D/E %.2fx is high for %s: %s", de, profile.Name, profile.LeverageReason)
		} else {
			v.Explanation = fmt.Sprintf("D/E %.2fx is acceptable for %s", de, profile.Name)
		}
	}
	return v
}

// ROEView judges return on equity in industry context. InContext is set when an industry
// profile decided the verdict.
type ROEView struct {
	InContext      bool
	Quality        bool
	LeverageDriven bool
	Explanation    string
}

// AssessROE takes ROE and ROA in percent; roa is zero when unknown.
func AssessROE(roe, roa float64, sector, industry string) ROEView {
	profile, ok := IndustryProfileFor(sector, industry)
	if !ok || !profile.LeverageNormal {
		return ROEView{}
	}

	var ratio float64
	if roa > 0 {
		ratio = roe / roa
	}
	switch {
	case roe > 50 && ratio > 8:
		return ROEView{
			InContext:      true,
			Quality:        true,
			LeverageDriven: true,
			Explanation:    fmt.Sprintf("ROE %.1f%% is leverage-driven (ROA %.1f%%), normal for %s", roe, roa, profile.Name),
		}
	case roe < 20:
		return ROEView{
			InContext:   true,
			Explanation: fmt.Sprintf("ROE %.1f%% is low for %s where leverage should boost returns", roe, profile.Name),
		}
	default:
		return ROEView{
			InContext:   true,
			Quality:     true,
			Explanation: fmt.Sprintf("ROE %.1f%% for %s", roe, profile.Name),
		}
	}
}
