package repository

import (
	"fmt"
	"strings"

	"ai-hedge-fund/internal/dto"
)

func (r *geminiAIRepository) promptPersonaSignal(param dto.PersonaSignalParam) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are %s, legendary investor.\n\n", param.Name))

	sb.WriteString("PHILOSOPHY:\n")
	sb.WriteString(param.Philosophy)
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("ANALYZE: %s\n\n", param.Ticker))

	sb.WriteString("DATA:\n")
	if len(param.Facts) == 0 {
		sb.WriteString("No financial data available. Say so in the reasoning and stay neutral.\n")
	}
	for _, f := range param.Facts {
		sb.WriteString(f)
		sb.WriteString("\n")
	}

	sb.WriteString(`
Judge only from the data above and your philosophy. Missing data lowers your confidence.

Return ONLY JSON:
{"signal": "bullish"|"bearish"|"neutral", "confidence": 0-100, "reasoning": "explanation", "keyMetrics": {}}
`)

	return sb.String()
}
