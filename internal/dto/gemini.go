package dto

type GeminiAPIRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type GenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a candidate response from the Gemini API.
type Candidate struct {
	Content Content `json:"content"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

// PersonaSignalParam is everything the LLM sees about one ticker.
type PersonaSignalParam struct {
	Persona    string
	Name       string
	Philosophy string
	Ticker     string
	Facts      []string
}

// PersonaSignalResponse is the JSON object the model is asked to return.
type PersonaSignalResponse struct {
	Signal     string                 `json:"signal"`
	Confidence float64                `json:"confidence"`
	Reasoning  string                 `json:"reasoning"`
	KeyMetrics map[string]interface{} `json:"keyMetrics"`
}
