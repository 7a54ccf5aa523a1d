package domain

import "time"

// Market representa un mercado de predicción binario en Polymarket.
type Market struct {
	ConditionID string
	QuestionID  string
	Question    string    // enriquecido desde Gamma
	Slug        string    // enriquecido desde Gamma
	Category    string    // enriquecido desde Gamma, puede venir vacío
	EndDate     time.Time // fecha de resolución, enriquecido desde Gamma
	Volume24h   float64   // volumen últimas 24h en USDC, enriquecido desde Gamma
	Tokens      [2]Token
	Active      bool
	Closed      bool
}

// Token es uno de los dos lados del mercado (YES/NO).
type Token struct {
	TokenID string
	Outcome string  // "Yes" | "No"
	Price   float64 // último precio mid del CLOB
}

// IsBinary devuelve true si el mercado tiene exactamente los dos tokens
// YES/NO con IDs válidos. Los mercados multi-outcome no se arbitran aquí.
func (m Market) IsBinary() bool {
	return m.Tokens[0].TokenID != "" && m.Tokens[1].TokenID != "" &&
		m.Tokens[0].TokenID != m.Tokens[1].TokenID
}

// YesToken devuelve el token YES del mercado.
func (m Market) YesToken() Token {
	for _, t := range m.Tokens {
		if t.Outcome == "Yes" {
			return t
		}
	}
	return m.Tokens[0]
}

// NoToken devuelve el token NO del mercado.
func (m Market) NoToken() Token {
	for _, t := range m.Tokens {
		if t.Outcome == "No" {
			return t
		}
	}
	return m.Tokens[1]
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		if len(conditionID) > 20 {
			q = conditionID[:20] + "..."
		} else {
			q = conditionID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
