package adjudication

import (
	"fmt"
	"strings"

	"clipguard/internal/moderation"
	"clipguard/internal/rules"
)

// Markers embedded in the prompt when a piece of evidence is absent.
const (
	NoVisualMarker = "Nenhuma evidência visual disponível."
	NoSpeechMarker = "Nenhuma fala detectada."
)

const systemTemplate = `Você é o Auditor Chefe de uma competição de vídeos.
Sua decisão é final. Analise as evidências recebidas e aplique as regras rigorosamente.

AS REGRAS:
%s

Responda APENAS com um objeto JSON, sem texto adicional, no formato:
{"status": "APPROVED" ou "REJECTED", "reason": "explicação curta citando a regra violada e a evidência encontrada"}`

const userTemplate = `EVIDÊNCIAS COLETADAS:
---------------------
1. TRANSCRIÇÃO (O que foi falado):
"%s"

2. ANÁLISE VISUAL (O que foi visto):
%s
---------------------

VEREDITO:
Baseado nas regras, o vídeo deve ser APPROVED ou REJECTED?`

// Prompt is the system/user message pair sent to the judge.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the judge prompt. A nil rule set uses the embedded
// default rules.
func BuildPrompt(rs *rules.RuleSet, audio moderation.AudioEvidence, reports []moderation.VisualReport) Prompt {
	if rs == nil {
		rs = rules.Default()
	}

	transcript := strings.TrimSpace(audio.Transcript)
	if transcript == "" {
		transcript = NoSpeechMarker
	}

	visual := moderation.FormatVisualReports(reports)
	if strings.TrimSpace(visual) == "" {
		visual = NoVisualMarker
	}

	return Prompt{
		System: fmt.Sprintf(systemTemplate, rs.Text()),
		User:   fmt.Sprintf(userTemplate, transcript, visual),
	}
}
