package adjudication

import (
	"encoding/json"
	"strings"

	"clipguard/internal/moderation"
	"clipguard/internal/services/llm"
	"clipguard/internal/textutil"
)

type verdictPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Motivo string `json:"motivo"`
}

// ParseVerdict interprets a judge reply. A reply that is a single JSON object
// (optionally fenced) is read as JSON; anything else goes through the
// two-line "STATUS: ... / MOTIVO: ..." form. Braces quoted inside a text
// reply are never read as the verdict. Only the exact status APPROVED
// approves. An empty reply is UNKNOWN.
func ParseVerdict(raw string) moderation.Verdict {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return moderation.Verdict{Status: moderation.VerdictUnknown, Reason: "Resposta vazia do juiz."}
	}

	status, reason, found := parseJSONVerdict(trimmed)
	if !found {
		var textReason string
		status, textReason, found = parseTextVerdict(trimmed)
		if textReason != "" {
			reason = textReason
		}
	}
	if !found && reason == "" {
		reason = trimmed
	}
	return moderation.Verdict{Status: decide(status), Reason: reason, Raw: trimmed}
}

func parseJSONVerdict(raw string) (string, string, bool) {
	body := llm.StripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return "", "", false
	}
	var payload verdictPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", "", false
	}
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = strings.TrimSpace(payload.Motivo)
	}
	if strings.TrimSpace(payload.Status) == "" {
		return "", reason, false
	}
	return payload.Status, reason, true
}

func parseTextVerdict(raw string) (string, string, bool) {
	var (
		status      string
		found       bool
		reasonLines []string
		inReason    bool
	)
	for _, line := range strings.Split(raw, "\n") {
		label, rest, ok := strings.Cut(line, ":")
		if ok {
			rest = strings.TrimLeft(rest, "* ")
			switch textutil.Fold(strings.Trim(label, "*# ")) {
			case "STATUS":
				if !found {
					status, found = rest, true
				}
				inReason = false
				continue
			case "MOTIVO", "REASON":
				reasonLines = append(reasonLines[:0], strings.TrimSpace(rest))
				inReason = true
				continue
			}
		}
		if inReason {
			reasonLines = append(reasonLines, line)
		}
	}
	return status, strings.TrimSpace(strings.Join(reasonLines, "\n")), found
}

// NormalizeStatus trims, upper-cases and strips square brackets from a
// status token.
func NormalizeStatus(value string) string {
	value = strings.NewReplacer("[", "", "]", "").Replace(value)
	return strings.ToUpper(strings.TrimSpace(value))
}

func decide(status string) moderation.VerdictStatus {
	if NormalizeStatus(status) == string(moderation.VerdictApproved) {
		return moderation.VerdictApproved
	}
	return moderation.VerdictRejected
}
