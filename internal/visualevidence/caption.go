package visualevidence

import (
	"strings"

	"clipguard/internal/moderation"
	"clipguard/internal/textutil"
)

type captionField int

const (
	fieldNone captionField = iota
	fieldScene
	fieldText
	fieldAlert
)

var captionLabels = map[string]captionField{
	"CENA":           fieldScene,
	"TEXTO":          fieldText,
	"TEXTO COMPLETO": fieldText,
	"ALERTA":         fieldAlert,
}

// ParseCaption splits a vision model reply into its labeled fields. Lines
// after a label continue that field until the next label. A reply without
// any label is kept whole as the scene description.
func ParseCaption(text string) moderation.VisualReport {
	raw := strings.TrimSpace(text)
	report := moderation.VisualReport{Raw: raw}
	if raw == "" {
		return report
	}

	parts := map[captionField][]string{}
	current := fieldNone
	for _, line := range strings.Split(raw, "\n") {
		if field, rest, ok := splitLabel(line); ok {
			current = field
			if rest != "" {
				parts[field] = append(parts[field], rest)
			}
			continue
		}
		if current == fieldNone {
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts[current] = append(parts[current], trimmed)
		}
	}

	if current == fieldNone {
		report.SceneDescription = raw
		return report
	}
	report.SceneDescription = strings.Join(parts[fieldScene], "\n")
	report.OnScreenText = strings.Join(parts[fieldText], "\n")
	report.SafetyFlags = strings.Join(parts[fieldAlert], "\n")
	return report
}

// splitLabel recognizes "CENA: ...", "2. TEXTO COMPLETO: ..." and markdown
// bold variants such as "**Alerta:** ...".
func splitLabel(line string) (captionField, string, bool) {
	label, rest, ok := strings.Cut(line, ":")
	if !ok {
		return fieldNone, "", false
	}
	label = strings.TrimSpace(label)
	label = strings.TrimLeft(label, "0123456789.)-*# ")
	label = strings.Trim(label, "* ")
	field, known := captionLabels[textutil.Fold(label)]
	if !known {
		return fieldNone, "", false
	}
	rest = strings.TrimSpace(strings.TrimLeft(rest, "* "))
	return field, rest, true
}
