// Package textutil provides Unicode-aware helpers for matching labels in
// model output and for shortening text for display.
//
// Model replies mix accents, case and stray whitespace ("Cena:", "CENA :",
// "TEXTO COMPLETO:", "MOTIVO:"). Fold reduces such strings to a comparable
// ASCII-ish form so parsers can match labels without caring about
// presentation.
package textutil
