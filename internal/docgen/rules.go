package docgen

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed clinical_rules.yaml
var defaultRulesYAML []byte

// LanguageRules holds the per-language clinical configuration: localized
// section titles, register rules for prompt composition, and the emergency
// tokens the validator requires in the warning-signs section.
type LanguageRules struct {
	EmergencyNumbers []string               `yaml:"emergency_numbers"`
	EmergencyTerms   []string               `yaml:"emergency_terms"`
	FormalAddress    string                 `yaml:"formal_address"`
	PhoneFormat      string                 `yaml:"phone_format"`
	Titles           map[SectionKey]string  `yaml:"titles"`
}

// ClinicalRules is the full language-keyed rule set driving prompt
// composition and document validation.
type ClinicalRules struct {
	MinSectionLength    int                        `yaml:"min_section_length"`
	DosageMaxMG         float64                    `yaml:"dosage_max_mg"`
	NullContentTokens   []string                   `yaml:"null_content_tokens"`
	ForbiddenPhrases    map[Language][]string      `yaml:"forbidden_phrases"`
	MedicationTerms     []string                   `yaml:"medication_terms"`
	NoMedicationPhrases []string                   `yaml:"no_medication_phrases"`
	ContactTerms        []string                   `yaml:"contact_terms"`
	Languages           map[Language]LanguageRules `yaml:"languages"`
}

// LoadRules parses and sanity-checks a YAML rule set.
func LoadRules(raw []byte) (*ClinicalRules, error) {
	var rules ClinicalRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse clinical rules: %w", err)
	}
	if rules.MinSectionLength <= 0 {
		return nil, fmt.Errorf("clinical rules: min_section_length must be positive")
	}
	if len(rules.Languages) == 0 {
		return nil, fmt.Errorf("clinical rules: no languages configured")
	}
	if _, ok := rules.Languages[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("clinical rules: fallback language %q missing", DefaultLanguage)
	}
	for lang, lr := range rules.Languages {
		if len(lr.EmergencyNumbers) == 0 {
			return nil, fmt.Errorf("clinical rules: language %q has no emergency numbers", lang)
		}
		for _, key := range SectionKeys() {
			if lr.Titles[key] == "" {
				return nil, fmt.Errorf("clinical rules: language %q missing title for section %q", lang, key)
			}
		}
	}
	return &rules, nil
}

// DefaultRules loads the embedded rule set.
func DefaultRules() (*ClinicalRules, error) {
	return LoadRules(defaultRulesYAML)
}

// ForLanguage returns the rules for lang, falling back to the default
// language when lang is not configured.
func (r *ClinicalRules) ForLanguage(lang Language) LanguageRules {
	if lr, ok := r.Languages[lang]; ok {
		return lr
	}
	return r.Languages[DefaultLanguage]
}

// languagesInOrder returns configured languages sorted by name so that
// document-wide scans produce deterministically ordered findings.
func (r *ClinicalRules) languagesInOrder() []Language {
	out := make([]Language, 0, len(r.ForbiddenPhrases))
	for lang := range r.ForbiddenPhrases {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
