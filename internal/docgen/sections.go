package docgen

import "strings"

// Section is the presentation-layer unit: a localized title plus the content
// a human reviewer may subsequently edit.
type Section struct {
	Key     SectionKey `json:"key"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
}

const sectionSeparator = "\n\n"

// ToSections maps a validated document into the seven ordered presentation
// sections with language-specific titles. Pure relabeling: validation has
// already gated the document and is not re-run here.
func ToSections(doc PatientDocument, lang Language, rules *ClinicalRules) []Section {
	langRules := rules.ForLanguage(lang)
	keys := SectionKeys()
	out := make([]Section, 0, len(keys))
	for _, key := range keys {
		out = append(out, Section{
			Key:     key,
			Title:   langRules.Titles[key],
			Content: doc.Section(key),
		})
	}
	return out
}

// FromSections serializes sections back into one flat text blob for storage
// and printing. Titles and contents pass through verbatim; only the
// separator formatting is introduced.
func FromSections(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, "== "+s.Title+" =="+sectionSeparator+s.Content)
	}
	return strings.Join(parts, sectionSeparator)
}
