package docgen

import (
	"fmt"
	"strings"
)

// SectionKey identifies one of the seven fixed topical blocks of a patient
// document. The set and its order are part of the product contract.
type SectionKey string

const (
	SectionDiagnosisExplanation SectionKey = "diagnosis-explanation"
	SectionLifestyleGuidance    SectionKey = "lifestyle-guidance"
	SectionSixMonthTimeline     SectionKey = "six-month-timeline"
	SectionLongTermLifeImpact   SectionKey = "long-term-life-impact"
	SectionMedications          SectionKey = "medications"
	SectionWarningSigns         SectionKey = "warning-signs"
	SectionContacts             SectionKey = "contacts"
)

// SectionKeys returns the seven section keys in presentation order.
func SectionKeys() []SectionKey {
	return []SectionKey{
		SectionDiagnosisExplanation,
		SectionLifestyleGuidance,
		SectionSixMonthTimeline,
		SectionLongTermLifeImpact,
		SectionMedications,
		SectionWarningSigns,
		SectionContacts,
	}
}

// PatientDocument is one structured generation result: exactly one free-text
// block per section. A zero value is structurally complete but will fail
// validation on every section.
type PatientDocument struct {
	DiagnosisExplanation string `json:"diagnosis-explanation"`
	LifestyleGuidance    string `json:"lifestyle-guidance"`
	SixMonthTimeline     string `json:"six-month-timeline"`
	LongTermLifeImpact   string `json:"long-term-life-impact"`
	Medications          string `json:"medications"`
	WarningSigns         string `json:"warning-signs"`
	Contacts             string `json:"contacts"`
}

func (d PatientDocument) Section(key SectionKey) string {
	switch key {
	case SectionDiagnosisExplanation:
		return d.DiagnosisExplanation
	case SectionLifestyleGuidance:
		return d.LifestyleGuidance
	case SectionSixMonthTimeline:
		return d.SixMonthTimeline
	case SectionLongTermLifeImpact:
		return d.LongTermLifeImpact
	case SectionMedications:
		return d.Medications
	case SectionWarningSigns:
		return d.WarningSigns
	case SectionContacts:
		return d.Contacts
	default:
		return ""
	}
}

func (d *PatientDocument) SetSection(key SectionKey, content string) {
	switch key {
	case SectionDiagnosisExplanation:
		d.DiagnosisExplanation = content
	case SectionLifestyleGuidance:
		d.LifestyleGuidance = content
	case SectionSixMonthTimeline:
		d.SixMonthTimeline = content
	case SectionLongTermLifeImpact:
		d.LongTermLifeImpact = content
	case SectionMedications:
		d.Medications = content
	case SectionWarningSigns:
		d.WarningSigns = content
	case SectionContacts:
		d.Contacts = content
	}
}

// Concat joins all section contents in order. Used by document-wide checks.
func (d PatientDocument) Concat() string {
	parts := make([]string, 0, 7)
	for _, key := range SectionKeys() {
		parts = append(parts, d.Section(key))
	}
	return strings.Join(parts, "\n")
}

// ToMap returns the section key to content mapping.
func (d PatientDocument) ToMap() map[string]string {
	out := make(map[string]string, 7)
	for _, key := range SectionKeys() {
		out[string(key)] = d.Section(key)
	}
	return out
}

// ParseDocument converts a decoded model response into a PatientDocument.
// The schema is closed: a missing key, a non-string value or any key beyond
// the seven is a malformed response. The upstream call requests this exact
// shape, but the model endpoint is an untrusted boundary and the check must
// hold here regardless.
func ParseDocument(obj map[string]any) (PatientDocument, error) {
	var doc PatientDocument
	if obj == nil {
		return doc, &GenerationError{Kind: FailureMalformedResponse, Message: "response is not a JSON object"}
	}
	for _, key := range SectionKeys() {
		raw, ok := obj[string(key)]
		if !ok {
			return doc, &GenerationError{
				Kind:    FailureMalformedResponse,
				Message: fmt.Sprintf("missing required key %q", key),
			}
		}
		s, ok := raw.(string)
		if !ok {
			return doc, &GenerationError{
				Kind:    FailureMalformedResponse,
				Message: fmt.Sprintf("key %q is not a string", key),
			}
		}
		doc.SetSection(key, s)
	}
	if len(obj) > len(SectionKeys()) {
		for k := range obj {
			if !isSectionKey(k) {
				return doc, &GenerationError{
					Kind:    FailureMalformedResponse,
					Message: fmt.Sprintf("unexpected top-level key %q", k),
				}
			}
		}
	}
	return doc, nil
}

func isSectionKey(s string) bool {
	for _, key := range SectionKeys() {
		if string(key) == s {
			return true
		}
	}
	return false
}

// DocumentSchema is the JSON schema sent with the structured-outputs request:
// all seven keys required, nothing else permitted.
func DocumentSchema() map[string]any {
	props := make(map[string]any, 7)
	required := make([]string, 0, 7)
	for _, key := range SectionKeys() {
		props[string(key)] = map[string]any{"type": "string"}
		required = append(required, string(key))
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
