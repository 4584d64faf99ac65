package docgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidationResult is the verdict of one validation pass. Errors block
// delivery and drive the retry; warnings are surfaced to the reviewing
// clinician but never block.
type ValidationResult struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var dosagePattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(mg|mcg|ml|g)\b`)

// Validate applies the structural, content and safety checks to one
// generated document. It is pure and deterministic: it drives both the
// safety gate and the retry decision, so the same document must always
// produce the same verdict. All checks run; nothing short-circuits, because
// the retry prompt needs the complete error list.
func Validate(doc PatientDocument, lang Language, rules *ClinicalRules) ValidationResult {
	var errs, warnings []string
	langRules := rules.ForLanguage(lang)

	// Structural completeness: every section present and substantive.
	for _, key := range SectionKeys() {
		content := strings.TrimSpace(doc.Section(key))
		if content == "" {
			errs = append(errs, fmt.Sprintf("section %q: missing or empty", key))
			continue
		}
		if utf8.RuneCountInString(content) < rules.MinSectionLength {
			errs = append(errs, fmt.Sprintf("section %q: content shorter than minimum length %d", key, rules.MinSectionLength))
		}
	}

	// Medications must either look like medication guidance or explicitly
	// defer to the care team. Ambiguity is tolerated but flagged: the model
	// may legitimately have no medication data to work with.
	if meds := strings.ToLower(strings.TrimSpace(doc.Medications)); meds != "" {
		looksLikeMedication := containsAny(meds, rules.MedicationTerms) || dosagePattern.MatchString(meds)
		defersToCareTeam := containsAny(meds, rules.NoMedicationPhrases)
		if !looksLikeMedication && !defersToCareTeam {
			warnings = append(warnings, fmt.Sprintf("section %q: content does not look like medication guidance or an explicit deferral", SectionMedications))
		}
	}

	// Warning signs must name the emergency number and urge immediate
	// action. Missing emergency guidance is the highest clinical-risk
	// failure this system guards against; it is never merely advisory.
	if ws := strings.ToLower(strings.TrimSpace(doc.WarningSigns)); ws != "" {
		hasNumber := containsAny(ws, langRules.EmergencyNumbers)
		hasUrgency := containsAnyFold(ws, langRules.EmergencyTerms)
		if !hasNumber || !hasUrgency {
			errs = append(errs, fmt.Sprintf("section %q: must reference the emergency number (%s) and immediate action",
				SectionWarningSigns, strings.Join(langRules.EmergencyNumbers, "/")))
		}
	}

	// Contacts must offer some reachable channel.
	if contacts := strings.ToLower(strings.TrimSpace(doc.Contacts)); contacts != "" {
		if !containsAny(contacts, rules.ContactTerms) {
			warnings = append(warnings, fmt.Sprintf("section %q: no reachable contact channel mentioned", SectionContacts))
		}
	}

	// Epistemic honesty: uncertainty must be phrased as an actionable
	// redirect, never as an admission of ignorance.
	fullText := strings.ToLower(doc.Concat())
	for _, phraseLang := range rules.languagesInOrder() {
		for _, phrase := range rules.ForbiddenPhrases[phraseLang] {
			if strings.Contains(fullText, strings.ToLower(phrase)) {
				errs = append(errs, fmt.Sprintf("forbidden phrase %q present in document", phrase))
			}
		}
	}

	// Degenerate content: a placeholder token is a section the model gave up
	// on, independent of whether it also failed the length check.
	for _, key := range SectionKeys() {
		trimmed := strings.ToLower(strings.TrimSpace(doc.Section(key)))
		trimmed = strings.TrimRight(trimmed, ".")
		for _, token := range rules.NullContentTokens {
			if trimmed == token {
				errs = append(errs, fmt.Sprintf("section %q: degenerate placeholder content %q", key, strings.TrimSpace(doc.Section(key))))
				break
			}
		}
	}

	// Dosage sanity: a smoke detector, not a clinical adjudicator. Findings
	// are warnings and must never block delivery on their own.
	for _, m := range dosagePattern.FindAllStringSubmatch(doc.Medications, -1) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		unit := strings.ToLower(m[2])
		switch {
		case unit == "mg" && value > rules.DosageMaxMG:
			warnings = append(warnings, fmt.Sprintf("section %q: implausibly large dose %q", SectionMedications, strings.TrimSpace(m[0])))
		case unit == "g":
			warnings = append(warnings, fmt.Sprintf("section %q: dose %q uses grams where milligrams are expected", SectionMedications, strings.TrimSpace(m[0])))
		}
	}

	// Language consistency: a coarse guard against the model silently
	// defaulting to English for a non-English target.
	if lang != LanguageEnglish && isAllASCII(fullText) {
		errs = append(errs, fmt.Sprintf("document appears to be in English despite target language %q", lang))
	}

	return ValidationResult{
		Passed:   len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsAnyFold(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func isAllASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
