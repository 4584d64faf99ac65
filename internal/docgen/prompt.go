package docgen

import (
	"fmt"
	"strings"
)

// Prompt is the instruction payload for one generation attempt.
type Prompt struct {
	System string
	User   string
}

// RetryContext carries the prior attempt's validation errors into the second
// attempt's instructions.
type RetryContext struct {
	Errors []string
}

const systemPrompt = `You turn technical clinical notes into clear, reassuring, patient-facing explanations. ` +
	`You write only what the note supports: never invent findings, diagnoses or treatment changes. ` +
	`You respond with exactly the seven requested sections and nothing else.`

// ComposePrompt deterministically builds the instruction payload for one
// attempt: no network, no randomness, no clock. The block order is fixed;
// the retry block, when present, leads the user prompt so the model reads
// the corrections before anything else.
func ComposePrompt(profile PatientProfile, technicalNote string, retry *RetryContext, rules *ClinicalRules) Prompt {
	langRules := rules.ForLanguage(profile.Language)
	var b strings.Builder

	if retry != nil {
		writeRetryBlock(&b, retry, langRules, rules.MinSectionLength)
	}

	b.WriteString(fmt.Sprintf("Write a patient-facing explanation of the clinical note below, in %s, as exactly %d sections keyed %s.\n\n",
		profile.Language, len(SectionKeys()), joinKeys()))

	writePersonalizationBlock(&b, profile)
	writeSectionGuidelines(&b, langRules)
	writeRegisterRules(&b, langRules, profile.Language)
	writeSafetyRules(&b, langRules)

	b.WriteString("Technical clinical note:\n\"\"\"\n")
	b.WriteString(technicalNote)
	b.WriteString("\n\"\"\"\n")

	return Prompt{System: systemPrompt, User: b.String()}
}

func joinKeys() string {
	keys := SectionKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

func writeRetryBlock(b *strings.Builder, retry *RetryContext, langRules LanguageRules, minLen int) {
	b.WriteString("A previous draft of this document was rejected. Correct every one of these problems:\n")
	for _, e := range retry.Errors {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Hard constraints for the corrected draft: every section must be at least %d characters of substantive text; ", minLen))
	b.WriteString(fmt.Sprintf("the warning-signs section must name the emergency number %s; ", strings.Join(langRules.EmergencyNumbers, "/")))
	b.WriteString("never state that information is unknown or unavailable - where the note is silent, write that the care team will provide the detail.\n\n")
}

func writePersonalizationBlock(b *strings.Builder, p PatientProfile) {
	b.WriteString("About the reader:\n")
	b.WriteString(fmt.Sprintf("- %d-year-old, sex: %s.\n", p.Age, p.Sex))

	switch p.HealthLiteracy {
	case LiteracyLow:
		b.WriteString("- Low health literacy: use very plain words and short sentences, avoid all medical jargon, explain any unavoidable term at once.\n")
	case LiteracyHigh:
		b.WriteString("- High health literacy: precise medical terminology is welcome; keep the structure clear and do not oversimplify.\n")
	default:
		b.WriteString("- Average health literacy: everyday language, short paragraphs, explain technical terms on first use.\n")
	}

	switch {
	case p.Age < 40:
		b.WriteString("- The reader is young: emphasise recovery, return to work or study, and staying active.\n")
	case p.Age >= 65:
		b.WriteString("- The reader is older: emphasise daily routines, involving family or carers, and awareness of complications.\n")
	}

	switch p.JourneyType {
	case JourneyEmergency:
		b.WriteString("- This admission was unplanned: acknowledge the suddenness, reassure, and explain what happened before what comes next.\n")
	case JourneyFirstTime:
		b.WriteString("- This is the reader's first encounter with the condition: assume no prior knowledge of it.\n")
	case JourneyChronic:
		b.WriteString("- The reader manages this condition long-term: focus on what changes relative to their current routine.\n")
	case JourneyElective:
		b.WriteString("- This was a planned procedure: frame the note as the expected course of a prepared-for treatment.\n")
	}

	switch p.RiskAppetite {
	case RiskMinimal:
		b.WriteString("- The reader wants only essential information: keep every section brief and practical.\n")
	case RiskDetailed:
		b.WriteString("- The reader wants depth: include fuller explanations of mechanisms, likelihoods and trade-offs.\n")
	default:
		b.WriteString("- Balance practical guidance with enough explanation to justify it.\n")
	}

	if p.MentalState != "" {
		b.WriteString(fmt.Sprintf("- Reported mental state: %s. Choose a tone accordingly.\n", p.MentalState))
	}
	if len(p.Comorbidities) > 0 {
		b.WriteString(fmt.Sprintf("- Known comorbidities to respect in guidance: %s.\n", strings.Join(p.Comorbidities, ", ")))
	}
	if p.SmokingStatus != "" {
		b.WriteString(fmt.Sprintf("- Smoking status: %s.\n", p.SmokingStatus))
	}
	b.WriteString("\n")
}

func writeSectionGuidelines(b *strings.Builder, langRules LanguageRules) {
	guidelines := map[SectionKey]string{
		SectionDiagnosisExplanation: "what was found and what it means for the reader, in plain terms",
		SectionLifestyleGuidance:    "concrete guidance on food, movement, sleep, alcohol and daily habits",
		SectionSixMonthTimeline:     "what the next six months look like: appointments, recovery milestones, check-ups",
		SectionLongTermLifeImpact:   "honest, encouraging picture of life with this condition beyond six months",
		SectionMedications:          "each medication with its purpose and dose in everyday words, or an explicit statement that the care team will provide the medication plan",
		SectionWarningSigns:         "symptoms that require action, explicitly naming the emergency number and when to call it",
		SectionContacts:             "who to reach and how: clinic phone, appointment booking, questions between visits",
	}
	b.WriteString("Section guidelines (use the localized title shown for each):\n")
	for _, key := range SectionKeys() {
		b.WriteString(fmt.Sprintf("- %s (%q): %s.\n", key, langRules.Titles[key], guidelines[key]))
	}
	b.WriteString("\n")
}

func writeRegisterRules(b *strings.Builder, langRules LanguageRules, lang Language) {
	b.WriteString(fmt.Sprintf("Language register for %s:\n", lang))
	b.WriteString("- " + langRules.FormalAddress + "\n")
	b.WriteString(fmt.Sprintf("- Write phone numbers in the format %s.\n\n", langRules.PhoneFormat))
}

func writeSafetyRules(b *strings.Builder, langRules LanguageRules) {
	b.WriteString("Safety rules, none negotiable:\n")
	b.WriteString("- Use only information present in the note; never invent findings or adjust treatment.\n")
	b.WriteString(fmt.Sprintf("- The warning-signs section must name the emergency number %s and tell the reader to act immediately when those signs appear.\n",
		strings.Join(langRules.EmergencyNumbers, "/")))
	b.WriteString("- Where the note lacks a detail, say the care team will provide it; never write that you do not know or that information is unavailable.\n")
	b.WriteString("- Every section must contain substantive text; never a placeholder like \"N/A\" or \"none\".\n\n")
}
