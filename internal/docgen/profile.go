package docgen

import "strings"

type Language string

const (
	LanguageEstonian Language = "estonian"
	LanguageRussian  Language = "russian"
	LanguageEnglish  Language = "english"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

type HealthLiteracy string

const (
	LiteracyLow    HealthLiteracy = "low"
	LiteracyMedium HealthLiteracy = "medium"
	LiteracyHigh   HealthLiteracy = "high"
)

type JourneyType string

const (
	JourneyElective  JourneyType = "elective"
	JourneyEmergency JourneyType = "emergency"
	JourneyChronic   JourneyType = "chronic"
	JourneyFirstTime JourneyType = "first-time"
)

type RiskAppetite string

const (
	RiskMinimal  RiskAppetite = "minimal"
	RiskModerate RiskAppetite = "moderate"
	RiskDetailed RiskAppetite = "detailed"
)

// Defaults applied by NormalizeProfile when an input field is missing or
// unrecognized. Language and literacy in particular must never reach prompt
// composition unresolved.
const (
	DefaultAge = 65

	DefaultSex          = SexOther
	DefaultLanguage     = LanguageEnglish
	DefaultLiteracy     = LiteracyMedium
	DefaultRiskAppetite = RiskModerate
)

// RawProfile is the loosely-typed personalization record as callers supply
// it. Every field is optional; enum-like fields are free text.
type RawProfile struct {
	Age            *int     `json:"age,omitempty"`
	Sex            string   `json:"sex,omitempty"`
	HealthLiteracy string   `json:"health_literacy,omitempty"`
	Language       string   `json:"language,omitempty"`
	JourneyType    string   `json:"journey_type,omitempty"`
	MentalState    string   `json:"mental_state,omitempty"`
	Comorbidities  []string `json:"comorbidities,omitempty"`
	SmokingStatus  string   `json:"smoking_status,omitempty"`
	RiskAppetite   string   `json:"risk_appetite,omitempty"`
}

// PatientProfile is the canonical personalization input. All enum fields hold
// concrete values; JourneyType may be empty (unspecified).
type PatientProfile struct {
	Age            int            `json:"age"`
	Sex            Sex            `json:"sex"`
	HealthLiteracy HealthLiteracy `json:"health_literacy"`
	Language       Language       `json:"language"`
	JourneyType    JourneyType    `json:"journey_type,omitempty"`
	MentalState    string         `json:"mental_state,omitempty"`
	Comorbidities  []string       `json:"comorbidities,omitempty"`
	SmokingStatus  string         `json:"smoking_status,omitempty"`
	RiskAppetite   RiskAppetite   `json:"risk_appetite"`
}

// NormalizeProfile resolves a raw record into a canonical profile. It is
// total: no input, however malformed, produces an error. Unresolvable values
// fall back to defaults so that null-ish data never leaks into prompt text.
func NormalizeProfile(raw RawProfile) PatientProfile {
	p := PatientProfile{
		Age:            DefaultAge,
		Sex:            parseSex(raw.Sex),
		HealthLiteracy: parseLiteracy(raw.HealthLiteracy),
		Language:       ParseLanguage(raw.Language),
		JourneyType:    parseJourneyType(raw.JourneyType),
		MentalState:    strings.TrimSpace(raw.MentalState),
		SmokingStatus:  strings.TrimSpace(raw.SmokingStatus),
		RiskAppetite:   parseRiskAppetite(raw.RiskAppetite),
	}
	if raw.Age != nil && *raw.Age > 0 && *raw.Age < 150 {
		p.Age = *raw.Age
	}
	for _, c := range raw.Comorbidities {
		if c = strings.TrimSpace(c); c != "" {
			p.Comorbidities = append(p.Comorbidities, c)
		}
	}
	return p
}

// ParseLanguage resolves free-text language input, tolerating ISO codes and
// native names. Unrecognized input resolves to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "estonian", "et", "est", "ee", "eesti":
		return LanguageEstonian
	case "russian", "ru", "rus", "русский":
		return LanguageRussian
	case "english", "en", "eng":
		return LanguageEnglish
	default:
		return DefaultLanguage
	}
}

func parseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale
	case "female", "f":
		return SexFemale
	default:
		return DefaultSex
	}
}

func parseLiteracy(s string) HealthLiteracy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LiteracyLow
	case "high":
		return LiteracyHigh
	case "medium":
		return LiteracyMedium
	default:
		return DefaultLiteracy
	}
}

func parseJourneyType(s string) JourneyType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "elective":
		return JourneyElective
	case "emergency":
		return JourneyEmergency
	case "chronic":
		return JourneyChronic
	case "first-time", "first_time", "firsttime":
		return JourneyFirstTime
	default:
		return ""
	}
}

func parseRiskAppetite(s string) RiskAppetite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return RiskMinimal
	case "detailed":
		return RiskDetailed
	case "moderate":
		return RiskModerate
	default:
		return DefaultRiskAppetite
	}
}
