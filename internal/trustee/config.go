package trustee

// Level is how strongly a registry needs a local trustee
type Level string

const (
	LevelNone        Level = "none"
	LevelRecommended Level = "recommended"
	LevelRequired    Level = "required"
	LevelBlocked     Level = "blocked"
)

// Complexity is the registration difficulty of a TLD
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityHigh    Complexity = "high"
	ComplexityBlocked Complexity = "blocked"
	ComplexityUnknown Complexity = "unknown"
)

// TLDConfig is the trustee policy for one TLD
type TLDConfig struct {
	Country             string
	Level               Level
	Reasons             []string
	SpecialRequirements []string
	Complexity          Complexity
}

// keyed by dotted TLD
func builtinConfig() map[string]TLDConfig {
	return map[string]TLDConfig{
		".de": {
			Country:             "Germany",
			Level:               LevelNone,
			Reasons:             []string{"Optional trustee for legal document service only", "No local presence required since May 2018"},
			SpecialRequirements: []string{"A record setup before registration", "DNS validation by DENIC before registration"},
			Complexity:          ComplexitySimple,
		},
		".fr": {
			Country:             "France",
			Level:               LevelRequired,
			Reasons:             []string{"EU presence required", "AFNIC compliance"},
			SpecialRequirements: []string{"Email verification mandatory"},
			Complexity:          ComplexityHigh,
		},
		".it": {
			Country:             "Italy",
			Level:               LevelBlocked,
			Reasons:             []string{"Requires personal documents", "EEA residency/citizenship"},
			SpecialRequirements: []string{"Passport/ID required", "Fiscal code required"},
			Complexity:          ComplexityBlocked,
		},
		".eu": {
			Country:             "European Union",
			Level:               LevelRequired,
			Reasons:             []string{"EU residency required", "Business registration"},
			SpecialRequirements: []string{"EU presence verification"},
			Complexity:          ComplexityHigh,
		},
		".ca": {
			Country:             "Canada",
			Level:               LevelRequired,
			Reasons:             []string{"Canadian Presence Requirements (CPR)", "Business registration"},
			SpecialRequirements: []string{"Canadian citizen/resident required"},
			Complexity:          ComplexityHigh,
		},
		".br": {
			Country:             "Brazil",
			Level:               LevelRequired,
			Reasons:             []string{"Brazilian CPF/CNPJ required", "Local address"},
			SpecialRequirements: []string{"Brazilian tax number required"},
			Complexity:          ComplexityHigh,
		},
		".au": {
			Country:             "Australia",
			Level:               LevelRequired,
			Reasons:             []string{"Australian presence required", "ABN for businesses"},
			SpecialRequirements: []string{"Australian Business Number", "Residency proof"},
			Complexity:          ComplexityHigh,
		},
		".dk": {
			Country:             "Denmark",
			Level:               LevelRecommended,
			Reasons:             []string{"2025 compliance updates", "Terms acceptance"},
			SpecialRequirements: []string{"dk_acceptance=1 parameter required"},
			Complexity:          ComplexityMedium,
		},
	}
}

var safeTLDs = map[string]bool{
	".com": true, ".net": true, ".org": true, ".info": true, ".biz": true, ".name": true,
	".uk": true, ".co.uk": true, ".nl": true, ".ch": true, ".li": true, ".be": true, ".de": true,
	".io": true, ".ly": true, ".me": true, ".tv": true, ".cc": true, ".ws": true, ".sx": true,
}
