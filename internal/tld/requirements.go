package tld

// Kind is the category of document a requirement asks for
type Kind string

const (
	KindPassport             Kind = "passport"
	KindTaxID                Kind = "tax_id"
	KindBirthDate            Kind = "birth_date"
	KindResidencyProof       Kind = "residency_proof"
	KindBusinessRegistration Kind = "business_registration"
	KindVATNumber            Kind = "vat_number"
	KindPhoneVerification    Kind = "phone_verification"
	KindEmailVerification    Kind = "email_verification"
	KindLocalContact         Kind = "local_contact"
	KindNameserverLocation   Kind = "nameserver_location"
)

// Requirement is one piece of registrant data a registry asks for.
// Field is the registrar additional_data key.
type Requirement struct {
	TLD         string `json:"tld"`
	Country     string `json:"country"`
	Kind        Kind   `json:"kind"`
	Mandatory   bool   `json:"mandatory"`
	Field       string `json:"field"`
	Description string `json:"description"`
	Pattern     string `json:"pattern,omitempty"`
	Example     string `json:"example,omitempty"`
}

const datePattern = `^\d{4}-\d{2}-\d{2}$`

// openTLDs are registrable without extra registrant data
var openTLDs = []string{"io", "co", "ai", "ph", "bz", "cc", "sr", "in"}

func req(tld, country string, kind Kind, mandatory bool, field, desc, pattern, example string) Requirement {
	return Requirement{
		TLD:         tld,
		Country:     country,
		Kind:        kind,
		Mandatory:   mandatory,
		Field:       field,
		Description: desc,
		Pattern:     pattern,
		Example:     example,
	}
}

func builtinRequirements() map[string][]Requirement {
	r := map[string][]Requirement{
		"ru": {
			req("ru", "Russia", KindTaxID, true, "inn", "Russian Individual Taxpayer Number (INN)", `^\d{10,12}$`, "1231767006"),
			req("ru", "Russia", KindBirthDate, true, "birth_date", "Date of birth in YYYY-MM-DD format", datePattern, "1991-01-05"),
			req("ru", "Russia", KindPassport, true, "passport_number", "Russian passport number", `^[A-Z]\d{8}$`, "V76933800"),
		},
		"es": {
			req("es", "Spain", KindTaxID, true, "nif_nie", "Spanish Tax ID (NIF/NIE)", `^[XYZ]?\d{7,8}[A-Z]$`, "12345678Z"),
			req("es", "Spain", KindResidencyProof, true, "eu_residency", "Proof of EU/EEA residency with Spanish address", "", "ES"),
			req("es", "Spain", KindBirthDate, true, "birth_date", "Date of birth for verification", datePattern, "1990-01-01"),
		},
		"fr": {
			req("fr", "France", KindBirthDate, true, "birth_date", "Date of birth (mandatory)", datePattern, "1985-03-15"),
			req("fr", "France", KindResidencyProof, true, "eu_presence", "Presence in EU/Switzerland/Norway/Iceland/Liechtenstein", "", "FR"),
		},
		"de": {
			req("de", "Germany", KindLocalContact, true, "admin_contact_de", "Administrative contact residing in Germany", "", "DE"),
		},
		"us": {
			req("us", "United States", KindPassport, true, "us_nexus_id", "Valid US ID (driver's license, passport, etc.)", "", "123456789"),
			req("us", "United States", KindResidencyProof, true, "us_nexus", "US citizenship/residency or bona fide US presence", "", "US"),
		},
		"pt": {
			req("pt", "Portugal", KindTaxID, true, "pt_tax_number", "Portuguese tax number", `^\d{9}$`, "123456789"),
			req("pt", "Portugal", KindPassport, true, "pt_id_card", "Portuguese ID card number", "", "12345678"),
		},
		"ro": {
			req("ro", "Romania", KindPassport, true, "ro_id_card", "ID card for individuals", "", "AB123456"),
			req("ro", "Romania", KindVATNumber, false, "ro_vat_number", "Registration/VAT number for organizations", "", "RO12345678"),
		},
		"fi": {
			req("fi", "Finland", KindBirthDate, true, "birth_date", "Birth date for foreign individuals", datePattern, "1988-07-20"),
			req("fi", "Finland", KindPassport, false, "fi_personal_id", "Finnish personal ID for locals", "", "010188-123A"),
		},
		"hk": {
			req("hk", "Hong Kong", KindPassport, true, "hk_id_card", "Hong Kong ID card number", `^[A-Z]\d{6}\(\d\)$`, "A123456(7)"),
			req("hk", "Hong Kong", KindBirthDate, true, "birth_date", "Date of birth for individuals", datePattern, "1992-11-10"),
		},
		"id": {
			req("id", "Indonesia", KindBusinessRegistration, true, "id_business_permits", "SIUP, TDP, AKTA, NPWP permits required", "", "SIUP123456789"),
			req("id", "Indonesia", KindTaxID, true, "id_npwp", "Indonesian tax number (NPWP)", `^\d{2}\.\d{3}\.\d{3}\.\d{1}-\d{3}\.\d{3}$`, "01.234.567.8-901.000"),
		},
		"se": {
			req("se", "Sweden", KindVATNumber, false, "se_vat_id", "VAT ID for non-Swedish organizations", `^SE\d{12}01$`, "SE123456789001"),
		},
		"eu": {
			req("eu", "European Union", KindResidencyProof, true, "eu_eligibility", "EU/EEA residency or EU citizenship", "", "DE"),
			req("eu", "European Union", KindEmailVerification, true, "email_verification", "Direct email verification from EURid registry", "", "verified@domain.com"),
		},
		"br": {
			req("br", "Brazil", KindTaxID, true, "br_cpf_cnpj", "CPF (individuals) or CNPJ (companies)", `^\d{11}$|^\d{14}$`, "12345678901"),
		},
		"cl": {
			req("cl", "Chile", KindPassport, true, "cl_id_card", "Chilean ID card number for individuals", `^\d{7,8}-[\dK]$`, "12345678-9"),
			req("cl", "Chile", KindTaxID, true, "cl_tax_number", "Tax number for organizations", "", "76123456-7"),
		},
		"ca": {
			req("ca", "Canada", KindResidencyProof, true, "ca_presence", "Canadian presence required", "", "CA"),
		},
		"jp": {
			req("jp", "Japan", KindLocalContact, true, "jp_local_contact", "Local contact in Japan required", "", "JP"),
		},
	}
	for _, t := range openTLDs {
		r[t] = []Requirement{}
	}
	return r
}
