package openprovider

// ExtraFieldsForTLD returns the registrar-specific additional_data the
// registry for tld needs on top of registrant data. abuseEmail is used for
// .de abuse contacts.
func ExtraFieldsForTLD(tld, abuseEmail string) map[string]string {
	switch tld {
	case "dk":
		return map[string]string{"dk_acceptance": "1"}
	case "de":
		if abuseEmail == "" {
			abuseEmail = "abuse@nameword.com"
		}
		return map[string]string{
			"de_accept_trustee_tac": "1",
			"de_abuse_contact":      abuseEmail,
		}
	case "ca":
		return map[string]string{
			"ca_legal_type":      "CCO",
			"ca_trustee_contact": "1",
		}
	case "au", "com.au", "net.au":
		return map[string]string{
			"au_registrant_name":    "Nameword Holdings",
			"au_registrant_id_type": "OTHER",
			"au_trustee_contact":    "1",
		}
	case "fr":
		return map[string]string{
			"fr_accept_trustee_tac": "1",
			"fr_contact_country":    "NL",
		}
	case "eu":
		return map[string]string{
			"eu_accept_trustee_tac":     "1",
			"eu_registrant_citizenship": "NL",
		}
	default:
		return nil
	}
}
