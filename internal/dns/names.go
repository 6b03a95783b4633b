package dns

import "strings"

// Apex is the relative name of the zone itself
const Apex = "@"

func cleanName(s string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
}

// NormalizeRelativeName returns name relative to zone, the form stored in
// dns_records.name. It accepts "@", relative names and FQDNs with or without
// the trailing dot; an empty name means the apex.
func NormalizeRelativeName(name, zone string) string {
	name, zone = cleanName(name), cleanName(zone)
	switch {
	case name == "" || name == Apex || name == zone:
		return Apex
	case strings.HasSuffix(name, "."+zone):
		return strings.TrimSuffix(name, "."+zone)
	default:
		return name
	}
}

// ToFQDN expands a relative name under zone. Names already inside the zone
// are kept.
func ToFQDN(zone, name string) string {
	zone = cleanName(zone)
	rel := NormalizeRelativeName(name, zone)
	if rel == Apex {
		return zone
	}
	return rel + "." + zone
}
