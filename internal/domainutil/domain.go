package domainutil

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize lowercases and trims a host name and rejects anything that is
// not a plain dotted domain: IPs, ports, wildcards, invalid characters.
func Normalize(host string) (string, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("domain must not be empty")
	}

	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
	}

	for _, r := range host {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-') {
			return "", fmt.Errorf("domain contains invalid character: %c in %s", r, host)
		}
	}

	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("domain must contain at least one dot: %s", host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return "", fmt.Errorf("invalid label length in %s", host)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "", fmt.Errorf("label must not start or end with '-': %s", host)
		}
	}
	if len(host) > 253 {
		return "", fmt.Errorf("domain too long: %s", host)
	}

	return host, nil
}

// Split returns the registrable label and its public suffix:
// example.com -> (example, com), shop.example.co.uk -> (example, co.uk).
func Split(domain string) (name, tld string, err error) {
	apex, err := EffectiveApex(domain)
	if err != nil {
		return "", "", err
	}
	suffix, _ := publicsuffix.PublicSuffix(apex)
	name = strings.TrimSuffix(apex, "."+suffix)
	return name, suffix, nil
}

// EffectiveApex returns the eTLD+1 of domain using the public suffix list
func EffectiveApex(domain string) (string, error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", err
	}
	apex, err := publicsuffix.EffectiveTLDPlusOne(normalized)
	if err != nil {
		return "", fmt.Errorf("PSL lookup failed for %s: %w", domain, err)
	}
	return apex, nil
}

// NormalizeNameservers normalizes and de-duplicates nameserver host names,
// keeping input order.
func NormalizeNameservers(hosts []string) ([]string, error) {
	seen := make(map[string]bool, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		n, err := Normalize(h)
		if err != nil {
			return nil, fmt.Errorf("invalid nameserver %q: %w", h, err)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}
