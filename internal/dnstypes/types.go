package dnstypes

// Record is a DNS record as seen by a DNS provider
type Record struct {
	ID       string // provider record id, empty before creation
	Type     string // A, AAAA, CNAME, MX, TXT, NS, SRV, CAA
	Name     string // FQDN (e.g., www.example.com)
	Content  string
	TTL      int   // 1 means automatic
	Priority *int  // MX/SRV only
	Proxied  *bool // Cloudflare proxy (orange cloud); nil leaves the provider default
}

// Zone is a hosted DNS zone
type Zone struct {
	ID          string
	Name        string
	Status      string
	NameServers []string
}
