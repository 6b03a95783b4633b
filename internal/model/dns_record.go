package model

// DNSRecordType represents DNS record type
type DNSRecordType string

const (
	DNSRecordTypeA     DNSRecordType = "A"
	DNSRecordTypeAAAA  DNSRecordType = "AAAA"
	DNSRecordTypeCNAME DNSRecordType = "CNAME"
	DNSRecordTypeMX    DNSRecordType = "MX"
	DNSRecordTypeTXT   DNSRecordType = "TXT"
	DNSRecordTypeNS    DNSRecordType = "NS"
	DNSRecordTypeSRV   DNSRecordType = "SRV"
	DNSRecordTypeCAA   DNSRecordType = "CAA"
)

// NeedsPriority reports whether the type carries a priority field
func (t DNSRecordType) NeedsPriority() bool {
	return t == DNSRecordTypeMX || t == DNSRecordTypeSRV
}

// Valid reports whether the type is supported
func (t DNSRecordType) Valid() bool {
	switch t {
	case DNSRecordTypeA, DNSRecordTypeAAAA, DNSRecordTypeCNAME, DNSRecordTypeMX,
		DNSRecordTypeTXT, DNSRecordTypeNS, DNSRecordTypeSRV, DNSRecordTypeCAA:
		return true
	}
	return false
}

// DNSRecordStatus represents local mirror status
type DNSRecordStatus string

const (
	DNSRecordStatusActive DNSRecordStatus = "active"
	DNSRecordStatusError  DNSRecordStatus = "error"
)

// DNSRecord mirrors a record held by the DNS provider.
// Name is stored relative to the zone ("@", "www").
type DNSRecord struct {
	BaseModel
	DomainID         int             `gorm:"index:idx_dns_domain_type_name;not null" json:"domain_id"`
	Type             DNSRecordType   `gorm:"type:varchar(8);index:idx_dns_domain_type_name;not null" json:"type"`
	Name             string          `gorm:"type:varchar(255);index:idx_dns_domain_type_name;not null" json:"name"`
	Content          string          `gorm:"type:varchar(2048);not null" json:"content"`
	TTL              int             `gorm:"not null;default:1" json:"ttl"`
	Priority         *int            `json:"priority,omitempty"`
	Proxied          *bool           `json:"proxied,omitempty"`
	ProviderRecordID *string         `gorm:"type:varchar(64);uniqueIndex" json:"provider_record_id"`
	Status           DNSRecordStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	LastError        string          `gorm:"type:varchar(255)" json:"last_error,omitempty"`
}

func (DNSRecord) TableName() string {
	return "dns_records"
}
