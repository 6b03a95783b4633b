package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DomainStatus represents registered domain status
type DomainStatus string

const (
	DomainStatusActive    DomainStatus = "active"
	DomainStatusExpired   DomainStatus = "expired"
	DomainStatusSuspended DomainStatus = "suspended"
)

// NameserverMode tells who hosts the domain's DNS
type NameserverMode string

const (
	NameserverModeManaged NameserverMode = "managed" // Cloudflare zone nameservers
	NameserverModeCustom  NameserverMode = "custom"
)

// MinNameservers is the fewest nameservers a domain needs to resolve
const MinNameservers = 2

// RegisteredDomain is a domain sold through the bot
type RegisteredDomain struct {
	BaseModel
	TelegramID        int64           `gorm:"index;not null" json:"telegram_id"`
	DomainName        string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain_name"`
	TLD               string          `gorm:"type:varchar(32);not null" json:"tld"`
	RegistrarDomainID int64           `gorm:"index" json:"registrar_domain_id"`
	ContactHandle     string          `gorm:"type:varchar(64)" json:"contact_handle"`
	ZoneID            string          `gorm:"type:varchar(64);index" json:"zone_id"`
	NameserverMode    NameserverMode  `gorm:"type:varchar(16);not null;default:'managed'" json:"nameserver_mode"`
	Nameservers       datatypes.JSON  `json:"nameservers"`
	PricePaid         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price_paid"`
	TrusteeUsed       bool            `gorm:"not null;default:false" json:"trustee_used"`
	Status            DomainStatus    `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	ExpiresAt         *time.Time      `json:"expires_at"`
}

func (RegisteredDomain) TableName() string {
	return "registered_domains"
}

// NameserverList returns the stored nameservers
func (d *RegisteredDomain) NameserverList() []string {
	return StringList(d.Nameservers)
}

// IsServable reports whether the domain has enough nameservers to resolve
func (d *RegisteredDomain) IsServable() bool {
	return len(d.NameserverList()) >= MinNameservers
}
