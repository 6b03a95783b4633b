package dns

import (
	"context"

	"go_domainbot/internal/dnstypes"
)

// Provider defines the interface for DNS providers
type Provider interface {
	// CreateZone creates a zone, returning the existing one if it is already there
	CreateZone(ctx context.Context, domain string) (*dnstypes.Zone, error)

	// GetZone returns a zone and its assigned nameservers
	GetZone(ctx context.Context, zoneID string) (*dnstypes.Zone, error)

	AddRecord(ctx context.Context, zoneID string, record dnstypes.Record) (*dnstypes.Record, error)
	UpdateRecord(ctx context.Context, zoneID, recordID string, record dnstypes.Record) (*dnstypes.Record, error)

	// DeleteRecord deletes a DNS record by its provider-specific ID
	DeleteRecord(ctx context.Context, zoneID, recordID string) error

	ListRecords(ctx context.Context, zoneID string) ([]dnstypes.Record, error)

	// FindRecord finds records by type and FQDN
	FindRecord(ctx context.Context, zoneID, recordType, name string) ([]dnstypes.Record, error)
}
