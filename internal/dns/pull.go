package dns

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/model"
	"go_domainbot/internal/repository"
)

// PullSyncResult represents the result of DNS records pull synchronization
type PullSyncResult struct {
	Fetched int   `json:"fetched"` // Total records fetched from the provider
	Created int   `json:"created"`
	Updated int   `json:"updated"`
	Skipped int   `json:"skipped"` // Unsupported types
	Removed int64 `json:"removed"` // Local rows no longer at the provider
}

// PullRecords mirrors the provider's record list for a domain into dns_records
func (s *Service) PullRecords(ctx context.Context, domainID int) (*PullSyncResult, error) {
	domain, err := s.zonedDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}

	records, err := s.provider.ListRecords(ctx, domain.ZoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for %s: %w", domain.DomainName, err)
	}

	result := &PullSyncResult{Fetched: len(records)}
	keep := make([]string, 0, len(records))

	for _, r := range records {
		typ := model.DNSRecordType(r.Type)
		if !typ.Valid() {
			result.Skipped++
			continue
		}
		keep = append(keep, r.ID)

		id := r.ID
		rec := model.DNSRecord{
			DomainID:         domainID,
			Type:             typ,
			Name:             NormalizeRelativeName(r.Name, domain.DomainName),
			Content:          r.Content,
			TTL:              r.TTL,
			Priority:         r.Priority,
			Proxied:          r.Proxied,
			ProviderRecordID: &id,
			Status:           model.DNSRecordStatusActive,
		}

		existing, err := s.store.DNSRecords.GetByProviderID(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if err := s.store.DNSRecords.Create(ctx, &rec); err != nil {
				s.logger.WithError(err).WithField("record_id", id).Warn("failed to mirror record")
				continue
			}
			result.Created++
		case err != nil:
			return nil, err
		default:
			if !changed(existing, &rec) {
				continue
			}
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			if err := s.store.DNSRecords.Save(ctx, &rec); err != nil {
				s.logger.WithError(err).WithField("record_id", id).Warn("failed to update mirrored record")
				continue
			}
			result.Updated++
		}
	}

	removed, err := s.store.DNSRecords.DeleteMissing(ctx, domainID, keep)
	if err != nil {
		return nil, err
	}
	result.Removed = removed

	s.logger.WithFields(logrus.Fields{
		"domain":  domain.DomainName,
		"fetched": result.Fetched,
		"created": result.Created,
		"updated": result.Updated,
		"removed": result.Removed,
	}).Debug("records pulled")
	return result, nil
}

func changed(old, cur *model.DNSRecord) bool {
	return old.Type != cur.Type ||
		old.Name != cur.Name ||
		old.Content != cur.Content ||
		old.TTL != cur.TTL ||
		old.Status != cur.Status ||
		!intPtrEqual(old.Priority, cur.Priority) ||
		!boolPtrEqual(old.Proxied, cur.Proxied)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
