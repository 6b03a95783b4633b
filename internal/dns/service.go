package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/apierr"
	"go_domainbot/internal/dnstypes"
	"go_domainbot/internal/logging"
	"go_domainbot/internal/model"
	"go_domainbot/internal/repository"
)

var (
	// ErrInvalidRecord is returned when record input fails validation
	ErrInvalidRecord = errors.New("invalid dns record")
	// ErrNoZone is returned when the domain is not hosted in a DNS zone
	ErrNoZone = errors.New("domain has no dns zone")
)

// RecordInput is a record as entered by a user; Name may be relative or FQDN
type RecordInput struct {
	Type     model.DNSRecordType `json:"type"`
	Name     string              `json:"name"`
	Content  string              `json:"content"`
	TTL      int                 `json:"ttl"`
	Priority *int                `json:"priority"`
	Proxied  *bool               `json:"proxied"`
}

// Service manages DNS records against the provider and mirrors them locally.
// The provider record id is the key for every update and delete.
type Service struct {
	provider Provider
	store    *repository.Store
	logger   *logrus.Entry
}

// NewService creates a new DNS service
func NewService(provider Provider, store *repository.Store, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{provider: provider, store: store, logger: logger.WithField("component", "dns")}
}

// Validate checks a record input and normalizes it in place
func (in *RecordInput) Validate() error {
	in.Type = model.DNSRecordType(strings.ToUpper(string(in.Type)))
	in.Content = strings.TrimSpace(in.Content)

	if !in.Type.Valid() {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidRecord, in.Type)
	}
	if in.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidRecord)
	}
	if in.TTL == 0 {
		in.TTL = 1
	}
	if in.TTL != 1 && (in.TTL < 60 || in.TTL > 86400) {
		return fmt.Errorf("%w: ttl must be 1 (auto) or 60-86400", ErrInvalidRecord)
	}
	if in.Type.NeedsPriority() {
		if in.Priority == nil || *in.Priority < 0 || *in.Priority > 65535 {
			return fmt.Errorf("%w: %s record requires priority 0-65535", ErrInvalidRecord, in.Type)
		}
	} else {
		in.Priority = nil
	}
	if in.Proxied != nil && *in.Proxied {
		switch in.Type {
		case model.DNSRecordTypeA, model.DNSRecordTypeAAAA, model.DNSRecordTypeCNAME:
		default:
			return fmt.Errorf("%w: %s records cannot be proxied", ErrInvalidRecord, in.Type)
		}
	}

	switch in.Type {
	case model.DNSRecordTypeA:
		if ip := net.ParseIP(in.Content); ip == nil || ip.To4() == nil {
			return fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidRecord, in.Content)
		}
	case model.DNSRecordTypeAAAA:
		if ip := net.ParseIP(in.Content); ip == nil || ip.To4() != nil {
			return fmt.Errorf("%w: %q is not an IPv6 address", ErrInvalidRecord, in.Content)
		}
	}
	return nil
}

// ListRecords returns the local mirror of a domain's records
func (s *Service) ListRecords(ctx context.Context, domainID int) ([]model.DNSRecord, error) {
	return s.store.DNSRecords.ListByDomain(ctx, domainID)
}

// AddRecord creates a record at the provider and mirrors it. An identical
// record already at the provider is adopted instead of duplicated.
func (s *Service) AddRecord(ctx context.Context, domainID int, in RecordInput) (*model.DNSRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	domain, err := s.zonedDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}

	name := NormalizeRelativeName(in.Name, domain.DomainName)
	want := toProviderRecord(domain.DomainName, name, in)

	var created *dnstypes.Record
	existing, err := s.provider.FindRecord(ctx, domain.ZoneID, want.Type, want.Name)
	if err != nil && !apierr.IsNotFound(err) {
		return nil, err
	}
	for i := range existing {
		if existing[i].Content == want.Content {
			created = &existing[i]
			s.logger.WithFields(logrus.Fields{"domain": domain.DomainName, "record_id": created.ID}).
				Info("record already at provider, adopting")
			break
		}
	}
	if created == nil {
		created, err = s.provider.AddRecord(ctx, domain.ZoneID, want)
		if err != nil {
			return nil, err
		}
	}

	rec := &model.DNSRecord{
		DomainID: domainID,
		Type:     in.Type,
		Name:     name,
		Content:  in.Content,
		TTL:      in.TTL,
		Priority: in.Priority,
		Proxied:  in.Proxied,
		Status:   model.DNSRecordStatusActive,
	}
	id := created.ID
	rec.ProviderRecordID = &id

	if err := s.mirror(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"domain":    domain.DomainName,
		"type":      rec.Type,
		"name":      rec.Name,
		"record_id": id,
	}).Info("record created")
	return rec, nil
}

// UpdateRecord replaces a record at the provider and in the mirror
func (s *Service) UpdateRecord(ctx context.Context, recordID int, in RecordInput) (*model.DNSRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.store.DNSRecords.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.ProviderRecordID == nil || *rec.ProviderRecordID == "" {
		return nil, fmt.Errorf("%w: record %d has no provider id", ErrInvalidRecord, recordID)
	}
	domain, err := s.zonedDomain(ctx, rec.DomainID)
	if err != nil {
		return nil, err
	}

	name := NormalizeRelativeName(in.Name, domain.DomainName)
	if _, err := s.provider.UpdateRecord(ctx, domain.ZoneID, *rec.ProviderRecordID,
		toProviderRecord(domain.DomainName, name, in)); err != nil {
		s.markError(ctx, rec, err)
		return nil, err
	}

	rec.Type = in.Type
	rec.Name = name
	rec.Content = in.Content
	rec.TTL = in.TTL
	rec.Priority = in.Priority
	rec.Proxied = in.Proxied
	rec.Status = model.DNSRecordStatusActive
	rec.LastError = ""
	if err := s.store.DNSRecords.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord deletes a record at the provider, then locally.
// A record the provider no longer has is still removed locally.
func (s *Service) DeleteRecord(ctx context.Context, recordID int) error {
	rec, err := s.store.DNSRecords.Get(ctx, recordID)
	if err != nil {
		return err
	}
	domain, err := s.store.Domains.Get(ctx, rec.DomainID)
	if err != nil {
		return err
	}

	if rec.ProviderRecordID != nil && *rec.ProviderRecordID != "" && domain.ZoneID != "" {
		err := s.provider.DeleteRecord(ctx, domain.ZoneID, *rec.ProviderRecordID)
		switch {
		case err == nil:
		case apierr.IsNotFound(err):
			s.logger.WithField("record_id", *rec.ProviderRecordID).Info("record already gone at provider")
		default:
			s.markError(ctx, rec, err)
			return err
		}
	}

	return s.store.DNSRecords.Delete(ctx, recordID)
}

func (s *Service) zonedDomain(ctx context.Context, domainID int) (*model.RegisteredDomain, error) {
	domain, err := s.store.Domains.Get(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if domain.ZoneID == "" {
		return nil, ErrNoZone
	}
	return domain, nil
}

// mirror stores rec, replacing a row that already carries its provider id
func (s *Service) mirror(ctx context.Context, rec *model.DNSRecord) error {
	existing, err := s.store.DNSRecords.GetByProviderID(ctx, *rec.ProviderRecordID)
	switch {
	case err == nil:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		return s.store.DNSRecords.Save(ctx, rec)
	case errors.Is(err, repository.ErrNotFound):
		return s.store.DNSRecords.Create(ctx, rec)
	default:
		return err
	}
}

func (s *Service) markError(ctx context.Context, rec *model.DNSRecord, cause error) {
	msg := cause.Error()
	if len(msg) > 255 {
		msg = msg[:252] + "..."
	}
	rec.Status = model.DNSRecordStatusError
	rec.LastError = msg
	if err := s.store.DNSRecords.Save(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("record", rec.ID).Warn("failed to record dns error")
	}
}

func toProviderRecord(zone, name string, in RecordInput) dnstypes.Record {
	return dnstypes.Record{
		Type:     string(in.Type),
		Name:     ToFQDN(zone, name),
		Content:  in.Content,
		TTL:      in.TTL,
		Priority: in.Priority,
		Proxied:  in.Proxied,
	}
}
