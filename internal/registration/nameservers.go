package registration

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/model"
)

// Domains lists the user's registered domains
func (s *Service) Domains(ctx context.Context, telegramID int64) ([]model.RegisteredDomain, error) {
	return s.Store.Domains.ListByUser(ctx, telegramID)
}

// OwnedDomain returns the domain by name if it belongs to telegramID
func (s *Service) OwnedDomain(ctx context.Context, telegramID int64, name string) (*model.RegisteredDomain, error) {
	full, _, _, err := s.ParseDomain(name)
	if err != nil {
		return nil, err
	}
	d, err := s.Store.Domains.GetByName(ctx, full)
	if err != nil {
		return nil, err
	}
	if d.TelegramID != telegramID {
		return nil, ErrNotOwner
	}
	return d, nil
}

// SetCustomNameservers points the domain at nameservers the user runs.
// The list is validated before the registrar is called.
func (s *Service) SetCustomNameservers(ctx context.Context, telegramID int64, domain string, nameservers []string) (*model.RegisteredDomain, error) {
	ns, err := customNameservers(nameservers)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		return nil, ErrInvalidNameservers
	}
	d, err := s.OwnedDomain(ctx, telegramID, domain)
	if err != nil {
		return nil, err
	}
	return s.applyNameservers(ctx, d, model.NameserverModeCustom, ns)
}

// UseManagedNameservers points the domain back at its DNS zone, creating
// the zone when it is missing.
func (s *Service) UseManagedNameservers(ctx context.Context, telegramID int64, domain string) (*model.RegisteredDomain, error) {
	d, err := s.OwnedDomain(ctx, telegramID, domain)
	if err != nil {
		return nil, err
	}
	zone, err := s.Zones.CreateZone(ctx, d.DomainName)
	if err != nil {
		return nil, fmt.Errorf("create zone: %w", err)
	}
	if len(zone.NameServers) < model.MinNameservers {
		return nil, fmt.Errorf("%w: zone %s returned %d", ErrInvalidNameservers, zone.ID, len(zone.NameServers))
	}
	if d.ZoneID != zone.ID {
		if err := s.Store.Domains.SetZone(ctx, d.ID, zone.ID, d.NameserverList()); err != nil {
			return nil, err
		}
		d.ZoneID = zone.ID
	}
	return s.applyNameservers(ctx, d, model.NameserverModeManaged, zone.NameServers)
}

func (s *Service) applyNameservers(ctx context.Context, d *model.RegisteredDomain, mode model.NameserverMode, ns []string) (*model.RegisteredDomain, error) {
	if err := s.Registrar.UpdateNameservers(ctx, d.RegistrarDomainID, ns); err != nil {
		return nil, fmt.Errorf("registrar nameserver update: %w", err)
	}
	if err := s.Store.Domains.SetNameservers(ctx, d.ID, mode, ns); err != nil {
		return nil, err
	}
	d.NameserverMode = mode
	d.Nameservers = model.JSONStrings(ns)
	s.logger.WithFields(logrus.Fields{
		"domain": d.DomainName,
		"mode":   mode,
		"ns":     ns,
	}).Info("nameservers updated")
	return d, nil
}

// ReconcileResult counts the outcome of a reconcile pass
type ReconcileResult struct {
	Checked  int      `json:"checked"`
	Fixed    int      `json:"fixed"`
	Failures []string `json:"failures,omitempty"`
}

// Reconcile retries the DNS step for active domains that have no zone
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	domains, err := s.Store.Domains.ListMissingZone(ctx)
	if err != nil {
		return nil, err
	}
	out := &ReconcileResult{}
	for i := range domains {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		d := &domains[i]
		out.Checked++
		if err := s.attachZone(ctx, d, d.NameserverMode == model.NameserverModeManaged); err != nil {
			out.Failures = append(out.Failures, fmt.Sprintf("%s: %v", d.DomainName, err))
			s.logger.WithError(err).WithField("domain", d.DomainName).Warn("reconcile failed")
			continue
		}
		out.Fixed++
	}
	if out.Fixed > 0 {
		s.logger.WithField("fixed", out.Fixed).Info("reconcile completed")
	}
	return out, nil
}

// ResolveNotification marks an admin notification handled
func (s *Service) ResolveNotification(ctx context.Context, id int) error {
	return s.Store.Notifications.Resolve(ctx, id)
}

// Notifications lists unresolved admin notifications
func (s *Service) Notifications(ctx context.Context) ([]model.AdminNotification, error) {
	return s.Store.Notifications.ListUnresolved(ctx)
}

