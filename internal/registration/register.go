package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/domainutil"
	"go_domainbot/internal/model"
	"go_domainbot/internal/registrar/openprovider"
	"go_domainbot/internal/repository"
	"go_domainbot/internal/wallet"
)

// Request asks for one domain registration
type Request struct {
	TelegramID int64
	Domain     string
	// Nameservers requests custom nameservers; empty means managed DNS
	Nameservers []string
	// UserData holds registrant fields for TLDs with requirements. When nil
	// the requirement examples are used.
	UserData map[string]string
	Email    string
}

// Result describes what a registration attempt achieved
type Result struct {
	Outcome  Outcome
	Quote    *Quote
	Domain   *model.RegisteredDomain
	Payment  *model.WalletTransaction
	Warnings []string
}

// Register registers a domain paid from the wallet balance.
//
// A duplicate at the registrar returns OutcomeDuplicate together with a
// Conflict error and charges nothing. Failures after the registrar accepted
// the domain return OutcomePartial and leave an admin notification.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	return s.register(ctx, req, true)
}

func (s *Service) register(ctx context.Context, req Request, charge bool) (*Result, error) {
	log := s.logger.WithFields(logrus.Fields{"telegram_id": req.TelegramID, "domain": req.Domain})

	q, err := s.Prepare(ctx, req.Domain)
	if err != nil {
		return nil, err
	}
	res := &Result{Quote: q}

	custom, err := customNameservers(req.Nameservers)
	if err != nil {
		return nil, err
	}
	if req.UserData != nil {
		if v := s.TLDs.Validate(q.TLD, req.UserData); !v.OK() {
			return nil, fmt.Errorf("%w: %s", ErrRequirements, strings.Join(v.Errors, "; "))
		}
	}

	if charge {
		user, err := s.Store.Users.Get(ctx, req.TelegramID)
		if err != nil {
			return nil, err
		}
		if user.BalanceUSD.LessThan(q.Total) {
			return nil, fmt.Errorf("%w: need $%s, have $%s", wallet.ErrInsufficientBalance,
				q.Total.StringFixed(2), user.BalanceUSD.StringFixed(2))
		}
	}

	contact, err := s.contactHandle(ctx, req)
	if err != nil {
		s.Metrics.IncRegistration("failed")
		return nil, fmt.Errorf("customer handle: %w", err)
	}

	additional := s.TLDs.AdditionalData(q.TLD, req.UserData)
	for k, v := range openprovider.ExtraFieldsForTLD(q.TLD, contact.Email) {
		additional[k] = v
	}

	reg, err := s.Registrar.RegisterDomain(ctx, openprovider.RegisterRequest{
		Name:           q.Name,
		TLD:            q.TLD,
		Nameservers:    custom,
		CustomerHandle: contact.Handle,
		AdditionalData: additional,
	})
	if err != nil {
		if openprovider.IsDuplicate(err) {
			s.Metrics.IncRegistration(string(OutcomeDuplicate))
			log.WithError(err).Warn("registrar reports duplicate domain")
			res.Outcome = OutcomeDuplicate
			return res, err
		}
		s.Metrics.IncRegistration("failed")
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	log = log.WithField("registrar_domain_id", reg.DomainID)
	log.Info("domain registered at registrar")

	expires := time.Now().AddDate(1, 0, 0)
	domain := &model.RegisteredDomain{
		TelegramID:        req.TelegramID,
		DomainName:        q.Domain,
		TLD:               q.TLD,
		RegistrarDomainID: reg.DomainID,
		ContactHandle:     contact.Handle,
		NameserverMode:    model.NameserverModeManaged,
		Nameservers:       model.JSONStrings(nil),
		PricePaid:         q.Total,
		TrusteeUsed:       q.Breakdown.RequiresTrustee,
		Status:            model.DomainStatusActive,
		ExpiresAt:         &expires,
	}
	if len(custom) > 0 {
		domain.NameserverMode = model.NameserverModeCustom
		domain.Nameservers = model.JSONStrings(custom)
	}

	err = s.Store.Tx(ctx, func(r *repository.Store) error {
		if charge {
			p, err := wallet.ChargeTx(ctx, r, req.TelegramID, q.Total, "Domain registration: "+q.Domain)
			if err != nil {
				return err
			}
			res.Payment = p
		}
		return r.Domains.Create(ctx, domain)
	})
	if err != nil {
		res.Payment = nil
		res.Outcome = OutcomePartial
		s.Metrics.IncRegistration(string(OutcomePartial))
		msg := fmt.Sprintf("%s registered at registrar (id %d) for user %d but not recorded: %v",
			q.Domain, reg.DomainID, req.TelegramID, err)
		log.WithError(err).Error("failed to record registered domain")
		s.notify(ctx, model.NotificationReconcile, req.TelegramID, q.Domain, msg)
		return res, fmt.Errorf("record domain: %w", err)
	}
	res.Domain = domain

	if err := s.attachZone(ctx, domain, len(custom) == 0); err != nil {
		res.Outcome = OutcomePartial
		res.Warnings = append(res.Warnings, err.Error())
		s.Metrics.IncRegistration(string(OutcomePartial))
		log.WithError(err).Error("post-registration step failed")
		s.notify(ctx, model.NotificationReconcile, req.TelegramID, q.Domain,
			fmt.Sprintf("%s registered and charged but DNS setup is incomplete: %v", q.Domain, err))
		return res, nil
	}

	res.Outcome = OutcomeRegistered
	s.Metrics.IncRegistration(string(OutcomeRegistered))
	log.WithField("total", q.Total.StringFixed(2)).Info("domain registration completed")
	return res, nil
}

// attachZone creates the DNS zone and, for managed domains, points the
// registrar at the zone nameservers. domain is updated in place.
func (s *Service) attachZone(ctx context.Context, domain *model.RegisteredDomain, managed bool) error {
	zone, err := s.Zones.CreateZone(ctx, domain.DomainName)
	if err != nil {
		return fmt.Errorf("create zone: %w", err)
	}
	ns := domain.NameserverList()
	if managed {
		ns = zone.NameServers
	}
	if err := s.Store.Domains.SetZone(ctx, domain.ID, zone.ID, ns); err != nil {
		return fmt.Errorf("store zone %s: %w", zone.ID, err)
	}
	domain.ZoneID = zone.ID
	domain.Nameservers = model.JSONStrings(ns)

	if !managed {
		return nil
	}
	if len(zone.NameServers) < model.MinNameservers {
		return fmt.Errorf("zone %s returned %d nameservers", zone.ID, len(zone.NameServers))
	}
	if err := s.Registrar.UpdateNameservers(ctx, domain.RegistrarDomainID, zone.NameServers); err != nil {
		return fmt.Errorf("point nameservers at zone: %w", err)
	}
	return nil
}

// contactHandle returns the user's registrar contact, creating it on first use
func (s *Service) contactHandle(ctx context.Context, req Request) (*model.RegistrarContact, error) {
	c, err := s.Store.Contacts.GetByUser(ctx, req.TelegramID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	email := req.Email
	if email == "" {
		if u, err := s.Store.Users.Get(ctx, req.TelegramID); err == nil {
			email = u.TechnicalEmail
		}
	}
	if email == "" {
		email = s.FallbackEmail
	}
	handle, err := s.Registrar.CreateCustomerHandle(ctx, email)
	if err != nil {
		return nil, err
	}
	c = &model.RegistrarContact{TelegramID: req.TelegramID, Handle: handle, Email: email}
	if err := s.Store.Contacts.Save(ctx, c); err != nil {
		s.logger.WithError(err).WithField("telegram_id", req.TelegramID).Warn("failed to save registrar contact")
	}
	return c, nil
}

func customNameservers(hosts []string) ([]string, error) {
	if len(hosts) == 0 {
		return nil, nil
	}
	ns, err := domainutil.NormalizeNameservers(hosts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNameservers, err)
	}
	if len(ns) < model.MinNameservers {
		return nil, ErrInvalidNameservers
	}
	return ns, nil
}
