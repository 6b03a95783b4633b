package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"go_domainbot/internal/model"
)

// DomainRepo persists registered domains
type DomainRepo struct {
	db *gorm.DB
}

// Create inserts a registered domain
func (r *DomainRepo) Create(ctx context.Context, d *model.RegisteredDomain) error {
	d.DomainName = strings.ToLower(d.DomainName)
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

// Get returns a domain by id
func (r *DomainRepo) Get(ctx context.Context, id int) (*model.RegisteredDomain, error) {
	var d model.RegisteredDomain
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// GetByName returns a domain by its full name
func (r *DomainRepo) GetByName(ctx context.Context, name string) (*model.RegisteredDomain, error) {
	var d model.RegisteredDomain
	if err := r.db.WithContext(ctx).Where("domain_name = ?", strings.ToLower(name)).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// Exists reports whether the domain is already recorded locally
func (r *DomainRepo) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RegisteredDomain{}).
		Where("domain_name = ?", strings.ToLower(name)).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns a user's domains, newest first
func (r *DomainRepo) ListByUser(ctx context.Context, telegramID int64) ([]model.RegisteredDomain, error) {
	var out []model.RegisteredDomain
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListWithZone returns active domains hosted in a DNS zone
func (r *DomainRepo) ListWithZone(ctx context.Context) ([]model.RegisteredDomain, error) {
	var out []model.RegisteredDomain
	err := r.db.WithContext(ctx).
		Where("status = ? AND zone_id <> ''", model.DomainStatusActive).
		Order("id").
		Find(&out).Error
	return out, err
}

// ListMissingZone returns domains whose zone step never completed
func (r *DomainRepo) ListMissingZone(ctx context.Context) ([]model.RegisteredDomain, error) {
	var out []model.RegisteredDomain
	err := r.db.WithContext(ctx).
		Where("zone_id = '' OR zone_id IS NULL").
		Order("id").
		Find(&out).Error
	return out, err
}

// List returns all domains for the admin API
func (r *DomainRepo) List(ctx context.Context, page, pageSize int, keyword string) ([]model.RegisteredDomain, int64, error) {
	var (
		out   []model.RegisteredDomain
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.RegisteredDomain{})
	if keyword != "" {
		q = q.Where("domain_name LIKE ?", "%"+strings.ToLower(keyword)+"%")
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit, offset := paginate(page, pageSize)
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetZone records the DNS zone and its nameservers
func (r *DomainRepo) SetZone(ctx context.Context, id int, zoneID string, nameservers []string) error {
	return r.updates(ctx, id, map[string]interface{}{
		"zone_id":     zoneID,
		"nameservers": model.JSONStrings(nameservers),
	})
}

// SetNameservers records the nameserver mode and list
func (r *DomainRepo) SetNameservers(ctx context.Context, id int, mode model.NameserverMode, nameservers []string) error {
	return r.updates(ctx, id, map[string]interface{}{
		"nameserver_mode": mode,
		"nameservers":     model.JSONStrings(nameservers),
	})
}

// SetStatus updates the domain status
func (r *DomainRepo) SetStatus(ctx context.Context, id int, status model.DomainStatus) error {
	return r.updates(ctx, id, map[string]interface{}{"status": status})
}

// Delete hard deletes a domain and its mirrored DNS records
func (r *DomainRepo) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("domain_id = ?", id).Delete(&model.DNSRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.RegisteredDomain{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *DomainRepo) updates(ctx context.Context, id int, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.RegisteredDomain{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
