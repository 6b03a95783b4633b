package repository

import (
	"context"

	"gorm.io/gorm"

	"go_domainbot/internal/model"
)

// DNSRecordRepo persists the local mirror of provider DNS records
type DNSRecordRepo struct {
	db *gorm.DB
}

// Create inserts a mirrored record
func (r *DNSRecordRepo) Create(ctx context.Context, rec *model.DNSRecord) error {
	return translate(r.db.WithContext(ctx).Create(rec).Error)
}

// Get returns a record by local id
func (r *DNSRecordRepo) Get(ctx context.Context, id int) (*model.DNSRecord, error) {
	var rec model.DNSRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// GetByProviderID returns a record by its provider-assigned id
func (r *DNSRecordRepo) GetByProviderID(ctx context.Context, providerRecordID string) (*model.DNSRecord, error) {
	var rec model.DNSRecord
	if err := r.db.WithContext(ctx).Where("provider_record_id = ?", providerRecordID).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// ListByDomain returns a domain's records ordered by type and name
func (r *DNSRecordRepo) ListByDomain(ctx context.Context, domainID int) ([]model.DNSRecord, error) {
	var out []model.DNSRecord
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("type, name, id").
		Find(&out).Error
	return out, err
}

// Save writes every field of an existing record
func (r *DNSRecordRepo) Save(ctx context.Context, rec *model.DNSRecord) error {
	return translate(r.db.WithContext(ctx).Save(rec).Error)
}

// Delete hard deletes a record
func (r *DNSRecordRepo) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.DNSRecord{}, id).Error
}

// DeleteMissing removes a domain's mirrored records whose provider id is not in keep
func (r *DNSRecordRepo) DeleteMissing(ctx context.Context, domainID int, keep []string) (int64, error) {
	q := r.db.WithContext(ctx).Where("domain_id = ?", domainID)
	if len(keep) > 0 {
		q = q.Where("provider_record_id IS NULL OR provider_record_id NOT IN ?", keep)
	}
	result := q.Delete(&model.DNSRecord{})
	return result.RowsAffected, result.Error
}
