package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDatasetNotFound = errors.New("dataset not found")

func GetDataset(ctx context.Context, txn *gorm.DB, id uuid.UUID) (*Dataset, error) {
	var record Dataset
	if err := txn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("error loading dataset %s: %w", id, err)
	}
	return &record, nil
}

// SaveDataset inserts record or replaces every column of an existing record
// except its creation time.
func SaveDataset(ctx context.Context, txn *gorm.DB, record *Dataset) error {
	err := txn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_key_hash", "object_key", "num_rows", "num_columns", "dtypes", "update_time"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("error saving dataset %s: %w", record.Id, err)
	}
	return nil
}

func ListExpiredDatasets(ctx context.Context, txn *gorm.DB, before time.Time) ([]Dataset, error) {
	var records []Dataset
	if err := txn.WithContext(ctx).Where("update_time < ?", before).Order("update_time").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("error listing expired datasets: %w", err)
	}
	return records, nil
}

func DeleteDataset(ctx context.Context, txn *gorm.DB, id uuid.UUID) error {
	if err := txn.WithContext(ctx).Delete(&Dataset{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("error deleting dataset %s: %w", id, err)
	}
	return nil
}

// DatasetObjectExists reports whether a record with the given object key exists.
func DatasetObjectExists(ctx context.Context, txn *gorm.DB, objectKey string) (bool, error) {
	var count int64
	if err := txn.WithContext(ctx).Model(&Dataset{}).Where("object_key = ?", objectKey).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking object %s: %w", objectKey, err)
	}
	return count > 0, nil
}
