package migration_1

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// The cleanup sweep selects datasets by update time.
type Dataset struct {
	UpdateTime time.Time `gorm:"index"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateIndex(&Dataset{}, "UpdateTime"); err != nil {
		return fmt.Errorf("error creating update_time index: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Dataset{}, "UpdateTime"); err != nil {
		return fmt.Errorf("error dropping update_time index: %w", err)
	}
	return nil
}
