package migration_0

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ColumnType struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type Dataset struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccessKeyHash string    `gorm:"size:64;not null"`
	ObjectKey     string    `gorm:"not null"`

	NumRows    int
	NumColumns int
	Dtypes     datatypes.JSONSlice[ColumnType]

	CreationTime time.Time
	UpdateTime   time.Time
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Dataset{}); err != nil {
		return fmt.Errorf("error creating datasets table: %w", err)
	}
	return nil
}
