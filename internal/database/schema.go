package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Dataset is the metadata record of a stored dataset. The dataset itself lives
// in object storage under ObjectKey.
type Dataset struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccessKeyHash string    `gorm:"size:64;not null"`
	ObjectKey     string    `gorm:"not null"`

	NumRows    int
	NumColumns int
	Dtypes     datatypes.JSONSlice[ColumnType]

	CreationTime time.Time
	UpdateTime   time.Time `gorm:"index"`
}

type ColumnType struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}
