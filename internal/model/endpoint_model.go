package model

import (
	"time"

	"github.com/google/uuid"
)

// ApiEndpoint stores one catalog endpoint definition. The parameter shape is
// kept as JSON: the catalog is read-only for the resolver, so there is no
// relational payload to maintain.
type ApiEndpoint struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ErpId       string    `gorm:"type:varchar(100);not null;index"`
	Module      string    `gorm:"type:varchar(100);not null;index:idx_endpoint_pair"`
	Action      string    `gorm:"type:varchar(20);not null;index:idx_endpoint_pair"`
	Route       string    `gorm:"type:varchar(500);not null"`
	HttpMethod  string    `gorm:"type:varchar(10);not null"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	Parameters  string    `gorm:"type:jsonb;not null;default:'[]'"`
	IsActive    bool      `gorm:"default:true;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (ApiEndpoint) TableName() string {
	return "api_endpoints"
}
