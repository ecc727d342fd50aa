package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/internal/model"
	"github.com/segovia241/ia-erp-universal/internal/repository/contract"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

// CatalogRepositoryImpl serves endpoint descriptors from Postgres. Used when
// the catalog is administered centrally instead of shipped as a JSON file.
type CatalogRepositoryImpl struct {
	db    *gorm.DB
	erpId string
}

func NewCatalogRepository(db *gorm.DB, erpId string) contract.ICatalogRepository {
	return &CatalogRepositoryImpl{db: db, erpId: erpId}
}

func (r *CatalogRepositoryImpl) Lookup(ctx context.Context, module string, action nlu.Action) ([]entity.Endpoint, error) {
	var rows []model.ApiEndpoint
	err := r.db.WithContext(ctx).
		Where("erp_id = ? AND module = ? AND action = ? AND is_active = true", r.erpId, module, string(action)).
		Order("route").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query endpoint catalog: %w", err)
	}

	endpoints := make([]entity.Endpoint, 0, len(rows))
	for _, row := range rows {
		ep, err := toEntity(row)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

func (r *CatalogRepositoryImpl) Modules(ctx context.Context) ([]string, error) {
	var modules []string
	err := r.db.WithContext(ctx).
		Model(&model.ApiEndpoint{}).
		Where("erp_id = ? AND is_active = true", r.erpId).
		Distinct("module").
		Order("module").
		Pluck("module", &modules).Error
	if err != nil {
		return nil, fmt.Errorf("query catalog modules: %w", err)
	}
	return modules, nil
}

func toEntity(row model.ApiEndpoint) (entity.Endpoint, error) {
	var parameters []entity.Parameter
	if row.Parameters != "" {
		if err := json.Unmarshal([]byte(row.Parameters), &parameters); err != nil {
			return entity.Endpoint{}, fmt.Errorf("decode parameters for endpoint %s: %w", row.Id, err)
		}
	}
	return entity.Endpoint{
		ID:          row.Id.String(),
		Module:      row.Module,
		Action:      row.Action,
		Route:       row.Route,
		HTTPMethod:  row.HttpMethod,
		Name:        row.Name,
		Description: row.Description,
		Parameters:  parameters,
	}, nil
}
