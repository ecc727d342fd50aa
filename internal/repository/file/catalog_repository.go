package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

// CatalogRepository serves endpoint descriptors from a JSON catalog file read
// once at startup. The catalog is immutable for the process lifetime.
type CatalogRepository struct {
	byPair  map[string][]entity.Endpoint
	modules []string
}

type catalogFile struct {
	Endpoints []entity.Endpoint `json:"endpoints"`
}

func NewCatalogRepository(path string) (*CatalogRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoint catalog: %w", err)
	}
	var parsed catalogFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse endpoint catalog: %w", err)
	}

	repo := &CatalogRepository{byPair: make(map[string][]entity.Endpoint)}
	seen := make(map[string]bool)
	for _, ep := range parsed.Endpoints {
		key := pairKey(ep.Module, ep.Action)
		repo.byPair[key] = append(repo.byPair[key], ep)
		if !seen[ep.Module] {
			seen[ep.Module] = true
			repo.modules = append(repo.modules, ep.Module)
		}
	}
	sort.Strings(repo.modules)
	return repo, nil
}

func (r *CatalogRepository) Lookup(_ context.Context, module string, action nlu.Action) ([]entity.Endpoint, error) {
	return r.byPair[pairKey(module, string(action))], nil
}

func (r *CatalogRepository) Modules(_ context.Context) ([]string, error) {
	return r.modules, nil
}

func pairKey(module, action string) string {
	return strings.ToUpper(module) + "/" + strings.ToUpper(action)
}
