package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

const testCatalog = `{
  "endpoints": [
    {
      "id": "clinico-pacientes-listar",
      "module": "CLINICO",
      "action": "READ",
      "route": "/api/clinico/pacientes",
      "http_method": "GET",
      "name": "Listar pacientes",
      "description": "Obtiene el listado de pacientes",
      "parameters": [
        {"name": "filtro", "type": "string", "required": false, "description": "un filtro opcional"}
      ]
    },
    {
      "id": "clinico-pacientes-buscar",
      "module": "CLINICO",
      "action": "READ",
      "route": "/api/clinico/pacientes/buscar",
      "http_method": "GET",
      "name": "Buscar paciente",
      "description": "Busca pacientes por nombre"
    },
    {
      "id": "ventas-clientes-crear",
      "module": "VENTAS",
      "action": "CREATE",
      "route": "/api/ventas/clientes",
      "http_method": "POST",
      "name": "Crear cliente",
      "description": "Crea un nuevo cliente"
    }
  ]
}`

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestNewCatalogRepository(t *testing.T) {
	repo, err := NewCatalogRepository(writeCatalog(t, testCatalog))
	if err != nil {
		t.Fatalf("NewCatalogRepository() error = %v", err)
	}

	eps, err := repo.Lookup(context.Background(), "CLINICO", nlu.ActionRead)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("Lookup(CLINICO, READ) = %d endpoints, want 2", len(eps))
	}
	if eps[0].ID != "clinico-pacientes-listar" || eps[1].ID != "clinico-pacientes-buscar" {
		t.Errorf("Lookup order = %s, %s; want catalog file order", eps[0].ID, eps[1].ID)
	}
	if len(eps[0].Parameters) != 1 || eps[0].Parameters[0].Name != "filtro" {
		t.Errorf("Parameters = %v, want filtro", eps[0].Parameters)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	repo, err := NewCatalogRepository(writeCatalog(t, testCatalog))
	if err != nil {
		t.Fatalf("NewCatalogRepository() error = %v", err)
	}

	eps, err := repo.Lookup(context.Background(), "clinico", nlu.ActionRead)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(eps) != 2 {
		t.Errorf("Lookup(clinico, READ) = %d endpoints, want 2", len(eps))
	}
}

func TestLookupUnknownPairIsEmpty(t *testing.T) {
	repo, err := NewCatalogRepository(writeCatalog(t, testCatalog))
	if err != nil {
		t.Fatalf("NewCatalogRepository() error = %v", err)
	}

	eps, err := repo.Lookup(context.Background(), "CLINICO", nlu.ActionDelete)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(eps) != 0 {
		t.Errorf("Lookup of unknown pair = %v, want empty", eps)
	}
}

func TestModulesSorted(t *testing.T) {
	repo, err := NewCatalogRepository(writeCatalog(t, testCatalog))
	if err != nil {
		t.Fatalf("NewCatalogRepository() error = %v", err)
	}

	modules, err := repo.Modules(context.Background())
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if !reflect.DeepEqual(modules, []string{"CLINICO", "VENTAS"}) {
		t.Errorf("Modules() = %v, want [CLINICO VENTAS]", modules)
	}
}

func TestNewCatalogRepositoryErrors(t *testing.T) {
	if _, err := NewCatalogRepository(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should error")
	}
	if _, err := NewCatalogRepository(writeCatalog(t, "{broken")); err == nil {
		t.Error("malformed JSON should error")
	}
}
