package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amavi/catalogo/internal/catalog"
	"github.com/amavi/catalogo/internal/db"
	"github.com/amavi/catalogo/internal/media"
	"github.com/amavi/catalogo/internal/model"
	"github.com/amavi/catalogo/internal/store"
)

func setupTestServer(t *testing.T) (*httptest.Server, *store.SQLStore) {
	t.Helper()
	items := store.NewSQLStore(db.NewTestDB(t))
	svc := catalog.NewService(items, media.NewDiskStore(t.TempDir(), "/media"), media.DefaultFolder)

	server := httptest.NewServer(NewRouter(svc))
	t.Cleanup(server.Close)
	return server, items
}

func seed(t *testing.T, items *store.SQLStore, name, itemType string) *model.Item {
	t.Helper()
	item, err := items.Create(context.Background(), model.Item{
		Name:     name,
		Price:    100,
		Type:     itemType,
		ImageRef: "/media/catalogo-amavi/" + name + ".jpg",
	})
	if err != nil {
		t.Fatalf("seeding %s: %v", name, err)
	}
	return item
}

func getJSON(t *testing.T, url string, target any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestListItems(t *testing.T) {
	server, items := setupTestServer(t)
	seed(t, items, "Anel", "Anel")
	seed(t, items, "Colar", "Colar")

	var all []model.Item
	if code := getJSON(t, server.URL+"/pecas", &all); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 items, got %d", len(all))
	}

	var rings []model.Item
	getJSON(t, server.URL+"/pecas?tipo=Anel", &rings)
	if len(rings) != 1 || rings[0].Name != "Anel" {
		t.Errorf("expected only the ring, got %+v", rings)
	}
}

func TestListItemsEmpty(t *testing.T) {
	server, _ := setupTestServer(t)

	var raw json.RawMessage
	getJSON(t, server.URL+"/pecas", &raw)
	if string(raw) != "[]" {
		t.Errorf("expected empty array, got %s", raw)
	}
}

func TestGetItem(t *testing.T) {
	server, items := setupTestServer(t)
	created := seed(t, items, "Anel", "Anel")

	var got map[string]any
	if code := getJSON(t, server.URL+"/pecas/1", &got); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got["nome"] != created.Name || got["disponibilidade"] != model.AvailabilityAvailable {
		t.Errorf("unexpected item: %v", got)
	}

	if code := getJSON(t, server.URL+"/pecas/99", nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if code := getJSON(t, server.URL+"/pecas/abc", nil); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestTypes(t *testing.T) {
	server, items := setupTestServer(t)
	seed(t, items, "Colar", "Colar")
	seed(t, items, "Anel", "Anel")
	seed(t, items, "Anel 2", "Anel")

	var types []string
	getJSON(t, server.URL+"/tipos", &types)
	if len(types) != 2 || types[0] != "Anel" || types[1] != "Colar" {
		t.Errorf("expected [Anel Colar], got %v", types)
	}
}
