package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestObserve(t *testing.T) {
	ObserveImport("ok", 3)
	ObserveImport("EmptyInput", 0)
	ObservePass(PassRelax, 2, true)
	ObservePass(PassSpouse, 100, false)

	body := scrape(t)
	for _, want := range []string{
		`lineage_imports_total{result="ok"}`,
		`lineage_imports_total{result="EmptyInput"}`,
		`lineage_import_people_count`,
		`lineage_level_rounds_bucket{pass="relax"`,
		`lineage_round_bound_hits_total{pass="spouse"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %s", want)
		}
	}
	if strings.Contains(body, `lineage_round_bound_hits_total{pass="relax"}`) {
		t.Error("converged pass counted as a bound hit")
	}
}
