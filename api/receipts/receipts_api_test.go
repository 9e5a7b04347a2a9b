package receipts

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	stockEntity "mes.GO/model/entity/stock"
)

const (
	testUser = "operator"
	testPass = "secret"
)

func receiptTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("receipts_api_test_%s_%d.db", t.Name(), time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	if err := db.AutoMigrate(&stockEntity.Material{}, &stockEntity.MaterialBatch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&stockEntity.Material{Code: "STEEL", Name: "Steel coil", Unit: "kg", Active: true}).Error; err != nil {
		t.Fatalf("seed material: %v", err)
	}
	return db
}

func receiptTestServer(t *testing.T, db *gorm.DB) *echo.Echo {
	t.Helper()
	e := echo.New()
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.BasicAuth(func(user, pass string, c echo.Context) (bool, error) {
		return user == testUser && pass == testPass, nil
	}))
	RegisterReceiptRoutes(apiGroup, db)
	return e
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func doRequest(e *echo.Echo, method, path string, body interface{}, auth string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestImportRequiresAuth(t *testing.T) {
	e := receiptTestServer(t, receiptTestDB(t))
	body := map[string]interface{}{"items": []map[string]interface{}{{"material_code": "STEEL", "batch_no": "S-1", "qty": 10}}}

	rec := doRequest(e, http.MethodPost, "/api/receipts/import", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d, want 401", rec.Code)
	}
	rec = doRequest(e, http.MethodPost, "/api/receipts/import", body, basicAuth("operator", "wrong"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}
}

func TestImportEndpoint(t *testing.T) {
	db := receiptTestDB(t)
	e := receiptTestServer(t, db)
	body := map[string]interface{}{"items": []map[string]interface{}{
		{"material_code": "STEEL", "batch_no": "S-1", "qty": 100, "location": "W-1"},
		{"material_code": "STEEL", "batch_no": "S-2", "qty": 40},
		{"material_code": "BRASS", "batch_no": "B-1", "qty": 5},
	}}

	rec := doRequest(e, http.MethodPost, "/api/receipts/import", body, basicAuth(testUser, testPass))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Duration-ms") == "" {
		t.Error("missing X-Request-Duration-ms header")
	}
	var resp struct {
		Imported int      `json:"imported"`
		Skipped  int      `json:"skipped"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Imported != 2 || resp.Skipped != 1 {
		t.Errorf("resp = %+v, want imported 2 skipped 1", resp)
	}

	var count int64
	db.Model(&stockEntity.MaterialBatch{}).Count(&count)
	if count != 2 {
		t.Errorf("batches in db = %d, want 2", count)
	}
}

func TestImportRejectsEmptyItems(t *testing.T) {
	e := receiptTestServer(t, receiptTestDB(t))
	rec := doRequest(e, http.MethodPost, "/api/receipts/import", map[string]interface{}{"items": []interface{}{}}, basicAuth(testUser, testPass))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSingleReceiptAndAvailability(t *testing.T) {
	db := receiptTestDB(t)
	e := receiptTestServer(t, db)

	rec := doRequest(e, http.MethodPost, "/api/receipts", map[string]interface{}{
		"material_code": "STEEL", "batch_no": "S-10", "qty": 75.5,
	}, basicAuth(testUser, testPass))
	if rec.Code != http.StatusCreated {
		t.Fatalf("receive: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(e, http.MethodGet, "/api/receipts/availability?material_code=STEEL", nil, basicAuth(testUser, testPass))
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: status = %d", rec.Code)
	}
	var avail struct {
		MaterialCode string  `json:"material_code"`
		Available    float64 `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &avail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if avail.MaterialCode != "STEEL" || avail.Available != 75.5 {
		t.Errorf("availability = %+v", avail)
	}
}

func TestBatchesRequiresMaterialCode(t *testing.T) {
	e := receiptTestServer(t, receiptTestDB(t))
	rec := doRequest(e, http.MethodGet, "/api/receipts/batches", nil, basicAuth(testUser, testPass))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec = doRequest(e, http.MethodGet, "/api/receipts/batches?material_code=NOPE", nil, basicAuth(testUser, testPass))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown material: status = %d, want 404", rec.Code)
	}
}
