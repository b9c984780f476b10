package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"orderserver/automation"
	"orderserver/catalog"
	"orderserver/customer"
	"orderserver/interpret"
	"orderserver/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.NewDB(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("store.NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.ReplaceCatalog(ctx, []catalog.Entry{
		{ID: "it-1", Name: "Ice Tube", Unit: "bag", Price: 60, Stock: 10},
		{ID: "ck-1", Name: "Coke Can", Unit: "can", Price: 15, Stock: 48},
		{ID: "ck-2", Name: "Coke Bottle", Unit: "bottle", Price: 25, Stock: 24},
	}); err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}
	if err := db.UpsertCustomer(ctx, "c-1", "Mr. Somchai", "", ""); err != nil {
		t.Fatalf("UpsertCustomer: %v", err)
	}

	catalogCache := catalog.NewCache(db, catalog.DefaultAliases(), time.Minute)
	customerCache := customer.NewCache(db, time.Minute)
	matcher := catalog.NewMatcher(catalog.DefaultMatcherConfig())
	interpreter := interpret.NewInterpreter(catalogCache, customerCache, matcher, nil, interpret.DefaultConfig())
	engine := automation.NewEngine(automation.Balanced, automation.NewStats())

	return New(Config{Port: "0", UploadDir: t.TempDir()}, db, catalogCache, customerCache, interpreter, engine)
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestInterpretEndpointAutoExecutes(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/interpret", interpretRequest{
		Text: "Khun Somchai orders icetube 60 quantity 2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	payload := decodeResponse(t, w)
	if payload["status"] != "success" {
		t.Fatalf("status = %v, want success", payload["status"])
	}
	verdict := payload["verdict"].(map[string]interface{})
	if verdict["auto"] != true {
		t.Fatalf("verdict not auto: %v", verdict)
	}
	if payload["order_id"] == nil || payload["order_id"].(float64) <= 0 {
		t.Fatalf("order_id missing: %v", payload["order_id"])
	}

	// Остатки списаны и видны после перезагрузки кэша
	entries, err := s.db.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	for _, e := range entries {
		if e.ID == "it-1" && e.Stock != 8 {
			t.Errorf("stock = %d, want 8 after auto execution", e.Stock)
		}
	}
}

func TestInterpretEndpointDisambiguation(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/interpret", interpretRequest{Text: "orders Coke 5"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	payload := decodeResponse(t, w)
	if payload["status"] != "disambiguation" {
		t.Fatalf("status = %v, want disambiguation", payload["status"])
	}
	candidates := payload["candidates"].([]interface{})
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	// Вид дизамбигуации виден потребителю API явным полем
	if reason := candidates[0].(map[string]interface{})["reason"]; reason != "ambiguous_match" {
		t.Errorf("reason = %v, want ambiguous_match", reason)
	}
}

func TestInterpretEndpointParseFailure(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/interpret", interpretRequest{Text: "hello how are you"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	payload := decodeResponse(t, w)
	if payload["status"] != "failure" {
		t.Errorf("status = %v, want failure", payload["status"])
	}
}

func TestInterpretEndpointBadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/interpret", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReverseOrderEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/interpret", interpretRequest{
		Text: "Khun Somchai orders icetube 60 quantity 2",
	})
	payload := decodeResponse(t, w)
	orderID := int64(payload["order_id"].(float64))

	w = postJSON(t, s, fmt.Sprintf("/api/orders/%d/reverse", orderID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// Остатки восстановлены
	entries, _ := s.db.GetCatalog(context.Background())
	for _, e := range entries {
		if e.ID == "it-1" && e.Stock != 10 {
			t.Errorf("stock = %d, want 10 after reversal", e.Stock)
		}
	}

	// Повторная отмена и несуществующий заказ
	if w = postJSON(t, s, fmt.Sprintf("/api/orders/%d/reverse", orderID), nil); w.Code != http.StatusConflict {
		t.Errorf("second reversal status = %d, want 409", w.Code)
	}
	if w = postJSON(t, s, "/api/orders/9999/reverse", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing order status = %d, want 404", w.Code)
	}
	if w = postJSON(t, s, "/api/orders/abc/reverse", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestAutomationStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	postJSON(t, s, "/api/interpret", interpretRequest{
		Text: "Khun Somchai orders icetube 60 quantity 2",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/automation/stats", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	payload := decodeResponse(t, w)
	if payload["policy"] != "balanced" {
		t.Errorf("policy = %v, want balanced", payload["policy"])
	}
	stats := payload["stats"].(map[string]interface{})
	if stats["auto"].(float64) != 1 {
		t.Errorf("auto = %v, want 1", stats["auto"])
	}
}

func TestCatalogReloadEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/catalog/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	payload := decodeResponse(t, w)
	if payload["entries"].(float64) != 3 {
		t.Errorf("entries = %v, want 3", payload["entries"])
	}
}

func TestUpdateStockEndpoint(t *testing.T) {
	s := newTestServer(t)

	putJSON := func(path string, body interface{}) *httptest.ResponseRecorder {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w
	}

	w := putJSON("/api/catalog/it-1/stock", map[string]int{"stock": 75})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	payload := decodeResponse(t, w)
	if payload["stock"].(float64) != 75 {
		t.Errorf("stock = %v, want 75", payload["stock"])
	}

	// Кэш каталога перезагружен: интерпретация видит свежий остаток
	entries, err := s.db.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	for _, e := range entries {
		if e.ID == "it-1" && e.Stock != 75 {
			t.Errorf("Stock = %d, want 75", e.Stock)
		}
	}

	if w := putJSON("/api/catalog/missing/stock", map[string]int{"stock": 5}); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown item", w.Code)
	}
	if w := putJSON("/api/catalog/it-1/stock", map[string]int{"stock": -3}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for negative stock", w.Code)
	}
	if w := putJSON("/api/catalog/it-1/stock", map[string]string{"count": "5"}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing stock field", w.Code)
	}
}

func TestCatalogImportEndpoint(t *testing.T) {
	s := newTestServer(t)

	// Готовим файл каталога
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "SKU")
	f.SetCellValue(sheet, "B1", "Name")
	f.SetCellValue(sheet, "C1", "Price")
	f.SetCellValue(sheet, "D1", "Stock")
	f.SetCellValue(sheet, "A2", "rs-1")
	f.SetCellValue(sheet, "B2", "Rice Sack")
	f.SetCellValue(sheet, "C2", 250)
	f.SetCellValue(sheet, "D2", 5)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to build xlsx: %v", err)
	}
	f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "catalog.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(buf.Bytes())
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	payload := decodeResponse(t, w)
	if payload["entries"].(float64) != 1 {
		t.Errorf("entries = %v, want 1", payload["entries"])
	}

	// Каталог замещен импортированным
	entries, _ := s.db.GetCatalog(context.Background())
	if len(entries) != 1 || entries[0].ID != "rs-1" {
		t.Errorf("unexpected catalog after import: %+v", entries)
	}
}

func TestCatalogImportRejectsWrongType(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "catalog.csv")
	part.Write([]byte("name,price\nIce,60"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
