// Package api exposes the segmentation pipeline over HTTP: dataset
// generation, per-method clustering runs, profile and segment retrieval,
// and persistence of generated tables to Postgres.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"customer-segmentation/internal/dataset"
	"customer-segmentation/internal/logger"
	"customer-segmentation/internal/storage"
)

type Handler struct {
	Pipeline *Pipeline
	Log      *logger.Logger

	mu      sync.RWMutex
	table   *dataset.Table
	basic   *dataset.Table
	results map[string]*RunResult
	store   storage.Store
}

func NewHandler(p *Pipeline, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Pipeline: p,
		Log:      log,
		results:  make(map[string]*RunResult),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/api/generate", h.GenerateDataset)
	r.Get("/api/dataset/status", h.DatasetStatus)
	r.Get("/api/dataset/preview", h.PreviewDataset)

	r.Post("/api/cluster/{method}", h.RunClustering)
	r.Get("/api/profiles/{method}", h.GetProfile)
	r.Get("/api/segments/{method}", h.GetSegments)

	r.Post("/api/db/connect", h.ConnectDB)
	r.Post("/api/db/save", h.SaveToDB)
	r.Get("/api/db/tables", h.ListTables)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// GenerateDataset synthesizes a fresh customer table and keeps it in memory
// for subsequent clustering calls.
func (h *Handler) GenerateDataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NCustomers  int    `json:"n_customers"`
		DatasetType string `json:"dataset_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.NCustomers <= 0 {
		http.Error(w, "n_customers must be positive", http.StatusBadRequest)
		return
	}

	kind := dataset.Enriched
	wantBoth := false
	switch req.DatasetType {
	case "", "enriched":
	case "both":
		wantBoth = true
	case "basic":
		kind = dataset.Basic
	default:
		http.Error(w, "dataset_type must be basic, enriched or both", http.StatusBadRequest)
		return
	}

	var table, basic *dataset.Table
	var err error
	if wantBoth {
		table, basic, err = h.Pipeline.GenerateDual(req.NCustomers, nil)
	} else {
		table, basic, err = h.Pipeline.Generate(req.NCustomers, kind, nil)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate dataset: %v", err), http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.table = table
	h.basic = basic
	h.results = make(map[string]*RunResult)
	h.mu.Unlock()

	resp := map[string]interface{}{
		"rows":         table.Len(),
		"columns":      len(table.Columns()),
		"dataset_type": table.Kind.String(),
		"column_names": table.Columns(),
	}
	if basic != nil {
		resp["basic"] = map[string]interface{}{
			"rows":    basic.Len(),
			"columns": len(basic.Columns()),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) DatasetStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := map[string]interface{}{
		"loaded": h.table != nil,
	}
	if h.table != nil {
		status["rows"] = h.table.Len()
		status["columns"] = len(h.table.Columns())
		status["dataset_type"] = h.table.Kind.String()
	}
	status["has_basic"] = h.basic != nil
	methods := []string{}
	for m := range h.results {
		methods = append(methods, m)
	}
	status["clustered_methods"] = methods

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// PreviewDataset returns the first rows of the in-memory table. With
// ?dataset=basic it previews the basic projection from a "both" generation.
func (h *Handler) PreviewDataset(w http.ResponseWriter, r *http.Request) {
	rows := getIntParam(r, "rows", 10)

	h.mu.RLock()
	table := h.table
	if r.URL.Query().Get("dataset") == "basic" {
		table = h.basic
	}
	h.mu.RUnlock()
	if table == nil {
		http.Error(w, "No dataset generated", http.StatusBadRequest)
		return
	}

	if rows > table.Len() {
		rows = table.Len()
	}
	cols := table.Columns()
	data := make([]map[string]interface{}, rows)
	for i := 0; i < rows; i++ {
		row := make(map[string]interface{}, len(cols))
		for _, col := range cols {
			row[col] = table.Cell(i, col)
		}
		data[i] = row
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// RunClustering fits one method (or all three) against the in-memory table
// and caches the result.
func (h *Handler) RunClustering(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	h.mu.RLock()
	table := h.table
	h.mu.RUnlock()
	if table == nil {
		http.Error(w, "No dataset generated", http.StatusBadRequest)
		return
	}

	if method == "all" {
		results, err := h.Pipeline.RunAll(table)
		if err != nil {
			http.Error(w, fmt.Sprintf("Clustering failed: %v", err), http.StatusInternalServerError)
			return
		}
		h.mu.Lock()
		for m, res := range results {
			h.results[m] = res
		}
		h.mu.Unlock()

		summary := make(map[string]map[string]float64, len(results))
		for m, res := range results {
			summary[m] = res.Metrics
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
		return
	}

	res, err := h.Pipeline.Run(method, table)
	if err != nil {
		http.Error(w, fmt.Sprintf("Clustering failed: %v", err), http.StatusInternalServerError)
		return
	}
	h.mu.Lock()
	h.results[method] = res
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"method":           res.Method,
		"run_id":           res.Document.Metadata.RunID,
		"metrics":          res.Metrics,
		"features_used":    res.FeaturesUsed,
		"features_dropped": res.FeaturesDropped,
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	res := h.result(chi.URLParam(r, "method"))
	if res == nil {
		http.Error(w, "Method not run yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res.Document)
}

func (h *Handler) GetSegments(w http.ResponseWriter, r *http.Request) {
	res := h.result(chi.URLParam(r, "method"))
	if res == nil {
		http.Error(w, "Method not run yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res.Segments)
}

func (h *Handler) result(method string) *RunResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.results[method]
}

// ConnectDB establishes the Postgres connection tables are saved through.
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var config storage.Config
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	st := &storage.PostgresStore{}
	if err := st.Connect(config); err != nil {
		http.Error(w, fmt.Sprintf("Failed to connect: %v", err), http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	if h.store != nil {
		h.store.Close()
	}
	h.store = st
	h.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"status": "connected"})
}

func (h *Handler) SaveToDB(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"table_name"`
		Dataset   string `json:"dataset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.TableName == "" {
		req.TableName = "customers"
	}

	h.mu.RLock()
	table := h.table
	if req.Dataset == "basic" {
		table = h.basic
	}
	store := h.store
	h.mu.RUnlock()
	if table == nil {
		http.Error(w, "No dataset generated", http.StatusBadRequest)
		return
	}
	if store == nil {
		http.Error(w, "No database connection", http.StatusBadRequest)
		return
	}

	if err := store.SaveTable(req.TableName, table); err != nil {
		http.Error(w, fmt.Sprintf("Failed to save table: %v", err), http.StatusInternalServerError)
		return
	}
	h.Log.Info("saved dataset", "table", req.TableName, "rows", table.Len())

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "saved",
		"table":  req.TableName,
		"rows":   table.Len(),
	})
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	store := h.store
	h.mu.RUnlock()
	if store == nil {
		http.Error(w, "No database connection", http.StatusBadRequest)
		return
	}

	tables, err := store.ListTables()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error listing tables: %v", err), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"tables": tables})
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
