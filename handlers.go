/**
* Copyright 2024 The Leadscout Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// LeadScoutHandler contains the services the Handlers need to operate
type LeadScoutHandler struct {
	Logger      log.Logger
	Config      *Config
	Metrics     *ApplicationMetrics
	Cacher      Cache
	Store       *LeadStore
	Places      *PlacesClient
	Enricher    *EnrichmentClient
	RequestLog  *RequestLog
	RateLimiter *RateLimiter
	StartTime   time.Time
}

// newRouter assembles the route table and middleware chain for the API server
func (t *LeadScoutHandler) newRouter() http.Handler {

	router := mux.NewRouter()

	router.HandleFunc("/ping", t.pingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/health", t.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/leads/generate", t.generateLeadsHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/leads/export", t.exportLeadsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/leads", t.listLeadsHandler).Methods(http.MethodGet)

	// The form frontend is served from another origin, so allow all CORS
	var h http.Handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{hnContentType}),
	)(router)

	h = handlers.CompressHandler(h)
	h = t.RateLimiter.Middleware(h)
	h = t.requestMetrics(h)

	return h
}

// HTTP Handlers

// pingHandler handles calls to /ping, which checks the health of the leadscout app, but not connectivity to upstream origins
// it responds with 200 OK and "pong" so long as the HTTP Server is running and taking requests
func (t *LeadScoutHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(hnCacheControl, hvNoCache)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// healthResponse is the payload served by /api/health
type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	UptimeSecs  float64        `json:"uptime"`
	Memory      healthMemory   `json:"memory"`
	Performance RequestSummary `json:"performance"`
}

type healthMemory struct {
	AllocBytes uint64 `json:"allocBytes"`
	SysBytes   uint64 `json:"sysBytes"`
	NumGC      uint32 `json:"numGC"`
}

// healthHandler returns process health plus the rolling request-metrics summary
func (t *LeadScoutHandler) healthHandler(w http.ResponseWriter, r *http.Request) {

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	payload := healthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		UptimeSecs: time.Since(t.StartTime).Seconds(),
		Memory: healthMemory{
			AllocBytes: ms.Alloc,
			SysBytes:   ms.Sys,
			NumGC:      ms.NumGC,
		},
		Performance: t.RequestLog.Summary(),
	}

	t.writeJSON(w, http.StatusOK, payload)
}

// generateRequest mirrors the lead-generation form submission
type generateRequest struct {
	PropertyRequirements
}

type generateResponse struct {
	Search SearchRecord `json:"search"`
	Leads  []Lead       `json:"leads"`
}

// generateLeadsHandler produces candidate tenant leads for the submitted
// property requirements, enriches a bounded subset, and persists the batch
func (t *LeadScoutHandler) generateLeadsHandler(w http.ResponseWriter, r *http.Request) {

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		level.Error(t.Logger).Log(lfEvent, "error parsing generate request", lfDetail, err.Error())
		t.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.Location == "" || req.PropertyType == "" {
		t.writeError(w, http.StatusBadRequest, "location and propertyType are required")
		return
	}

	count := req.LeadCount
	if count <= 0 {
		count = defaultLeadCount
	}
	if count > maxLeadCount {
		count = maxLeadCount
	}

	leads, err := t.Places.Search(r.Context(), req.PropertyRequirements, count)
	if err != nil {
		level.Error(t.Logger).Log(lfEvent, "error fetching candidates from places origin", lfDetail, err.Error())
		t.writeError(w, http.StatusBadGateway, "lead generation upstream unavailable")
		return
	}

	t.Metrics.LeadsGenerated.WithLabelValues(leadSource(leads)).Add(float64(len(leads)))

	// Enrichment is bounded per request since each lookup is billed.
	// Skipped entirely when no enrichment key is configured.
	if t.Config.Enrichment.APIKey != "" {
		limit := t.Config.Enrichment.EnrichLimit
		for i := range leads {
			if i >= limit {
				break
			}
			t.Enricher.Enrich(r.Context(), &leads[i])
		}
	}

	search := SearchRecord{
		Location:      req.Location,
		PropertyType:  req.PropertyType,
		SquareFootage: req.SquareFootage,
		Budget:        req.Budget,
	}
	if err := t.Store.SaveSearch(&search); err != nil {
		level.Error(t.Logger).Log(lfEvent, "error saving search record", lfDetail, err.Error())
		t.writeError(w, http.StatusInternalServerError, "unable to persist search")
		return
	}

	for i := range leads {
		leads[i].SearchID = search.ID
	}
	if err := t.Store.SaveLeads(leads); err != nil {
		level.Error(t.Logger).Log(lfEvent, "error saving leads", lfDetail, err.Error())
		t.writeError(w, http.StatusInternalServerError, "unable to persist leads")
		return
	}

	t.writeJSON(w, http.StatusOK, generateResponse{Search: search, Leads: leads})
}

// listLeadsHandler returns persisted leads, optionally scoped to one search
func (t *LeadScoutHandler) listLeadsHandler(w http.ResponseWriter, r *http.Request) {

	searchID, limit, err := listParams(r)
	if err != nil {
		t.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := t.Store.ListLeads(searchID, limit)
	if err != nil {
		level.Error(t.Logger).Log(lfEvent, "error listing leads", lfDetail, err.Error())
		t.writeError(w, http.StatusInternalServerError, "unable to list leads")
		return
	}

	t.writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

// exportLeadsHandler streams persisted leads as a CSV attachment
func (t *LeadScoutHandler) exportLeadsHandler(w http.ResponseWriter, r *http.Request) {

	searchID, limit, err := listParams(r)
	if err != nil {
		t.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := t.Store.ListLeads(searchID, limit)
	if err != nil {
		level.Error(t.Logger).Log(lfEvent, "error listing leads for export", lfDetail, err.Error())
		t.writeError(w, http.StatusInternalServerError, "unable to export leads")
		return
	}

	w.Header().Set(hnContentType, hvTextCSV)
	w.Header().Set(hnContentDisposition, `attachment; filename="leads.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := writeLeadsCSV(w, leads); err != nil {
		level.Error(t.Logger).Log(lfEvent, "error writing csv export", lfDetail, err.Error())
	}
}

// End HTTP Handlers

// Helper functions

func listParams(r *http.Request) (uint, int, error) {
	var searchID uint
	var limit int

	if v := r.URL.Query().Get("search_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid search_id parameter %q", v)
		}
		searchID = uint(parsed)
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, fmt.Errorf("invalid limit parameter %q", v)
		}
		limit = parsed
	}

	return searchID, limit, nil
}

// leadSource reports which generator produced the batch; batches are never mixed
func leadSource(leads []Lead) string {
	if len(leads) > 0 {
		return leads[0].Source
	}
	return lsMock
}

func (t *LeadScoutHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(hnContentType, hvApplicationJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		level.Error(t.Logger).Log(lfEvent, "error encoding response", lfDetail, err.Error())
	}
}

func (t *LeadScoutHandler) writeError(w http.ResponseWriter, status int, message string) {
	t.writeJSON(w, status, map[string]string{"error": message})
}
