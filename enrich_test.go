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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
)

func setupEnrichmentClient(t *testing.T, upstream http.HandlerFunc) (*EnrichmentClient, *httptest.Server, func()) {
	server := httptest.NewServer(upstream)

	caching := CachingConfig{
		CacheType:      ctMemory,
		SuccessTTLSecs: 3600,
		FailureTTLSecs: 1800,
		ReapSleepMS:    600000,
		Compression:    true,
	}
	cacher := &MemoryCache{Config: caching, Logger: log.NewNopLogger()}
	if err := cacher.Connect(); err != nil {
		t.Fatal("Unable to connect to cache:", err)
	}

	metrics := NewApplicationMetrics()

	ec := NewEnrichmentClient(
		EnrichmentConfig{BaseURL: server.URL, APIKey: "test-key", TimeoutSecs: 5, EnrichLimit: 5},
		caching, cacher, metrics, log.NewNopLogger(),
	)

	return ec, server, func() {
		metrics.Unregister()
		server.Close()
	}
}

func TestEnrichmentClient_SuccessIsCached(t *testing.T) {
	calls := 0
	ec, _, closeFn := setupEnrichmentClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set(hnContentType, hvApplicationJSON)
		w.Write([]byte(`{"data":{"full_name":"Ada Smith","job_title":"Owner","work_email":"ada@example.com","phone_number":"555-0100","linkedin_url":"https://linkedin.com/in/adasmith"}}`))
	})
	defer closeFn()

	lead := Lead{BusinessName: "Copper Kettle Coffee"}
	outcome := ec.Enrich(context.Background(), &lead)

	if !outcome.Success {
		t.Fatalf("wanted a successful outcome, got error %q", outcome.Error)
	}
	if !lead.Enriched || lead.ContactPhone != "555-0100" {
		t.Errorf("wanted contact details applied to the lead, got %+v", lead)
	}

	// the second lookup for the same identity should be served from cache
	lead2 := Lead{BusinessName: "Copper Kettle Coffee"}
	outcome = ec.Enrich(context.Background(), &lead2)
	if !outcome.Success || lead2.ContactEmail != "ada@example.com" {
		t.Errorf("wanted cached outcome applied, got %+v", outcome)
	}
	if calls != 1 {
		t.Errorf("wanted 1 upstream call, got %d", calls)
	}
}

func TestEnrichmentClient_NegativeResultIsCached(t *testing.T) {
	calls := 0
	ec, _, closeFn := setupEnrichmentClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})
	defer closeFn()

	lead := Lead{BusinessName: "Unmatchable LLC"}
	outcome := ec.Enrich(context.Background(), &lead)

	if outcome.Success {
		t.Fatal("wanted a failure outcome for a not-found identity")
	}
	if lead.Enriched {
		t.Error("a failed lookup must not mark the lead enriched")
	}

	// a permanently-unmatchable identity must not be re-queried on every request
	ec.Enrich(context.Background(), &Lead{BusinessName: "Unmatchable LLC"})
	if calls != 1 {
		t.Errorf("wanted 1 upstream call for a cached negative result, got %d", calls)
	}

	// the negative outcome should be cached under the namespaced key
	cached, err := ec.Cacher.Retrieve("pdl:unmatchable llc")
	if err != nil {
		t.Fatal("wanted the negative outcome in cache:", err)
	}
	if len(decodeCachePayload(cached)) == 0 {
		t.Error("wanted a decodable cached payload")
	}
}

func TestEnrichmentClient_UpstreamErrorBecomesFailureOutcome(t *testing.T) {
	ec, _, closeFn := setupEnrichmentClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	lead := Lead{BusinessName: "Flaky Industries"}
	outcome := ec.Enrich(context.Background(), &lead)

	// errors are translated into cacheable failure values, never raised
	if outcome.Success {
		t.Error("wanted a failure outcome for an upstream 500")
	}
	if outcome.Error == "" {
		t.Error("wanted the failure detail preserved in the outcome")
	}
}

func TestEnrichmentClient_TimeoutBecomesFailureOutcome(t *testing.T) {
	ec, _, closeFn := setupEnrichmentClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	defer closeFn()

	ec.client.Timeout = 20 * time.Millisecond

	lead := Lead{BusinessName: "Sluggish Holdings"}
	outcome := ec.Enrich(context.Background(), &lead)

	if outcome.Success {
		t.Error("wanted a timeout to be treated as a failure outcome")
	}
}

func TestEnrichmentCacheKey(t *testing.T) {
	fixtures := []struct {
		lead Lead
		key  string
	}{
		{Lead{BusinessName: "Copper Kettle Coffee"}, "pdl:copper kettle coffee"},
		{Lead{BusinessName: "Acme", ContactEmail: "A@Example.com"}, "pdl:a@example.com"},
	}

	for _, f := range fixtures {
		if got := enrichmentCacheKey(&f.lead); got != f.key {
			t.Errorf("wanted key %q, got %q", f.key, got)
		}
	}
}
