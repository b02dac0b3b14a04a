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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// EnrichmentClient looks up decision-maker contact details for a lead from a
// people-data API. Every lookup outcome, including failures, is cached:
// successes with the long TTL, failures with the short one, so well-known
// identities are not re-billed while unclear ones are retried sooner.
type EnrichmentClient struct {
	Config  EnrichmentConfig
	Caching CachingConfig
	Logger  log.Logger
	Cacher  Cache
	Metrics *ApplicationMetrics
	client  *http.Client
}

// NewEnrichmentClient returns an EnrichmentClient with its HTTP timeout applied.
func NewEnrichmentClient(cfg EnrichmentConfig, caching CachingConfig, cacher Cache, metrics *ApplicationMetrics, logger log.Logger) *EnrichmentClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EnrichmentClient{
		Config:  cfg,
		Caching: caching,
		Logger:  logger,
		Cacher:  cacher,
		Metrics: metrics,
		client:  &http.Client{Timeout: timeout},
	}
}

// Enrich resolves contact details for the lead and applies them on success.
// It never returns an error: any upstream failure is translated into a
// cacheable failure outcome so the cache layer stays error-free.
func (e *EnrichmentClient) Enrich(ctx context.Context, lead *Lead) EnrichmentOutcome {

	cacheKey := enrichmentCacheKey(lead)

	if cached, err := e.Cacher.Retrieve(cacheKey); err == nil {
		var outcome EnrichmentOutcome
		if err := json.Unmarshal(decodeCachePayload(cached), &outcome); err == nil {
			level.Debug(e.Logger).Log(lfEvent, "enrichment cache hit", lfCacheKey, cacheKey, "success", outcome.Success)
			e.countOutcome(outcome, crHit)
			outcome.Apply(lead)
			return outcome
		}
		// an undecodable cache entry is treated as a miss and re-fetched
	}

	outcome := e.lookup(ctx, lead)

	ttl := e.Caching.SuccessTTL()
	if !outcome.Success {
		ttl = e.Caching.FailureTTL()
	}

	if body, err := json.Marshal(outcome); err == nil {
		e.Cacher.Store(cacheKey, encodeCachePayload(e.Caching.Compression, body), ttl)
	}

	e.countOutcome(outcome, crMiss)
	outcome.Apply(lead)
	return outcome
}

// lookup performs the live people-data call, mapping every failure mode to a
// failure outcome value.
func (e *EnrichmentClient) lookup(ctx context.Context, lead *Lead) EnrichmentOutcome {

	u, err := url.Parse(e.Config.BaseURL)
	if err != nil {
		return failureOutcome(fmt.Sprintf("invalid enrichment base url: %v", err))
	}
	q := u.Query()
	q.Set("api_key", e.Config.APIKey)
	q.Set("company", lead.BusinessName)
	if lead.Website != "" {
		q.Set("website", lead.Website)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return failureOutcome(fmt.Sprintf("unable to build enrichment request: %v", err))
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		// a client timeout lands here and is cached with the failure TTL
		level.Warn(e.Logger).Log(lfEvent, "enrichment origin request failed", lfDetail, err.Error(), "company", lead.BusinessName)
		return failureOutcome(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failureOutcome(fmt.Sprintf("error reading enrichment response: %v", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		// a clean not-found is the canonical negative result
		return failureOutcome("no match")
	}
	if resp.StatusCode != http.StatusOK {
		level.Warn(e.Logger).Log(lfEvent, "enrichment origin status", "status", resp.StatusCode, "company", lead.BusinessName)
		return failureOutcome(fmt.Sprintf("enrichment origin status %d", resp.StatusCode))
	}

	var parsed struct {
		Data struct {
			FullName    string `json:"full_name"`
			JobTitle    string `json:"job_title"`
			WorkEmail   string `json:"work_email"`
			PhoneNumber string `json:"phone_number"`
			LinkedInURL string `json:"linkedin_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failureOutcome(fmt.Sprintf("enrichment response unmarshaling error: %v", err))
	}

	if parsed.Data.FullName == "" && parsed.Data.WorkEmail == "" {
		return failureOutcome("no match")
	}

	return EnrichmentOutcome{
		Success:  true,
		Name:     parsed.Data.FullName,
		Title:    parsed.Data.JobTitle,
		Email:    parsed.Data.WorkEmail,
		Phone:    parsed.Data.PhoneNumber,
		LinkedIn: parsed.Data.LinkedInURL,
	}
}

func (e *EnrichmentClient) countOutcome(outcome EnrichmentOutcome, cacheResult string) {
	result := eoSuccess
	if !outcome.Success {
		result = eoFailure
	}
	e.Metrics.EnrichmentRequests.WithLabelValues(result, cacheResult).Inc()
}

// enrichmentCacheKey namespaces the lead identity so enrichment entries cannot
// collide with other lookup types sharing the cache.
func enrichmentCacheKey(lead *Lead) string {
	identity := strings.ToLower(lead.ContactEmail)
	if identity == "" {
		identity = strings.ToLower(lead.BusinessName)
	}
	return cnEnrichment + ":" + identity
}

func failureOutcome(detail string) EnrichmentOutcome {
	return EnrichmentOutcome{Success: false, Error: detail}
}
