package main

const leadscout = "leadscout"

// Lead Source Types
const (
	lsMock   = "mock"
	lsPlaces = "places"
)

// Cache Key Namespaces
const (
	cnEnrichment = "pdl"
	cnPlaces     = "places"
)

// Cache Lookup Results
const (
	crHit  = "hit"
	crMiss = "miss"
)

// Enrichment Outcomes
const (
	eoSuccess = "success"
	eoFailure = "failure"
)

// Common HTTP Header Names
const (
	hnCacheControl       = "Cache-Control"
	hnContentType        = "Content-Type"
	hnContentDisposition = "Content-Disposition"
	hnForwardedFor       = "X-Forwarded-For"
)

// Common HTTP Header Values
const (
	hvNoCache         = "no-cache"
	hvApplicationJSON = "application/json"
	hvTextCSV         = "text/csv"
)

// Cache Interface Types
const (
	ctMemory     = "memory"
	ctFilesystem = "filesystem"
	ctBoltDB     = "boltdb"
	ctRedis      = "redis"
)

// Log Fields
const (
	lfEvent    = "event"
	lfDetail   = "detail"
	lfCacheKey = "cacheKey"
)

// Environment Variables
const (
	evListenPort    = "LS_LISTEN_PORT"
	evMetricsPort   = "LS_METRICS_PORT"
	evLogLevel      = "LS_LOG_LEVEL"
	evDatabasePath  = "LS_DB_PATH"
	evPlacesAPIKey  = "LS_PLACES_API_KEY"
	evEnrichmentKey = "LS_ENRICHMENT_API_KEY"
)

// Command Line Flags
const (
	cfConfig      = "config"
	cfVersion     = "version"
	cfLogLevel    = "log-level"
	cfInstanceId  = "instance-id"
	cfListenPort  = "listen-port"
	cfMetricsPort = "metrics-port"
	cfDBPath      = "db-path"
)
