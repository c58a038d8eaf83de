package redis

import "fmt"

// Cache key construction helpers. History and analytics results are
// keyed by (locality, kind, sensor type, date range) so an identical
// range query always resolves to the same entry.

// HistoryCacheKey returns the cache key for a history query result
// Pattern: history_{sensorType}_{localityId}_{from}_{to}
func HistoryCacheKey(localityID, sensorType, fromDate, toDate string) string {
	return fmt.Sprintf("history_%s_%s_%s_%s", sensorType, localityID, fromDate, toDate)
}

// AnalyticsCacheKey returns the cache key for an analytics query result
// Pattern: analytics_{sensorType}_{localityId}_{from}_{to}
func AnalyticsCacheKey(localityID, sensorType, fromDate, toDate string) string {
	return fmt.Sprintf("analytics_%s_%s_%s_%s", sensorType, localityID, fromDate, toDate)
}
