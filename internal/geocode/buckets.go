package geocode

import "issuemap_backend/platform/config"

// bucketLabel walks the static locality table in order and returns the
// first bucket label covering the point. Used when reverse geocoding has
// no provider data to work with.
func bucketLabel(buckets []config.GeocodeBucket, lat, lon float64) (string, bool) {
	for _, bucket := range buckets {
		if bucket.Contains(lat, lon) {
			return bucket.Label, true
		}
	}
	return "", false
}
