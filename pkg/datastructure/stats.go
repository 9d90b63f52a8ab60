package datastructure

import "encoding/json"

// SearchResult is one hit of the global name search across points of
// interest, roads, and sub-district polygons.
type SearchResult struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lng      float64 `json:"lng"`
	Lat      float64 `json:"lat"`
}

type CategoryCount struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// DatasetStats summarizes the whole dataset.
type DatasetStats struct {
	POIStats      []CategoryCount `json:"poi_stats"`
	TotalRoadKM   float64         `json:"total_road_km"`
	TotalAreaSqKM float64         `json:"total_area_sqkm"`
}

// LCDAPOIGroup is one point-of-interest category within a sub-district,
// with the member points as raw GeoJSON-ish items built by the store.
type LCDAPOIGroup struct {
	Label string          `json:"label"`
	Value int64           `json:"value"`
	Items json.RawMessage `json:"items"`
}

// LCDAStats summarizes a single sub-district.
type LCDAStats struct {
	LCDAName    string         `json:"lcda_name"`
	AreaSqKM    float64        `json:"area_sqkm"`
	RoadCount   int64          `json:"road_count"`
	LongestRoad string         `json:"longest_road"`
	POIStats    []LCDAPOIGroup `json:"poi_stats"`
}
