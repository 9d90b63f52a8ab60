package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/util"
)

var emptyFeatureCollection = json.RawMessage(`{"type": "FeatureCollection", "features": []}`)

// FeatureRepository answers the spatial glue queries over point
// features, sub-district polygons, and the roads table. The geometry
// work (containment, buffering, simplification, KNN ordering) is
// delegated to PostGIS.
type FeatureRepository struct {
	db *sql.DB
}

func NewFeatureRepository(db *sql.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

// NearestFeature returns the geometrically nearest point feature whose
// category matches, or nil when no such feature exists.
func (r *FeatureRepository) NearestFeature(ctx context.Context, c datastructure.Coordinate, category string) (*datastructure.Facility, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, category, ST_X(geom), ST_Y(geom)
		 FROM point_features
		 WHERE category ILIKE $1
		 ORDER BY geom <-> ST_SetSRID(ST_MakePoint($2, $3), 4326)
		 LIMIT 1`,
		"%"+category+"%", c.Lon, c.Lat)

	var f datastructure.Facility
	var lng, lat float64
	if err := row.Scan(&f.Name, &f.Category, &lng, &lat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("nearest feature: %w", err)
	}
	f.Location = datastructure.NewCoordinate(lat, lng)
	return &f, nil
}

// FeaturesByCategory returns all matching point features as a GeoJSON
// FeatureCollection built by the store.
func (r *FeatureRepository) FeaturesByCategory(ctx context.Context, category string) (json.RawMessage, error) {
	return r.featureCollection(ctx,
		`SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(ST_AsGeoJSON(t.*)::json)
		)
		FROM (
			SELECT name, category, geom
			FROM point_features
			WHERE category ILIKE $1
		) AS t`,
		"%"+category+"%")
}

// Buffer returns every point feature within distance meters of the
// coordinate.
func (r *FeatureRepository) Buffer(ctx context.Context, c datastructure.Coordinate, distanceMeters float64) (json.RawMessage, error) {
	return r.featureCollection(ctx,
		`SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(ST_AsGeoJSON(t.*)::json)
		)
		FROM (
			SELECT name, category, geom
			FROM point_features
			WHERE ST_DWithin(
				geom::geography,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
				$3
			)
		) AS t`,
		c.Lon, c.Lat, distanceMeters)
}

// LCDAs returns all sub-district polygons.
func (r *FeatureRepository) LCDAs(ctx context.Context) (json.RawMessage, error) {
	return r.featureCollection(ctx,
		`SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(ST_AsGeoJSON(t.*)::json)
		)
		FROM (SELECT name, geom FROM lcda_polygons) AS t`)
}

// RoadsLayer returns a display-oriented roads layer: simplified
// geometry, tiny segments dropped to keep the payload small.
func (r *FeatureRepository) RoadsLayer(ctx context.Context) (json.RawMessage, error) {
	return r.featureCollection(ctx,
		`SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(
				json_build_object(
					'type', 'Feature',
					'geometry', ST_AsGeoJSON(ST_Simplify(geom, 0.0001), 5)::json,
					'properties', json_build_object('name', COALESCE(name, 'Road'))
				)
			)
		)
		FROM roads
		WHERE geom IS NOT NULL AND ST_Length(geom::geography) > 50`)
}

// Boundary returns the project boundary polygon.
func (r *FeatureRepository) Boundary(ctx context.Context) (json.RawMessage, error) {
	return r.featureCollection(ctx,
		`SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(ST_AsGeoJSON(t.*)::json)
		)
		FROM (SELECT geom FROM boundary) AS t`)
}

// Identify returns every sub-district polygon containing the
// coordinate.
func (r *FeatureRepository) Identify(ctx context.Context, c datastructure.Coordinate) (json.RawMessage, error) {
	return r.featureCollection(ctx,
		`SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(ST_AsGeoJSON(t.*)::json)
		)
		FROM (
			SELECT name, geom
			FROM lcda_polygons
			WHERE ST_Intersects(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		) AS t`,
		c.Lon, c.Lat)
}

// Search matches the query against point features, road names, and
// sub-district names, returning at most 10 centroids.
func (r *FeatureRepository) Search(ctx context.Context, query string) ([]datastructure.SearchResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, category, ST_X(ST_Centroid(geom)) AS lng, ST_Y(ST_Centroid(geom)) AS lat
		 FROM (
			SELECT name, category, geom FROM point_features WHERE name ILIKE $1
			UNION ALL
			SELECT COALESCE(name, 'Road') AS name, 'Road' AS category, geom FROM roads WHERE name ILIKE $1
			UNION ALL
			SELECT name, 'District' AS category, geom FROM lcda_polygons WHERE name ILIKE $1
		 ) AS combined_results
		 LIMIT 10`,
		"%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	results := make([]datastructure.SearchResult, 0)
	for rows.Next() {
		var s datastructure.SearchResult
		if err := rows.Scan(&s.Name, &s.Category, &s.Lng, &s.Lat); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// Stats returns dataset-wide counts and totals.
func (r *FeatureRepository) Stats(ctx context.Context) (*datastructure.DatasetStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) AS count
		 FROM point_features
		 GROUP BY category
		 ORDER BY count DESC`)
	if err != nil {
		return nil, fmt.Errorf("poi stats: %w", err)
	}
	defer rows.Close()

	stats := &datastructure.DatasetStats{POIStats: make([]datastructure.CategoryCount, 0)}
	for rows.Next() {
		var cc datastructure.CategoryCount
		if err := rows.Scan(&cc.Label, &cc.Value); err != nil {
			return nil, err
		}
		stats.POIStats = append(stats.POIStats, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var roadKM, areaSqKM sql.NullFloat64
	if err := r.db.QueryRowContext(ctx,
		`SELECT SUM(ST_Length(geom::geography)) / 1000 FROM roads WHERE geom IS NOT NULL`).Scan(&roadKM); err != nil {
		return nil, fmt.Errorf("road length: %w", err)
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT SUM(ST_Area(geom::geography)) / 1000000 FROM lcda_polygons`).Scan(&areaSqKM); err != nil {
		return nil, fmt.Errorf("lcda area: %w", err)
	}
	stats.TotalRoadKM = util.RoundFloat(roadKM.Float64, 2)
	stats.TotalAreaSqKM = util.RoundFloat(areaSqKM.Float64, 2)
	return stats, nil
}

// LCDAStats returns per-sub-district figures: area, road counts, the
// longest road, and grouped points of interest.
func (r *FeatureRepository) LCDAStats(ctx context.Context, lcdaName string) (*datastructure.LCDAStats, error) {
	stats := &datastructure.LCDAStats{LCDAName: lcdaName, POIStats: make([]datastructure.LCDAPOIGroup, 0)}

	var area sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT ST_Area(geom::geography) / 1000000 FROM lcda_polygons WHERE name = $1`, lcdaName).Scan(&area)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lcda area: %w", err)
	}
	stats.AreaSqKM = util.RoundFloat(area.Float64, 2)

	var roadCount sql.NullInt64
	var longestLen sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(ST_Length(r.geom::geography))
		 FROM roads r, lcda_polygons l
		 WHERE l.name = $1 AND r.geom IS NOT NULL AND ST_Intersects(r.geom, l.geom)`, lcdaName).
		Scan(&roadCount, &longestLen)
	if err != nil {
		return nil, fmt.Errorf("lcda roads: %w", err)
	}
	stats.RoadCount = roadCount.Int64

	longestName := "None"
	var name sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(r.name, 'Road')
		 FROM roads r, lcda_polygons l
		 WHERE l.name = $1 AND r.geom IS NOT NULL AND ST_Intersects(r.geom, l.geom)
		 ORDER BY ST_Length(r.geom::geography) DESC LIMIT 1`, lcdaName).Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lcda longest road: %w", err)
	}
	if name.Valid {
		longestName = name.String
	}
	stats.LongestRoad = fmt.Sprintf("%s (%.0fm)", longestName, longestLen.Float64)

	rows, err := r.db.QueryContext(ctx,
		`SELECT p.category, COUNT(*),
			json_agg(json_build_object(
				'name', p.name,
				'lat', ST_Y(p.geom::geometry),
				'lng', ST_X(p.geom::geometry)
			))
		 FROM point_features p, lcda_polygons l
		 WHERE l.name = $1 AND ST_Intersects(p.geom, l.geom)
		 GROUP BY p.category`, lcdaName)
	if err != nil {
		return nil, fmt.Errorf("lcda poi stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var group datastructure.LCDAPOIGroup
		var items []byte
		if err := rows.Scan(&group.Label, &group.Value, &items); err != nil {
			return nil, err
		}
		group.Items = json.RawMessage(items)
		stats.POIStats = append(stats.POIStats, group)
	}
	return stats, rows.Err()
}

func (r *FeatureRepository) featureCollection(ctx context.Context, query string, args ...interface{}) (json.RawMessage, error) {
	var raw sql.NullString
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return emptyFeatureCollection, nil
		}
		return nil, fmt.Errorf("feature collection: %w", err)
	}
	if !raw.Valid {
		return emptyFeatureCollection, nil
	}
	// json_agg over zero rows yields a null features array
	var probe struct {
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal([]byte(raw.String), &probe); err == nil {
		if len(probe.Features) == 0 || string(probe.Features) == "null" {
			return emptyFeatureCollection, nil
		}
	}
	return json.RawMessage(raw.String), nil
}

