package service

import (
	"context"
	"encoding/json"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/server"
)

// FeatureStore is the storage collaborator behind the attribute/spatial
// query endpoints. PostGIS-backed in production.
type FeatureStore interface {
	FeaturesByCategory(ctx context.Context, category string) (json.RawMessage, error)
	Buffer(ctx context.Context, c datastructure.Coordinate, distanceMeters float64) (json.RawMessage, error)
	LCDAs(ctx context.Context) (json.RawMessage, error)
	RoadsLayer(ctx context.Context) (json.RawMessage, error)
	Boundary(ctx context.Context) (json.RawMessage, error)
	Identify(ctx context.Context, c datastructure.Coordinate) (json.RawMessage, error)
	Search(ctx context.Context, query string) ([]datastructure.SearchResult, error)
	Stats(ctx context.Context) (*datastructure.DatasetStats, error)
	LCDAStats(ctx context.Context, lcdaName string) (*datastructure.LCDAStats, error)
}

// GISService fronts the non-routing query endpoints. Thin translation:
// each call builds one parameterized spatial query and reshapes the
// store's answer.
type GISService struct {
	store FeatureStore
}

func NewGISService(store FeatureStore) *GISService {
	return &GISService{store: store}
}

func (uc *GISService) FeaturesByCategory(ctx context.Context, category string) (json.RawMessage, error) {
	fc, err := uc.store.FeaturesByCategory(ctx, category)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "features by category")
	}
	return fc, nil
}

func (uc *GISService) Buffer(ctx context.Context, c datastructure.Coordinate, distanceMeters float64) (json.RawMessage, error) {
	fc, err := uc.store.Buffer(ctx, c, distanceMeters)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "buffer analysis")
	}
	return fc, nil
}

func (uc *GISService) LCDAs(ctx context.Context) (json.RawMessage, error) {
	fc, err := uc.store.LCDAs(ctx)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "lcda boundaries")
	}
	return fc, nil
}

func (uc *GISService) RoadsLayer(ctx context.Context) (json.RawMessage, error) {
	fc, err := uc.store.RoadsLayer(ctx)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "roads layer")
	}
	return fc, nil
}

func (uc *GISService) Boundary(ctx context.Context) (json.RawMessage, error) {
	fc, err := uc.store.Boundary(ctx)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "project boundary")
	}
	return fc, nil
}

func (uc *GISService) Identify(ctx context.Context, c datastructure.Coordinate) (json.RawMessage, error) {
	fc, err := uc.store.Identify(ctx, c)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "spatial identify")
	}
	return fc, nil
}

// Search returns an empty result for queries shorter than two
// characters instead of hitting the store.
func (uc *GISService) Search(ctx context.Context, query string) ([]datastructure.SearchResult, error) {
	if len(query) < 2 {
		return []datastructure.SearchResult{}, nil
	}
	results, err := uc.store.Search(ctx, query)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "global search")
	}
	return results, nil
}

func (uc *GISService) Stats(ctx context.Context) (*datastructure.DatasetStats, error) {
	stats, err := uc.store.Stats(ctx)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "dataset stats")
	}
	return stats, nil
}

func (uc *GISService) LCDAStats(ctx context.Context, lcdaName string) (*datastructure.LCDAStats, error) {
	stats, err := uc.store.LCDAStats(ctx, lcdaName)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "lcda stats")
	}
	return stats, nil
}
