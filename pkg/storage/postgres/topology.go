package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lagos-gis/streetguide/pkg/datastructure"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TopologyRepository persists the built road topology and loads it back
// for serving. The node and edge tables are written together in one
// transaction so every connectable edge references an existing node.
type TopologyRepository struct {
	db *sql.DB
}

func NewTopologyRepository(db *sql.DB) *TopologyRepository {
	return &TopologyRepository{db: db}
}

// EnsureSchema creates the topology tables when missing.
func (r *TopologyRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS road_nodes (
			id   BIGINT PRIMARY KEY,
			geom geometry(Point, 4326) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS roads (
			id           BIGINT PRIMARY KEY,
			name         TEXT,
			source       BIGINT,
			target       BIGINT,
			cost         DOUBLE PRECISION NOT NULL DEFAULT 0,
			reverse_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			geom         geometry(LineString, 4326)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_roads_source ON roads(source)`,
		`CREATE INDEX IF NOT EXISTS idx_roads_target ON roads(target)`,
		`CREATE INDEX IF NOT EXISTS idx_road_nodes_geom ON road_nodes USING GIST(geom)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveTopology replaces both tables with the freshly built node and
// edge sets. One ingestion run owns the dataset; this is not safe for
// concurrent ingestions over the same database.
func (r *TopologyRepository) SaveTopology(ctx context.Context, nodes []datastructure.Node, edges []datastructure.Edge) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin topology tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roads`); err != nil {
		return fmt.Errorf("clear roads: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM road_nodes`); err != nil {
		return fmt.Errorf("clear road_nodes: %w", err)
	}

	insertNode, err := tx.PrepareContext(ctx,
		`INSERT INTO road_nodes (id, geom) VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326))`)
	if err != nil {
		return err
	}
	defer insertNode.Close()
	for _, n := range nodes {
		if _, err := insertNode.ExecContext(ctx, n.ID, n.Lon, n.Lat); err != nil {
			return fmt.Errorf("insert node %d: %w", n.ID, err)
		}
	}

	insertEdge, err := tx.PrepareContext(ctx,
		`INSERT INTO roads (id, name, source, target, cost, reverse_cost, geom)
		 VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_GeomFromGeoJSON($7), 4326))`)
	if err != nil {
		return err
	}
	defer insertEdge.Close()
	for _, e := range edges {
		var source, target sql.NullInt64
		if e.Connectable() {
			source = sql.NullInt64{Int64: e.Source, Valid: true}
			target = sql.NullInt64{Int64: e.Target, Valid: true}
		}
		var geomJSON interface{}
		if len(e.Geometry) >= 2 {
			raw, err := json.Marshal(geojson.NewGeometry(e.Geometry))
			if err != nil {
				return fmt.Errorf("encode edge %d geometry: %w", e.ID, err)
			}
			geomJSON = string(raw)
		}
		if _, err := insertEdge.ExecContext(ctx, e.ID, e.Name, source, target, e.Cost, e.ReverseCost, geomJSON); err != nil {
			return fmt.Errorf("insert edge %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// LoadGraph reads the node table and the connectable subset of the edge
// table and assembles the in-memory graph. Both are read in one
// transaction for a mutually consistent snapshot.
func (r *TopologyRepository) LoadGraph(ctx context.Context) (*datastructure.Graph, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin graph load: %w", err)
	}
	defer tx.Rollback()

	nodeRows, err := tx.QueryContext(ctx,
		`SELECT id, ST_Y(geom), ST_X(geom) FROM road_nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	defer nodeRows.Close()

	nodes := make([]datastructure.Node, 0)
	for nodeRows.Next() {
		var n datastructure.Node
		if err := nodeRows.Scan(&n.ID, &n.Lat, &n.Lon); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := tx.QueryContext(ctx,
		`SELECT id, COALESCE(name, 'Road'), source, target, cost, reverse_cost, ST_AsGeoJSON(geom)
		 FROM roads
		 WHERE source IS NOT NULL AND target IS NOT NULL
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer edgeRows.Close()

	edges := make([]datastructure.Edge, 0)
	for edgeRows.Next() {
		var e datastructure.Edge
		var geomRaw sql.NullString
		if err := edgeRows.Scan(&e.ID, &e.Name, &e.Source, &e.Target, &e.Cost, &e.ReverseCost, &geomRaw); err != nil {
			return nil, err
		}
		if geomRaw.Valid {
			geom, err := decodeLineString(geomRaw.String)
			if err != nil {
				return nil, fmt.Errorf("decode edge %d geometry: %w", e.ID, err)
			}
			e.Geometry = geom
		}
		edges = append(edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	return datastructure.NewGraph(nodes, edges), nil
}

func decodeLineString(raw string) (orb.LineString, error) {
	geom, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, err
	}
	line, ok := geom.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected geometry type %s", geom.Type)
	}
	return line, nil
}
