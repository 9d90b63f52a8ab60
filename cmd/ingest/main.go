package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/storage/postgres"
	"github.com/lagos-gis/streetguide/pkg/storage/snapshot"
	"github.com/lagos-gis/streetguide/pkg/topology"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	roadsFile    = flag.String("roads", "roads.geojson", "GeoJSON file with the digitized road network")
	snapshotFile = flag.String("out", "", "also write the built graph to a binary snapshot file")
	skipDB       = flag.Bool("skipdb", false, "build the snapshot only, do not touch postgres")
	precision    = flag.Uint("precision", uint(topology.DefaultPrecision), "endpoint rounding precision (decimal digits)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	lines, err := readRoadLines(*roadsFile)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("read %d road segments from %s", len(lines), *roadsFile)

	builder := topology.NewBuilder(*precision)
	nodes, edges := builder.Build(lines)
	log.Printf("topology built: %d nodes, %d edges", len(nodes), len(edges))

	if !*skipDB {
		db, err := postgres.Open(postgres.BuildDSNFromEnv())
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		repo := postgres.NewTopologyRepository(db)
		ctx := context.Background()
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal(err)
		}
		if err := repo.SaveTopology(ctx, nodes, edges); err != nil {
			log.Fatal(err)
		}
		log.Printf("topology persisted to postgres")
	}

	if *snapshotFile != "" {
		if err := snapshot.Save(*snapshotFile, nodes, edges); err != nil {
			log.Fatal(err)
		}
		log.Printf("graph snapshot written to %s", *snapshotFile)
	}
}

// readRoadLines loads the source dataset. Only the whole-file read may
// fail the run; individual features without usable line geometry are
// carried through so the builder can record them as excluded edges.
func readRoadLines(path string) ([]datastructure.LineFeature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, err
	}

	lines := make([]datastructure.LineFeature, 0, len(fc.Features))
	for _, feature := range fc.Features {
		line := datastructure.LineFeature{Name: featureName(feature)}
		switch g := feature.Geometry.(type) {
		case orb.LineString, orb.MultiLineString:
			line.Geometry = g
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func featureName(feature *geojson.Feature) string {
	for _, key := range []string{"name", "ROADNAME", "roadname"} {
		if v, ok := feature.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
