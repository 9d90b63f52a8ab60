package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/engine/routingalgorithm"
	"github.com/lagos-gis/streetguide/pkg/server/rest"
	"github.com/lagos-gis/streetguide/pkg/server/rest/service"
	"github.com/lagos-gis/streetguide/pkg/snap"
	"github.com/lagos-gis/streetguide/pkg/storage/postgres"
	"github.com/lagos-gis/streetguide/pkg/storage/snapshot"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	graphFile  = flag.String("graph", "", "load road graph from a binary snapshot instead of postgres")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	db, err := postgres.Open(postgres.BuildDSNFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	topoRepo := postgres.NewTopologyRepository(db)
	featureRepo := postgres.NewFeatureRepository(db)

	var graph *datastructure.Graph
	if *graphFile != "" {
		graph, err = snapshot.Load(*graphFile)
	} else {
		graph, err = topoRepo.LoadGraph(context.Background())
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("road graph loaded: %d nodes, %d edges", graph.NumNodes(), graph.NumEdges())

	vertexIndex := snap.NewVertexIndex(graph)
	routeAlgorithm := routingalgorithm.NewRouteAlgorithm(graph)

	routingSvc := service.NewRoutingService(vertexIndex, routeAlgorithm, featureRepo)
	gisSvc := service.NewGISService(featureRepo)

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rest.StreetGuideRouter(r, routingSvc, gisSvc)

	fmt.Printf("\nserver started at %s\n", *listenAddr)
	log.Fatal(http.ListenAndServe(*listenAddr, r))
}
