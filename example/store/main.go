package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/visualgenome"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// Imports a prepared corpus (see example/local) into a throwaway Postgres
// container and searches the relationship phrases.
func main() {
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	cfg := model.NewConfigFromEnv()
	cfg.EndIndex = 50

	g, err := visualgenome.NewGenome(&cfg, dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create genome: %v", err)
	}
	defer g.Close()

	// Relationship phrases embedded with all-MiniLM-L6-v2
	if err := g.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	synsets, err := g.ImportSynsets()
	if err != nil {
		log.Fatalf("Failed to import synsets: %v", err)
	}
	fmt.Printf("Imported %d synsets\n", synsets)

	graphs, err := g.ImportSceneGraphs(context.Background())
	if err != nil {
		log.Fatalf("Failed to import scene graphs: %v", err)
	}
	fmt.Printf("Imported %d scene graphs\n", graphs)

	queryText := "a man wearing a hat"
	fmt.Printf("\nQuerying: %s\n", queryText)

	regions, err := g.SearchRegions(queryText, 5, 0.3, nil)
	if err != nil {
		log.Fatalf("Failed to search regions: %v", err)
	}
	for i, region := range regions {
		fmt.Printf("%d. [%.3f] image %d: %s\n", i+1, region.Similarity, region.ImageID, region.Phrase)
	}
}
