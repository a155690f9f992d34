package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/visualgenome"
	"github.com/siherrmann/visualgenome/core/scenegraph"
	"github.com/siherrmann/visualgenome/model"
)

// Expects the distributed corpus (scene_graphs.json, attributes.json,
// synsets.json) in VISUALGENOME_DATA_DIR, "data" by default.
func main() {
	cfg := model.NewConfigFromEnv()
	cfg.EndIndex = 5

	g, err := visualgenome.NewGenome(&cfg, nil, 0)
	if err != nil {
		log.Fatalf("Failed to create genome: %v", err)
	}

	fmt.Println("Merging attributes and splitting the corpus by image...")
	count, err := g.PrepareCorpus(context.Background())
	if err != nil {
		log.Fatalf("Failed to prepare corpus: %v", err)
	}
	fmt.Printf("Wrote %d scene graph files to %s\n", count, cfg.ImageDataDir)

	graphs, err := g.LoadSceneGraphs()
	if err != nil {
		log.Fatalf("Failed to load scene graphs: %v", err)
	}

	for _, graph := range graphs {
		fmt.Printf("\n%s\n", graph)
		for _, r := range graph.Relationships {
			fmt.Printf("  %s\n", r)
		}
		if len(graph.Objects) == 0 {
			continue
		}

		results, err := scenegraph.BFS(graph, graph.Objects[0].ID, 2, nil, true)
		if err != nil {
			log.Fatalf("Failed to traverse graph: %v", err)
		}
		fmt.Printf("  Objects within two hops of %s:\n", graph.Objects[0])
		for _, result := range results {
			fmt.Printf("    [%d] %s\n", result.Distance, result.Object)
		}
	}
}
