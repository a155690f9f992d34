package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/visualgenome"
)

func main() {
	g, err := visualgenome.NewGenome(nil, nil, 0)
	if err != nil {
		log.Fatalf("Failed to create genome: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ids, err := g.Remote.GetImageIDsInRange(ctx, 998, 1002)
	if err != nil {
		log.Fatalf("Failed to get image ids: %v", err)
	}
	fmt.Printf("Image ids: %v\n", ids)
	if len(ids) == 0 {
		return
	}

	image, err := g.Remote.GetImageData(ctx, ids[0])
	if err != nil {
		log.Fatalf("Failed to get image data: %v", err)
	}
	if image == nil {
		log.Fatalf("Image %d not found", ids[0])
	}
	fmt.Printf("Image: %s\n", image)

	regions, err := g.Remote.GetRegionDescriptionsOfImage(ctx, image.ID)
	if err != nil {
		log.Fatalf("Failed to get regions: %v", err)
	}
	for _, region := range regions[:min(5, len(regions))] {
		fmt.Printf("  Region %s\n", region)
	}

	graph, err := g.Remote.GetSceneGraphOfImage(ctx, image.ID)
	if err != nil {
		log.Fatalf("Failed to get scene graph: %v", err)
	}
	fmt.Printf("Scene graph: %s\n", graph)

	qas, err := g.Remote.GetQAOfImage(ctx, image.ID)
	if err != nil {
		log.Fatalf("Failed to get question answers: %v", err)
	}
	for _, qa := range qas {
		fmt.Printf("  %s\n", qa)
	}
}
