package pipeline

import (
	"slices"
	"strings"

	"github.com/siherrmann/visualgenome/model"
)

// RelationshipRegions describes every relationship of the graph as a
// region spanning subject and object, phrased "subject predicate object"
// with the first alias of each object. The region id is the relationship id.
func RelationshipRegions(graph *model.Graph) []*model.Region {
	regions := make([]*model.Region, 0, len(graph.Relationships))
	for _, r := range graph.Relationships {
		x, y, w, h := union(r.Subject, r.Object)
		regions = append(regions, &model.Region{
			ID:      r.ID,
			Image:   graph.Image,
			ImageID: graph.ImageID,
			Phrase:  strings.Join([]string{firstName(r.Subject), r.Predicate, firstName(r.Object)}, " "),
			X:       x,
			Y:       y,
			Width:   w,
			Height:  h,
		})
	}
	return regions
}

// ObjectRegions describes every object by its first alias preceded by its
// attributes, e.g. "black small cat". Inline attributes come before the
// attribute records of the graph.
func ObjectRegions(graph *model.Graph) []*model.Region {
	attributes := make(map[*model.Object][]string, len(graph.Objects))
	for _, o := range graph.Objects {
		attributes[o] = append([]string{}, o.Attributes...)
	}
	for _, a := range graph.Attributes {
		if !slices.Contains(attributes[a.Object], a.Attribute) {
			attributes[a.Object] = append(attributes[a.Object], a.Attribute)
		}
	}

	regions := make([]*model.Region, 0, len(graph.Objects))
	for _, o := range graph.Objects {
		words := append(attributes[o], firstName(o))
		regions = append(regions, &model.Region{
			ID:      o.ID,
			Image:   graph.Image,
			ImageID: graph.ImageID,
			Phrase:  strings.Join(words, " "),
			X:       o.X,
			Y:       o.Y,
			Width:   o.Width,
			Height:  o.Height,
		})
	}
	return regions
}

func firstName(o *model.Object) string {
	if len(o.Names) == 0 {
		return ""
	}
	return o.Names[0]
}

func union(a *model.Object, b *model.Object) (int, int, int, int) {
	x := min(a.X, b.X)
	y := min(a.Y, b.Y)
	right := max(a.X+a.Width, b.X+b.Width)
	bottom := max(a.Y+a.Height, b.Y+b.Height)
	return x, y, right - x, bottom - y
}
