package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/visualgenome/core/scenegraph"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// attributeGroup is one image entry of the attributes file. Each object
// fragment carries its grouped attribute strings.
type attributeGroup struct {
	ImageID    *int                   `json:"image_id"`
	ID         *int                   `json:"id"`
	Attributes []scenegraph.RawObject `json:"attributes"`
}

// ExplodeAttributes turns the grouped attributes of one image into one
// record per attribute string. Ids start at counter, the next free id is
// returned.
func ExplodeAttributes(objects []scenegraph.RawObject, counter int) ([]scenegraph.RawAttribute, int) {
	records := []scenegraph.RawAttribute{}
	for _, o := range objects {
		for _, a := range o.Attributes {
			id, attribute := counter, a
			fragment := o
			fragment.Attributes = nil
			records = append(records, scenegraph.RawAttribute{
				AttributeID: &id,
				Attribute:   &attribute,
				Object:      &fragment,
				Synsets:     []string{},
			})
			counter++
		}
	}
	return records, counter
}

// MergeAttributes explodes the grouped attributes file into individually
// numbered records and attaches them to the matching image of the graphs
// file, which is rewritten in place. Ids are assigned from counter on,
// monotonic across the whole corpus, and the next free id is returned so
// a caller can thread it through several batches. Existing attributes of
// an image are replaced, so the merge can be repeated.
func (t *Transformer) MergeAttributes(ctx context.Context, attributesFile string, graphsFile string, counter int) (int, error) {
	var groups []attributeGroup
	err := helper.ReadJSONFile(attributesFile, &groups)
	if err != nil {
		return counter, helper.NewError("read attributes", err)
	}

	var graphs []map[string]json.RawMessage
	err = helper.ReadJSONFile(graphsFile, &graphs)
	if err != nil {
		return counter, helper.NewError("read corpus", err)
	}
	defer release()

	byImage := make(map[int]int, len(graphs))
	for i, g := range graphs {
		imageID, err := imageIDOfFields(g)
		if err != nil {
			return counter, helper.NewError(fmt.Sprintf("graph %d", i), err)
		}
		byImage[imageID] = i
	}

	merged := make(map[int][]scenegraph.RawAttribute, len(groups))
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return counter, helper.NewError("merge attributes", err)
		}

		var imageID int
		switch {
		case group.ImageID != nil:
			imageID = *group.ImageID
		case group.ID != nil:
			imageID = *group.ID
		default:
			return counter, fmt.Errorf("%w: attribute group %d without image_id", model.ErrMalformedRecord, i)
		}

		var records []scenegraph.RawAttribute
		records, counter = ExplodeAttributes(group.Attributes, counter)

		if _, ok := byImage[imageID]; !ok {
			t.log.Warn("Skipping attributes of unknown image", slog.Int("image_id", imageID), slog.Int("attributes", len(records)))
			continue
		}
		merged[imageID] = append(merged[imageID], records...)
	}

	for imageID, records := range merged {
		data, err := json.Marshal(records)
		if err != nil {
			return counter, helper.NewError("encode attributes", err)
		}
		graphs[byImage[imageID]]["attributes"] = data
	}

	tmp := graphsFile + ".tmp"
	err = helper.WriteJSONFile(tmp, graphs)
	if err != nil {
		return counter, helper.NewError("write corpus", err)
	}
	err = os.Rename(tmp, graphsFile)
	if err != nil {
		return counter, helper.NewError("replace corpus", err)
	}

	t.log.Info("Merged attributes", slog.Int("images", len(merged)), slog.Int("next_id", counter))

	return counter, nil
}

func imageIDOfFields(fields map[string]json.RawMessage) (int, error) {
	for _, key := range []string{"image_id", "id"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var id int
		err := json.Unmarshal(raw, &id)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", model.ErrMalformedRecord, key, err)
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: corpus record without image_id", model.ErrMalformedRecord)
}
