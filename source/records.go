package source

import (
	"fmt"

	"github.com/siherrmann/visualgenome/model"
)

// RawImage is an image metadata record. The local corpus keys the id as
// image_id, the remote API as id.
type RawImage struct {
	ID       *int   `json:"id"`
	ImageID  *int   `json:"image_id"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	CocoID   *int   `json:"coco_id"`
	FlickrID *int   `json:"flickr_id"`
}

// RawRegion is one region description.
type RawRegion struct {
	RegionID *int   `json:"region_id"`
	ID       *int   `json:"id"`
	ImageID  *int   `json:"image_id"`
	Image    *int   `json:"image"`
	Phrase   string `json:"phrase"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// RawQA is one question answer pair. The local corpus uses qa_id,
// image_id, q_objects and a_objects, the remote API id, image,
// question_objects and answer_objects.
type RawQA struct {
	QAID            *int          `json:"qa_id"`
	ID              *int          `json:"id"`
	ImageID         *int          `json:"image_id"`
	Image           *int          `json:"image"`
	Question        string        `json:"question"`
	Answer          string        `json:"answer"`
	QObjects        []RawQAObject `json:"q_objects"`
	AObjects        []RawQAObject `json:"a_objects"`
	QuestionObjects []RawQAObject `json:"question_objects"`
	AnswerObjects   []RawQAObject `json:"answer_objects"`
}

// RawQAObject is an entity span with its synset inline.
type RawQAObject struct {
	StartIdx         int    `json:"entity_idx_start"`
	EndIdx           int    `json:"entity_idx_end"`
	Name             string `json:"entity_name"`
	SynsetName       string `json:"synset_name"`
	SynsetDefinition string `json:"synset_definition"`
}

func firstOf(ids ...*int) (int, bool) {
	for _, id := range ids {
		if id != nil {
			return *id, true
		}
	}
	return 0, false
}

// ParseImageData builds an Image from its metadata record.
func ParseImageData(raw RawImage) (*model.Image, error) {
	id, ok := firstOf(raw.ID, raw.ImageID)
	if !ok {
		return nil, fmt.Errorf("%w: image without id", model.ErrMalformedRecord)
	}
	return &model.Image{
		ID:       id,
		URL:      raw.URL,
		Width:    raw.Width,
		Height:   raw.Height,
		CocoID:   raw.CocoID,
		FlickrID: raw.FlickrID,
	}, nil
}

// ParseRegionDescriptions builds the regions of one image. The image may
// be nil when its metadata is unknown, the id then comes from the records.
func ParseRegionDescriptions(raws []RawRegion, image *model.Image) ([]*model.Region, error) {
	regions := make([]*model.Region, 0, len(raws))
	for i, raw := range raws {
		id, ok := firstOf(raw.RegionID, raw.ID)
		if !ok {
			return nil, fmt.Errorf("%w: region %d without region_id", model.ErrMalformedRecord, i)
		}

		imageID, _ := firstOf(raw.ImageID, raw.Image)
		if image != nil {
			imageID = image.ID
		}

		regions = append(regions, &model.Region{
			ID:      id,
			Image:   image,
			ImageID: imageID,
			Phrase:  raw.Phrase,
			X:       raw.X,
			Y:       raw.Y,
			Width:   raw.Width,
			Height:  raw.Height,
		})
	}
	return regions, nil
}

// ParseQA builds question answer pairs and links them to the known
// images. Synsets of the entity spans are shared per name within the call.
func ParseQA(raws []RawQA, images map[int]*model.Image) ([]*model.QA, error) {
	synsets := model.SynsetMap{}
	qas := make([]*model.QA, 0, len(raws))

	for i, raw := range raws {
		id, ok := firstOf(raw.QAID, raw.ID)
		if !ok {
			return nil, fmt.Errorf("%w: qa %d without qa_id", model.ErrMalformedRecord, i)
		}
		imageID, ok := firstOf(raw.ImageID, raw.Image)
		if !ok {
			return nil, fmt.Errorf("%w: qa %d without image_id", model.ErrMalformedRecord, id)
		}

		questionObjects := raw.QuestionObjects
		if questionObjects == nil {
			questionObjects = raw.QObjects
		}
		answerObjects := raw.AnswerObjects
		if answerObjects == nil {
			answerObjects = raw.AObjects
		}

		qas = append(qas, &model.QA{
			ID:              id,
			Image:           images[imageID],
			ImageID:         imageID,
			Question:        raw.Question,
			Answer:          raw.Answer,
			QuestionObjects: parseQAObjects(questionObjects, synsets),
			AnswerObjects:   parseQAObjects(answerObjects, synsets),
		})
	}
	return qas, nil
}

func parseQAObjects(raws []RawQAObject, synsets model.SynsetMap) []*model.QAObject {
	objects := make([]*model.QAObject, 0, len(raws))
	for _, raw := range raws {
		objects = append(objects, &model.QAObject{
			StartIdx: raw.StartIdx,
			EndIdx:   raw.EndIdx,
			Name:     raw.Name,
			Synset:   ParseSynset(raw.SynsetName, raw.SynsetDefinition, synsets),
		})
	}
	return objects
}

// ParseSynset returns the shared record for name, creating it on first
// sight. An empty name has no synset.
func ParseSynset(name string, definition string, synsets model.SynsetMap) *model.Synset {
	if name == "" {
		return nil
	}
	s, ok := synsets[name]
	if !ok {
		s = &model.Synset{Name: name, Definition: definition}
		synsets[name] = s
	}
	return s
}

// imageMap indexes images by id.
func imageMap(images []*model.Image) map[int]*model.Image {
	m := make(map[int]*model.Image, len(images))
	for _, image := range images {
		m[image.ID] = image
	}
	return m
}
