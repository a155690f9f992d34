package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Image represents the metadata of one dataset image
type Image struct {
	ID        int       `json:"id"`
	RID       uuid.UUID `json:"rid,omitempty"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CocoID    *int      `json:"coco_id,omitempty"`
	FlickrID  *int      `json:"flickr_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (i *Image) String() string {
	return fmt.Sprintf("id: %d, coco_id: %s, flickr_id: %s, width: %d, url: %s",
		i.ID, intPtrString(i.CocoID), intPtrString(i.FlickrID), i.Width, i.URL)
}

// Region represents a described rectangle of an image
type Region struct {
	ID        int       `json:"id"`
	Image     *Image    `json:"-"`
	ImageID   int       `json:"image_id"`
	Phrase    string    `json:"phrase"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Embedding []float32 `json:"embedding,omitempty"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

func (r *Region) String() string {
	return fmt.Sprintf("id: %d, x: %d, y: %d, width: %d, height: %d, phrase: %s, image: %d",
		r.ID, r.X, r.Y, r.Width, r.Height, r.Phrase, r.ImageID)
}

func intPtrString(i *int) string {
	if i == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *i)
}
