package scenegraph

// Raw schema variants as they appear on disk or on the wire. Every key
// variant is a separate field with presence tracked by a pointer, the
// normalizer turns them into one canonical shape.

// RawObject is an object fragment of the native scene graph schema.
type RawObject struct {
	ObjectID   *int     `json:"object_id,omitempty"`
	ID         *int     `json:"id,omitempty"`
	X          *int     `json:"x,omitempty"`
	Y          *int     `json:"y,omitempty"`
	W          *int     `json:"w,omitempty"`
	H          *int     `json:"h,omitempty"`
	Width      *int     `json:"width,omitempty"`
	Height     *int     `json:"height,omitempty"`
	Name       *string  `json:"name,omitempty"`
	Names      []string `json:"names,omitempty"`
	Synsets    []string `json:"synsets"`
	Attributes []string `json:"attributes,omitempty"`
}

// RawRelationship is a relationship of the native schema with embedded
// subject and object fragments.
type RawRelationship struct {
	RelationshipID *int       `json:"relationship_id,omitempty"`
	Predicate      *string    `json:"predicate,omitempty"`
	Object         *RawObject `json:"object,omitempty"`
	Subject        *RawObject `json:"subject,omitempty"`
	Synsets        []string   `json:"synsets"`
}

// RawAttribute is one attribute record as written by corpus.MergeAttributes.
type RawAttribute struct {
	AttributeID *int       `json:"attribute_id,omitempty"`
	Attribute   *string    `json:"attribute,omitempty"`
	Object      *RawObject `json:"object,omitempty"`
	Synsets     []string   `json:"synsets"`
}

// RawGraph is the per image scene graph file.
type RawGraph struct {
	ImageID       *int              `json:"image_id,omitempty"`
	Relationships []RawRelationship `json:"relationships"`
	Attributes    []RawAttribute    `json:"attributes,omitempty"`
	Objects       []RawObject       `json:"objects,omitempty"`
}

// RawVRDImage is one image of the VRD dataset. Objects are addressed by
// their position in Objects.
type RawVRDImage struct {
	PhotoID       *int             `json:"photo_id"`
	Filename      string           `json:"filename"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	Objects       []RawVRDObject   `json:"objects"`
	Relationships []RawVRDRelation `json:"relationships"`
}

type RawVRDObject struct {
	BBox       *RawVRDBox        `json:"bbox"`
	Names      []string          `json:"names"`
	Attributes []RawVRDAttribute `json:"attributes"`
}

type RawVRDBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type RawVRDAttribute struct {
	Attribute string `json:"attribute"`
}

type RawVRDRelation struct {
	Objects      []int  `json:"objects"`
	Relationship string `json:"relationship"`
}

// RawAPIGraph is the scene graph returned by the remote API.
type RawAPIGraph struct {
	BoundingBoxes []RawAPIBox       `json:"bounding_boxes"`
	Relationships []RawAPIRelation  `json:"relationships"`
	Attributes    []RawAPIAttribute `json:"attributes"`
}

type RawAPIBox struct {
	ID           *int                `json:"id"`
	X            int                 `json:"x"`
	Y            int                 `json:"y"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	BoxedObjects []RawAPIBoxedObject `json:"boxed_objects"`
}

type RawAPIBoxedObject struct {
	Name        string        `json:"name"`
	ObjectCanon []RawAPICanon `json:"object_canon"`
}

type RawAPIRelation struct {
	ID                *int          `json:"id"`
	Subject           *int          `json:"subject"`
	Object            *int          `json:"object"`
	Predicate         string        `json:"predicate"`
	RelationshipCanon []RawAPICanon `json:"relationship_canon"`
}

type RawAPIAttribute struct {
	ID             *int          `json:"id"`
	Subject        *int          `json:"subject"`
	Attribute      string        `json:"attribute"`
	AttributeCanon []RawAPICanon `json:"attribute_canon"`
}

type RawAPICanon struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}
