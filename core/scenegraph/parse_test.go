package scenegraph

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/siherrmann/visualgenome/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catOnTable = `{
	"image_id": 1,
	"relationships": [
		{
			"relationship_id": 1,
			"predicate": "on",
			"subject": {"object_id": 5, "x": 1, "y": 2, "w": 10, "h": 10, "name": "cat", "synsets": ["cat.n.01"]},
			"object": {"object_id": 6, "x": 3, "y": 4, "w": 20, "h": 20, "name": "table", "synsets": ["table.n.02"]},
			"synsets": ["on.r.01"]
		}
	]
}`

const catReused = `{
	"image_id": 1,
	"relationships": [
		{
			"relationship_id": 1,
			"predicate": "on",
			"subject": {"object_id": 5, "x": 1, "y": 2, "w": 10, "h": 10, "name": "cat"},
			"object": {"object_id": 6, "x": 3, "y": 4, "w": 20, "h": 20, "name": "table"},
			"synsets": ["on.r.01"]
		},
		{
			"relationship_id": 2,
			"predicate": "next to",
			"subject": {"object_id": 5, "x": 1, "y": 2, "w": 10, "h": 10, "name": "kitten", "attributes": ["small"]},
			"object": {"object_id": 7, "x": 30, "y": 4, "width": 5, "height": 5, "names": ["cup", "mug"]},
			"synsets": []
		}
	]
}`

func mustParse(t *testing.T, data string, policy model.MergePolicy) *model.Graph {
	t.Helper()
	graph, err := ParseJSON([]byte(data), 1, policy)
	require.NoError(t, err, "Expected ParseJSON to not return an error")
	return graph
}

func TestParse(t *testing.T) {
	t.Run("Two objects and one relationship", func(t *testing.T) {
		graph := mustParse(t, catOnTable, model.MergeFirstWins)

		require.Len(t, graph.Objects, 2)
		require.Len(t, graph.Relationships, 1)
		assert.Empty(t, graph.Attributes)
		assert.Equal(t, 5, graph.Objects[0].ID)
		assert.Equal(t, 6, graph.Objects[1].ID)

		rel := graph.Relationships[0]
		assert.Equal(t, 1, rel.ID)
		assert.Equal(t, "on", rel.Predicate)
		assert.Same(t, graph.Objects[0], rel.Subject, "Expected subject to be the arena instance")
		assert.Same(t, graph.Objects[1], rel.Object, "Expected object to be the arena instance")
		assert.Equal(t, []string{"on.r.01"}, rel.SynsetNames)
		assert.Nil(t, rel.Synsets, "Expected synsets to stay unresolved")

		cat := graph.Objects[0]
		assert.Equal(t, []string{"cat"}, cat.Names)
		assert.Equal(t, 10, cat.Width)
		assert.Equal(t, 10, cat.Height)
		assert.Equal(t, 1, cat.X)
		assert.Equal(t, 2, cat.Y)
		assert.NoError(t, graph.Validate())
	})

	t.Run("Reused object id does not create a duplicate", func(t *testing.T) {
		graph := mustParse(t, catReused, model.MergeFirstWins)

		require.Len(t, graph.Objects, 3, "Expected one object per distinct id")
		require.Len(t, graph.Relationships, 2)
		assert.Same(t, graph.Relationships[0].Subject, graph.Relationships[1].Subject)
		assert.Equal(t, []string{"cat"}, graph.Relationships[1].Subject.Names, "Expected first seen names to win")
		assert.Empty(t, graph.Relationships[1].Subject.Attributes)
		assert.Equal(t, []string{"cup", "mug"}, graph.Objects[2].Names)
		assert.Equal(t, 5, graph.Objects[2].Width)
	})

	t.Run("Union policy merges later fragments", func(t *testing.T) {
		graph := mustParse(t, catReused, model.MergeUnion)

		require.Len(t, graph.Objects, 3)
		cat := graph.Objects[0]
		assert.Equal(t, []string{"cat", "kitten"}, cat.Names)
		assert.Equal(t, []string{"small"}, cat.Attributes)
	})

	t.Run("Unknown policy fails without repeated ids", func(t *testing.T) {
		graph, err := ParseJSON([]byte(catOnTable), 1, model.MergePolicy("firstwins"))

		assert.Nil(t, graph)
		assert.ErrorIs(t, err, model.ErrInvalidConfig)
	})

	t.Run("Duplicate attribute id", func(t *testing.T) {
		data := `{
			"image_id": 1,
			"relationships": [],
			"attributes": [
				{"attribute_id": 10, "attribute": "black", "object": {"object_id": 5, "x": 0, "y": 0, "w": 1, "h": 1, "names": ["cat"]}, "synsets": []},
				{"attribute_id": 10, "attribute": "small", "object": {"object_id": 5, "x": 0, "y": 0, "w": 1, "h": 1, "names": ["cat"]}, "synsets": []}
			]
		}`

		graph, err := ParseJSON([]byte(data), 1, model.MergeFirstWins)

		assert.Nil(t, graph)
		assert.ErrorIs(t, err, model.ErrMalformedRecord)
		assert.Contains(t, err.Error(), "duplicate attribute id 10")
	})

	t.Run("Attribute records share the arena objects", func(t *testing.T) {
		data := `{
			"image_id": 1,
			"relationships": [
				{"relationship_id": 1, "predicate": "on",
				 "subject": {"object_id": 5, "x": 0, "y": 0, "w": 1, "h": 1, "name": "cat"},
				 "object": {"object_id": 6, "x": 0, "y": 0, "w": 1, "h": 1, "name": "table"},
				 "synsets": []}
			],
			"attributes": [
				{"attribute_id": 10, "attribute": "black", "object": {"object_id": 5, "x": 0, "y": 0, "w": 1, "h": 1, "names": ["cat"]}, "synsets": ["black.s.01"]},
				{"attribute_id": 11, "attribute": "red", "object": {"object_id": 8, "x": 0, "y": 0, "w": 1, "h": 1, "names": ["ball"]}, "synsets": []}
			]
		}`

		graph := mustParse(t, data, model.MergeFirstWins)

		require.Len(t, graph.Attributes, 2)
		require.Len(t, graph.Objects, 3)
		assert.Same(t, graph.Objects[0], graph.Attributes[0].Object)
		assert.Same(t, graph.Objects[2], graph.Attributes[1].Object)
		assert.Equal(t, []string{"black.s.01"}, graph.Attributes[0].SynsetNames)
		assert.NoError(t, graph.Validate())
	})

	t.Run("Standalone objects join the arena", func(t *testing.T) {
		data := `{"image_id": 1, "relationships": [], "objects": [{"object_id": 9, "x": 0, "y": 0, "w": 2, "h": 2, "names": ["tree"], "synsets": []}]}`

		graph := mustParse(t, data, model.MergeFirstWins)

		require.Len(t, graph.Objects, 1)
		assert.Equal(t, 9, graph.Objects[0].ID)
	})

	t.Run("Empty graph", func(t *testing.T) {
		graph := mustParse(t, `{"image_id": 1, "relationships": []}`, model.MergeFirstWins)

		assert.NotNil(t, graph.Objects)
		assert.Empty(t, graph.Objects)
		assert.Empty(t, graph.Relationships)
	})
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "Relationship without predicate",
			data: `{"relationships": [{"relationship_id": 1, "subject": {"object_id": 1, "x": 0, "y": 0, "w": 1, "h": 1, "name": "a"}, "object": {"object_id": 2, "x": 0, "y": 0, "w": 1, "h": 1, "name": "b"}}]}`,
		},
		{
			name: "Relationship without id",
			data: `{"relationships": [{"predicate": "on", "subject": {"object_id": 1, "x": 0, "y": 0, "w": 1, "h": 1, "name": "a"}, "object": {"object_id": 2, "x": 0, "y": 0, "w": 1, "h": 1, "name": "b"}}]}`,
		},
		{
			name: "Relationship without object",
			data: `{"relationships": [{"relationship_id": 1, "predicate": "on", "subject": {"object_id": 1, "x": 0, "y": 0, "w": 1, "h": 1, "name": "a"}}]}`,
		},
		{
			name: "Subject without geometry",
			data: `{"relationships": [{"relationship_id": 1, "predicate": "on", "subject": {"object_id": 1, "name": "a"}, "object": {"object_id": 2, "x": 0, "y": 0, "w": 1, "h": 1, "name": "b"}}]}`,
		},
		{
			name: "Object without object_id",
			data: `{"relationships": [{"relationship_id": 1, "predicate": "on", "subject": {"object_id": 1, "x": 0, "y": 0, "w": 1, "h": 1, "name": "a"}, "object": {"x": 0, "y": 0, "w": 1, "h": 1, "name": "b"}}]}`,
		},
		{
			name: "Attribute without object",
			data: `{"relationships": [], "attributes": [{"attribute_id": 1, "attribute": "red"}]}`,
		},
		{
			name: "Invalid json",
			data: `{"relationships": [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := ParseJSON([]byte(tt.data), 1, model.MergeFirstWins)

			assert.Nil(t, graph, "Expected no partial graph")
			assert.ErrorIs(t, err, model.ErrMalformedRecord)
		})
	}
}

func TestSerialize(t *testing.T) {
	t.Run("Round trip keeps ids, predicates and geometry", func(t *testing.T) {
		first := mustParse(t, catReused, model.MergeFirstWins)

		data, err := SerializeJSON(first)
		require.NoError(t, err)
		second, err := ParseJSON(data, 1, model.MergeFirstWins)
		require.NoError(t, err)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Round trip mismatch (-first +second):\n%s", diff)
		}
	})

	t.Run("Serialized shape uses object_id, w and h", func(t *testing.T) {
		graph := mustParse(t, catOnTable, model.MergeFirstWins)

		data, err := SerializeJSON(graph)
		require.NoError(t, err)

		var generic map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &generic))
		assert.Equal(t, float64(1), generic["image_id"])

		rels := generic["relationships"].([]interface{})
		require.Len(t, rels, 1)
		rel := rels[0].(map[string]interface{})
		assert.Equal(t, float64(1), rel["relationship_id"])
		assert.Equal(t, "on", rel["predicate"])
		assert.Equal(t, []interface{}{"on.r.01"}, rel["synsets"])

		subject := rel["subject"].(map[string]interface{})
		assert.Equal(t, float64(5), subject["object_id"])
		assert.Equal(t, float64(10), subject["w"])
		assert.Equal(t, float64(10), subject["h"])
		assert.Equal(t, []interface{}{"cat"}, subject["names"])
		assert.NotContains(t, subject, "name")
		assert.NotContains(t, subject, "width")
		assert.NotContains(t, subject, "id")
	})

	t.Run("Resolved synsets are flattened to names", func(t *testing.T) {
		graph := mustParse(t, catOnTable, model.MergeFirstWins)
		synsets := model.SynsetMap{
			"cat.n.01":   {Name: "cat.n.01"},
			"table.n.02": {Name: "table.n.02"},
			"on.r.01":    {Name: "on.r.01"},
		}
		require.NoError(t, ResolveSynsets(graph, synsets))

		raw := Serialize(graph)

		names := append([]string{}, raw.Relationships[0].Synsets...)
		names = append(names, raw.Relationships[0].Subject.Synsets...)
		names = append(names, raw.Relationships[0].Object.Synsets...)
		sort.Strings(names)
		assert.Equal(t, []string{"cat.n.01", "on.r.01", "table.n.02"}, names)
	})

	t.Run("Unreferenced objects are kept", func(t *testing.T) {
		graph := mustParse(t, catOnTable, model.MergeFirstWins)
		graph.Objects = append(graph.Objects, &model.Object{ID: 42, Names: []string{"sky"}, Width: 100, Height: 30})

		raw := Serialize(graph)

		require.Len(t, raw.Objects, 1)
		assert.Equal(t, 42, *raw.Objects[0].ObjectID)
	})
}
