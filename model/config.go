package model

import (
	"fmt"
	"path/filepath"

	"github.com/siherrmann/visualgenome/helper"
)

// MergePolicy decides what happens to fields of a repeated object fragment
type MergePolicy string

const (
	// MergeFirstWins keeps the first seen fragment and drops later ones
	MergeFirstWins MergePolicy = "first_wins"
	// MergeUnion appends unseen names, synset names and attributes of later fragments
	MergeUnion MergePolicy = "union"
)

// Validate reports an unknown policy. The empty policy is MergeFirstWins.
func (p MergePolicy) Validate() error {
	switch p {
	case "", MergeFirstWins, MergeUnion:
		return nil
	default:
		return fmt.Errorf("%w: unsupported merge policy %q", ErrInvalidConfig, string(p))
	}
}

// Config represents the locations and filters used when loading the corpus
type Config struct {
	// Local corpus
	DataDir      string `json:"data_dir"`
	ImageDataDir string `json:"image_data_dir"` // Per image scene graphs, see corpus.SplitByImage
	SynsetFile   string `json:"synset_file"`

	// Scene graph window over the per image files
	StartIndex       int `json:"start_index"`
	EndIndex         int `json:"end_index"` // < 1 means all files
	MinRelationships int `json:"min_relationships"`
	MaxRelationships int `json:"max_relationships"`

	// Object fragment merging
	MergePolicy MergePolicy `json:"merge_policy"`

	// Remote API
	APIHost     string `json:"api_host"`
	APIBasePath string `json:"api_base_path"`
}

// DefaultConfig returns the layout of the distributed corpus
func DefaultConfig() Config {
	return Config{
		DataDir:          "data",
		ImageDataDir:     filepath.Join("data", "by-id"),
		SynsetFile:       filepath.Join("data", "synsets.json"),
		StartIndex:       0,
		EndIndex:         -1,
		MinRelationships: 0,
		MaxRelationships: 100,
		MergePolicy:      MergeFirstWins,
		APIHost:          "visualgenome.org",
		APIBasePath:      "/api/v0",
	}
}

// NewConfigFromEnv returns DefaultConfig overridden by VISUALGENOME_* variables.
// Paths derived from the data dir follow it unless set explicitly. Invalid
// values keep their default.
func NewConfigFromEnv() Config {
	helper.LoadEnv()

	c := DefaultConfig()
	c.DataDir = helper.GetEnvString("VISUALGENOME_DATA_DIR", c.DataDir)
	c.ImageDataDir = helper.GetEnvString("VISUALGENOME_IMAGE_DATA_DIR", filepath.Join(c.DataDir, "by-id"))
	c.SynsetFile = helper.GetEnvString("VISUALGENOME_SYNSET_FILE", filepath.Join(c.DataDir, "synsets.json"))
	c.MinRelationships = helper.GetEnvInt("VISUALGENOME_MIN_RELATIONSHIPS", c.MinRelationships)
	c.MaxRelationships = helper.GetEnvInt("VISUALGENOME_MAX_RELATIONSHIPS", c.MaxRelationships)
	policy := MergePolicy(helper.GetEnvString("VISUALGENOME_MERGE_POLICY", string(c.MergePolicy)))
	if policy.Validate() == nil && policy != "" {
		c.MergePolicy = policy
	}
	c.APIHost = helper.GetEnvString("VISUALGENOME_API_HOST", c.APIHost)
	return c
}

// AcceptsRelationshipCount reports whether a graph with n relationships is inside the window.
func (c Config) AcceptsRelationshipCount(n int) bool {
	return c.MinRelationships <= n && n <= c.MaxRelationships
}
