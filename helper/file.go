package helper

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadJSONFile decodes the whole file at path into v.
func ReadJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return NewError("open "+filepath.Base(path), err)
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(v)
	if err != nil {
		return NewError("decode "+filepath.Base(path), err)
	}
	return nil
}

// WriteJSONFile encodes v to path, replacing any existing file.
func WriteJSONFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return NewError("create "+filepath.Base(path), err)
	}

	err = json.NewEncoder(f).Encode(v)
	if err != nil {
		f.Close()
		return NewError("encode "+filepath.Base(path), err)
	}
	return f.Close()
}
