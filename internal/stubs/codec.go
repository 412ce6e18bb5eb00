package stubs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// stubMagic prefixes every generated catalog so that foreign .dll files
// are rejected early with a clear error.
var stubMagic = []byte("USHSTUB1")

// Encode serialises a catalog into the binary stub form.
func Encode(cat *Catalog) ([]byte, error) {
	payload, err := msgpack.Marshal(cat)
	if err != nil {
		return nil, fmt.Errorf("encode stub catalog: %w", err)
	}
	out := make([]byte, 0, len(stubMagic)+len(payload))
	out = append(out, stubMagic...)
	out = append(out, payload...)
	return out, nil
}

// Decode reads a catalog from the binary stub form.
func Decode(data []byte) (*Catalog, error) {
	if !bytes.HasPrefix(data, stubMagic) {
		return nil, fmt.Errorf("not a stub catalog (missing %q header)", stubMagic)
	}
	var cat Catalog
	if err := msgpack.Unmarshal(data[len(stubMagic):], &cat); err != nil {
		return nil, fmt.Errorf("decode stub catalog: %w", err)
	}
	return &cat, nil
}

// ReadFile loads a stub catalog from disk.
func ReadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from configuration
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// WriteFile stores a stub catalog to disk.
func WriteFile(path string, cat *Catalog) error {
	data, err := Encode(cat)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// CompileJSON converts a JSON stub description (the stubgen input format)
// into a catalog.
func CompileJSON(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse stub description: %w", err)
	}
	if cat.Assembly == "" {
		return nil, fmt.Errorf("stub description missing assembly name")
	}
	return &cat, nil
}
