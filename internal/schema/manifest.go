package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var builtinFS embed.FS

//go:embed metaschema.json
var metaSchemaJSON []byte

// Load builds the catalog from the built-in manifests plus any *.yaml
// manifests found in extraDirs. A user manifest with the same key as a
// built-in descriptor replaces it.
func Load(extraDirs ...string) (*Catalog, error) {
	descriptors, err := loadBuiltin()
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		byKey[d.Key] = i
	}

	for _, dir := range extraDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read catalog dir %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
			}
			parsed, err := parseManifests(path, data)
			if err != nil {
				return nil, err
			}
			for _, d := range parsed {
				if i, ok := byKey[d.Key]; ok {
					descriptors[i] = d
					continue
				}
				byKey[d.Key] = len(descriptors)
				descriptors = append(descriptors, d)
			}
		}
	}

	return NewCatalog(descriptors)
}

// LoadBuiltin builds the catalog from the embedded manifests only.
func LoadBuiltin() (*Catalog, error) {
	descriptors, err := loadBuiltin()
	if err != nil {
		return nil, err
	}
	return NewCatalog(descriptors)
}

func loadBuiltin() ([]*Descriptor, error) {
	names, err := fs.Glob(builtinFS, "catalog/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to glob built-in manifests: %w", err)
	}
	sort.Strings(names)

	var descriptors []*Descriptor
	for _, name := range names {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in manifest %s: %w", name, err)
		}
		parsed, err := parseManifests(name, data)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, parsed...)
	}
	return descriptors, nil
}

// parseManifests parses a (possibly multi-document) YAML manifest file.
// Each document is validated against the embedded meta-schema before it is
// decoded into a Descriptor, so malformed manifests fail with a schema error
// naming the file rather than a confusing decode error downstream.
func parseManifests(name string, data []byte) ([]*Descriptor, error) {
	ms, err := compileMetaSchema()
	if err != nil {
		return nil, err
	}

	var descriptors []*Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for docIdx := 0; ; docIdx++ {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse manifest %s: %w", name, err)
		}
		if raw == nil {
			continue
		}

		// Round-trip through JSON so the validator sees JSON-typed values.
		jsonDoc, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize manifest %s doc %d: %w", name, docIdx, err)
		}
		var doc any
		if err := json.Unmarshal(jsonDoc, &doc); err != nil {
			return nil, fmt.Errorf("failed to normalize manifest %s doc %d: %w", name, docIdx, err)
		}
		if err := ms.Validate(doc); err != nil {
			return nil, fmt.Errorf("manifest %s doc %d does not match the catalog schema: %w", name, docIdx, err)
		}

		var d Descriptor
		node, err := yamlDocAt(data, docIdx)
		if err != nil {
			return nil, err
		}
		if err := node.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode manifest %s doc %d: %w", name, docIdx, err)
		}
		descriptors = append(descriptors, &d)
	}
	return descriptors, nil
}

// yamlDocAt re-decodes document idx as a yaml.Node so custom unmarshalers run.
func yamlDocAt(data []byte, idx int) (*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for i := 0; ; i++ {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			return nil, fmt.Errorf("failed to re-read manifest doc %d: %w", idx, err)
		}
		if i == idx {
			return &node, nil
		}
	}
}

var (
	metaSchemaOnce sync.Once
	metaSchema     *jsonschema.Schema
	metaSchemaErr  error
)

// compileMetaSchema compiles the embedded meta-schema once; the schema text
// is a build-time constant.
func compileMetaSchema() (*jsonschema.Schema, error) {
	metaSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("metaschema.json", bytes.NewReader(metaSchemaJSON)); err != nil {
			metaSchemaErr = fmt.Errorf("failed to load catalog meta-schema: %w", err)
			return
		}
		schema, err := compiler.Compile("metaschema.json")
		if err != nil {
			metaSchemaErr = fmt.Errorf("failed to compile catalog meta-schema: %w", err)
			return
		}
		metaSchema = schema
	})
	return metaSchema, metaSchemaErr
}
