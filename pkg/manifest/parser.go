// Package manifest provides YAML manifest parsing for Skua resources.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// ParseFile reads a YAML file and parses it into typed Skua resources.
// Multi-document YAML (separated by ---) is supported.
func ParseFile(path string) ([]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %s: %w", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses raw YAML bytes into typed Skua resources.
func ParseBytes(data []byte) ([]interface{}, error) {
	var resources []interface{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		// Decode into a yaml.Node first so the document can be decoded
		// again into its concrete type once the kind is known.
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decoding yaml document: %w", err)
		}
		if node.Kind == 0 {
			continue
		}

		var meta v1alpha1.TypeMeta
		if err := node.Decode(&meta); err != nil {
			return nil, fmt.Errorf("decoding type meta: %w", err)
		}
		if meta.Kind == "" && meta.APIVersion == "" {
			continue
		}

		resource, err := decodeResource(&node, meta.Kind)
		if err != nil {
			return nil, err
		}
		if err := validate(resource, meta.Kind); err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}

	return resources, nil
}

func decodeResource(node *yaml.Node, kind string) (interface{}, error) {
	switch kind {
	case v1alpha1.KindAgent:
		var r v1alpha1.Agent
		if err := node.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding Agent: %w", err)
		}
		r.Kind = kind
		defaultVersion(&r.TypeMeta)
		return &r, nil

	case v1alpha1.KindTask:
		var r v1alpha1.Task
		if err := node.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding Task: %w", err)
		}
		r.Kind = kind
		defaultVersion(&r.TypeMeta)
		return &r, nil

	case v1alpha1.KindThread:
		var r v1alpha1.Thread
		if err := node.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding Thread: %w", err)
		}
		r.Kind = kind
		defaultVersion(&r.TypeMeta)
		return &r, nil

	case v1alpha1.KindDocument:
		var r v1alpha1.Document
		if err := node.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding Document: %w", err)
		}
		r.Kind = kind
		defaultVersion(&r.TypeMeta)
		return &r, nil

	default:
		return nil, fmt.Errorf("unknown resource kind: %q", kind)
	}
}

func defaultVersion(tm *v1alpha1.TypeMeta) {
	if tm.APIVersion == "" {
		tm.APIVersion = v1alpha1.APIVersion
	}
}

// validate checks the fields every resource must carry.
func validate(resource interface{}, kind string) error {
	name := ""
	switch r := resource.(type) {
	case *v1alpha1.Agent:
		name = r.Metadata.Name
	case *v1alpha1.Task:
		name = r.Metadata.Name
	case *v1alpha1.Thread:
		name = r.Metadata.Name
	case *v1alpha1.Document:
		name = r.Metadata.Name
	}
	if name == "" {
		return fmt.Errorf("validation failed: %s name must not be empty", kind)
	}
	return nil
}
