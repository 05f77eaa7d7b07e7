package valueobjects

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ContractRef is one entry of a category's contract list. It is either a
// SimpleContractRef ("publisher/contract-id") or an ExtendedContractRef
// ([ref, modules, overrides]).
type ContractRef interface {
	// Ref returns the raw "publisher/contract-id" element
	Ref() string
	isContractRef()
}

// ContractOverrides replaces the published title and description on a card
type ContractOverrides struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SimpleContractRef is a bare "publisher/contract-id"
type SimpleContractRef struct {
	ID string
}

// Ref implements ContractRef
func (r SimpleContractRef) Ref() string { return r.ID }

func (SimpleContractRef) isContractRef() {}

// ExtendedContractRef pairs a contract with module references and display overrides
type ExtendedContractRef struct {
	ID        string
	Modules   []string
	Overrides *ContractOverrides
}

// Ref implements ContractRef
func (r ExtendedContractRef) Ref() string { return r.ID }

func (ExtendedContractRef) isContractRef() {}

// ContractRefs is an ordered contract list. It encodes the variants in their
// wire shape: a string, or a tuple of up to three elements.
type ContractRefs []ContractRef

// MarshalJSON implements json.Marshaler
func (refs ContractRefs) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, 0, len(refs))
	for _, ref := range refs {
		switch r := ref.(type) {
		case SimpleContractRef:
			out = append(out, r.ID)
		case ExtendedContractRef:
			out = append(out, r.tuple())
		default:
			return nil, fmt.Errorf("unsupported contract reference %T", ref)
		}
	}
	return json.Marshal(out)
}

func (r ExtendedContractRef) tuple() []interface{} {
	modules := r.Modules
	if modules == nil {
		modules = []string{}
	}
	tuple := []interface{}{r.ID, modules}
	if r.Overrides != nil {
		tuple = append(tuple, r.Overrides)
	}
	return tuple
}

// UnmarshalJSON implements json.Unmarshaler
func (refs *ContractRefs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("contract list must be an array: %w", err)
	}

	out := make(ContractRefs, 0, len(raw))
	for i, item := range raw {
		ref, err := decodeJSONRef(item)
		if err != nil {
			return fmt.Errorf("contract %d: %w", i, err)
		}
		out = append(out, ref)
	}
	*refs = out
	return nil
}

func decodeJSONRef(item json.RawMessage) (ContractRef, error) {
	item = bytes.TrimSpace(item)
	if len(item) > 0 && item[0] == '"' {
		var id string
		if err := json.Unmarshal(item, &id); err != nil {
			return nil, err
		}
		return SimpleContractRef{ID: id}, nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(item, &tuple); err != nil {
		return nil, errors.New("entry must be a string or a tuple")
	}
	if len(tuple) == 0 || len(tuple) > 3 {
		return nil, fmt.Errorf("tuple must have 1 to 3 elements, got %d", len(tuple))
	}

	ref := ExtendedContractRef{}
	if err := json.Unmarshal(tuple[0], &ref.ID); err != nil {
		return nil, fmt.Errorf("tuple element 0 must be a string: %w", err)
	}
	if len(tuple) > 1 {
		if err := json.Unmarshal(tuple[1], &ref.Modules); err != nil {
			return nil, fmt.Errorf("tuple element 1 must be a list of modules: %w", err)
		}
	}
	if len(tuple) > 2 {
		if err := json.Unmarshal(tuple[2], &ref.Overrides); err != nil {
			return nil, fmt.Errorf("tuple element 2 must be an overrides object: %w", err)
		}
	}
	return ref, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (refs *ContractRefs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: contract list must be a sequence", node.Line)
	}

	out := make(ContractRefs, 0, len(node.Content))
	for _, item := range node.Content {
		ref, err := decodeYAMLRef(item)
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		out = append(out, ref)
	}
	*refs = out
	return nil
}

func decodeYAMLRef(node *yaml.Node) (ContractRef, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return SimpleContractRef{ID: node.Value}, nil
	case yaml.SequenceNode:
	default:
		return nil, errors.New("entry must be a string or a tuple")
	}

	tuple := node.Content
	if len(tuple) == 0 || len(tuple) > 3 {
		return nil, fmt.Errorf("tuple must have 1 to 3 elements, got %d", len(tuple))
	}
	if tuple[0].Kind != yaml.ScalarNode {
		return nil, errors.New("tuple element 0 must be a string")
	}

	ref := ExtendedContractRef{ID: tuple[0].Value}
	if len(tuple) > 1 {
		if err := tuple[1].Decode(&ref.Modules); err != nil {
			return nil, fmt.Errorf("tuple element 1 must be a list of modules: %w", err)
		}
	}
	if len(tuple) > 2 {
		if err := tuple[2].Decode(&ref.Overrides); err != nil {
			return nil, fmt.Errorf("tuple element 2 must be an overrides object: %w", err)
		}
	}
	return ref, nil
}
