package entities

import (
	"fmt"

	"dashboard/domain/core/valueobjects"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/utils"
)

// CategoryDocument is the static shape of a category as it appears in the registry
type CategoryDocument struct {
	ID          string                    `json:"id" yaml:"id" validate:"required,max=64"`
	Name        string                    `json:"name" yaml:"name" validate:"required"`
	DisplayName string                    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description string                    `json:"description" yaml:"description" validate:"required"`
	LearnMore   string                    `json:"learnMore,omitempty" yaml:"learnMore,omitempty" validate:"omitempty,url"`
	Contracts   valueobjects.ContractRefs `json:"contracts" yaml:"contracts" validate:"required,min=1"`
	IsBeta      bool                      `json:"isBeta,omitempty" yaml:"isBeta,omitempty"`
}

// Category is an immutable, validated category descriptor
type Category struct {
	doc CategoryDocument
}

// NewCategory validates a document and every contract reference in it
func NewCategory(doc CategoryDocument) (*Category, error) {
	if err := utils.ValidateStruct(doc); err != nil {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("category %q: %v", doc.ID, err))
	}

	for i, ref := range doc.Contracts {
		if err := validateContractRef(ref); err != nil {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("category %q contract %d: %v", doc.ID, i, err)).WithCause(err)
		}
	}

	doc.Contracts = cloneRefs(doc.Contracts)
	return &Category{doc: doc}, nil
}

func validateContractRef(ref valueobjects.ContractRef) error {
	if _, err := valueobjects.ParsePublishedContractID(ref.Ref()); err != nil {
		return err
	}
	ext, ok := ref.(valueobjects.ExtendedContractRef)
	if !ok {
		return nil
	}
	for _, module := range ext.Modules {
		if _, err := valueobjects.ParseModuleID(module); err != nil {
			return err
		}
	}
	return nil
}

func cloneRefs(refs valueobjects.ContractRefs) valueobjects.ContractRefs {
	out := make(valueobjects.ContractRefs, len(refs))
	for i, ref := range refs {
		if ext, ok := ref.(valueobjects.ExtendedContractRef); ok {
			ext.Modules = append([]string(nil), ext.Modules...)
			if ext.Overrides != nil {
				overrides := *ext.Overrides
				ext.Overrides = &overrides
			}
			ref = ext
		}
		out[i] = ref
	}
	return out
}

// Getters
func (c *Category) ID() string          { return c.doc.ID }
func (c *Category) Name() string        { return c.doc.Name }
func (c *Category) Description() string { return c.doc.Description }
func (c *Category) LearnMore() string   { return c.doc.LearnMore }
func (c *Category) IsBeta() bool        { return c.doc.IsBeta }

// Title returns the display name, falling back to the name
func (c *Category) Title() string {
	if c.doc.DisplayName != "" {
		return c.doc.DisplayName
	}
	return c.doc.Name
}

// Contracts returns a copy of the ordered contract references
func (c *Category) Contracts() valueobjects.ContractRefs {
	return cloneRefs(c.doc.Contracts)
}

// Document returns a copy of the underlying document
func (c *Category) Document() CategoryDocument {
	doc := c.doc
	doc.Contracts = cloneRefs(c.doc.Contracts)
	return doc
}
