package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedReference is returned for references that are not "publisher/id"
var ErrMalformedReference = errors.New("malformed reference")

// PublishedContractID identifies a published contract template as publisher/contract-id
// Value objects are immutable and have no identity beyond their value
type PublishedContractID struct {
	publisher  string
	contractID string
}

// ParsePublishedContractID parses "publisher/contract-id"
func ParsePublishedContractID(ref string) (PublishedContractID, error) {
	publisher, id, err := splitReference(ref)
	if err != nil {
		return PublishedContractID{}, err
	}
	return PublishedContractID{publisher: publisher, contractID: id}, nil
}

// Publisher returns the publisher segment
func (id PublishedContractID) Publisher() string { return id.publisher }

// ContractID returns the contract segment
func (id PublishedContractID) ContractID() string { return id.contractID }

// String returns "publisher/contract-id"
func (id PublishedContractID) String() string {
	return id.publisher + "/" + id.contractID
}

// IsZero checks if the id is the zero value
func (id PublishedContractID) IsZero() bool {
	return id.publisher == "" && id.contractID == ""
}

// ModuleID identifies a module extension as publisher/module-id
type ModuleID struct {
	publisher string
	moduleID  string
}

// ParseModuleID parses "publisher/module-id"
func ParseModuleID(ref string) (ModuleID, error) {
	publisher, id, err := splitReference(ref)
	if err != nil {
		return ModuleID{}, err
	}
	return ModuleID{publisher: publisher, moduleID: id}, nil
}

// Publisher returns the publisher segment
func (id ModuleID) Publisher() string { return id.publisher }

// ModuleID returns the module segment
func (id ModuleID) ModuleID() string { return id.moduleID }

// String returns "publisher/module-id"
func (id ModuleID) String() string {
	return id.publisher + "/" + id.moduleID
}

// splitReference splits on the first "/" and requires exactly two non-empty segments.
func splitReference(ref string) (string, string, error) {
	publisher, rest, found := strings.Cut(ref, "/")
	if !found || publisher == "" || rest == "" || strings.Contains(rest, "/") {
		return "", "", fmt.Errorf("%w %q: expected publisher/id", ErrMalformedReference, ref)
	}
	return publisher, rest, nil
}
