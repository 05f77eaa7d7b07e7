package services

import (
	"fmt"
	"strconv"

	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	pkgerrors "dashboard/pkg/errors"
)

// ModuleCard is a module attached to a contract card
type ModuleCard struct {
	Publisher string `json:"publisher"`
	ModuleID  string `json:"moduleId"`
}

// CardTracking identifies where a card was rendered
type CardTracking struct {
	Source    string `json:"source"`
	ItemIndex string `json:"itemIndex"`
}

// ContractCard is the uniform display record for one contract reference
type ContractCard struct {
	Key                 string        `json:"key"`
	Publisher           string        `json:"publisher"`
	ContractID          string        `json:"contractId"`
	TitleOverride       string        `json:"titleOverride,omitempty"`
	DescriptionOverride string        `json:"descriptionOverride,omitempty"`
	Modules             []ModuleCard  `json:"modules,omitempty"`
	Tracking            *CardTracking `json:"tracking,omitempty"`
	IsBeta              bool          `json:"isBeta,omitempty"`
}

// NormalizeContractRef maps a simple or extended reference to a ContractCard.
// Malformed references are rejected with a validation error.
func NormalizeContractRef(ref valueobjects.ContractRef) (ContractCard, error) {
	if ref == nil {
		return ContractCard{}, pkgerrors.NewValidationError("contract reference is nil")
	}

	id, err := valueobjects.ParsePublishedContractID(ref.Ref())
	if err != nil {
		return ContractCard{}, pkgerrors.NewValidationError(err.Error()).WithCause(err)
	}

	card := ContractCard{
		Publisher:  id.Publisher(),
		ContractID: id.ContractID(),
	}

	switch r := ref.(type) {
	case valueobjects.SimpleContractRef:
	case valueobjects.ExtendedContractRef:
		if len(r.Modules) > 0 {
			card.Modules = make([]ModuleCard, 0, len(r.Modules))
			for _, module := range r.Modules {
				moduleID, err := valueobjects.ParseModuleID(module)
				if err != nil {
					return ContractCard{}, pkgerrors.NewValidationError(err.Error()).WithCause(err)
				}
				card.Modules = append(card.Modules, ModuleCard{
					Publisher: moduleID.Publisher(),
					ModuleID:  moduleID.ModuleID(),
				})
			}
		}
		if r.Overrides != nil {
			card.TitleOverride = r.Overrides.Title
			card.DescriptionOverride = r.Overrides.Description
		}
	default:
		return ContractCard{}, pkgerrors.NewValidationError(fmt.Sprintf("unsupported contract reference %T", ref))
	}

	card.Key = card.Publisher + card.ContractID + card.TitleOverride
	return card, nil
}

// NormalizeCategory normalizes every contract of a category in order and
// stamps the category's tracking source and beta flag on each card
func NormalizeCategory(category *entities.Category) ([]ContractCard, error) {
	refs := category.Contracts()
	cards := make([]ContractCard, 0, len(refs))
	for i, ref := range refs {
		card, err := NormalizeContractRef(ref)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "category %s contract %d", category.ID(), i)
		}
		card.Tracking = &CardTracking{Source: category.ID(), ItemIndex: strconv.Itoa(i)}
		card.IsBeta = category.IsBeta()
		cards = append(cards, card)
	}
	return cards, nil
}
