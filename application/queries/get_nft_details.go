package queries

import (
	"dashboard/application/services"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/utils"
)

// GetNFTDetailsQuery requests the NFT details panel of a contract
type GetNFTDetailsQuery struct {
	services.NFTDetailsRequest
}

// Validate validates the GetNFTDetailsQuery
func (q GetNFTDetailsQuery) Validate() error {
	if err := utils.ValidateStruct(q.NFTDetailsRequest); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}
