package valueobjects

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// ContractHandle identifies a deployed contract on a specific chain
type ContractHandle struct {
	chainID uint64
	address common.Address
}

// NewContractHandle creates a ContractHandle, rejecting the zero chain and address
func NewContractHandle(chainID uint64, address common.Address) (ContractHandle, error) {
	if chainID == 0 {
		return ContractHandle{}, errors.New("chain ID cannot be zero")
	}
	if address == (common.Address{}) {
		return ContractHandle{}, errors.New("contract address cannot be the zero address")
	}
	return ContractHandle{chainID: chainID, address: address}, nil
}

// ParseContractHandle parses a decimal chain id and a hex address
func ParseContractHandle(chainID, address string) (ContractHandle, error) {
	id, err := strconv.ParseUint(chainID, 10, 64)
	if err != nil {
		return ContractHandle{}, fmt.Errorf("invalid chain ID %q: %w", chainID, err)
	}
	if !common.IsHexAddress(address) {
		return ContractHandle{}, fmt.Errorf("invalid contract address %q", address)
	}
	return NewContractHandle(id, common.HexToAddress(address))
}

// ChainID returns the chain id
func (h ContractHandle) ChainID() uint64 { return h.chainID }

// Address returns the contract address
func (h ContractHandle) Address() common.Address { return h.address }

// String returns "chainID:checksumAddress"
func (h ContractHandle) String() string {
	return strconv.FormatUint(h.chainID, 10) + ":" + h.address.Hex()
}

// Equals checks if two handles point at the same contract
func (h ContractHandle) Equals(other ContractHandle) bool {
	return h.chainID == other.chainID && h.address == other.address
}
