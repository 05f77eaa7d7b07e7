package entities

import (
	"github.com/ethereum/go-ethereum/common"
)

// Attribute is one trait of an NFT's metadata
type Attribute struct {
	TraitType   string      `json:"trait_type"`
	Value       interface{} `json:"value"`
	DisplayType string      `json:"display_type,omitempty"`
}

// TokenMetadata is the JSON document a token URI resolves to
type TokenMetadata struct {
	Name         string      `json:"name,omitempty"`
	Description  string      `json:"description,omitempty"`
	Image        string      `json:"image,omitempty"`
	AnimationURL string      `json:"animation_url,omitempty"`
	ExternalURL  string      `json:"external_url,omitempty"`
	Attributes   []Attribute `json:"attributes,omitempty"`
}

// Token is a fetched NFT record. It is transient and never persisted.
type Token struct {
	ID       string          `json:"id"`
	TokenURI string          `json:"tokenURI,omitempty"`
	Owner    *common.Address `json:"owner,omitempty"`
	Metadata TokenMetadata   `json:"metadata"`
}

// HasDisplayableAsset reports whether the metadata carries an image or an animation
func (t Token) HasDisplayableAsset() bool {
	return t.Metadata.Image != "" || t.Metadata.AnimationURL != ""
}
