package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParsePublishedContractID(t *testing.T) {
	id, err := ParsePublishedContractID("thirdweb.eth/DropERC721")
	require.NoError(t, err)
	assert.Equal(t, "thirdweb.eth", id.Publisher())
	assert.Equal(t, "DropERC721", id.ContractID())
	assert.Equal(t, "thirdweb.eth/DropERC721", id.String())

	for _, ref := range []string{"", "thirdweb.eth", "/DropERC721", "thirdweb.eth/", "a/b/c"} {
		_, err := ParsePublishedContractID(ref)
		assert.ErrorIs(t, err, ErrMalformedReference, ref)
	}
}

func TestParseModuleID(t *testing.T) {
	id, err := ParseModuleID("deployer.thirdweb.eth/ClaimableERC721")
	require.NoError(t, err)
	assert.Equal(t, "deployer.thirdweb.eth", id.Publisher())
	assert.Equal(t, "ClaimableERC721", id.ModuleID())

	_, err = ParseModuleID("ClaimableERC721")
	assert.ErrorIs(t, err, ErrMalformedReference)
}

const refsYAML = `
- thirdweb.eth/DropERC721
- - deployer.thirdweb.eth/ERC721CoreInitializable
  - - deployer.thirdweb.eth/ClaimableERC721
    - deployer.thirdweb.eth/BatchMetadataERC721
  - title: Modular NFT Drop
    description: Mint NFTs with modules
- [thirdweb.eth/OpenEditionERC721]
`

func TestContractRefsYAML(t *testing.T) {
	var refs ContractRefs
	require.NoError(t, yaml.Unmarshal([]byte(refsYAML), &refs))
	require.Len(t, refs, 3)

	assert.Equal(t, SimpleContractRef{ID: "thirdweb.eth/DropERC721"}, refs[0])

	ext, ok := refs[1].(ExtendedContractRef)
	require.True(t, ok)
	assert.Equal(t, "deployer.thirdweb.eth/ERC721CoreInitializable", ext.Ref())
	assert.Equal(t, []string{"deployer.thirdweb.eth/ClaimableERC721", "deployer.thirdweb.eth/BatchMetadataERC721"}, ext.Modules)
	require.NotNil(t, ext.Overrides)
	assert.Equal(t, "Modular NFT Drop", ext.Overrides.Title)

	single, ok := refs[2].(ExtendedContractRef)
	require.True(t, ok)
	assert.Empty(t, single.Modules)
	assert.Nil(t, single.Overrides)
}

func TestContractRefsYAMLRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"mapping entry":  "- {ref: a/b}",
		"too long tuple": "- [a/b, [], {}, extra]",
		"nested ref":     "- [[a/b]]",
		"not a list":     "a/b",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			var refs ContractRefs
			assert.Error(t, yaml.Unmarshal([]byte(doc), &refs))
		})
	}
}

func TestContractRefsJSONRoundTrip(t *testing.T) {
	var refs ContractRefs
	require.NoError(t, yaml.Unmarshal([]byte(refsYAML), &refs))

	data, err := json.Marshal(refs)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		"thirdweb.eth/DropERC721",
		["deployer.thirdweb.eth/ERC721CoreInitializable",
		 ["deployer.thirdweb.eth/ClaimableERC721", "deployer.thirdweb.eth/BatchMetadataERC721"],
		 {"title": "Modular NFT Drop", "description": "Mint NFTs with modules"}],
		["thirdweb.eth/OpenEditionERC721", []]
	]`, string(data))

	var decoded ContractRefs
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, refs[0], decoded[0])
	assert.Equal(t, refs[1], decoded[1])
	assert.Equal(t, "thirdweb.eth/OpenEditionERC721", decoded[2].Ref())
}

func TestParseContractHandle(t *testing.T) {
	h, err := ParseContractHandle("137", "0x5fbdb2315678afecb367f032d93f642f64180aa3")
	require.NoError(t, err)
	assert.Equal(t, uint64(137), h.ChainID())
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), h.Address())
	assert.Equal(t, "137:0x5FbDB2315678afecb367f032d93F642f64180aa3", h.String())

	_, err = ParseContractHandle("polygon", "0x5fbdb2315678afecb367f032d93f642f64180aa3")
	assert.Error(t, err)
	_, err = ParseContractHandle("1", "0x123")
	assert.Error(t, err)
	_, err = ParseContractHandle("1", "0x0000000000000000000000000000000000000000")
	assert.Error(t, err)
}

func TestViewport(t *testing.T) {
	v, err := ParseViewport("")
	require.NoError(t, err)
	assert.Equal(t, ViewportWide, v)

	v, err = ParseViewport("narrow")
	require.NoError(t, err)
	assert.True(t, v.IsNarrow())

	_, err = ParseViewport("tablet")
	assert.Error(t, err)

	assert.Equal(t, ViewportNarrow, ViewportFromMobileHint("?1"))
	assert.Equal(t, ViewportWide, ViewportFromMobileHint("?0"))
	assert.Equal(t, ViewportWide, ViewportFromMobileHint(""))
}

func TestFetchStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to FetchStatus
		ok       bool
	}{
		{FetchIdle, FetchLoading, true},
		{FetchIdle, FetchLoaded, false},
		{FetchLoading, FetchLoaded, true},
		{FetchLoading, FetchFailed, true},
		{FetchLoading, FetchLoading, false},
		{FetchLoaded, FetchLoading, true},
		{FetchFailed, FetchLoading, true},
		{FetchFailed, FetchLoaded, false},
	}
	for _, tt := range tests {
		next, err := tt.from.TransitionTo(tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, next)
		} else {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, next)
		}
	}

	assert.True(t, FetchLoading.IsPending())
	assert.True(t, FetchFailed.IsSettled())
	assert.False(t, FetchIdle.IsSettled())
}
