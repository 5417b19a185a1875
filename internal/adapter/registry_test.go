package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

func TestBuildRegistry(t *testing.T) {
	base, _ := testBase(t)
	systems := []domain.LibrarySystem{
		{
			ID:   "regina",
			Name: "Regina Public Library",
			Adapters: []domain.AdapterConfig{
				{Protocol: domain.ProtocolEnterprise, BaseURL: "https://opac.regina.example.org"},
				{Protocol: domain.ProtocolSRU, BaseURL: "https://sru.regina.example.org"},
			},
		},
		{
			ID:   "wheatland",
			Name: "Wheatland Regional Library",
			Adapters: []domain.AdapterConfig{
				{Protocol: domain.ProtocolKoha, BaseURL: "https://koha.wheatland.example.org"},
			},
		},
	}

	reg := BuildRegistry(systems, base)

	// Instance order follows config order, primary first.
	instances := reg.Instances("regina")
	require.Len(t, instances, 2)
	assert.Equal(t, domain.ProtocolEnterprise, instances[0].Adapter.Protocol())
	assert.Equal(t, domain.ProtocolSRU, instances[1].Adapter.Protocol())

	// Every instance carries its own breaker.
	require.NotNil(t, instances[0].Breaker)
	require.NotNil(t, instances[1].Breaker)
	assert.NotSame(t, instances[0].Breaker, instances[1].Breaker)

	primary := reg.Primary("regina")
	require.NotNil(t, primary)
	assert.Same(t, instances[0], primary)

	single := reg.Primary("wheatland")
	require.NotNil(t, single)
	assert.Equal(t, domain.ProtocolKoha, single.Adapter.Protocol())
}

func TestRegistryUnknownSystem(t *testing.T) {
	base, _ := testBase(t)
	reg := BuildRegistry(nil, base)
	assert.Nil(t, reg.Instances("nowhere"))
	assert.Nil(t, reg.Primary("nowhere"))
}

func TestNewAdapterCoversEveryProtocol(t *testing.T) {
	base, _ := testBase(t)
	protocols := []domain.Protocol{
		domain.ProtocolSRU,
		domain.ProtocolKoha,
		domain.ProtocolEnterprise,
		domain.ProtocolBiblioCommons,
		domain.ProtocolAtriuum,
		domain.ProtocolSpydus,
		domain.ProtocolAspen,
		domain.ProtocolTLC,
		domain.ProtocolApollo,
		domain.ProtocolSierra,
		domain.ProtocolPolaris,
	}
	for _, p := range protocols {
		a := newAdapter(base, domain.AdapterConfig{Protocol: p, BaseURL: "https://example.org"})
		require.NotNil(t, a, "protocol %s", p)
		assert.Equal(t, p, a.Protocol())
	}
	assert.Nil(t, newAdapter(base, domain.AdapterConfig{Protocol: "carl"}))
}
