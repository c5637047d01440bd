// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetworkFromString(t *testing.T) {
	assert := require.New(t)
	for _, n := range AllNetworks() {
		assert.Equal(n, NetworkFromString(n.String()))
	}
	assert.Equal(WestendPeople, NetworkFromString(" People "))
	assert.Equal(Undefined, NetworkFromString("kusama"))
}

func TestWestendChain(t *testing.T) {
	assert := require.New(t)
	c, err := Westend.Chain()
	assert.NoError(err)
	assert.Equal(uint8(12), c.Decimals)
	assert.Equal("WND", c.Symbol)
	assert.False(c.HasIdentity)
	assert.Equal(WestendPeople, Westend.IdentityNetwork())

	people, err := Westend.IdentityNetwork().Chain()
	assert.NoError(err)
	assert.True(people.HasIdentity)
	assert.Equal("50.1", people.SetIdentity.String())
}

func TestUndefinedChain(t *testing.T) {
	assert := require.New(t)
	_, err := Undefined.Chain()
	assert.Error(err)
	assert.Empty(Undefined.Endpoint())
}
