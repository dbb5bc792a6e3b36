package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(ManageBonds, Issuer))
	assert.False(t, AllowedRole(ManageBonds, Investor))
	assert.True(t, AllowedRole(ViewCatalog, Investor))
	assert.True(t, AllowedRole(ViewCatalog, Issuer))
	assert.False(t, AllowedRole(EvaluateBonds, Issuer))
	assert.False(t, AllowedRole("unknown", Investor))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("issuer"))
	assert.True(t, IsValidRole("investor"))
	assert.False(t, IsValidRole("admin"))
	assert.False(t, IsValidRole(""))
}
