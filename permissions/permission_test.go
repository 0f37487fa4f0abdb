package permissions_test

import (
	"testing"
	"tourbook/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_EmbeddedRoutes(t *testing.T) {
	table := permissions.Get()
	require.NotNil(t, table)
	assert.False(t, table.Disabled)

	login, ok := table.Lookup("POST", "/v1/auth/login")
	require.True(t, ok)
	assert.True(t, login.Skip)

	create, ok := table.Lookup("post", "/v1/bookings/")
	require.True(t, ok)
	assert.True(t, create.Skip)

	assign, ok := table.Lookup("PATCH", "/v1/admin/bookings/{id}/assign")
	require.True(t, ok)
	assert.False(t, assign.Skip)
	assert.True(t, assign.Allows("admin"))
	assert.False(t, assign.Allows("staff"))

	notes, ok := table.Lookup("PATCH", "/v1/worker/bookings/{id}/notes")
	require.True(t, ok)
	assert.True(t, notes.Allows("staff"))
	assert.True(t, notes.Allows("admin"))
}

func TestTable_Lookup(t *testing.T) {
	table, err := permissions.Parse([]byte(`{"endpoints":[{"path":"/v1/a","method":"GET","permissions":["admin"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, ok := table.Lookup("GET", "/v1/b")
	assert.False(t, ok)

	_, ok = table.Lookup("POST", "/v1/a")
	assert.False(t, ok)

	var missing *permissions.Table
	_, ok = missing.Lookup("GET", "/v1/a")
	assert.False(t, ok)
}

func TestRule_AllowsWithoutRoles(t *testing.T) {
	assert.True(t, permissions.Rule{}.Allows("staff"))
	assert.True(t, permissions.Rule{}.Allows(""))
}

func TestParse(t *testing.T) {
	_, err := permissions.Parse([]byte(`{`))
	require.Error(t, err)

	_, err = permissions.Parse([]byte(`{"endpoints":[{"path":"/v1/a","method":"GET"},{"path":"/v1/a/","method":"get"}]}`))
	require.ErrorContains(t, err, "duplicate permission")
}
