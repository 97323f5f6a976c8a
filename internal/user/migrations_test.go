package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsMetadata(t *testing.T) {
	ms := Migrations()
	require.NotEmpty(t, ms)

	first := ms[0]
	require.Equal(t, ModuleName, first.Module)
	require.Equal(t, 1, first.Version)
	require.Equal(t, "create_users_table", first.Name)
	require.Contains(t, first.SQL, "CREATE TABLE")
}

func TestMigrationsHaveUniqueVersions(t *testing.T) {
	seen := map[int]bool{}
	for _, m := range Migrations() {
		require.False(t, seen[m.Version], "duplicate version %d", m.Version)
		seen[m.Version] = true
		require.Positive(t, m.Version)
		require.NotEmpty(t, strings.TrimSpace(m.SQL))
	}
}
