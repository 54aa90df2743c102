package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCollaborators(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single", "bob@x.com", "bob@x.com"},
		{"comma separated", "bob@x.com,carol@x.com", "bob@x.com,carol@x.com"},
		{"semicolons and spaces", "bob@x.com; carol@x.com dave@x.com", "bob@x.com,carol@x.com,dave@x.com"},
		{"uppercase folded", "Bob@X.com", "bob@x.com"},
		{"duplicates removed", "bob@x.com, bob@x.com", "bob@x.com"},
		{"non-addresses dropped", "bob@x.com, not-an-email, @x.com, bob@", "bob@x.com"},
		{"surrounding whitespace", "  bob@x.com \n carol@x.com  ", "bob@x.com,carol@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeCollaborators(tt.in))
		})
	}
}

func TestHasCollaborator(t *testing.T) {
	list := NormalizeCollaborators("bob@x.com, carol@x.com")

	require.True(t, HasCollaborator(list, "bob@x.com"))
	require.True(t, HasCollaborator(list, "Bob@X.com"))
	require.False(t, HasCollaborator(list, "dave@x.com"))
	require.False(t, HasCollaborator(list, ""))
	require.False(t, HasCollaborator("", "bob@x.com"))
}

// Membership is exact: an address embedded in a longer one does not match.
func TestHasCollaborator_NoSubstringMatch(t *testing.T) {
	list := NormalizeCollaborators("notbob@x.com")

	require.False(t, HasCollaborator(list, "bob@x.com"))
	require.True(t, HasCollaborator(list, "notbob@x.com"))
}
