package signup_test

import (
	"testing"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceLookups(t *testing.T) {
	resource := newTestSchema().AuthResource()
	require.NotNil(t, resource)

	assert.Equal(t, "email", resource.Column("email").Name)
	assert.Nil(t, resource.Column("missing"))

	pk := resource.PrimaryKeyColumn()
	require.NotNil(t, pk)
	assert.Equal(t, "id", pk.Name)

	assert.Contains(t, resource.ColumnNames(), "password_hash")
}

func TestValidationRule(t *testing.T) {
	t.Run("matches compiles lazily", func(t *testing.T) {
		rule := &signup.ValidationRule{Pattern: `^\d+$`, Message: "digits only"}

		ok, err := rule.Matches("12345")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = rule.Matches("12a45")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("broken patterns error", func(t *testing.T) {
		rule := &signup.ValidationRule{Pattern: `([`, Message: "broken"}
		_, err := rule.Matches("anything")
		require.Error(t, err)
	})
}

func TestSuggestIfTypo(t *testing.T) {
	columns := []string{"email", "password_hash", "email_confirmed", "created_at"}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"transposition", "emial", "email"},
		{"missing character", "email_confirmd", "email_confirmed"},
		{"case difference", "Email", "email"},
		{"nothing close", "zzzzzzzzzz", ""},
		{"exact match", "email", "email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, signup.SuggestIfTypo(columns, tc.input))
		})
	}

	t.Run("no candidates", func(t *testing.T) {
		assert.Equal(t, "", signup.SuggestIfTypo(nil, "email"))
	})
}
