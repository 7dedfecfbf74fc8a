package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"customer", RoleCustomer},
		{"USER", RoleCustomer},
		{" client ", RoleCustomer},
		{"agent", RoleAgent},
		{"Support", RoleAgent},
		{"bot", RoleAutomated},
		{"system", RoleAutomated},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRole("supervisor")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Transcript{
		ID: "conv-1",
		Messages: []Message{
			{Role: RoleCustomer, Content: "My order never arrived."},
			{Role: RoleAgent, Content: "Let me look into that for you."},
		},
	}
	assert.NoError(t, valid.Validate())

	empty := &Transcript{ID: "conv-2"}
	assert.Error(t, empty.Validate())

	badRole := &Transcript{Messages: []Message{{Role: "supervisor", Content: "hi"}}}
	assert.Error(t, badRole.Validate())

	blank := &Transcript{Messages: []Message{{Role: RoleAgent, Content: "   "}}}
	assert.Error(t, blank.Validate())
}
