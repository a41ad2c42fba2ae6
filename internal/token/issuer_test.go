package token

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestIssueProducesUniqueTokens(t *testing.T) {
    iss := NewIssuer(DefaultBytes)
    seen := make(map[string]struct{}, 10000)
    for i := 0; i < 10000; i++ {
        tok, err := iss.Issue()
        require.NoError(t, err)
        assert.Len(t, tok, DefaultBytes*2)
        _, dup := seen[tok]
        require.False(t, dup, "duplicate token after %d issues", i)
        seen[tok] = struct{}{}
    }
}

func TestNewIssuerEnforcesMinimumEntropy(t *testing.T) {
    iss := NewIssuer(4)
    tok, err := iss.Issue()
    require.NoError(t, err)
    assert.Len(t, tok, DefaultBytes*2)
}
