package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBatchKeepsResponseOrder(t *testing.T) {
	raw := []OriginResponse{{
		Success: true,
		Data: originData{Files: []Descriptor{
			{Key: "k1", Name: "1.png"},
			{Key: "k2", Name: "2.png"},
			{Key: "k3", Name: "3.png"},
		}},
	}}

	outcomes := Normalize(ModeBatch, raw)
	require.Len(t, outcomes, 3)
	for i, want := range []string{"k1", "k2", "k3"} {
		assert.True(t, outcomes[i].Success)
		assert.Empty(t, outcomes[i].ErrorMessage)
		require.NotNil(t, outcomes[i].Descriptor)
		assert.Equal(t, want, outcomes[i].Descriptor.Key)
	}

	raw[0].Data.Files[0].Key = "mutado"
	assert.Equal(t, "k1", outcomes[0].Descriptor.Key)
}

func TestNormalizeSingleWrapsEachFile(t *testing.T) {
	raw := []OriginResponse{
		{Success: true, Data: originData{File: &Descriptor{Key: "a"}}},
		{Success: true, Data: originData{File: &Descriptor{Key: "b"}}},
	}

	outcomes := Normalize(ModeSingle, raw)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "a", outcomes[0].Descriptor.Key)
	assert.Equal(t, "b", outcomes[1].Descriptor.Key)
}

func TestNormalizeSkipsMissingDescriptors(t *testing.T) {
	assert.Empty(t, Normalize(ModeSingle, []OriginResponse{{Success: true}}))
	assert.Empty(t, Normalize(ModeBatch, []OriginResponse{{Success: true}}))
	assert.Empty(t, Normalize(ModeBatch, nil))
}
