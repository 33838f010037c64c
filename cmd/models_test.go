package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grokparty/grokparty/pkg/grok"
)

func TestMergeRemoteModels(t *testing.T) {
	catalog := []grok.ModelInfo{
		{ID: "grok-4", Name: "Grok 4", Description: "Flagship model"},
		{ID: "grok-3", Name: "Grok 3", Description: "Previous generation"},
	}

	merged := mergeRemoteModels(catalog, []string{"grok-4", "grok-2-image"})

	assert.Equal(t, []grok.ModelInfo{
		{ID: "grok-4", Name: "Grok 4", Description: "Flagship model"},
		{ID: "grok-2-image", Name: "grok-2-image"},
	}, merged, "catalog metadata kept, unknown models listed with bare IDs")
}
