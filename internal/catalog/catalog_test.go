package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sadopc/resttrackr/internal/model"
)

func TestEveryTypeHasPresets(t *testing.T) {
	for _, typ := range model.ActivityTypes {
		ps := For(typ)
		assert.NotEmpty(t, ps, typ)
		for _, p := range ps {
			assert.Positive(t, p.Duration, p.Name)
		}
		assert.NotEqual(t, string(typ), Label(typ))
	}
}

func TestForReturnsCopy(t *testing.T) {
	ps := For(model.TypeOutdoor)
	ps[0].Name = "changed"
	assert.Equal(t, "Walk in the park", For(model.TypeOutdoor)[0].Name)
}

func TestSearch(t *testing.T) {
	got := Search("WALK")
	names := make([]string, len(got))
	for i, a := range got {
		names[i] = a.Name
		assert.True(t, a.IsActive)
	}
	assert.Equal(t, []string{"Light walk", "Nordic walking", "Walk in the park"}, names)
	assert.Equal(t, model.TypeOutdoor, got[2].Type)
}

func TestLabelUnknown(t *testing.T) {
	assert.Equal(t, "gaming", Label("gaming"))
}
