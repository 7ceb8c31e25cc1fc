package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLoad(t *testing.T) {
	r := NewRegistry()
	r.Register("northbound.api", func(Dependencies) (Component, error) {
		return &testComponent{Base: NewBase("api"), rec: &recorder{}}, nil
	})
	r.Register("exporter.prometheus", func(Dependencies) (Component, error) {
		return nil, nil
	})
	r.Register("a.first", func(Dependencies) (Component, error) {
		return &testComponent{Base: NewBase("first"), rec: &recorder{}}, nil
	})

	assert.Equal(t, []string{"a.first", "exporter.prometheus", "northbound.api"}, r.Namespaces())

	comps, err := r.Load(Dependencies{})
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "first", comps[0].Name())
	assert.Equal(t, "api", comps[1].Name())
}

func TestRegistryLoadError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register("broken", func(Dependencies) (Component, error) { return nil, boom })

	_, err := r.Load(Dependencies{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register("x", func(Dependencies) (Component, error) { return nil, nil })
	assert.Panics(t, func() {
		r.Register("x", func(Dependencies) (Component, error) { return nil, nil })
	})
}
