package resource

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedShaders(t *testing.T) {
	p := Embedded()
	for _, name := range []string{AssistVS, AssistPS, ModelVS, ModelPS, TerrainVS, TerrainPS} {
		t.Run(name, func(t *testing.T) {
			data, err := p.FileData(name)
			require.NoError(t, err)
			assert.Contains(t, string(data), "#version 410 core")
		})
	}
}

func TestFileDataPaths(t *testing.T) {
	p := FromFS(fstest.MapFS{
		"shaders/a.vert": {Data: []byte("a")},
	})

	data, err := p.FileData("shaders/./a.vert")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	_, err = p.FileData("shaders/missing.vert")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, bad := range []string{"", "/shaders/a.vert", "../shaders/a.vert", "shaders/../../a.vert"} {
		_, err = p.FileData(bad)
		assert.ErrorIs(t, err, ErrBadPath, bad)
	}
}

func TestDirProvider(t *testing.T) {
	_, err := Dir(t.TempDir()).FileData(AssistVS)
	assert.ErrorIs(t, err, ErrNotFound)
}
