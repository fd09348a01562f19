package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resforge/resforge/asset"
	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/model"
	"github.com/resforge/resforge/internal/motion"
	"github.com/resforge/resforge/internal/resource"
	"github.com/resforge/resforge/internal/texture"
)

func writeSamples(t *testing.T) (modelPath, motionPath string) {
	t.Helper()
	dir := t.TempDir()

	m := model.New("chr_hero")
	m.Meshes = []model.Mesh{{
		Name: "body",
		Batches: []*model.Batch{{Geometry: &model.Indexed{
			Vertices: []model.Vertex{{}, {Position: binio.Vec3{1, 0, 0}}, {Position: binio.Vec3{0, 1, 0}}},
			Indices:  []uint16{0, 1, 2},
		}}},
	}}
	modelPath = filepath.Join(dir, "hero.mdl")
	require.NoError(t, asset.Save(modelPath, m, asset.DefaultOptions()))

	mot := &motion.Motion{Name: "mot_wave", FrameRate: 10, FrameCount: 10, Tracks: []motion.Track{
		{Bone: 3, Encoding: motion.MorphF32, Keys: []motion.Key{{Time: 0}, {Time: 1, Value: binio.Vec4{1}}}},
	}}
	motionPath = filepath.Join(dir, "wave.mot")
	require.NoError(t, asset.Save(motionPath, mot, asset.DefaultOptions()))
	return modelPath, motionPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"resforge", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestInfo(t *testing.T) {
	modelPath, _ := writeSamples(t)
	data, err := os.ReadFile(modelPath)
	require.NoError(t, err)

	out, err := run(t, "info", modelPath)
	require.NoError(t, err)
	assert.Contains(t, out, "kind:    MDLP/0100")
	assert.Contains(t, out, asset.ComputeChecksum(data).String())
	assert.Regexp(t, `triangles:\s+1`, out)
}

func TestInfoPackEntries(t *testing.T) {
	tex := &texture.Texture{Name: "tex_sky", Width: 2, Height: 2, Format: texture.RGBA8, MipCount: 1, Pixels: make([]byte, 16)}
	path := filepath.Join(t.TempDir(), "sky.txp")
	require.NoError(t, asset.Save(path, &texture.Pack{Textures: []*texture.Texture{tex}}, asset.DefaultOptions()))
	standalone, err := resource.Marshal(tex, resource.NoContext{}, asset.DefaultOptions())
	require.NoError(t, err)

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Regexp(t, `entry 0\s+`+asset.ComputeChecksum(standalone).String(), out)
}

func TestVerify(t *testing.T) {
	modelPath, motionPath := writeSamples(t)

	out, err := run(t, "--workers", "2", "verify", modelPath, motionPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ok  MDLP/0100")
	assert.Contains(t, out, "ok  MOTN/0100")
	assert.NotContains(t, out, "normalized")

	bad := filepath.Join(filepath.Dir(modelPath), "bad.mdl")
	require.NoError(t, os.WriteFile(bad, []byte("MDLP0100"), 0o644))
	_, err = run(t, "verify", modelPath, bad)
	assert.ErrorIs(t, err, asset.ErrTruncatedStream)
}

func TestDump(t *testing.T) {
	_, motionPath := writeSamples(t)

	out, err := run(t, "dump", "--samples", "3", motionPath)
	require.NoError(t, err)

	var got struct {
		Summary  asset.Summary           `json:"summary"`
		Document map[string]any          `json:"document"`
		Samples  map[string][]binio.Vec4 `json:"samples"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "MOTN", got.Summary.Kind)
	assert.Equal(t, "mot_wave", got.Document["Name"])
	assert.Equal(t, []binio.Vec4{{0}, {0.5}, {1}}, got.Samples["3/morph"])

	out, err = run(t, "dump", "--summary", motionPath)
	require.NoError(t, err)
	assert.NotContains(t, out, `"document"`)
}

func TestRepack(t *testing.T) {
	modelPath, _ := writeSamples(t)
	out := filepath.Join(filepath.Dir(modelPath), "hero_be.mdl")

	_, err := run(t, "repack", "--byte-order", "be", modelPath, out)
	require.NoError(t, err)

	opts := asset.DefaultOptions()
	opts.ByteOrder = binary.BigEndian
	m, err := asset.LoadModel(out, opts)
	require.NoError(t, err)
	assert.Equal(t, "chr_hero", m.Name)

	_, err = run(t, "repack", "--byte-order", "middle", modelPath, out)
	assert.Error(t, err)
	_, err = run(t, "repack", modelPath)
	assert.Error(t, err)
}

func TestSettingsFromEnv(t *testing.T) {
	modelPath, _ := writeSamples(t)

	t.Setenv("RESFORGE_BIG_ENDIAN", "true")
	_, err := run(t, "info", modelPath)
	assert.ErrorIs(t, err, asset.ErrTruncatedStream, "mesh count read in the wrong byte order")

	_, err = run(t, "--big-endian=false", "info", modelPath)
	assert.NoError(t, err)
}
