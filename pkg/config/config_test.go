package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/monolith/pkg/fanout"
	"github.com/taigrr/monolith/pkg/layout"
	"github.com/taigrr/monolith/pkg/math3d"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.LEDCount(2620))

	assert.Equal(t, 1460.0, cfg.Geometry.Width)
	assert.Equal(t, 10000, cfg.MTU)
	assert.Len(t, cfg.Targets, 4)
	assert.Equal(t, math3d.V3(-20, 1920, 0), cfg.Reference)
	assert.Equal(t, 200.0, cfg.Aperture)
	assert.Equal(t, 60, cfg.FPS)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
layout: /etc/monolith/leds.csv
fps: 30
aperture: 350
reference: {x: 0, y: 1500, z: 10}
geometry:
  width: 100
  depth: 50
  height: 200
  texture_scale: 1
replicas: 1
faces:
  - {face: north, start: 0, end: 6, transform: front}
  - {face: west, start: 6, end: 10, transform: right}
targets:
  - {address: "127.0.0.1:9000", start: 0, end: 10}
`))
	require.NoError(t, err)

	assert.Equal(t, "/etc/monolith/leds.csv", cfg.Layout)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 350.0, cfg.Aperture)
	assert.Equal(t, math3d.V3(0, 1500, 10), cfg.Reference)
	assert.Equal(t, layout.Range{Start: 6, End: 10}, cfg.Faces[1].Range)
	assert.Equal(t, layout.TransformRight, cfg.Faces[1].Transform)
	require.Len(t, cfg.Targets, 1, "lists replace the defaults")
	assert.Equal(t, fanout.ClientTarget{Address: "127.0.0.1:9000", Range: layout.Range{Start: 0, End: 10}}, cfg.Targets[0])
	assert.Equal(t, fanout.DefaultMTU, cfg.MTU, "untouched keys keep their default")
	require.NoError(t, cfg.LEDCount(10))
	assert.Error(t, cfg.LEDCount(11))

	m := cfg.Mapper()
	assert.Equal(t, 1, m.Replicas)
	assert.Equal(t, 100.0, m.Geometry.Width)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "framerate: 60"},
		{"bad yaml", "fps: [1"},
		{"negative aperture", "aperture: -1"},
		{"zero texture scale", "geometry: {width: 1, depth: 1, height: 1, texture_scale: 0}"},
		{"empty layout", `layout: ""`},
		{"no targets", "targets: []"},
		{"no faces", "faces: []"},
		{"mtu too small", "mtu: 100"},
		{"mtu above datagram", "mtu: 70000"},
		{"negative fps", "fps: -5"},
		{"negative replicas", "replicas: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monolith.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: 24\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.FPS)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
