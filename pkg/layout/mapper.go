package layout

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/monolith/pkg/math3d"
)

var (
	// ErrMalformedRow reports a layout row that is not two finite numbers.
	ErrMalformedRow = errors.New("malformed layout row")

	// ErrOutOfBounds reports an LED whose image coordinate falls outside the
	// sampled frame.
	ErrOutOfBounds = errors.New("LED outside frame")
)

// LedRecord is one physical LED in every coordinate space. Records are built
// once and never re-derived.
type LedRecord struct {
	Index  int
	Face   Face
	Layout math3d.Vec2 // design tool coordinates of the source row
	Render math3d.Vec2 // render surface coordinates
	Image  math3d.Vec2 // frame pixel coordinates (unrounded)
	World  math3d.Vec3 // millimetres on the physical structure
}

// Pixel returns the rounded image coordinate sampled for this LED.
func (r LedRecord) Pixel() (x, y int) {
	p := r.Image.Round()
	return int(p.X), int(p.Y)
}

// Mapper turns layout rows into LED records.
type Mapper struct {
	Geometry Geometry
	Faces    FaceTable

	// Replicas repeats the layout run around the perimeter, each replica
	// shifted by Geometry.ReplicaOffset in render space. Zero means one.
	Replicas int
}

// NewMonolithMapper returns the mapper for the installed sculpture.
func NewMonolithMapper() *Mapper {
	return &Mapper{
		Geometry: MonolithGeometry(),
		Faces:    MonolithFaces(),
		Replicas: MonolithReplicas,
	}
}

// LoadFile reads a layout file and builds its LED records.
func (m *Mapper) LoadFile(path string) ([]LedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	leds, err := m.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	return leds, nil
}

// Load parses layout rows from r and builds the LED records. Any malformed
// row fails the whole load.
func (m *Mapper) Load(r io.Reader) ([]LedRecord, error) {
	points, err := ParsePoints(r)
	if err != nil {
		return nil, err
	}
	return m.Build(points)
}

// ParsePoints reads "x,y" rows in wiring order. There is no header row.
func ParsePoints(r io.Reader) ([]math3d.Vec2, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var points []math3d.Vec2
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		p, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: layout has no rows", ErrMalformedRow)
	}
	return points, nil
}

func parseRow(record []string) (math3d.Vec2, error) {
	if len(record) != 2 {
		return math3d.Vec2{}, fmt.Errorf("want 2 fields, got %d", len(record))
	}
	var xy [2]float64
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return math3d.Vec2{}, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math3d.Vec2{}, fmt.Errorf("non-finite value %q", field)
		}
		xy[i] = v
	}
	return math3d.V2(xy[0], xy[1]), nil
}

// Build derives the LED records for points given in wiring order.
func (m *Mapper) Build(points []math3d.Vec2) ([]LedRecord, error) {
	rows := len(points)
	if rows == 0 {
		return nil, fmt.Errorf("%w: layout has no rows", ErrMalformedRow)
	}
	replicas := max(m.Replicas, 1)
	n := rows * replicas

	if err := m.Faces.Validate(n); err != nil {
		return nil, err
	}
	faces := m.Faces.sorted()

	transforms := make(map[TransformKind]FaceTransform, len(faces))
	for _, f := range faces {
		tr, _ := f.Transform.Transform(m.Geometry)
		transforms[f.Transform] = tr
	}

	toRender := m.Geometry.LayoutToRenderMatrix()
	toImage := m.Geometry.RenderToImageMatrix()
	shift := m.Geometry.ReplicaOffset()

	leds := make([]LedRecord, n)
	for i := range leds {
		row, replica := i%rows, i/rows
		face, _ := faces.Lookup(i)

		base := apply2D(toRender, points[row])
		render := base.Add(math3d.V2(float64(replica)*shift, 0))

		leds[i] = LedRecord{
			Index:  i,
			Face:   face.Face,
			Layout: points[row],
			Render: render,
			Image:  apply2D(toImage, render),
			World:  transforms[face.Transform].Apply(base),
		}
	}
	return leds, nil
}

// CheckBounds verifies that every LED samples a pixel inside a
// width x height frame.
func CheckBounds(leds []LedRecord, width, height int) error {
	for _, led := range leds {
		x, y := led.Pixel()
		if x < 0 || x >= width || y < 0 || y >= height {
			return fmt.Errorf("%w: LED %d at (%d, %d), frame %dx%d", ErrOutOfBounds, led.Index, x, y, width, height)
		}
	}
	return nil
}

// WorldPoints returns the world coordinate of every LED, indexed like leds.
func WorldPoints(leds []LedRecord) []math3d.Vec3 {
	out := make([]math3d.Vec3, len(leds))
	for i, led := range leds {
		out[i] = led.World
	}
	return out
}
