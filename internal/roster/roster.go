// Package roster loads the suburb allocation roster from a GeoJSON
// FeatureCollection and applies persisted reassignment overrides.
//
// The roster is the source of "who is supposed to edit what": each feature
// carries a suburb name and an Assigned editor attribute. Geometry is
// normalized to WGS84 (EPSG:4326) on load; Web Mercator (EPSG:3857) input
// is reprojected, anything else is rejected.
//
// Suburb identity is the trimmed, upper-cased name. All lookups in this
// package and its callers go through NormalizeName.
package roster

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
)

// Suburb is one roster record: a named polygon region and the editor it
// was originally allocated to. AssignedEditor may be empty when the
// attribute table has no value for the feature.
type Suburb struct {
	Name           string
	AssignedEditor string
	Geometry       Geometry
}

// Geometry holds a polygon or multipolygon in WGS84 lon/lat order.
// Polygons are stored in MultiPolygon form: polygons > rings > points.
type Geometry struct {
	Type     string
	Polygons [][][]Point
}

// Point is a single lon/lat coordinate pair.
type Point struct {
	Lon float64
	Lat float64
}

// MissingColumnsError reports required attribute columns absent from the
// roster source. This is a fatal configuration error: callers abort the
// interaction and surface the missing set.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("roster source missing required columns: %s", strings.Join(e.Columns, ", "))
}

// NormalizeName returns the canonical identity key for a suburb name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Options configures roster loading.
type Options struct {
	// Path to the GeoJSON FeatureCollection.
	Path string

	// NameColumn is the feature property holding the suburb name.
	// Some shapefile exports use NAME, others SUBURB.
	NameColumn string

	// AssignedColumn is the feature property holding the allocated editor.
	AssignedColumn string
}

// DefaultOptions returns the conventional column names.
func DefaultOptions(path string) Options {
	return Options{
		Path:           path,
		NameColumn:     "NAME",
		AssignedColumn: "Assigned",
	}
}

// geoJSON wire structures. Only the parts the roster needs are declared;
// unknown members are ignored by encoding/json.
type featureCollection struct {
	Type     string    `json:"type"`
	CRS      *namedCRS `json:"crs,omitempty"`
	Features []feature `json:"features"`
}

type namedCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type feature struct {
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties"`
	Geometry   *rawGeometry               `json:"geometry"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Load reads the roster from opts.Path.
//
// Returns *MissingColumnsError when no feature carries the required name
// or assigned columns. Features with a missing name are skipped (there is
// nothing to key them by); a missing assigned value is kept as empty.
func Load(opts Options) ([]Suburb, error) {
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", opts.Path, err)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", opts.Path, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("roster %s: expected FeatureCollection, got %q", opts.Path, fc.Type)
	}

	reproject, err := projectionFor(fc.CRS)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", opts.Path, err)
	}

	if err := checkColumns(fc.Features, opts); err != nil {
		return nil, err
	}

	var suburbs []Suburb
	for _, f := range fc.Features {
		name := stringProperty(f.Properties, opts.NameColumn)
		if name == "" {
			continue
		}

		geom, err := decodeGeometry(f.Geometry, reproject)
		if err != nil {
			return nil, fmt.Errorf("roster %s: feature %q: %w", opts.Path, name, err)
		}

		suburbs = append(suburbs, Suburb{
			Name:           NormalizeName(name),
			AssignedEditor: strings.TrimSpace(stringProperty(f.Properties, opts.AssignedColumn)),
			Geometry:       geom,
		})
	}

	return suburbs, nil
}

// checkColumns verifies that the required attribute columns exist in the
// feature table. A column counts as present when any feature declares it;
// attribute tables are uniform in practice, but sparse exports with the
// column on only some rows should not abort the whole roster.
func checkColumns(features []feature, opts Options) error {
	if len(features) == 0 {
		return nil
	}

	present := map[string]bool{}
	for _, f := range features {
		for k := range f.Properties {
			present[k] = true
		}
	}

	var missing []string
	for _, col := range []string{opts.NameColumn, opts.AssignedColumn} {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

func stringProperty(props map[string]json.RawMessage, key string) string {
	raw, ok := props[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

const mercatorRadius = 6378137.0

// projectionFor returns the coordinate transform needed to bring the
// collection into WGS84. GeoJSON without a crs member is WGS84 by the
// RFC 7946 default.
func projectionFor(crs *namedCRS) (func(x, y float64) Point, error) {
	identity := func(x, y float64) Point { return Point{Lon: x, Lat: y} }
	if crs == nil {
		return identity, nil
	}

	name := strings.ToUpper(crs.Properties.Name)
	switch {
	case name == "", strings.HasSuffix(name, "EPSG::4326"), strings.HasSuffix(name, "EPSG:4326"),
		strings.HasSuffix(name, "CRS84"):
		return identity, nil
	case strings.HasSuffix(name, "EPSG::3857"), strings.HasSuffix(name, "EPSG:3857"):
		return func(x, y float64) Point {
			lon := x / mercatorRadius * 180 / math.Pi
			lat := (2*math.Atan(math.Exp(y/mercatorRadius)) - math.Pi/2) * 180 / math.Pi
			return Point{Lon: lon, Lat: lat}
		}, nil
	default:
		return nil, fmt.Errorf("unsupported coordinate reference system %q", crs.Properties.Name)
	}
}

func decodeGeometry(raw *rawGeometry, reproject func(x, y float64) Point) (Geometry, error) {
	if raw == nil {
		return Geometry{}, fmt.Errorf("feature has no geometry")
	}

	switch raw.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(raw.Coordinates, &rings); err != nil {
			return Geometry{}, fmt.Errorf("invalid Polygon coordinates: %w", err)
		}
		poly, err := decodeRings(rings, reproject)
		if err != nil {
			return Geometry{}, err
		}
		return Geometry{Type: "Polygon", Polygons: [][][]Point{poly}}, nil

	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(raw.Coordinates, &polys); err != nil {
			return Geometry{}, fmt.Errorf("invalid MultiPolygon coordinates: %w", err)
		}
		out := make([][][]Point, 0, len(polys))
		for _, rings := range polys {
			poly, err := decodeRings(rings, reproject)
			if err != nil {
				return Geometry{}, err
			}
			out = append(out, poly)
		}
		return Geometry{Type: "MultiPolygon", Polygons: out}, nil

	default:
		return Geometry{}, fmt.Errorf("unsupported geometry type %q", raw.Type)
	}
}

func decodeRings(rings [][][]float64, reproject func(x, y float64) Point) ([][]Point, error) {
	out := make([][]Point, 0, len(rings))
	for _, ring := range rings {
		pts := make([]Point, 0, len(ring))
		for _, coord := range ring {
			if len(coord) < 2 {
				return nil, fmt.Errorf("coordinate with %d components", len(coord))
			}
			pts = append(pts, reproject(coord[0], coord[1]))
		}
		out = append(out, pts)
	}
	return out, nil
}

// ApplyOverrides returns a copy of records with AssignedEditor replaced
// wherever an override exists for the suburb. Records without an override
// keep their original assignment; an empty original stays empty.
func ApplyOverrides(records []Suburb, overrides map[string]string) []Suburb {
	if len(overrides) == 0 {
		return records
	}

	out := make([]Suburb, len(records))
	copy(out, records)
	for i := range out {
		if editor, ok := overrides[NormalizeName(out[i].Name)]; ok {
			out[i].AssignedEditor = editor
		}
	}
	return out
}

// Store caches the loaded roster for the lifetime of the process.
//
// The roster file changes rarely (it is a one-off allocation export), so
// it is loaded once and reused. Invalidate is the single entry point for
// dropping the cache; the tracker calls it after a confirmed reassignment.
type Store struct {
	opts Options

	mu     sync.Mutex
	cached []Suburb
	loaded bool
}

// NewStore creates a roster store. Nothing is read until the first Load.
func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// Load returns the cached roster, reading it from disk on first use.
func (s *Store) Load() ([]Suburb, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.cached, nil
	}

	records, err := Load(s.opts)
	if err != nil {
		return nil, err
	}

	s.cached = records
	s.loaded = true
	return records, nil
}

// Invalidate clears the cache so the next Load re-reads the source.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.loaded = false
}

// Editors returns the sorted distinct set of assigned editors in records,
// after overrides have been applied. Empty assignments are excluded.
func Editors(records []Suburb) []string {
	seen := map[string]bool{}
	var editors []string
	for _, r := range records {
		if r.AssignedEditor == "" || seen[r.AssignedEditor] {
			continue
		}
		seen[r.AssignedEditor] = true
		editors = append(editors, r.AssignedEditor)
	}
	sort.Strings(editors)
	return editors
}
