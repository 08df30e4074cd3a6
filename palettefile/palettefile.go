// Package palettefile loads and saves palette files in the formats the
// palette optimizer exchanges with other tools: JSON lists of hex strings,
// plain text with one hex color per line, and CSV with hex values in the
// first column.
package palettefile

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Biggyjman/Palette-Optimizer/quantize"
)

// Named is a palette together with the display name derived from its file.
type Named struct {
	Name   string
	Colors quantize.Palette
}

// ParseHex parses a #rrggbb or #rgb hex string (leading # optional) into a
// color.
func ParseHex(s string) (quantize.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return quantize.Color{}, fmt.Errorf("%q is not a hex color", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return quantize.Color{}, fmt.Errorf("%q is not a hex color", s)
	}
	return quantize.Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// Parse reads a palette file, dispatching on the file extension (.json, .txt
// or .csv). Unparsable entries within a file are skipped; a file that yields
// no colors at all is an error.
func Parse(path string) (quantize.Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pal quantize.Palette
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		pal, err = parseJSON(f)
	case ".txt":
		pal, err = parseTXT(f)
	case ".csv":
		pal, err = parseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported palette format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("%s: no colors found", path)
	}
	return pal, nil
}

func parseJSON(r io.Reader) (quantize.Palette, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Not a list; accept an object and take its first list value, so
		// files shaped {"name": ["#aabbcc", ...]} load too.
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		found := false
		for _, k := range keys {
			if json.Unmarshal(obj[k], &entries) == nil {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no color list in JSON object")
		}
	}

	pal := make(quantize.Palette, 0, len(entries))
	for _, hx := range entries {
		c, err := ParseHex(hx)
		if err != nil {
			continue
		}
		pal = append(pal, c)
	}
	return pal, nil
}

func parseTXT(r io.Reader) (quantize.Palette, error) {
	var pal quantize.Palette
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		c, err := ParseHex(line)
		if err != nil {
			continue
		}
		pal = append(pal, c)
	}
	return pal, sc.Err()
}

func parseCSV(r io.Reader) (quantize.Palette, error) {
	var pal quantize.Palette
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		c, err := ParseHex(row[0])
		if err != nil {
			// Headers and junk rows are skipped, not fatal.
			continue
		}
		pal = append(pal, c)
	}
	return pal, nil
}

// Save writes the palette to path as an indented JSON list of hex strings,
// the same shape Parse reads back.
func Save(path string, p quantize.Palette) error {
	entries := make([]string, len(p))
	for i, c := range p {
		entries[i] = c.Hex()
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// LoadDir loads every parsable palette file in dir. Palette names come from
// the file name with underscores replaced by spaces; colors are luma-sorted
// on load. Files that fail to parse are skipped. Results are ordered by name.
func LoadDir(dir string) ([]Named, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []Named
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		pal, err := Parse(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name = strings.ReplaceAll(name, "_", " ")
		SortLuma(pal)
		out = append(out, Named{Name: name, Colors: pal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Slugify reduces a palette name to a filesystem-safe slug: alphanumerics,
// hyphens, and underscores survive, everything else becomes an underscore.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "palette"
	}
	return s
}
