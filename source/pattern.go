// Package source provides tile.Reader implementations for b3dm tilesets: a directory
// tree, a remote server, a SQLite cache and a read-through combination of them.
package source

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-tilemerge/tile"
)

var ErrInvalidPattern = errors.New("tilemerge: invalid path pattern")

// DefaultPattern is the layout of published tilesets, e.g. "Data/211/123/L17_21112330.b3dm".
const DefaultPattern = "Data/{dirs}L{level}_{name}.b3dm"

// DefaultLevelOffset is added to the name length to produce the {level} label.
const DefaultLevelOffset = 9

const dirChunk = 3

// Pattern maps tile names to relative slash-separated paths. Placeholders:
//
//	{name}  - the tile name, required
//	{level} - name length plus the level offset
//	{dirs}  - leading name digits split into groups of three, each followed by "/";
//	          the last group with at least one digit stays in the file name
type Pattern struct {
	template    string
	levelOffset int
	pathRegexp  *regexp.Regexp
}

func NewPattern(template string, levelOffset int) (*Pattern, error) {
	if !strings.Contains(template, "{name}") {
		return nil, fmt.Errorf("%w: placeholder {name} not found in %q", ErrInvalidPattern, template)
	}

	expr := regexp.QuoteMeta(template)
	expr = strings.ReplaceAll(expr, `\{dirs\}`, `(?:[0-3]{3}/)*`)
	expr = strings.ReplaceAll(expr, `\{level\}`, `(?P<level>\d+)`)
	expr = strings.Replace(expr, `\{name\}`, `(?P<name>[0-3]+)`, 1)
	expr = strings.ReplaceAll(expr, `\{name\}`, `[0-3]+`)
	pathRegexp, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return &Pattern{template, levelOffset, pathRegexp}, nil
}

func (p *Pattern) String() string {
	return p.template
}

// Format returns the relative path of the tile.
func (p *Pattern) Format(name tile.Name) string {
	result := p.template
	result = strings.ReplaceAll(result, "{dirs}", dirs(name))
	result = strings.ReplaceAll(result, "{level}", strconv.Itoa(name.Level()+p.levelOffset))
	result = strings.ReplaceAll(result, "{name}", string(name))
	return result
}

// Parse extracts the tile name from a relative path produced by Format.
func (p *Pattern) Parse(path string) (tile.Name, bool) {
	matches := p.pathRegexp.FindStringSubmatch(path)
	if matches == nil {
		return "", false
	}
	name := tile.Name(matches[p.pathRegexp.SubexpIndex("name")])
	if p.Format(name) != path {
		return "", false
	}
	return name, true
}

func dirs(name tile.Name) string {
	count := (len(name) - 1) / dirChunk
	var sb strings.Builder
	for i := range count {
		sb.WriteString(string(name[i*dirChunk : (i+1)*dirChunk]))
		sb.WriteByte('/')
	}
	return sb.String()
}
