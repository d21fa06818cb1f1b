// Package catalog loads the pictures a server can show.
//
// A catalog is a YAML document listing pictures. Each picture is an ordered
// list of children, and each child is either a source (a media query plus
// its art) or a line of caption text:
//
//	pictures:
//	  - name: harbor
//	    alt: Harbor at dusk
//	    children:
//	      - source: {media: "(min-width: 100px)", file: art/harbor-wide.txt}
//	      - source: {media: "(prefers-color-scheme: dark)", art: "..."}
//	      - text: Harbor, 6pm
//	      - source: {file: art/harbor.txt}
//
// Art files are resolved relative to the catalog and read at load time, so a
// loaded Catalog never touches the filesystem again. Media strings are kept
// verbatim: only an absent or empty media makes a fallback, and a blank one
// such as " " is a condition-free query that always matches.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"mosaic-picture/internal/media"
	"mosaic-picture/internal/picture"
)

var (
	ErrInvalidCatalog  = errors.New("invalid catalog")
	ErrPictureNotFound = errors.New("picture not found")
)

var validNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// Art is the payload of a source: the rendered text and, when it came from a
// file, that file's path.
type Art struct {
	Text string `json:"text"`
	File string `json:"file,omitempty"`
}

// Picture is a named, ordered list of children.
type Picture struct {
	Name     string
	Alt      string
	Children []picture.Child[Art]
}

// Sources returns the picture's source candidates in order.
func (p Picture) Sources() []media.Source[Art] {
	sources, _ := picture.Split(p.Children)
	return sources
}

// Caption returns the picture's text children in order.
func (p Picture) Caption() []string {
	_, text := picture.Split(p.Children)
	return text
}

// Catalog is an immutable set of pictures.
type Catalog struct {
	pictures []Picture
	byName   map[string]int
}

// Pictures returns the pictures in catalog order.
func (c *Catalog) Pictures() []Picture {
	out := make([]Picture, len(c.pictures))
	copy(out, c.pictures)
	return out
}

// Names returns the picture names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.pictures))
	for _, p := range c.pictures {
		names = append(names, p.Name)
	}
	return names
}

// Lookup returns the named picture.
func (c *Catalog) Lookup(name string) (Picture, error) {
	if c != nil {
		if i, ok := c.byName[name]; ok {
			return c.pictures[i], nil
		}
	}
	return Picture{}, fmt.Errorf("%w: %q", ErrPictureNotFound, name)
}

type rawCatalog struct {
	Pictures []rawPicture `yaml:"pictures"`
}

type rawPicture struct {
	Name     string     `yaml:"name"`
	Alt      string     `yaml:"alt"`
	Children []rawChild `yaml:"children"`
}

type rawChild struct {
	Source *rawSource `yaml:"source"`
	Text   *string    `yaml:"text"`
}

type rawSource struct {
	Media string `yaml:"media"`
	Art   string `yaml:"art"`
	File  string `yaml:"file"`
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a catalog document. Relative art files resolve against baseDir.
func Parse(data []byte, baseDir string) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw rawCatalog
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{byName: make(map[string]int, len(raw.Pictures))}
	for i, rp := range raw.Pictures {
		p, err := buildPicture(rp, baseDir)
		if err != nil {
			return nil, fmt.Errorf("picture %d: %w", i, err)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate picture name %q", ErrInvalidCatalog, p.Name)
		}
		c.byName[p.Name] = len(c.pictures)
		c.pictures = append(c.pictures, p)
	}

	return c, nil
}

func buildPicture(rp rawPicture, baseDir string) (Picture, error) {
	if !validNamePattern.MatchString(rp.Name) {
		return Picture{}, fmt.Errorf("%w: picture name %q must match %s", ErrInvalidCatalog, rp.Name, validNamePattern)
	}

	p := Picture{Name: rp.Name, Alt: strings.TrimSpace(rp.Alt)}
	sources := 0
	for i, rc := range rp.Children {
		child, err := buildChild(rc, baseDir)
		if err != nil {
			return Picture{}, fmt.Errorf("%s child %d: %w", rp.Name, i, err)
		}
		if child.Kind == picture.KindSource {
			sources++
		}
		p.Children = append(p.Children, child)
	}
	if sources == 0 {
		return Picture{}, fmt.Errorf("%w: picture %q has no sources", ErrInvalidCatalog, rp.Name)
	}

	return p, nil
}

func buildChild(rc rawChild, baseDir string) (picture.Child[Art], error) {
	switch {
	case rc.Source != nil && rc.Text != nil:
		return picture.Child[Art]{}, fmt.Errorf("%w: child sets both source and text", ErrInvalidCatalog)
	case rc.Text != nil:
		return picture.TextOf[Art](*rc.Text), nil
	case rc.Source != nil:
		art, err := loadArt(*rc.Source, baseDir)
		if err != nil {
			return picture.Child[Art]{}, err
		}
		return picture.SourceOf(rc.Source.Media, art), nil
	default:
		return picture.Child[Art]{}, fmt.Errorf("%w: child needs a source or text", ErrInvalidCatalog)
	}
}

func loadArt(rs rawSource, baseDir string) (Art, error) {
	switch {
	case rs.Art != "" && rs.File != "":
		return Art{}, fmt.Errorf("%w: source sets both art and file", ErrInvalidCatalog)
	case rs.Art != "":
		return Art{Text: strings.TrimRight(rs.Art, "\n")}, nil
	case rs.File != "":
		path := rs.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Art{}, fmt.Errorf("%w: read art: %v", ErrInvalidCatalog, err)
		}
		return Art{Text: strings.TrimRight(string(data), "\n"), File: rs.File}, nil
	default:
		return Art{}, fmt.Errorf("%w: source needs art or file", ErrInvalidCatalog)
	}
}
