// Package config loads document settings from snek.toml or snek.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileNames lists the configuration files Find looks for, in order.
var FileNames = []string{"snek.toml", "snek.yaml", "snek.yml"}

// ErrNotFound is returned by Find when no configuration file exists.
var ErrNotFound = errors.New("no configuration file found")

// Format is a configuration file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// Configuration holds the settings shared by all files of one document. It
// is read-only once loaded.
type Configuration struct {
	Title        string              `toml:"title" yaml:"title"`
	Author       string              `toml:"author" yaml:"author"`
	Language     string              `toml:"language" yaml:"language"`
	Placeholders map[string]string   `toml:"placeholders" yaml:"placeholders"`
	Bibliography map[string]BibEntry `toml:"bibliography" yaml:"bibliography"`
	TOC          TOCConfig           `toml:"toc" yaml:"toc"`
	Parser       ParserConfig        `toml:"parser" yaml:"parser"`
}

// BibEntry is a bibliography record keyed by its citation key.
type BibEntry struct {
	Title     string `toml:"title" yaml:"title"`
	Author    string `toml:"author" yaml:"author"`
	Date      string `toml:"date" yaml:"date"`
	Publisher string `toml:"publisher" yaml:"publisher"`
	URL       string `toml:"url" yaml:"url"`
	Notes     string `toml:"notes" yaml:"notes"`
}

// TOCConfig controls the generated table of contents.
type TOCConfig struct {
	Ordered bool   `toml:"ordered" yaml:"ordered"`
	Title   string `toml:"title" yaml:"title"`
}

// ParserConfig holds parser switches.
type ParserConfig struct {
	Strict bool `toml:"strict" yaml:"strict"`
}

// Default returns the configuration used when no file is present.
func Default() *Configuration {
	c := &Configuration{}
	c.applyDefaults()
	return c
}

func (c *Configuration) applyDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.TOC.Title == "" {
		c.TOC.Title = "Table of Contents"
	}
	if c.Placeholders == nil {
		c.Placeholders = make(map[string]string)
	}
	if c.Bibliography == nil {
		c.Bibliography = make(map[string]BibEntry)
	}
}

// Placeholder returns the configured value for a placeholder. Lookup is
// case-insensitive; the title and author settings are available as
// placeholders too.
func (c *Configuration) Placeholder(name string) (string, bool) {
	for k, v := range c.Placeholders {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	switch strings.ToLower(name) {
	case "title":
		return c.Title, c.Title != ""
	case "author":
		return c.Author, c.Author != ""
	}
	return "", false
}

// DetectFormat selects the syntax from the file extension; unknown
// extensions are read as TOML.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Parse decodes configuration content.
func Parse(content []byte, format Format) (*Configuration, error) {
	var c Configuration
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("yaml parse error: %w", err)
		}
	default:
		if err := toml.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("toml parse error: %w", err)
		}
	}
	c.applyDefaults()
	return &c, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Configuration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	c, err := Parse(content, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Find returns the path of the first configuration file in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: %w", dir, ErrNotFound)
}

// LoadDir loads the configuration file in dir, falling back to Default when
// there is none.
func LoadDir(dir string) (*Configuration, error) {
	p, err := Find(dir)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(p)
}
