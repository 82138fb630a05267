// Package manifest handles dexpatch.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "dexpatch.toml"

// Manifest represents a dexpatch.toml run configuration.
type Manifest struct {
	Target  Target  `toml:"target"`
	Input   File    `toml:"input"`
	Output  File    `toml:"output"`
	Patches Patches `toml:"patches"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the dexpatch.toml file (set at load time).
	Dir string `toml:"-"`
}

// Target identifies the app being patched.
type Target struct {
	Package string `toml:"package"`
	Version string `toml:"version"`
}

// File names a snapshot file, relative to the manifest directory.
type File struct {
	Path string `toml:"path"`
}

// Patches selects patches and controls failure handling.
type Patches struct {
	Include             []string `toml:"include"`
	Exclude             []string `toml:"exclude"`
	FailFast            bool     `toml:"fail-fast"`
	IgnoreCompatibility bool     `toml:"ignore-compatibility"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Load parses a dexpatch.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Input.Path == "" {
		m.Input.Path = "classes.dxp"
	}
	if m.Output.Path == "" {
		ext := filepath.Ext(m.Input.Path)
		m.Output.Path = strings.TrimSuffix(m.Input.Path, ext) + ".patched" + ext
	}
	if !md.IsDefined("log", "verbosity") {
		m.Log.Verbosity = 1
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a dexpatch.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks settings that decode cleanly but cannot be used.
func (m *Manifest) Validate() error {
	if m.Target.Version != "" && m.Target.Package == "" {
		return fmt.Errorf("target version %q given without a package", m.Target.Version)
	}
	for _, name := range m.Patches.Include {
		for _, ex := range m.Patches.Exclude {
			if name == ex {
				return fmt.Errorf("patch %q is both included and excluded", name)
			}
		}
	}
	if m.Log.Verbosity < -4 || m.Log.Verbosity > 2 {
		return fmt.Errorf("log verbosity %d out of range [-4, 2]", m.Log.Verbosity)
	}
	if m.resolve(m.Input.Path) == m.resolve(m.Output.Path) {
		return fmt.Errorf("output path %q would overwrite the input", m.Output.Path)
	}
	return nil
}

// InputPath returns the absolute path of the input snapshot.
func (m *Manifest) InputPath() string {
	return m.resolve(m.Input.Path)
}

// OutputPath returns the absolute path of the output snapshot.
func (m *Manifest) OutputPath() string {
	return m.resolve(m.Output.Path)
}

// LogFile returns the absolute log file path, or "" for stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Log.File)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Dir, p)
}
