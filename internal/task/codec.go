package task

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
)

// ParseError reports a config file that cannot be turned into a Config.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse config: %v", e.Err)
	}
	return "parse config: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawConfig mirrors Config with run as a pointer so a missing key can be
// told apart from an empty one.
type rawConfig struct {
	Settings struct {
		Build struct {
			Build *string `toml:"build"`
			Run   *string `toml:"run"`
			Cwd   *string `toml:"cwd"`
		} `toml:"build"`
	} `toml:"settings"`
	Tasks map[string]*Task `toml:"tasks"`
}

// Parse decodes a cdf.toml document. Task IDs are lowercased; IDs that
// collide after lowercasing are rejected.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	b := raw.Settings.Build
	if b.Run == nil {
		return nil, &ParseError{Msg: "missing field `run` in [settings.build]"}
	}

	cfg := &Config{
		Settings: Settings{Build: BuildSettings{Build: b.Build, Run: *b.Run, Cwd: b.Cwd}},
		Tasks:    make(map[ID]*Task, len(raw.Tasks)),
	}
	for key, t := range raw.Tasks {
		id := NormalizeID(key)
		if _, dup := cfg.Tasks[id]; dup {
			return nil, &ParseError{Msg: fmt.Sprintf("duplicate task id %q", id)}
		}
		if t == nil {
			t = newTask()
		}
		if t.Tests == nil {
			t.Tests = []Test{}
		}
		cfg.Tasks[id] = t
	}

	return cfg, nil
}

// Serialize encodes cfg as an indented TOML document with sorted keys.
func Serialize(cfg *Config) ([]byte, error) {
	if err := checkUTF8(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// checkUTF8 rejects text that TOML cannot carry, so a saved config always
// parses again.
func checkUTF8(cfg *Config) error {
	b := cfg.Settings.Build
	for _, f := range []struct {
		name string
		v    *string
	}{{"build", b.Build}, {"run", &b.Run}, {"cwd", b.Cwd}} {
		if f.v != nil && !utf8.ValidString(*f.v) {
			return fmt.Errorf("settings.build.%s is not valid UTF-8", f.name)
		}
	}

	ids := make([]ID, 0, len(cfg.Tasks))
	for id := range cfg.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !utf8.ValidString(id) {
			return fmt.Errorf("task ID %q is not valid UTF-8", id)
		}
		t := cfg.Tasks[id]
		if t == nil {
			continue
		}
		if !utf8.ValidString(t.Name) {
			return fmt.Errorf("task %s: name is not valid UTF-8", DisplayID(id))
		}
		for i, tc := range t.Tests {
			if !utf8.ValidString(tc.Input) {
				return fmt.Errorf("task %s test %d: input is not valid UTF-8", DisplayID(id), i+1)
			}
			if !utf8.ValidString(tc.Expected) {
				return fmt.Errorf("task %s test %d: expected output is not valid UTF-8", DisplayID(id), i+1)
			}
		}
	}
	return nil
}
