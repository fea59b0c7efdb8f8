package task

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleConfig = `
[settings.build]
build = "g++ {id}.cpp -o {id}"
run = "./{id}"
cwd = "solutions"

[tasks.a]
name = "Sum"

[[tasks.a.tests]]
input = "1 2\n"
expected = "3\n"

[[tasks.a.tests]]
input = "5 5\n"
expected = "10\n"

[tasks.B]
name = "Empty"
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := cfg.Settings.Build
	if build, ok := b.BuildCommand(); !ok || build != "g++ {id}.cpp -o {id}" {
		t.Errorf("unexpected build: %q (ok=%v)", build, ok)
	}
	if b.Run != "./{id}" {
		t.Errorf("unexpected run: %q", b.Run)
	}
	if b.WorkDir() != "solutions" {
		t.Errorf("unexpected cwd: %q", b.WorkDir())
	}

	tk, ok := cfg.Task("a")
	if !ok {
		t.Fatal("task a missing")
	}
	if len(tk.Tests) != 2 || tk.Tests[1].Expected != "10\n" {
		t.Errorf("unexpected tests: %+v", tk.Tests)
	}

	if _, ok := cfg.Tasks["b"]; !ok {
		t.Error("expected uppercase key B to be stored as b")
	}
	if empty := cfg.Tasks["b"]; empty.Tests == nil {
		t.Error("expected empty test list, got nil")
	}
}

func TestParse_OptionalFieldsAbsent(t *testing.T) {
	cfg, err := Parse([]byte("[settings.build]\nrun = \"./{id}\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cfg.Settings.Build.BuildCommand(); ok {
		t.Error("expected no build command")
	}
	if cfg.Settings.Build.Cwd != nil {
		t.Error("expected no cwd")
	}
	if cfg.Tasks == nil || len(cfg.Tasks) != 0 {
		t.Errorf("expected empty task map, got %v", cfg.Tasks)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed", "[settings.build\nrun = ", "parse config"},
		{"missing run", "[settings.build]\nbuild = \"make\"\n", "missing field `run`"},
		{"missing settings", "[tasks.a]\nname = \"A\"\n", "missing field `run`"},
		{"duplicate ids", "[settings.build]\nrun = \"x\"\n[tasks.a]\nname = \"1\"\n[tasks.A]\nname = \"2\"\n", "duplicate task id"},
		{"wrong type", "[settings.build]\nrun = 5\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	cfg := Default()
	build := "make {id}"
	cwd := "../bin"
	cfg.Settings.Build.Build = &build
	cfg.Settings.Build.Cwd = &cwd

	cfg.AddTask("Z", "Last")
	cfg.AddTask("a", "First")
	cfg.AddTest("a", "1\n2\n", "3\n")
	cfg.AddTest("a", "with \"quotes\" and 'ticks'", "tab\there")
	cfg.AddTest("a", "", "")
	cfg.AddTest("m", "x", "y")
	cfg.UpdateTest("a", 2, Test{Input: "multi\nline\n", Expected: "ok"})
	cfg.RenameTask("m", "mid", "Middle")

	data, err := Serialize(cfg)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse serialized: %v\n%s", err, data)
	}

	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v\n%s", cfg.List(), got.List(), data)
	}

	again, err := Serialize(got)
	if err != nil {
		t.Fatalf("serialize again: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("serialization is not stable:\n%s\n---\n%s", data, again)
	}
}

func TestSerialize_SortedKeys(t *testing.T) {
	cfg := Default()
	cfg.AddTask("c", "C")
	cfg.AddTask("a", "A")
	cfg.AddTask("b", "B")

	data, err := Serialize(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	ia := strings.Index(out, "[tasks.a]")
	ib := strings.Index(out, "[tasks.b]")
	ic := strings.Index(out, "[tasks.c]")
	if ia < 0 || ib < 0 || ic < 0 {
		t.Fatalf("missing task tables:\n%s", out)
	}
	if !(ia < ib && ib < ic) {
		t.Errorf("expected tasks in key order:\n%s", out)
	}
	if strings.Contains(out, "build =") {
		t.Errorf("unset build must be omitted:\n%s", out)
	}
}

func TestSerialize_DefaultParses(t *testing.T) {
	data, err := Serialize(Default())
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("default config does not parse: %v\n%s", err, data)
	}
	if cfg.Settings.Build.Run != "./{id}" {
		t.Errorf("unexpected run: %q", cfg.Settings.Build.Run)
	}
}

func TestSerialize_RejectsInvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Config)
		want  string
	}{
		{"input", func(c *Config) { c.AddTest("a", "\xff\xfe", "1") }, "test 1: input"},
		{"expected", func(c *Config) { c.AddTest("a", "1", "\xff") }, "test 1: expected output"},
		{"name", func(c *Config) { c.AddTask("a", "caf\xe9") }, "name is not valid"},
		{"id", func(c *Config) { c.Tasks["\xff"] = &Task{Tests: []Test{}} }, "task ID"},
		{"run", func(c *Config) { c.Settings.Build.Run = "./\xff" }, "settings.build.run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.setup(c)
			data, err := Serialize(c)
			if err == nil {
				t.Fatalf("expected error, got output:\n%s", data)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestSerialize_MultiByteRoundTrip(t *testing.T) {
	c := Default()
	c.AddTask("a", "Сумма")
	c.AddTest("a", "héllo\r\n'''\"\"\"", "✓\n")

	data, err := Serialize(c)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, c)
	}
}
