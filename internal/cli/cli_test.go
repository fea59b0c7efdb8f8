//go:build !windows

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/reporter"
)

const echoConfig = `[settings.build]
run = "cat"

[tasks.a]
name = "Echo"

[[tasks.a.tests]]
input = "1\n"
expected = "1\n"

[[tasks.a.tests]]
input = "2\n"
expected = "2"
`

// execute runs the root command against the config in dir.
func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	full := append([]string{
		"--config", filepath.Join(dir, "cdf.toml"),
		"--settings", filepath.Join(dir, ".cdf.yml"),
	}, args...)
	root.SetArgs(full)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cdf.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".cdf.yml"), []byte("color: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func loadFrom(t *testing.T, dir string) map[string][]string {
	t.Helper()
	cfg, err := config.Load(filepath.Join(dir, "cdf.toml"))
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string][]string)
	for _, info := range cfg.List() {
		var inputs []string
		for _, tc := range info.Tests {
			inputs = append(inputs, tc.Input)
		}
		got[info.ID+":"+info.Name] = inputs
	}
	return got
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, dir, "", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(filepath.Join(dir, "cdf.toml")); err != nil {
		t.Fatalf("default config does not load: %v", err)
	}

	_, err := execute(t, dir, "", "init")
	if !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if _, err := execute(t, dir, "", "init", "--force"); err != nil {
		t.Fatalf("--force should overwrite: %v", err)
	}
}

func TestAdd_Flags(t *testing.T) {
	dir := writeConfig(t, "[settings.build]\nrun = \"./{id}\"\n")
	in := filepath.Join(dir, "in.txt")
	exp := filepath.Join(dir, "exp.txt")
	_ = os.WriteFile(in, []byte("1 2\n"), 0o644)
	_ = os.WriteFile(exp, []byte("3\n"), 0o644)

	out, err := execute(t, dir, "", "add", "ABC", "--name", "Sum", "--input-file", in, "--expected-file", exp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Added test 1 to task ABC") {
		t.Errorf("unexpected output: %s", out)
	}

	got := loadFrom(t, dir)
	if inputs := got["abc:Sum"]; len(inputs) != 1 || inputs[0] != "1 2\n" {
		t.Errorf("unexpected config: %v", got)
	}
}

func TestAdd_PromptsAndKeepsName(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	exp := filepath.Join(dir, "exp.txt")
	_ = os.WriteFile(exp, []byte("3\n"), 0o644)

	// task exists, so only the ID is asked; input is read until EOF
	out, err := execute(t, dir, "A\n3\n", "add", "--expected-file", exp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Enter task ID: ") || strings.Contains(out, "Enter task name") {
		t.Errorf("unexpected prompts: %s", out)
	}

	got := loadFrom(t, dir)
	inputs := got["a:Echo"]
	if len(inputs) != 3 || inputs[2] != "3\n" {
		t.Errorf("unexpected config: %v", got)
	}
}

func TestAdd_BothFromStdin(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	if _, err := execute(t, dir, "", "add", "a", "--input-file", "-", "--expected-file", "-"); err == nil {
		t.Fatal("expected error")
	}
}

func TestList(t *testing.T) {
	dir := writeConfig(t, echoConfig+"\n[tasks.b]\nname = \"Empty\"\ntests = []\n")
	out, err := execute(t, dir, "", "list")
	if err != nil {
		t.Fatal(err)
	}
	if out != "A - Echo, 2 tests\nB - Empty, 0 tests\n" {
		t.Errorf("unexpected list: %q", out)
	}
}

func TestRename(t *testing.T) {
	dir := writeConfig(t, echoConfig+"\n[tasks.b]\nname = \"Other\"\ntests = []\n")

	if _, err := execute(t, dir, "", "rename", "a", "b"); err == nil {
		t.Fatal("renaming onto an existing task should fail")
	}
	var nf *executor.TaskNotFoundError
	if _, err := execute(t, dir, "", "rename", "zz", "c"); !errors.As(err, &nf) {
		t.Fatalf("expected TaskNotFoundError, got %v", err)
	}

	if _, err := execute(t, dir, "", "rename", "A", "C"); err != nil {
		t.Fatal(err)
	}
	got := loadFrom(t, dir)
	if _, ok := got["c:Echo"]; !ok {
		t.Errorf("expected c with kept name, got %v", got)
	}
	if _, ok := got["a:Echo"]; ok {
		t.Error("old ID still present")
	}

	if _, err := execute(t, dir, "", "rename", "c", "c", "--name", "Renamed"); err != nil {
		t.Fatal(err)
	}
	if _, ok := loadFrom(t, dir)["c:Renamed"]; !ok {
		t.Error("expected name change in place")
	}
}

func TestRemove(t *testing.T) {
	dir := writeConfig(t, echoConfig)

	if _, err := execute(t, dir, "", "rm", "a", "--test", "5"); err == nil {
		t.Error("expected error for missing test")
	}
	if _, err := execute(t, dir, "", "rm", "a", "--test", "1"); err != nil {
		t.Fatal(err)
	}
	if inputs := loadFrom(t, dir)["a:Echo"]; len(inputs) != 1 || inputs[0] != "2\n" {
		t.Errorf("expected only test 2 left, got %v", inputs)
	}

	if _, err := execute(t, dir, "", "rm", "a"); err != nil {
		t.Fatal(err)
	}
	if got := loadFrom(t, dir); len(got) != 0 {
		t.Errorf("expected no tasks, got %v", got)
	}
}

func TestRemove_SaveFailureReportsNothing(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	// a directory in place of the temp file makes the atomic write fail
	if err := os.Mkdir(filepath.Join(dir, "cdf.toml.tmp"), 0o755); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))

	for _, args := range [][]string{{"rm", "a", "--test", "1"}, {"rm", "a"}} {
		out, err := execute(t, dir, "", args...)
		if err == nil {
			t.Fatalf("%v: expected save error", args)
		}
		if strings.Contains(out, "Removed") {
			t.Errorf("%v: reported removal despite failed save: %s", args, out)
		}
	}

	after, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))
	if !bytes.Equal(before, after) {
		t.Error("config changed despite failed save")
	}
}

func TestAdd_InvalidUTF8LeavesConfigUntouched(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	in := filepath.Join(dir, "in.bin")
	exp := filepath.Join(dir, "exp.txt")
	_ = os.WriteFile(in, []byte("\xff\xfe\n"), 0o644)
	_ = os.WriteFile(exp, []byte("ok\n"), 0o644)
	before, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))

	_, err := execute(t, dir, "", "add", "a", "--input-file", in, "--expected-file", exp)
	if err == nil || !strings.Contains(err.Error(), "not valid UTF-8") {
		t.Fatalf("expected UTF-8 error, got %v", err)
	}

	after, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))
	if !bytes.Equal(before, after) {
		t.Error("config changed despite rejected input")
	}
	if _, err := config.Load(filepath.Join(dir, "cdf.toml")); err != nil {
		t.Errorf("config no longer loads: %v", err)
	}
}

func TestEditTest(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	in := filepath.Join(dir, "in.txt")
	_ = os.WriteFile(in, []byte("9\n"), 0o644)

	if _, err := execute(t, dir, "", "edit-test", "a", "2", "--input-file", in); err != nil {
		t.Fatal(err)
	}
	if inputs := loadFrom(t, dir)["a:Echo"]; inputs[1] != "9\n" {
		t.Errorf("expected updated input, got %v", inputs)
	}

	before, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))
	if _, err := execute(t, dir, "", "edit-test", "a", "7", "--input-file", in); err != nil {
		t.Fatalf("out of range should be a no-op, got %v", err)
	}
	after, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))
	if !bytes.Equal(before, after) {
		t.Error("out of range edit must not change the file")
	}
}

func TestFmt(t *testing.T) {
	dir := writeConfig(t, "[tasks.ABC]\nname = \"x\"\ntests = []\n[settings.build]\nrun = \"./{id}\"\n")

	if _, err := execute(t, dir, "", "fmt", "--check"); err == nil {
		t.Fatal("expected unformatted file to fail --check")
	}
	if _, err := execute(t, dir, "", "fmt"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, dir, "", "fmt", "--check"); err != nil {
		t.Fatalf("formatted file should pass --check: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "cdf.toml"))
	if !strings.Contains(string(data), "abc") || strings.Contains(string(data), "ABC") {
		t.Errorf("expected lower-case ID:\n%s", data)
	}
}

func TestTest_Passes(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	out, err := execute(t, dir, "", "test", "A")
	if err != nil {
		t.Fatalf("expected pass, got %v\n%s", err, out)
	}
	for _, want := range []string{"Task A - Echo", "Testing", ".. ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Building") {
		t.Error("no build command configured")
	}
}

func TestTest_Fails(t *testing.T) {
	dir := writeConfig(t, strings.Replace(echoConfig, `expected = "2"`, `expected = "5"`, 1))
	out, err := execute(t, dir, "", "test", "a", "--no-history")

	var failed *TestsFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected TestsFailedError, got %v", err)
	}
	if failed.Summary.Passed != 1 || failed.Summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", failed.Summary)
	}
	if !strings.Contains(out, ".x failed") || !strings.Contains(out, "-- test 2 --") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".cdf", "history.db")); !os.IsNotExist(err) {
		t.Error("--no-history must not create the database")
	}
}

func TestTest_BuildFailure(t *testing.T) {
	dir := writeConfig(t, strings.Replace(echoConfig, `run = "cat"`, "build = \"false\"\nrun = \"cat\"", 1))
	out, err := execute(t, dir, "", "test", "a")

	var be *executor.BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if !strings.Contains(out, "Building") || strings.Contains(out, "Testing") {
		t.Errorf("tests must not run after a failed build:\n%s", out)
	}
}

func TestTest_UnknownTask(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	var nf *executor.TaskNotFoundError
	if _, err := execute(t, dir, "", "test", "zz"); !errors.As(err, &nf) {
		t.Fatalf("expected TaskNotFoundError, got %v", err)
	}
}

func TestTest_JSON(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	out, err := execute(t, dir, "", "test", "a", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var rep reporter.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if rep.Task != "a" || rep.Summary.Passed != 2 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestTest_FormatFromSettings(t *testing.T) {
	dir := writeConfig(t, echoConfig)
	_ = os.WriteFile(filepath.Join(dir, ".cdf.yml"), []byte("format: json\nhistory: false\ncolor: false\n"), 0o644)

	out, err := execute(t, dir, "", "test", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output from settings:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".cdf", "history.db")); !os.IsNotExist(err) {
		t.Error("history disabled in settings must not create the database")
	}
}

func TestHistory(t *testing.T) {
	dir := writeConfig(t, echoConfig)

	out, err := execute(t, dir, "", "history")
	if err != nil || !strings.Contains(out, "no runs recorded") {
		t.Fatalf("expected empty history, got %q, %v", out, err)
	}

	if _, err := execute(t, dir, "", "test", "a"); err != nil {
		t.Fatal(err)
	}
	// unknown tasks are not recorded
	_, _ = execute(t, dir, "", "test", "zz")

	out, err = execute(t, dir, "", "history")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one run, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "A") || !strings.Contains(lines[1], "ok") || !strings.Contains(lines[1], "2/2") {
		t.Errorf("unexpected history line: %q", lines[1])
	}
}

func TestWatchIgnores(t *testing.T) {
	ignores, err := watchIgnores("/w/cdf.toml", "/w/db/history.db")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/w/cdf.toml.tmp", "/w/db/history.db", "/w/db/history.db-wal", "/w/db/history.db-shm", "/w/db/history.db-journal"}
	if strings.Join(ignores, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", ignores, want)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "cdf dev") {
		t.Errorf("unexpected version output: %q", out)
	}
}
