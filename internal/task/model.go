package task

import (
	"sort"
	"strings"
)

// Placeholder is replaced with the task ID in build and run commands.
const Placeholder = "{id}"

// ID identifies a task. IDs are stored lowercase; see NormalizeID.
type ID = string

// NormalizeID returns the canonical (lowercase) form of a task ID.
func NormalizeID(id string) ID {
	return strings.ToLower(id)
}

// DisplayID returns the upper-case form shown to users.
func DisplayID(id ID) string {
	return strings.ToUpper(id)
}

// Substitute replaces every Placeholder in template with id.
func Substitute(template string, id ID) string {
	return strings.ReplaceAll(template, Placeholder, id)
}

// Test is a single stdin/expected-stdout pair.
type Test struct {
	Input    string `toml:"input"`
	Expected string `toml:"expected"`
}

// Task is a named list of tests. Test order is significant.
type Task struct {
	Name  string `toml:"name"`
	Tests []Test `toml:"tests"`
}

// BuildSettings holds the command templates shared by all tasks.
// Build and Cwd are optional; Run is mandatory.
type BuildSettings struct {
	Build *string `toml:"build,omitempty"`
	Run   string  `toml:"run"`
	Cwd   *string `toml:"cwd,omitempty"`
}

// BuildCommand returns the build template and whether one is configured.
func (b BuildSettings) BuildCommand() (string, bool) {
	if b.Build == nil {
		return "", false
	}
	return *b.Build, true
}

// WorkDir returns the configured working directory, or "" when unset.
func (b BuildSettings) WorkDir() string {
	if b.Cwd == nil {
		return ""
	}
	return *b.Cwd
}

// Settings is the [settings] table of the config file.
type Settings struct {
	Build BuildSettings `toml:"build"`
}

// Config is the in-memory form of a cdf.toml file.
type Config struct {
	Settings Settings     `toml:"settings"`
	Tasks    map[ID]*Task `toml:"tasks"`
}

// Info is a read-only snapshot of one task used for listings.
type Info struct {
	ID    ID
	Name  string
	Tests []Test
}

// Default returns the config written by "cdf init".
func Default() *Config {
	return &Config{
		Settings: Settings{Build: BuildSettings{Run: "./" + Placeholder}},
		Tasks:    make(map[ID]*Task),
	}
}

func newTask() *Task {
	return &Task{Tests: []Test{}}
}

// entry returns the task for id, creating an empty one if absent.
func (c *Config) entry(id ID) *Task {
	if c.Tasks == nil {
		c.Tasks = make(map[ID]*Task)
	}
	t, ok := c.Tasks[id]
	if !ok {
		t = newTask()
		c.Tasks[id] = t
	}
	return t
}

// AddTask creates a task or, if it already exists, replaces only its name.
func (c *Config) AddTask(id, name string) {
	c.entry(NormalizeID(id)).Name = name
}

// RenameTask moves the task at oldID to newID and sets its name.
// A missing oldID starts from an empty task. If newID already exists it is
// replaced; callers check TaskExists first.
func (c *Config) RenameTask(oldID, newID, name string) {
	oldID = NormalizeID(oldID)
	t, ok := c.Tasks[oldID]
	if ok {
		delete(c.Tasks, oldID)
	} else {
		t = newTask()
	}
	t.Name = name
	if c.Tasks == nil {
		c.Tasks = make(map[ID]*Task)
	}
	c.Tasks[NormalizeID(newID)] = t
}

// RemoveTask deletes a task and reports whether it existed.
func (c *Config) RemoveTask(id string) bool {
	id = NormalizeID(id)
	if _, ok := c.Tasks[id]; !ok {
		return false
	}
	delete(c.Tasks, id)
	return true
}

// TaskExists reports whether a task with the given ID is stored.
func (c *Config) TaskExists(id string) bool {
	_, ok := c.Tasks[NormalizeID(id)]
	return ok
}

// Task returns the stored task for id.
func (c *Config) Task(id string) (*Task, bool) {
	t, ok := c.Tasks[NormalizeID(id)]
	return t, ok
}

// TaskName returns the display name of a task.
func (c *Config) TaskName(id string) (string, bool) {
	t, ok := c.Task(id)
	if !ok {
		return "", false
	}
	return t.Name, true
}

// AddTest appends a test, creating the task if absent.
func (c *Config) AddTest(id, input, expected string) {
	t := c.entry(NormalizeID(id))
	t.Tests = append(t.Tests, Test{Input: input, Expected: expected})
}

// UpdateTest replaces the test at index. An unknown task or an index out of
// range is a no-op, matching the best-effort editing of the UI layer.
func (c *Config) UpdateTest(id string, index int, test Test) {
	t, ok := c.Task(id)
	if !ok || index < 0 || index >= len(t.Tests) {
		return
	}
	t.Tests[index] = test
}

// RemoveTest deletes the test at index and reports whether it existed.
func (c *Config) RemoveTest(id string, index int) bool {
	t, ok := c.Task(id)
	if !ok || index < 0 || index >= len(t.Tests) {
		return false
	}
	t.Tests = append(t.Tests[:index], t.Tests[index+1:]...)
	return true
}

// List returns all tasks sorted by ID. The test slices are copies.
func (c *Config) List() []Info {
	ids := make([]ID, 0, len(c.Tasks))
	for id := range c.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		t := c.Tasks[id]
		tests := make([]Test, len(t.Tests))
		copy(tests, t.Tests)
		infos = append(infos, Info{ID: id, Name: t.Name, Tests: tests})
	}
	return infos
}
