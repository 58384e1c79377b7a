package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/nathoo/mapscript/cli"
	"github.com/nathoo/mapscript/engine"
	"github.com/nathoo/mapscript/luamap"
	"github.com/nathoo/mapscript/world"
)

const testManifest = `
[[resource]]
type = "TEXT"
id = 128
text = """
<marathon_levels>
  <level index="3">
    <lua resource="300"/>
    <music file="one.wav"/>
    <music file="two.wav"/>
    <random_order on="1"/>
  </level>
</marathon_levels>
"""

[[resource]]
type = "TEXT"
id = 300
text = 'print("hello from level 3")'
`

func testModel(t *testing.T) Model {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range map[string]string{
		"/maps/arrival.toml": testManifest,
		"/maps/one.wav":      "RIFF",
		"/maps/two.wav":      "RIFF",
	} {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	host := luamap.New(world.New("Arrival"), log)
	t.Cleanup(host.Close)

	eng := engine.New(engine.Options{Fs: fs, Scripts: host, Logger: log})
	if err := eng.LoadLevelScripts("/maps/arrival.toml"); err != nil {
		t.Fatalf("LoadLevelScripts failed: %v", err)
	}

	m := New(cli.NewSession(eng, host, nil), Options{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func submit(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func transcript(m Model) string {
	var lines []string
	for _, rl := range m.rawLines {
		lines = append(lines, rl.text)
	}
	return strings.Join(lines, "\n")
}

func TestMapName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/maps/arrival.toml", "arrival"},
		{"Infinity.sceA", "Infinity"},
		{"maps/plain", "plain"},
		{"", "no map"},
	}
	for _, tt := range tests {
		if got := mapName(tt.path); got != tt.want {
			t.Errorf("mapName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line   string
		system bool
		want   lineKind
	}{
		{"[trace] level 1 #0 mml: skipped (payload not found)", true, kindTrace},
		{"error: level script: boom", false, kindError},
		{"warning: 1 element(s) rejected", true, kindError},
		{"Level scripts:", true, kindHeading},
		{"  /run <n>      Run the level script of level n", true, kindSystem},
		{"Next track: /maps/one.wav", true, kindTrack},
		{"> /maps/one.wav", true, kindTrack},
		{"Movie: /maps/intro.mov (size 1)", true, kindTrack},
		{"Ran level 3: 0 markup, 1 script, 2 track(s), 0 skipped", true, kindSystem},
		{"Level scripts:", false, kindOutput},
		{"hello from level 3", false, kindOutput},
	}
	for _, tt := range tests {
		if got := classifyLine(tt.line, tt.system); got != tt.want {
			t.Errorf("classifyLine(%q, %v) = %v, want %v", tt.line, tt.system, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"Ran level 3: 0 markup, 1 script, 2 track(s), 0 skipped", 30,
			"Ran level 3: 0 markup, 1\nscript, 2 track(s), 0 skipped"},
		{"", 80, ""},
		{"a b c d e", 3, "a b\nc d\ne"},
		{"first line\nsecond line here", 11, "first line\nsecond line\nhere"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestView_BeforeResize(t *testing.T) {
	m := New(nil, Options{})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestBanner(t *testing.T) {
	m := testModel(t)
	msg := m.banner()()
	next, _ := m.Update(msg)
	got := transcript(next.(Model))
	for _, want := range []string{"mapscript: /maps/arrival.toml", "level 3", "random order", "Type /help"} {
		if !strings.Contains(got, want) {
			t.Errorf("banner missing %q:\n%s", want, got)
		}
	}
}

func TestEnter_RunsConsoleCommand(t *testing.T) {
	m := testModel(t)
	m, cmd := submit(t, m, "/run 3")
	if cmd != nil {
		t.Error("/run should not return a command")
	}

	got := transcript(m)
	if !strings.Contains(got, "> /run 3") {
		t.Errorf("input should be echoed:\n%s", got)
	}
	if !strings.Contains(got, "Ran level 3: 0 markup, 1 script, 2 track(s), 0 skipped") {
		t.Errorf("expected run summary:\n%s", got)
	}
	if m.input.Value() != "" {
		t.Errorf("input should be cleared, got %q", m.input.Value())
	}
	if m.history.Len() != 1 {
		t.Errorf("history length = %d, want 1", m.history.Len())
	}
}

func TestEnter_RunsLua(t *testing.T) {
	m := testModel(t)
	m, _ = submit(t, m, "/run 3")
	m, _ = submit(t, m, "/start")
	m, _ = submit(t, m, "1 + 2")

	got := transcript(m)
	if !strings.Contains(got, "hello from level 3") {
		t.Errorf("expected script output:\n%s", got)
	}
	if !strings.Contains(got, "\n3\n") {
		t.Errorf("expected expression result:\n%s", got)
	}
}

func TestEnter_Blank(t *testing.T) {
	m := testModel(t)
	m, _ = submit(t, m, "   ")
	if len(m.rawLines) != 0 {
		t.Errorf("blank input should produce no output, got %d lines", len(m.rawLines))
	}
	if m.history.Len() != 0 {
		t.Error("blank input should not enter history")
	}
}

func TestEnter_Quit(t *testing.T) {
	m := testModel(t)
	m, cmd := submit(t, m, "/quit")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.quitting {
		t.Error("model should be quitting")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestStatusText(t *testing.T) {
	m := testModel(t)
	left, right := m.statusText()
	if left != " arrival | no level" {
		t.Errorf("left = %q", left)
	}
	if strings.TrimSpace(right) != "" {
		t.Errorf("right = %q, want empty", right)
	}

	m, _ = submit(t, m, "/run 3")
	m, _ = submit(t, m, "/trace")
	left, right = m.statusText()
	if left != " arrival | level 3" {
		t.Errorf("left = %q", left)
	}
	if right != "2 track(s) shuffled | script loaded | trace " {
		t.Errorf("right = %q", right)
	}

	m, _ = submit(t, m, "/start")
	if _, right = m.statusText(); !strings.Contains(right, "script running") {
		t.Errorf("right = %q", right)
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := testModel(t)
	m, _ = submit(t, m, "/levels")
	m, _ = submit(t, m, "/playlist")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.input.Value() != "/playlist" {
		t.Errorf("up: input = %q", m.input.Value())
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.input.Value() != "/levels" {
		t.Errorf("up twice: input = %q", m.input.Value())
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.input.Value() != "" {
		t.Errorf("down past newest: input = %q", m.input.Value())
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("/levels")
	h.Push("/run 1")
	h.Push("/start")

	for _, want := range []string{"/start", "/run 1", "/levels", "/levels"} {
		prev, ok := h.Prev()
		if !ok || prev != want {
			t.Errorf("Prev() = %q (ok=%v), want %q", prev, ok, want)
		}
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("/levels")
	h.Push("/run 1")

	h.Prev()
	h.Prev()

	next, ok := h.Next()
	if !ok || next != "/run 1" {
		t.Errorf("expected '/run 1', got %q (ok=%v)", next, ok)
	}
	if _, ok = h.Next(); ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_MaxSizeAndDuplicates(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("a")
	h.Push("b")
	h.Push("c")

	if diff := cmp.Diff([]string{"b", "c"}, h.entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_SaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	h := NewHistory(3)
	for _, cmd := range []string{"/levels", "/run 1", "/start", "Level.fog.depth"} {
		h.Push(cmd)
	}
	if err := h.Save(fs, "/home/.mapscript_history"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := LoadHistory(fs, "/home/.mapscript_history", 2)
	if diff := cmp.Diff([]string{"/start", "Level.fog.depth"}, loaded.entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadHistory_Missing(t *testing.T) {
	h := LoadHistory(afero.NewMemMapFs(), "/nope", 10)
	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d entries", h.Len())
	}
}
