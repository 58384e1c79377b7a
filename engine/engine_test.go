package engine

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/nathoo/mapscript/loader"
	"github.com/nathoo/mapscript/types"
)

const testScripts = `<marathon_levels>
  <default>
    <mml resource="200"/>
    <music file="music/ambient.wav"/>
    <movie file="movies/default.mov" size="2.0"/>
  </default>
  <level index="1">
    <mml resource="201"/>
    <mml resource="999"/>
    <pfhortran resource="300"/>
    <music file="music/one.wav"/>
    <music file="music/missing.wav"/>
    <music file="music/two.wav"/>
    <movie file="movies/one.mov"/>
  </level>
  <level index="2">
    <lua resource="301"/>
    <random_order on="true"/>
    <music file="music/one.wav"/>
  </level>
  <level index="5">
    <movie file="movies/five.mov"/>
  </level>
  <level index="6">
    <movie file="movies/absent.mov" size="9"/>
    <mml file="extra/settings.xml"/>
  </level>
  <end>
    <mml resource="202"/>
    <pfhortran resource="300"/>
    <music file="music/two.wav"/>
    <movie file="movies/end.mov" size="1.5"/>
  </end>
  <restore>
    <mml resource="203"/>
  </restore>
  <end_screens index="120" count="4"/>
</marathon_levels>`

const testManifest = `
name = "Test Map"

[[resource]]
type = "TEXT"
id = 128
path = "levels.xml"

[[resource]]
type = "TEXT"
id = 200
text = "fog=default\nname=default"

[[resource]]
type = "TEXT"
id = 201
text = "fog=level1"

[[resource]]
type = "TEXT"
id = 202
text = "fog=end"

[[resource]]
type = "TEXT"
id = 203
text = "fog=restored"

[[resource]]
type = "TEXT"
id = 300
text = "script one"

[[resource]]
type = "TEXT"
id = 301
text = "broken script"
`

// settings is a markup loader applying key=value lines, so layering can be
// observed as last-write-wins on fields.
type settings struct {
	values map[string]string
	loads  []string
}

func (s *settings) LoadMarkup(data []byte) error {
	s.loads = append(s.loads, string(data))
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if ok {
			s.values[k] = v
		}
	}
	return nil
}

type scripts struct {
	calls [][]byte
	fail  string
}

func (s *scripts) LoadScript(data []byte) error {
	s.calls = append(s.calls, data)
	if s.fail != "" && string(data) == s.fail {
		return errors.New("syntax error")
	}
	return nil
}

func (s *scripts) last() []byte {
	if len(s.calls) == 0 {
		return []byte("<none>")
	}
	return s.calls[len(s.calls)-1]
}

type music struct {
	fades    []time.Duration
	preloads [][]string
}

func (m *music) FadeOut(d time.Duration) { m.fades = append(m.fades, d) }
func (m *music) Preload(t []string)      { m.preloads = append(m.preloads, t) }

type fixture struct {
	fs       afero.Fs
	eng      *Engine
	settings *settings
	scripts  *scripts
	music    *music
	ticks    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/maps/map.toml":           testManifest,
		"/maps/levels.xml":         testScripts,
		"/maps/music/ambient.wav":  "RIFF",
		"/maps/music/one.wav":      "RIFF",
		"/maps/music/two.wav":      "RIFF",
		"/maps/movies/default.mov": "moov",
		"/maps/movies/one.mov":     "moov",
		"/maps/movies/five.mov":    "moov",
		"/maps/movies/end.mov":     "moov",
		"/maps/extra/settings.xml": "extra=yes",
	}
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A directory where a track is expected must not count as a track.
	fs.MkdirAll("/maps/music/dir.wav", 0o755)

	f := &fixture{
		fs:       fs,
		settings: &settings{values: map[string]string{}},
		scripts:  &scripts{fail: "broken script"},
		music:    &music{},
	}
	f.eng = New(Options{
		Fs:      fs,
		Markup:  f.settings,
		Scripts: f.scripts,
		Music:   f.music,
		Clock:   func() int64 { f.ticks++; return f.ticks },
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := f.eng.LoadLevelScripts("/maps/map.toml"); err != nil {
		t.Fatalf("LoadLevelScripts failed: %v", err)
	}
	return f
}

func TestLoadLevelScripts_PopulatesRegistry(t *testing.T) {
	f := newFixture(t)
	if got := f.eng.Registry().Len(); got != 7 {
		t.Errorf("headers = %d, want 7", got)
	}
	if es := f.eng.EndScreens(); es != (types.EndScreens{Index: 120, Count: 4}) {
		t.Errorf("EndScreens = %+v", es)
	}
	if f.eng.MapFile() != "/maps/map.toml" {
		t.Errorf("MapFile = %q", f.eng.MapFile())
	}
}

func TestRunLevelScript_DefaultOnlyForUnknownLevel(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(42)

	want := []string{"fog=default\nname=default"}
	if diff := cmp.Diff(want, f.settings.loads); diff != "" {
		t.Errorf("markup loads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{filepath.Join("/maps", "music", "ambient.wav")}, f.eng.Playlist().Tracks()); diff != "" {
		t.Errorf("playlist mismatch (-want +got):\n%s", diff)
	}
}

func TestRunLevelScript_DefaultOnlyEqualsDefaultAlone(t *testing.T) {
	a := newFixture(t)
	a.eng.RunLevelScript(42)

	b := newFixture(t)
	b.eng.runHeader(types.LevelDefault, levelPass, &types.Report{})

	if diff := cmp.Diff(b.settings.values, a.settings.values); diff != "" {
		t.Errorf("settings differ from Default alone (-default +level):\n%s", diff)
	}
	if diff := cmp.Diff(b.eng.Playlist().Tracks(), a.eng.Playlist().Tracks()); diff != "" {
		t.Errorf("playlist differs from Default alone:\n%s", diff)
	}
}

func TestRunLevelScript_SpecificHeaderWins(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)

	if got := f.settings.values["fog"]; got != "level1" {
		t.Errorf("fog = %q, want level1 (level overrides default)", got)
	}
	if got := f.settings.values["name"]; got != "default" {
		t.Errorf("name = %q, want default to stand where the level is silent", got)
	}
}

func TestRunLevelScript_MissingResourceSkipped(t *testing.T) {
	f := newFixture(t)
	rep := f.eng.RunLevelScript(1)

	var skipped []types.Event
	for _, ev := range rep.Events {
		if ev.Type == types.EventSkipped {
			skipped = append(skipped, ev)
		}
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped commands (resource 999, missing.wav), got %+v", skipped)
	}
	if skipped[0].Index != 1 || skipped[0].Kind != types.IncludeMarkup {
		t.Errorf("first skip = %+v", skipped[0])
	}
	// Commands after the missing resource still ran.
	if rep.Count(types.EventScriptLoaded) != 1 {
		t.Errorf("script after the missing resource should load, report: %+v", rep.Events)
	}
}

func TestRunLevelScript_Playlist(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)

	want := []string{
		filepath.Join("/maps", "music", "ambient.wav"),
		filepath.Join("/maps", "music", "one.wav"),
		filepath.Join("/maps", "music", "two.wav"),
	}
	if diff := cmp.Diff(want, f.eng.Playlist().Tracks()); diff != "" {
		t.Errorf("playlist mismatch (-want +got):\n%s", diff)
	}
	if f.eng.Playlist().Random() {
		t.Error("level 1 is sequential")
	}

	for i := 0; i < 2*len(want); i++ {
		tr, ok := f.eng.NextTrack()
		if !ok || tr != want[i%len(want)] {
			t.Fatalf("track %d = %q, want %q", i, tr, want[i%len(want)])
		}
	}
}

func TestRunLevelScript_DirectoryIsNotATrack(t *testing.T) {
	f := newFixture(t)
	h := f.eng.Registry().LocateOrCreate(9)
	h.Commands = append(h.Commands, types.Command{Kind: types.QueueMusic, Resource: types.UnsetResource, File: "music/dir.wav"})

	f.eng.RunLevelScript(9)
	if f.eng.Playlist().Len() != 1 {
		t.Errorf("playlist = %v, want default track only", f.eng.Playlist().Tracks())
	}
}

func TestRunLevelScript_RebuildsPlaylist(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)
	f.eng.NextTrack()
	f.eng.RunLevelScript(2)

	if got := f.eng.Playlist().Len(); got != 2 {
		t.Errorf("playlist len = %d, want 2 (default + level 2)", got)
	}
	if f.eng.Playlist().Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", f.eng.Playlist().Cursor())
	}
	if !f.eng.Playlist().Random() {
		t.Error("level 2 selects random order")
	}
}

func TestRunLevelScript_FadeAndPreload(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)

	if diff := cmp.Diff([]time.Duration{DefaultFadeOut}, f.music.fades); diff != "" {
		t.Errorf("fades mismatch:\n%s", diff)
	}
	if len(f.music.preloads) != 1 || len(f.music.preloads[0]) != 3 {
		t.Errorf("preloads = %v", f.music.preloads)
	}
}

func TestRunLevelScript_ScriptFound(t *testing.T) {
	f := newFixture(t)
	rep := f.eng.RunLevelScript(1)

	if !f.eng.ScriptFound() {
		t.Error("expected script found")
	}
	if string(f.scripts.last()) != "script one" {
		t.Errorf("last script = %q", f.scripts.last())
	}
	if rep.Count(types.EventScriptCleared) != 0 {
		t.Error("script should not be cleared when one loaded")
	}
}

func TestRunLevelScript_NoScriptClearsActive(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)
	rep := f.eng.RunLevelScript(5)

	if f.eng.ScriptFound() {
		t.Error("level 5 has no script")
	}
	if last := f.scripts.last(); last != nil {
		t.Errorf("expected explicit nil payload, got %q", last)
	}
	if rep.Count(types.EventScriptCleared) != 1 {
		t.Errorf("report should record the clear: %+v", rep.Events)
	}
}

func TestRunLevelScript_FailedScriptLeavesFlag(t *testing.T) {
	f := newFixture(t)
	rep := f.eng.RunLevelScript(2)

	if f.eng.ScriptFound() {
		t.Error("a script that failed to load must not count as found")
	}
	if rep.Count(types.EventScriptFailed) != 1 {
		t.Errorf("expected a script failure event: %+v", rep.Events)
	}
	if last := f.scripts.last(); last != nil {
		t.Errorf("expected clear after failure, got %q", last)
	}
}

func TestRunLevelScript_ReseedsFromClock(t *testing.T) {
	f := newFixture(t)
	before := f.eng.rng.Seed()
	f.eng.RunLevelScript(1)
	if f.eng.rng.Seed() == before {
		t.Error("expected the randomizer to be reseeded")
	}
}

func TestRunLevelScript_FileFallbackForMarkup(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(6)
	if f.settings.values["extra"] != "yes" {
		t.Errorf("file-only markup should load, values: %v", f.settings.values)
	}
}

func TestRunLevelScript_MapUnavailable(t *testing.T) {
	f := newFixture(t)
	f.fs.Remove("/maps/map.toml")

	rep := f.eng.RunLevelScript(1)
	if rep.Count(types.EventMapUnavailable) != 2 {
		t.Errorf("expected both passes to report the missing map: %+v", rep.Events)
	}
	if f.eng.IsLevelMusicActive() {
		t.Error("no commands should run without the map file")
	}
}

func TestRunEndScript_LeavesPlaylistAndFlag(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)
	f.eng.NextTrack()
	tracks := f.eng.Playlist().Tracks()
	cursor := f.eng.Playlist().Cursor()

	rep := f.eng.RunEndScript()

	if diff := cmp.Diff(tracks, f.eng.Playlist().Tracks()); diff != "" {
		t.Errorf("end script changed the playlist:\n%s", diff)
	}
	if f.eng.Playlist().Cursor() != cursor {
		t.Errorf("cursor moved from %d to %d", cursor, f.eng.Playlist().Cursor())
	}
	if !f.eng.ScriptFound() {
		t.Error("end script must not reset the script-found flag")
	}
	if f.settings.values["fog"] != "end" {
		t.Errorf("fog = %q, want end", f.settings.values["fog"])
	}
	if rep.Count(types.EventScriptLoaded) != 1 {
		t.Errorf("end script should still load its script: %+v", rep.Events)
	}
	if len(f.music.fades) != 1 {
		t.Errorf("end script should not fade music, fades = %v", f.music.fades)
	}
}

func TestRunEndScript_DoesNotSetFlag(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(5)
	f.eng.RunEndScript()
	if f.eng.ScriptFound() {
		t.Error("end script must not set the script-found flag")
	}
}

func TestRunRestorationScript(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)
	rep := f.eng.RunRestorationScript()

	if f.settings.values["fog"] != "restored" {
		t.Errorf("fog = %q, want restored", f.settings.values["fog"])
	}
	if rep.Level != types.LevelRestore {
		t.Errorf("report level = %d", rep.Level)
	}
	if rep.Count(types.EventMarkupLoaded) != 2 {
		t.Errorf("expected default + restore markup, got %+v", rep.Events)
	}
}

func TestFindLevelMovie_InheritsDefaultSize(t *testing.T) {
	f := newFixture(t)
	f.eng.FindLevelMovie(5)

	file, size, ok := f.eng.GetLevelMovie(1.0)
	if !ok {
		t.Fatal("expected a movie")
	}
	if file != filepath.Join("/maps", "movies", "five.mov") {
		t.Errorf("file = %q", file)
	}
	if size != 2.0 {
		t.Errorf("size = %v, want 2.0 inherited from default", size)
	}
}

func TestFindLevelMovie_DefaultOnly(t *testing.T) {
	f := newFixture(t)
	f.eng.FindLevelMovie(42)

	file, size, ok := f.eng.GetLevelMovie(1.0)
	if !ok || file != filepath.Join("/maps", "movies", "default.mov") || size != 2.0 {
		t.Errorf("got %q %v %v", file, size, ok)
	}
}

func TestFindLevelMovie_MissingFileSkipped(t *testing.T) {
	f := newFixture(t)
	f.eng.FindLevelMovie(6)

	file, size, ok := f.eng.GetLevelMovie(1.0)
	if !ok || file != filepath.Join("/maps", "movies", "default.mov") {
		t.Errorf("missing movie should leave default, got %q %v", file, ok)
	}
	if size != 2.0 {
		t.Errorf("size of a missing movie must not apply, got %v", size)
	}
}

func TestFindEndMovie(t *testing.T) {
	f := newFixture(t)
	f.eng.FindLevelMovie(5)
	f.eng.FindEndMovie()

	file, size, ok := f.eng.GetLevelMovie(1.0)
	if !ok || file != filepath.Join("/maps", "movies", "end.mov") || size != 1.5 {
		t.Errorf("got %q %v %v", file, size, ok)
	}
}

func TestFindLevelMovie_NoScripts(t *testing.T) {
	eng := New(Options{Fs: afero.NewMemMapFs(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	eng.FindLevelMovie(0)
	if _, size, ok := eng.GetLevelMovie(0.5); ok || size != 0.5 {
		t.Errorf("expected no movie and caller size, got %v %v", size, ok)
	}
}

func TestLoadLevelScripts_ReloadClearsHeaders(t *testing.T) {
	f := newFixture(t)
	other := `
[[resource]]
type = "TEXT"
id = 128
text = "<marathon_levels><default><mml resource=\"5\"/></default></marathon_levels>"

[[resource]]
type = "TEXT"
id = 5
text = "fog=mapb"
`
	afero.WriteFile(f.fs, "/maps/b.toml", []byte(other), 0o644)

	f.eng.RunLevelScript(1)
	if err := f.eng.LoadLevelScripts("/maps/b.toml"); err != nil {
		t.Fatalf("LoadLevelScripts failed: %v", err)
	}
	f.settings.loads = nil
	f.eng.RunLevelScript(1)

	if diff := cmp.Diff([]string{"fog=mapb"}, f.settings.loads); diff != "" {
		t.Errorf("level 1 of map A leaked into map B (-want +got):\n%s", diff)
	}
	if f.eng.IsLevelMusicActive() {
		t.Error("map B queues no music")
	}
	if f.eng.EndScreens() != types.DefaultEndScreens {
		t.Errorf("end screens should reset, got %+v", f.eng.EndScreens())
	}
}

func TestLoadLevelScripts_NoDocument(t *testing.T) {
	f := newFixture(t)
	afero.WriteFile(f.fs, "/maps/empty.toml", []byte(`name = "empty"`), 0o644)

	if err := f.eng.LoadLevelScripts("/maps/empty.toml"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	rep := f.eng.RunLevelScript(1)
	if len(f.settings.loads) != 0 {
		t.Errorf("expected no markup, got %v", f.settings.loads)
	}
	if rep.Count(types.EventScriptCleared) != 1 {
		t.Error("the active script should still be cleared")
	}
}

func TestLoadLevelScripts_ParseErrorKeepsValidParts(t *testing.T) {
	f := newFixture(t)
	afero.WriteFile(f.fs, "/maps/bad.toml", []byte(`
[[resource]]
type = "TEXT"
id = 128
text = "<marathon_levels><level index=\"3\"><mml/><music file=\"music/one.wav\"/></level></marathon_levels>"
`), 0o644)

	err := f.eng.LoadLevelScripts("/maps/bad.toml")
	var pe *loader.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *loader.ParseError, got %v", err)
	}
	f.eng.RunLevelScript(3)
	if f.eng.Playlist().Len() != 1 {
		t.Errorf("valid command should survive, playlist = %v", f.eng.Playlist().Tracks())
	}
}

func TestStopLevelMusic(t *testing.T) {
	f := newFixture(t)
	f.eng.RunLevelScript(1)
	if !f.eng.IsLevelMusicActive() {
		t.Fatal("expected music")
	}
	f.eng.StopLevelMusic()
	if f.eng.IsLevelMusicActive() {
		t.Error("music should stop")
	}
	if _, ok := f.eng.NextTrack(); ok {
		t.Error("no track after stop")
	}
}

func TestNew_Defaults(t *testing.T) {
	eng := New(Options{Fs: afero.NewMemMapFs()})
	if eng.fadeOut != DefaultFadeOut {
		t.Errorf("fadeOut = %v", eng.fadeOut)
	}
	rep := eng.RunLevelScript(0)
	if rep.Count(types.EventScriptCleared) != 1 {
		t.Errorf("empty engine should still clear the script: %+v", rep.Events)
	}
}
