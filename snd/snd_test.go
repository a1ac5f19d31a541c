// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"gohl/filesystem"
	"gohl/math/vec"
	"gohl/qtime"
	"gohl/snd/catalog"
	"gohl/snd/device"
	"gohl/snd/device/devicetest"

	"github.com/pkg/errors"
)

func le(v ...interface{}) []byte {
	var b bytes.Buffer
	for _, x := range v {
		binary.Write(&b, binary.LittleEndian, x)
	}
	return b.Bytes()
}

// wav returns an 8 bit mono file of the given length. A cue point at frame 0
// makes it loop.
func wav(frames int, loop bool) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	chunk := func(id string, data []byte) {
		body.WriteString(id)
		binary.Write(&body, binary.LittleEndian, uint32(len(data)))
		body.Write(data)
		if len(data)%2 != 0 {
			body.WriteByte(0)
		}
	}
	chunk("fmt ", le(uint16(1), uint16(1), uint32(11025), uint32(11025), uint16(1), uint16(8)))
	if loop {
		chunk("cue ", le(uint32(1), uint32(1), uint32(0), []byte("data"), uint32(0), uint32(0), uint32(0)))
	}
	chunk("data", bytes.Repeat([]byte{128}, frames))
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

type entities map[int]Entity

func (e entities) Entity(n int) (Entity, bool) {
	x, ok := e[n]
	return x, ok
}

// countingSource counts file reads.
type countingSource struct {
	*filesystem.SearchPath
	reads map[string]int
}

func (c *countingSource) ReadFile(name string) ([]byte, error) {
	c.reads[name]++
	return c.SearchPath.ReadFile(name)
}

type harness struct {
	sys   *SndSys
	dev   *devicetest.Fake
	clock *qtime.Manual
	ents  entities
	src   *countingSource
}

func newHarness(t *testing.T, modify func(*Config)) *harness {
	t.Helper()
	files := fstest.MapFS{
		"sound/weapons/shot.wav":  {Data: wav(100, false)},
		"sound/weapons/shot2.wav": {Data: wav(200, false)},
		"sound/ambience/loop.wav": {Data: wav(300, true)},
		"sound/common/a.wav":      {Data: wav(1000, false)},
		"sound/hgrunt/a.wav":      {Data: wav(10, false)},
		"sound/hgrunt/b.wav":      {Data: wav(20, false)},
		"sound/hgrunt/c.wav":      {Data: wav(30, false)},
		"sound/bad.wav":           {Data: []byte("garbage")},
		"sound/sentences.txt": {Data: []byte(strings.Join([]string{
			"HG_ABC hgrunt/a{0:0,0.1:1} b c",
			"HG_HOLE hgrunt/a missing c",
		}, "\n"))},
	}
	var sp filesystem.SearchPath
	sp.Prepend(files)
	src := &countingSource{SearchPath: &sp, reads: make(map[string]int)}
	cat, err := catalog.Load(src)
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		dev:   devicetest.New(),
		clock: &qtime.Manual{},
		ents:  entities{},
		src:   src,
	}
	cfg := DefaultConfig()
	cfg.Clock = h.clock.Now
	if modify != nil {
		modify(&cfg)
	}
	h.sys = Init(cfg, cat, h.ents, h.dev.Opener())
	return h
}

func (h *harness) start(ent int, ch EntityChannel, name string) {
	h.sys.StartSound(ent, ch, name, vec.Vec3{}, 1, 1, PitchNorm, 0)
}

func (h *harness) update() {
	h.sys.Update(Frame{ViewEntity: 1})
}

func (h *harness) onPair(ent int, ch EntityChannel) []ChannelInfo {
	var r []ChannelInfo
	for _, c := range h.sys.Channels() {
		if c.Entity == ent && c.Channel == ch {
			r = append(r, c)
		}
	}
	return r
}

func (h *harness) voice(t *testing.T, i int) devicetest.Voice {
	t.Helper()
	ids := h.dev.Voices()
	if i >= len(ids) {
		t.Fatalf("voice %d of %d", i, len(ids))
	}
	v, _ := h.dev.Voice(ids[i])
	return v
}

func TestStartUnknownName(t *testing.T) {
	h := newHarness(t, nil)
	h.start(3, ChanWeapon, "weapons/none.wav")
	h.start(3, ChanVoice, "!NO_SUCH_SENTENCE")
	h.start(3, ChanVoice, "")
	h.update()
	if got := len(h.sys.Channels()); got != 0 {
		t.Errorf("channels = %d, want 0", got)
	}
	if got := h.dev.Calls("CreateVoice"); got != 0 {
		t.Errorf("CreateVoice called %d times", got)
	}
}

func TestReplaceOnSameChannel(t *testing.T) {
	h := newHarness(t, nil)
	h.sys.StartSound(3, ChanWeapon, "weapons/shot.wav", vec.Vec3{}, 1, 1, 100, 0)
	h.update()
	h.sys.StartSound(3, ChanWeapon, "weapons/shot2.wav", vec.Vec3{}, 1, 1, 100, 0)
	got := h.onPair(3, ChanWeapon)
	if len(got) != 1 {
		t.Fatalf("channels on (3,weapon) = %d, want 1", len(got))
	}
	if got[0].Sound != "weapons/shot2.wav" {
		t.Errorf("playing %q, want weapons/shot2.wav", got[0].Sound)
	}
	if n := h.dev.LiveVoices(); n != 1 {
		t.Errorf("live voices = %d, want 1", n)
	}
}

func TestOtherChannelsCoexist(t *testing.T) {
	h := newHarness(t, nil)
	h.start(3, ChanWeapon, "weapons/shot.wav")
	h.start(3, ChanBody, "weapons/shot.wav")
	h.start(4, ChanWeapon, "weapons/shot.wav")
	if got := len(h.sys.Channels()); got != 3 {
		t.Errorf("channels = %d, want 3", got)
	}
}

func TestStaticSoundsCoexist(t *testing.T) {
	h := newHarness(t, nil)
	for range 4 {
		h.sys.StaticSound("ambience/loop.wav", vec.Vec3{X: 10}, 1, 1)
	}
	h.update()
	got := h.onPair(0, ChanStatic)
	if len(got) != 4 {
		t.Fatalf("static channels = %d, want 4", len(got))
	}
	for _, c := range got {
		if !c.Looping {
			t.Errorf("static sound with cue does not loop")
		}
	}
}

func TestOneShotReleased(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SpareChannels = 0 })
	h.start(3, ChanWeapon, "weapons/shot.wav")
	h.update()
	if len(h.sys.Channels()) != 1 {
		t.Fatalf("sound did not start")
	}
	h.dev.FinishAll()
	h.update()
	if got := len(h.sys.Channels()); got != 0 {
		t.Errorf("channels after finish = %d, want 0", got)
	}
	if got := h.dev.LiveVoices(); got != 0 {
		t.Errorf("live voices = %d, want 0", got)
	}
	for _, smp := range h.sys.Samples() {
		if smp.Refs != 0 {
			t.Errorf("%s still referenced %d times", smp.Name, smp.Refs)
		}
	}
}

func TestSpareVoicesKept(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SpareChannels = 1 })
	h.start(3, ChanWeapon, "weapons/shot.wav")
	h.start(4, ChanWeapon, "weapons/shot.wav")
	h.start(5, ChanWeapon, "weapons/shot.wav")
	h.dev.FinishAll()
	h.update()
	if got := h.dev.LiveVoices(); got != 1 {
		t.Errorf("live voices = %d, want 1", got)
	}
	h.start(6, ChanWeapon, "weapons/shot.wav")
	if got := h.dev.Calls("CreateVoice"); got != 3 {
		t.Errorf("CreateVoice called %d times, want 3", got)
	}
	h.sys.StopAll()
	if got := h.dev.LiveVoices(); got != 0 {
		t.Errorf("live voices after StopAll = %d", got)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.start(3, ChanWeapon, "weapons/shot.wav")
	h.sys.Pause()
	h.sys.Pause()
	if st := h.voice(t, 0).State; st != device.Paused {
		t.Errorf("state = %v, want paused", st)
	}
	if got := h.dev.Calls("Pause"); got != 1 {
		t.Errorf("Pause called %d times, want 1", got)
	}
	h.update()
	if len(h.sys.Channels()) != 1 {
		t.Errorf("paused channel released")
	}
	h.sys.Resume()
	h.sys.Resume()
	v := h.voice(t, 0)
	if v.State != device.Playing {
		t.Errorf("state = %v, want playing", v.State)
	}
	if v.Plays != 2 {
		t.Errorf("voice started %d times, want 2", v.Plays)
	}
}

func TestSentencePlaysWordsInOrder(t *testing.T) {
	h := newHarness(t, nil)
	h.start(7, ChanVoice, "!HG_ABC")
	want := []string{"hgrunt/a.wav", "hgrunt/b.wav", "hgrunt/c.wav"}
	for i, w := range want {
		got := h.onPair(7, ChanVoice)
		if len(got) != 1 {
			t.Fatalf("word %d: channels = %d, want 1", i, len(got))
		}
		if got[0].Sound != w || got[0].Word != i || got[0].Sentence != "!HG_ABC" {
			t.Errorf("word %d: %+v, want %s", i, got[0], w)
		}
		if _, ok := h.sys.Mouth(7, ChanVoice); !ok {
			t.Errorf("word %d: mouth not tracked", i)
		}
		h.update()
		if len(h.onPair(7, ChanVoice)) != 1 {
			t.Fatalf("word %d: channel released while audible", i)
		}
		h.dev.FinishAll()
		h.update()
	}
	if got := len(h.sys.Channels()); got != 0 {
		t.Errorf("channels after sentence = %d, want 0", got)
	}
	if _, ok := h.sys.Mouth(7, ChanVoice); ok {
		t.Errorf("mouth still open after sentence")
	}
	if got := h.voice(t, 0).Plays; got != 3 {
		t.Errorf("word playbacks = %d, want 3", got)
	}
}

func TestSentenceSkipsMissingWords(t *testing.T) {
	h := newHarness(t, nil)
	h.start(7, ChanVoice, "!hg_hole")
	var words []string
	for range 5 {
		for _, c := range h.sys.Channels() {
			words = append(words, c.Sound)
		}
		h.dev.FinishAll()
		h.update()
	}
	if strings.Join(words, " ") != "hgrunt/a.wav hgrunt/c.wav" {
		t.Errorf("words = %v", words)
	}
}

func TestMouthFollowsTable(t *testing.T) {
	h := newHarness(t, nil)
	h.start(7, ChanVoice, "!HG_ABC")
	if open, _ := h.sys.Mouth(7, ChanVoice); open != 0 {
		t.Errorf("mouth at start = %v, want 0", open)
	}
	h.clock.Advance(50 * time.Millisecond)
	h.update()
	if open, _ := h.sys.Mouth(7, ChanVoice); open < 0.49 || open > 0.51 {
		t.Errorf("mouth after 50ms = %v, want 0.5", open)
	}
	h.dev.FinishAll()
	h.update()
	if open, _ := h.sys.Mouth(7, ChanVoice); open != catalog.DefaultMouth {
		t.Errorf("mouth on word without table = %v", open)
	}
}

func TestMouthStopsWhilePaused(t *testing.T) {
	h := newHarness(t, nil)
	h.start(7, ChanVoice, "!HG_ABC")
	h.clock.Advance(50 * time.Millisecond)
	h.sys.Pause()
	h.clock.Advance(10 * time.Second)
	h.update()
	if open, _ := h.sys.Mouth(7, ChanVoice); open < 0.49 || open > 0.51 {
		t.Errorf("mouth while paused = %v, want 0.5", open)
	}
	h.sys.Resume()
	h.clock.Advance(25 * time.Millisecond)
	h.update()
	if open, _ := h.sys.Mouth(7, ChanVoice); open < 0.74 || open > 0.76 {
		t.Errorf("mouth 25ms after resume = %v, want 0.75", open)
	}
}

func TestPitchZeroRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.sys.StartSound(3, ChanWeapon, "weapons/shot.wav", vec.Vec3{}, 1, 1, 0, 0)
	if len(h.sys.Channels()) != 0 {
		t.Errorf("pitch 0 started a sound")
	}
	h.sys.StartSound(3, ChanWeapon, "weapons/shot.wav", vec.Vec3{}, 1, 1, 150, 0)
	if p := h.voice(t, 0).Pitch; p != 1.5 {
		t.Errorf("voice pitch = %v, want 1.5", p)
	}
}

func TestChangeFlags(t *testing.T) {
	h := newHarness(t, nil)
	h.sys.StopSound(1, ChanBody)
	h.sys.StartSound(1, ChanBody, "ambience/loop.wav", vec.Vec3{}, 1, 1, 100, FlagStop)
	if h.dev.Calls("CreateVoice") != 0 {
		t.Fatalf("stop of a silent pair allocated a voice")
	}
	h.start(1, ChanBody, "ambience/loop.wav")
	h.sys.StartSound(1, ChanBody, "AMBIENCE/LOOP.WAV", vec.Vec3{}, 0.3, 1, 100, FlagChangeVolume)
	h.sys.StartSound(1, ChanBody, "ambience/loop.wav", vec.Vec3{}, 1, 1, 80, FlagChangePitch)
	v := h.voice(t, 0)
	if v.Gain != 0.3 || v.Pitch != 0.8 {
		t.Errorf("gain, pitch = %v, %v, want 0.3, 0.8", v.Gain, v.Pitch)
	}
	if v.Plays != 1 || len(h.sys.Channels()) != 1 {
		t.Errorf("change restarted the sound")
	}
	h.sys.StartSound(1, ChanBody, "ambience/loop.wav", vec.Vec3{}, 1, 1, 100, FlagStop)
	if len(h.sys.Channels()) != 0 {
		t.Errorf("FlagStop left the sound playing")
	}
	// a change of a sound that does not play starts it
	h.sys.StartSound(1, ChanBody, "ambience/loop.wav", vec.Vec3{}, 0.5, 1, 100, FlagChangeVolume)
	if len(h.sys.Channels()) != 1 {
		t.Errorf("change without playing instance did not start")
	}
}

func TestDedupOffset(t *testing.T) {
	h := newHarness(t, nil)
	h.start(1, ChanAuto, "common/a.wav")
	if h.dev.Calls("SetOffset") != 0 {
		t.Fatalf("first instance skipped")
	}
	h.start(2, ChanAuto, "common/a.wav")
	if got := h.dev.Calls("SetOffset"); got != 1 {
		t.Fatalf("SetOffset called %d times, want 1", got)
	}
	if off := h.voice(t, 1).Offset; off < 0 || off > 100 {
		t.Errorf("offset = %d, want within 10%% of 1000 frames", off)
	}
	h.start(3, ChanVoice, "!HG_ABC")
	h.start(4, ChanVoice, "!HG_ABC")
	if got := h.dev.Calls("SetOffset"); got != 1 {
		t.Errorf("sentence words were skipped, SetOffset called %d times", got)
	}
}

func TestEviction(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.MaxChannels = 3 })
	h.update() // listener is entity 1
	h.start(1, ChanWeapon, "weapons/shot.wav")
	h.start(2, ChanWeapon, "weapons/shot.wav")
	h.sys.StaticSound("ambience/loop.wav", vec.Vec3{}, 1, 1)
	h.start(3, ChanWeapon, "weapons/shot.wav")
	if len(h.onPair(2, ChanWeapon)) != 0 {
		t.Errorf("oldest one shot not evicted")
	}
	if len(h.onPair(1, ChanWeapon)) != 1 || len(h.onPair(3, ChanWeapon)) != 1 || len(h.onPair(0, ChanStatic)) != 1 {
		t.Errorf("channels = %+v", h.sys.Channels())
	}
	h.start(4, ChanWeapon, "weapons/shot.wav")
	if len(h.onPair(3, ChanWeapon)) != 0 || len(h.onPair(4, ChanWeapon)) != 1 {
		t.Errorf("channels = %+v", h.sys.Channels())
	}
	if got := h.dev.LiveVoices(); got != 3 {
		t.Errorf("live voices = %d, want 3", got)
	}
}

func TestEvictionDropsWithoutVictim(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.MaxChannels = 1 })
	h.sys.StaticSound("ambience/loop.wav", vec.Vec3{}, 1, 1)
	h.start(3, ChanWeapon, "weapons/shot.wav")
	if len(h.onPair(3, ChanWeapon)) != 0 || len(h.sys.Channels()) != 1 {
		t.Errorf("channels = %+v", h.sys.Channels())
	}
}

func TestReposition(t *testing.T) {
	h := newHarness(t, nil)
	h.ents[5] = Entity{Origin: vec.Vec3{X: 10}, MsgNum: 7}
	h.ents[6] = Entity{Origin: vec.Vec3{X: 100}, Mins: vec.Vec3{X: -10, Y: -10, Z: -10}, Maxs: vec.Vec3{X: 30, Y: 10, Z: 10}, Brush: true, MsgNum: 7}
	h.start(5, ChanVoice, "ambience/loop.wav")
	h.start(6, ChanBody, "ambience/loop.wav")
	h.sys.Update(Frame{ViewEntity: 1, MsgNum: 7})
	if p := h.voice(t, 0).Position; p != (vec.Vec3{X: 10}) {
		t.Errorf("entity sound at %v, want origin", p)
	}
	if p := h.voice(t, 1).Position; p != (vec.Vec3{X: 110}) {
		t.Errorf("brush sound at %v, want bounds center", p)
	}
	h.ents[5] = Entity{Origin: vec.Vec3{X: 20}, MsgNum: 7}
	h.sys.Update(Frame{ViewEntity: 1, MsgNum: 8})
	if p := h.voice(t, 0).Position; p != (vec.Vec3{X: 10}) {
		t.Errorf("stale entity moved to %v", p)
	}
	delete(h.ents, 5)
	h.sys.Update(Frame{ViewEntity: 1, MsgNum: 9})
	if p := h.voice(t, 0).Position; p != (vec.Vec3{X: 10}) {
		t.Errorf("missing entity moved to %v", p)
	}
}

func TestStaticSoundFollowsEntity(t *testing.T) {
	h := newHarness(t, nil)
	h.ents[9] = Entity{Origin: vec.Vec3{X: 10}, MsgNum: 1}
	h.sys.StartSound(9, ChanStatic, "ambience/loop.wav", vec.Vec3{X: 10}, 1, 1, PitchNorm, 0)
	h.sys.StaticSound("ambience/loop.wav", vec.Vec3{X: 30}, 1, 1)
	h.ents[9] = Entity{Origin: vec.Vec3{X: 500}, MsgNum: 2}
	h.sys.Update(Frame{ViewEntity: 1, MsgNum: 2})
	if p := h.voice(t, 0).Position; p != (vec.Vec3{X: 500}) {
		t.Errorf("static sound of a moving entity at %v, want {500 0 0}", p)
	}
	if p := h.voice(t, 1).Position; p != (vec.Vec3{X: 30}) {
		t.Errorf("world sound moved to %v", p)
	}
}

func TestLocalSoundsCoexist(t *testing.T) {
	h := newHarness(t, nil)
	h.sys.LocalSound("weapons/shot.wav")
	h.sys.LocalSound("weapons/shot2.wav")
	h.sys.LocalSound("common/a.wav")
	if n := len(h.onPair(LocalEntity, ChanStatic)); n != 3 {
		t.Errorf("%d local sounds playing, want 3", n)
	}
}

func TestListenerSoundsAreRelative(t *testing.T) {
	h := newHarness(t, nil)
	h.update()
	h.sys.StartSound(1, ChanWeapon, "weapons/shot.wav", vec.Vec3{X: 500}, 1, 1, 100, 0)
	h.sys.LocalSound("weapons/shot2.wav")
	h.start(2, ChanWeapon, "weapons/shot.wav")
	for i, want := range []bool{true, true, false} {
		if got := h.voice(t, i).Relative; got != want {
			t.Errorf("voice %d relative = %v, want %v", i, got, want)
		}
	}
}

func TestMasterGain(t *testing.T) {
	h := newHarness(t, nil)
	if g := h.dev.MasterGain(); g != 0.7 {
		t.Errorf("initial gain = %v, want 0.7", g)
	}
	h.sys.SetVolume(0.5)
	h.sys.Block()
	if g := h.dev.MasterGain(); g != 0 {
		t.Errorf("blocked gain = %v", g)
	}
	h.sys.Unblock()
	if g := h.dev.MasterGain(); g != 0.5 {
		t.Errorf("unblocked gain = %v", g)
	}
	h.sys.SetVolume(3)
	if g := h.dev.MasterGain(); g != 1 {
		t.Errorf("volume not clamped: %v", g)
	}
	h.sys.SetVolume(0.5)

	h.sys.FadeClientVolume(100, time.Second, time.Second, time.Second)
	steps := []struct {
		at   time.Duration
		gain float32
	}{
		{500 * time.Millisecond, 0.25},
		{1500 * time.Millisecond, 0},
		{2500 * time.Millisecond, 0.25},
		{3500 * time.Millisecond, 0.5},
	}
	for _, s := range steps {
		h.clock.Set(s.at)
		h.update()
		if g := h.dev.MasterGain(); g < s.gain-1e-5 || g > s.gain+1e-5 {
			t.Errorf("gain at %v = %v, want %v", s.at, g, s.gain)
		}
	}
}

func TestRoomAndFilter(t *testing.T) {
	h := newHarness(t, nil)
	h.start(3, ChanWeapon, "ambience/loop.wav")
	h.sys.Update(Frame{RoomType: 2})
	if r := h.dev.Room(); r.Name != "metal small" {
		t.Errorf("room = %q", r.Name)
	}
	h.sys.Update(Frame{RoomType: 2, Underwater: true})
	if r := h.dev.Room(); r.Name != "water 1" {
		t.Errorf("underwater room = %q", r.Name)
	}
	if f := h.voice(t, 0).Filter; f != device.UnderwaterFilter {
		t.Errorf("filter = %+v", f)
	}
	filters := h.dev.Calls("SetFilter")
	rooms := h.dev.Calls("SetRoom")
	h.sys.Update(Frame{RoomType: 2, Underwater: true})
	if h.dev.Calls("SetFilter") != filters || h.dev.Calls("SetRoom") != rooms {
		t.Errorf("unchanged room was applied again")
	}
	h.sys.Update(Frame{RoomType: 2})
	if f := h.voice(t, 0).Filter; f != device.NormalFilter {
		t.Errorf("filter after surfacing = %+v", f)
	}
	h.sys.SetRoomType(5)
	h.sys.Update(Frame{RoomType: 2})
	if r := h.dev.Room(); r.Name != "tunnel small" {
		t.Errorf("overridden room = %q", r.Name)
	}
	h.sys.SetRoomOff(true)
	h.sys.Update(Frame{RoomType: 2, Underwater: true})
	if r := h.dev.Room(); r.Enabled() {
		t.Errorf("room_off room = %q", r.Name)
	}
}

func TestRegistration(t *testing.T) {
	h := newHarness(t, nil)
	h.sys.BeginRegistration()
	if h.sys.PrecacheSound("weapons/shot.wav") < 0 || h.sys.PrecacheSound("weapons/shot2.wav") < 0 {
		t.Fatal("precache failed")
	}
	if h.sys.PrecacheSound("weapons/none.wav") != -1 {
		t.Errorf("missing sound has a handle")
	}
	h.sys.EndRegistration()
	if got := h.dev.LiveBuffers(); got != 2 {
		t.Fatalf("buffers = %d, want 2", got)
	}
	h.start(3, ChanWeapon, "weapons/shot2.wav")
	h.sys.BeginRegistration()
	h.sys.PrecacheSound("weapons/shot.wav")
	h.sys.EndRegistration()
	if got := h.dev.LiveBuffers(); got != 2 {
		t.Errorf("buffer of a playing sound freed, buffers = %d", got)
	}
	h.sys.StopAll()
	h.sys.BeginRegistration()
	h.sys.PrecacheSound("weapons/shot.wav")
	h.sys.EndRegistration()
	if got := h.dev.LiveBuffers(); got != 1 {
		t.Errorf("buffers = %d, want 1", got)
	}
}

func TestDecodeFailureNotRetried(t *testing.T) {
	h := newHarness(t, nil)
	for range 3 {
		h.start(3, ChanWeapon, "bad.wav")
		h.update()
	}
	if got := h.src.reads["sound/bad.wav"]; got != 1 {
		t.Errorf("bad.wav read %d times, want 1", got)
	}
	if len(h.sys.Channels()) != 0 || h.dev.LiveVoices() != 0 {
		t.Errorf("failed sound allocated a channel")
	}
	var failed bool
	for _, s := range h.sys.Samples() {
		if s.Name == "bad.wav" {
			failed = s.Failed
		}
	}
	if !failed {
		t.Errorf("bad.wav not marked failed")
	}
}

func TestDeviceFailureFallsBackToDummy(t *testing.T) {
	cat := catalog.New(nil, []string{"a.wav"}, nil)
	fail := func() (device.Backend, error) { return nil, errors.Wrap(device.ErrNoDevice, "test") }
	s := Init(DefaultConfig(), cat, nil, fail)
	if s == nil || !s.Silent() {
		t.Fatalf("Init = %v, want silent sound system", s)
	}
	exercise(s)
	if got := s.Channels(); len(got) != 0 {
		t.Errorf("dummy has channels %v", got)
	}
	if h := s.PrecacheSound("a.wav"); h != -1 {
		t.Errorf("dummy precache = %d", h)
	}
}

func TestNilSndSys(t *testing.T) {
	var s *SndSys
	exercise(s)
	if !s.Silent() || s.Channels() != nil || s.Samples() != nil {
		t.Errorf("nil sound system reports state")
	}
}

func exercise(s *SndSys) {
	s.BeginRegistration()
	s.PrecacheSound("a.wav")
	s.EndRegistration()
	s.StartSound(1, ChanWeapon, "a.wav", vec.Vec3{}, 1, 1, PitchNorm, 0)
	s.StartSound(1, ChanVoice, "!S", vec.Vec3{}, 1, 1, PitchNorm, 0)
	s.StaticSound("a.wav", vec.Vec3{}, 1, 1)
	s.LocalSound("a.wav")
	s.Update(Frame{Underwater: true})
	s.Block()
	s.Unblock()
	s.Pause()
	s.Resume()
	s.SetVolume(0.3)
	s.FadeClientVolume(50, time.Second, 0, time.Second)
	s.SetRoomType(3)
	s.SetRoomOff(true)
	s.SetDedupSkip(0.2)
	s.SetMaxChannels(8)
	s.Mouth(1, ChanVoice)
	s.StopSound(1, ChanWeapon)
	s.StopAll()
	s.Shutdown()
}

func TestShutdownReleasesEverything(t *testing.T) {
	h := newHarness(t, nil)
	h.start(3, ChanWeapon, "weapons/shot.wav")
	h.start(4, ChanVoice, "!HG_ABC")
	h.sys.Shutdown()
	if h.dev.LiveVoices() != 0 || h.dev.LiveBuffers() != 0 {
		t.Errorf("voices %d, buffers %d after shutdown", h.dev.LiveVoices(), h.dev.LiveBuffers())
	}
	if !h.dev.Closed() {
		t.Errorf("device not closed")
	}
	h.start(3, ChanWeapon, "weapons/shot.wav")
	if len(h.sys.Channels()) != 0 {
		t.Errorf("sound started after shutdown")
	}
}

func TestClientFadeLevel(t *testing.T) {
	f := clientFade{start: time.Second, percent: 50, out: time.Second, in: 2 * time.Second}
	tests := []struct {
		now  time.Duration
		want float32
	}{
		{0, 1},
		{time.Second, 1},
		{2 * time.Second, 0.5},
		{3 * time.Second, 0.75},
		{4 * time.Second, 1},
	}
	for _, tc := range tests {
		if got := f.level(tc.now); got < tc.want-1e-5 || got > tc.want+1e-5 {
			t.Errorf("level(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}
