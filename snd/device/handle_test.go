// SPDX-License-Identifier: GPL-2.0-or-later

package device_test

import (
	"errors"
	"testing"

	"gohl/snd/device"
	"gohl/snd/device/devicetest"
)

func TestVoiceReleaseOnce(t *testing.T) {
	f := devicetest.New()
	v, err := device.NewVoice(f)
	if err != nil {
		t.Fatal(err)
	}
	v.Release()
	v.Release()
	if got := f.Calls("DestroyVoice"); got != 1 {
		t.Errorf("DestroyVoice called %d times", got)
	}
	if !v.Released() {
		t.Errorf("voice not released")
	}
	if f.LiveVoices() != 0 {
		t.Errorf("live voices = %d", f.LiveVoices())
	}
}

func TestBufferReleaseOnce(t *testing.T) {
	f := devicetest.New()
	b, err := device.NewBuffer(f)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Submit([]float32{0, 1, 2}, 1, 11025); err != nil {
		t.Fatal(err)
	}
	b.Release()
	b.Release()
	if got := f.Calls("DestroyBuffer"); got != 1 {
		t.Errorf("DestroyBuffer called %d times", got)
	}
	var nilBuffer *device.Buffer
	nilBuffer.Release()
}

func TestVoiceUnqueue(t *testing.T) {
	f := devicetest.New()
	v, _ := device.NewVoice(f)
	defer v.Release()
	b1, _ := device.NewBuffer(f)
	b2, _ := device.NewBuffer(f)
	defer b1.Release()
	defer b2.Release()
	v.Queue(b1, b2)
	if got := v.Unqueue(2); len(got) != 0 {
		t.Fatalf("Unqueue before processing = %d buffers", len(got))
	}
	vs := f.Voices()
	f.Process(vs[0], 1)
	got := v.Unqueue(2)
	if len(got) != 1 || got[0] != b1 {
		t.Errorf("Unqueue = %v, want first buffer", got)
	}
	if v.QueuedBuffers() != 1 {
		t.Errorf("QueuedBuffers = %d", v.QueuedBuffers())
	}
}

func TestDummy(t *testing.T) {
	if _, err := device.NewVoice(device.Dummy{}); !errors.Is(err, device.ErrNoDevice) {
		t.Errorf("NewVoice on dummy = %v", err)
	}
	if _, err := device.NewBuffer(device.Dummy{}); !errors.Is(err, device.ErrNoDevice) {
		t.Errorf("NewBuffer on dummy = %v", err)
	}
}
