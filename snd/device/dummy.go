// SPDX-License-Identifier: GPL-2.0-or-later

package device

import "gohl/math/vec"

// Dummy is the backend used when no output device is available. Nothing can be
// created on it and everything else is ignored.
type Dummy struct{}

func (Dummy) CreateVoice() (VoiceID, error)                     { return 0, ErrNoDevice }
func (Dummy) DestroyVoice(VoiceID)                              {}
func (Dummy) CreateBuffer() (BufferID, error)                   { return 0, ErrNoDevice }
func (Dummy) DestroyBuffer(BufferID)                            {}
func (Dummy) SubmitSamples(BufferID, []float32, int, int) error { return ErrNoDevice }
func (Dummy) SetLoopPoints(BufferID, int, int)                  {}
func (Dummy) SetGain(VoiceID, float32)                          {}
func (Dummy) SetPitch(VoiceID, float32)                         {}
func (Dummy) SetPosition(VoiceID, vec.Vec3)                     {}
func (Dummy) SetRelative(VoiceID, bool)                         {}
func (Dummy) SetLooping(VoiceID, bool)                          {}
func (Dummy) SetRolloff(VoiceID, float32)                       {}
func (Dummy) SetOffset(VoiceID, int)                            {}
func (Dummy) SetFilter(VoiceID, LowPass)                        {}
func (Dummy) AttachBuffer(VoiceID, BufferID)                    {}
func (Dummy) QueueBuffers(VoiceID, ...BufferID)                 {}
func (Dummy) UnqueueBuffers(VoiceID, int) []BufferID            { return nil }
func (Dummy) ProcessedBuffers(VoiceID) int                      { return 0 }
func (Dummy) QueuedBuffers(VoiceID) int                         { return 0 }
func (Dummy) Play(VoiceID)                                      {}
func (Dummy) Pause(VoiceID)                                     {}
func (Dummy) Stop(VoiceID)                                      {}
func (Dummy) State(VoiceID) State                               { return Stopped }
func (Dummy) SetListener(Listener)                              {}
func (Dummy) SetMasterGain(float32)                             {}
func (Dummy) SetRoom(Room)                                      {}
func (Dummy) Close() error                                      { return nil }

var _ Backend = Dummy{}
var _ Backend = (*Software)(nil)
