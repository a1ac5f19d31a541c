// SPDX-License-Identifier: GPL-2.0-or-later

// Package rand is a small deterministic noise based generator. It is used where
// reproducible jitter is wanted, e.g. the start offset of duplicated sounds.
package rand

const (
	noise1 = 0xB5297A4D
	noise2 = 0x68E31DA4
	noise3 = 0x1B56C4E9
)

type Generator struct {
	idx  uint32
	seed uint32
}

func New(seed uint32) *Generator {
	return &Generator{seed: seed}
}

func noise(p uint32, s uint32) uint32 {
	m := p
	m *= noise1
	m += s
	m ^= (m >> 8)
	m *= noise2
	m ^= (m << 8)
	m *= noise3
	m ^= (m >> 8)
	return m
}

func (g *Generator) next() uint32 {
	g.idx++
	return noise(g.idx, g.seed)
}

func (g *Generator) Uint32n(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return g.next() % n
}

// Intn returns a value in [0,n). n <= 0 returns 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(g.Uint32n(uint32(n)))
}
