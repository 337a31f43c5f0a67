package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Dice produces uniform draws over 1..6.
type Dice interface {
	Roll() int
}

// RandomDice draws from a math/rand generator. It is safe for concurrent use.
type RandomDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDice returns dice backed by src.
func NewRandomDice(src rand.Source) *RandomDice {
	return &RandomDice{rng: rand.New(src)}
}

// NewCryptoDice returns dice backed by the operating system's entropy.
func NewCryptoDice() *RandomDice {
	return NewRandomDice(CryptoSource{})
}

func (d *RandomDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(MaxDiceValue) + MinDiceValue
}

// CryptoSource is a rand.Source reading from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Int63() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) & (1<<63 - 1))
}

func (CryptoSource) Seed(int64) {}

// SequenceDice replays fixed values, cycling when exhausted.
type SequenceDice struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequenceDice returns dice that roll values in order.
func NewSequenceDice(values ...int) *SequenceDice {
	return &SequenceDice{values: values}
}

func (d *SequenceDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.values) == 0 {
		return MinDiceValue
	}
	v := d.values[d.next%len(d.values)]
	d.next++
	return v
}

// Push appends values to the sequence.
func (d *SequenceDice) Push(values ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = append(d.values, values...)
}
