// ABOUTME: Shared fixtures for core tests
// ABOUTME: Generates poorly compressible text so splitting actually happens
package core

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jerbio/BigDataTiler/internal/models"
)

const hexDigits = "0123456789abcdef"

// randomHex returns n pseudo-random hex characters. Hex text compresses to
// roughly half its length, which keeps splits predictable.
func randomHex(seed uint64, n int) string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var b strings.Builder
	b.Grow(n)
	for b.Len() < n {
		v := rng.Uint64()
		for i := 0; i < 16 && b.Len() < n; i++ {
			b.WriteByte(hexDigits[v&0xf])
			v >>= 4
		}
	}
	return b.String()
}

// eventLog returns an XML-ish log of at least n characters whose lines
// repeat a fixed pattern around a random token
func eventLog(seed uint64, n int) string {
	var b strings.Builder
	b.Grow(n + 128)
	b.WriteString("<Log>\n")
	for i := 0; b.Len() < n; i++ {
		b.WriteString(`<e i="`)
		b.WriteString(strconv.Itoa(i))
		b.WriteString(`" v="`)
		b.WriteString(randomHex(seed+uint64(i), 64))
		b.WriteString("\"/>\n")
	}
	return b.String()[:n]
}

// mixedUnicode returns n characters cycling through one to four byte runes
func mixedUnicode(seed uint64, n int) string {
	alphabet := []rune("aé世🚀zß語ü\n<>\"Ω€")
	rng := rand.New(rand.NewPCG(seed, seed+1))
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(alphabet[rng.IntN(len(alphabet))])
	}
	return b.String()
}

func testMeta() models.LogMeta {
	return models.LogMeta{
		UserID:         "user_42",
		TypeOfEvent:    "ScheduleUpdate",
		Trigger:        string(models.TriggerScheduleChange),
		TimeOfCreation: time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
	}
}

func newTestEngine(t *testing.T, maxBytes int) *Engine {
	t.Helper()
	engine, err := NewEngine(maxBytes, nil)
	if err != nil {
		t.Fatalf("NewEngine(%d) error = %v", maxBytes, err)
	}
	return engine
}
