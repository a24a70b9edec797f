package binary

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSynchsafe(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected uint32
	}{
		{"zero", []byte{0x00, 0x00, 0x00, 0x00}, 0},
		{"127", []byte{0x00, 0x00, 0x00, 0x7F}, 127},
		{"128", []byte{0x00, 0x00, 0x01, 0x00}, 128},
		{"257", []byte{0x00, 0x00, 0x02, 0x01}, 257},
		{"max", []byte{0x7F, 0x7F, 0x7F, 0x7F}, MaxSynchsafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeSynchsafe(tt.input))
		})
	}
}

func TestSynchsafe_RoundTrip(t *testing.T) {
	check := func(v uint32) {
		enc := EncodeSynchsafe(v)
		if !IsSynchsafe(enc[:]) {
			t.Fatalf("EncodeSynchsafe(%d) = %x has a high bit set", v, enc)
		}
		if got := DecodeSynchsafe(enc[:]); got != v {
			t.Fatalf("DecodeSynchsafe(EncodeSynchsafe(%d)) = %d", v, got)
		}
	}

	// Every boundary where a 7-bit group rolls over.
	for shift := 0; shift < 28; shift++ {
		v := uint32(1) << shift
		check(v - 1)
		check(v)
		check(v + 1)
	}
	check(MaxSynchsafe)

	rng := rand.New(rand.NewSource(1))
	for range 200000 {
		check(uint32(rng.Int63n(MaxSynchsafe + 1)))
	}
}

func TestEncodeSynchsafe_DecodeIsInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 10000 {
		b := []byte{byte(rng.Intn(128)), byte(rng.Intn(128)), byte(rng.Intn(128)), byte(rng.Intn(128))}
		enc := EncodeSynchsafe(DecodeSynchsafe(b))
		assert.Equal(t, b, enc[:])
	}
}

func TestIsSynchsafe(t *testing.T) {
	assert.True(t, IsSynchsafe([]byte{0x7F, 0x00, 0x01, 0x7F}))
	assert.False(t, IsSynchsafe([]byte{0x00, 0x80, 0x00, 0x00}))
}
