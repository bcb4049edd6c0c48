package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClass(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
	assert.Equal(t, 4096, sizeClass(4096))
}

func TestGetFloat32Length(t *testing.T) {
	buf := GetFloat32(300)
	assert.Len(t, buf, 300)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	PutFloat32(buf)

	big := GetFloat32(5000)
	assert.Len(t, big, 5000)
	PutFloat32(big)
}

func TestPutFloat32Nil(t *testing.T) {
	assert.NotPanics(t, func() { PutFloat32(nil) })
}

func TestGetBoolIsZeroed(t *testing.T) {
	buf := GetBool(2000)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	again := GetBool(2000)
	for _, v := range again {
		assert.False(t, v)
	}
	PutBool(again)
}

func TestRoundTripReusesCapacity(t *testing.T) {
	buf := GetFloat32(100)
	buf[0] = 42
	PutFloat32(buf)

	// Whether or not the same backing array comes back, the length contract
	// holds.
	next := GetFloat32(100)
	assert.Len(t, next, 100)
	PutFloat32(next)
}
