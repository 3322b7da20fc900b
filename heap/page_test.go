package heap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageBufferBoundary(t *testing.T) {

	t.Run("three 60 byte records fill a 200 byte page exactly", func(t *testing.T) {
		pb := NewPageBuffer(200)
		for i := 0; i < 3; i++ {
			ok, err := pb.TryAppend(bytes.Repeat([]byte{byte('a' + i)}, 60))
			assert.Nil(t, err)
			assert.True(t, ok)
		}
		assert.Equal(t, 180, pb.Used())
		assert.Equal(t, 200, pb.Used()+TrailerSize(pb.Count()))

		ok, err := pb.TryAppend([]byte{1})
		assert.Nil(t, err)
		assert.False(t, ok)
	})

	t.Run("third 61 byte record overflows", func(t *testing.T) {
		pb := NewPageBuffer(200)
		rec := bytes.Repeat([]byte{'x'}, 61)

		for i := 0; i < 2; i++ {
			ok, err := pb.TryAppend(rec)
			assert.Nil(t, err)
			assert.True(t, ok)
		}

		before := append([]byte(nil), pb.Bytes()...)
		ok, err := pb.TryAppend(rec)
		assert.Nil(t, err)
		assert.False(t, ok)

		// overflow leaves the page as it was
		assert.Equal(t, 122, pb.Used())
		assert.Equal(t, []int{0, 61}, pb.Offsets())
		assert.Equal(t, before, pb.Bytes())
	})
}

func TestPageBufferOversized(t *testing.T) {
	pb := NewPageBuffer(64)
	assert.Equal(t, 52, MaxRecordSize(64))

	ok, err := pb.TryAppend(make([]byte, 52))
	assert.Nil(t, err)
	assert.True(t, ok)

	pb = NewPageBuffer(64)
	ok, err = pb.TryAppend(make([]byte, 53))
	assert.ErrorIs(t, err, ErrOversizedRecord)
	assert.False(t, ok)
	assert.Equal(t, 0, pb.Count())
}

func TestPageBufferSeal(t *testing.T) {
	pb := NewPageBuffer(64)
	_, err := pb.TryAppend([]byte("hello"))
	assert.Nil(t, err)
	_, err = pb.TryAppend([]byte("world!"))
	assert.Nil(t, err)

	assert.Nil(t, pb.Seal())
	assert.True(t, pb.Sealed())

	page := pb.Bytes()
	assert.Equal(t, "helloworld!", string(page[:11]))
	assert.Equal(t, make([]byte, 64-11-TrailerSize(2)), page[11:64-TrailerSize(2)])
	assert.Equal(t, []int32{5, 0, 2, 11}, words(page[64-TrailerSize(2):]))

	assert.ErrorIs(t, pb.Seal(), ErrPageSealed)
	_, err = pb.TryAppend([]byte("x"))
	assert.ErrorIs(t, err, ErrPageSealed)

	pb.Reset()
	assert.False(t, pb.Sealed())
	assert.Equal(t, 0, pb.Used())
	assert.Equal(t, 0, pb.Count())
	assert.Equal(t, make([]byte, 64), pb.Bytes())
}

func TestPageBufferOffsetsGrow(t *testing.T) {
	// many one byte records: far more slots than any fixed guess would allow
	pb := NewPageBuffer(4096)
	n := 0
	for {
		ok, err := pb.TryAppend([]byte{byte(n)})
		assert.Nil(t, err)
		if !ok {
			break
		}
		n++
	}
	// used + (n+2)*4 <= 4096 with used == n
	assert.Equal(t, (4096-8)/5, n)
	assert.LessOrEqual(t, pb.Used()+TrailerSize(pb.Count()), 4096)
}
