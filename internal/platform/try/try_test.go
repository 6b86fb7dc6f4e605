package try

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestHandle_Success(t *testing.T) {
	res := Handle(func() (int, error) { return 7, nil })

	require.True(t, res.Success)
	assert.Equal(t, 7, res.Data)
	assert.NoError(t, res.Err)
}

func TestHandle_ReturnedError(t *testing.T) {
	res := Handle(func() (string, error) { return "ignored", errBoom })

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, errBoom)
	assert.Empty(t, res.Data)
}

func TestHandle_PanicWithError(t *testing.T) {
	res := Handle(func() (int, error) { panic(errBoom) })

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, errBoom)
}

func TestHandle_PanicWithValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "bad thing", want: "bad thing"},
		{name: "int", value: 42, want: "42"},
		{name: "struct", value: struct{ A int }{A: 1}, want: "{1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Handle(func() (int, error) { panic(tt.value) })

			assert.False(t, res.Success)
			assert.EqualError(t, res.Err, tt.want)
		})
	}
}

func TestGo(t *testing.T) {
	assert.NoError(t, Go(func() error { return nil }))
	assert.ErrorIs(t, Go(func() error { return errBoom }), errBoom)
	assert.EqualError(t, Go(func() error { panic("nope") }), "nope")
}

func TestResult_Unwrap(t *testing.T) {
	data, err := Handle(func() (string, error) { return "ok", nil }).Unwrap()
	assert.Equal(t, "ok", data)
	assert.NoError(t, err)
}
