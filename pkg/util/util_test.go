package util

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRecovered(t *testing.T) {
	err := Recovered(io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "recovered error")

	err = Recovered("boom")
	assert.EqualError(t, err, "recovered: boom")

	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)
}

func TestLogRecover(t *testing.T) {
	assert.NotPanics(t, func() {
		defer LogRecover()
		panic("boom")
	})
}

func TestBeNice(t *testing.T) {
	// lowering priority never needs privileges
	assert.NoError(t, BeNice(19))
}
