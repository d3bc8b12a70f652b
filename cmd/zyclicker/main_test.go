package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlePanic(t *testing.T) {
	t.Cleanup(func() {
		osWriteFile = os.WriteFile
		osExit = os.Exit
	})

	var written string
	var code int
	osWriteFile = func(name string, data []byte, perm os.FileMode) error {
		assert.Equal(t, panicLogFile, name)
		written = string(data)
		return nil
	}
	osExit = func(c int) { code = c }

	func() {
		defer handlePanic()
		panic("indicator vanished")
	}()

	assert.Equal(t, 2, code)
	assert.Contains(t, written, "panic: indicator vanished")
	assert.Contains(t, written, "goroutine")

	t.Run("log write failure", func(t *testing.T) {
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
		func() {
			defer handlePanic()
			panic("again")
		}()
		assert.Equal(t, 1, code)
	})

	t.Run("no panic", func(t *testing.T) {
		code = -1
		func() {
			defer handlePanic()
		}()
		assert.Equal(t, -1, code)
	})
}
