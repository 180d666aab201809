package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierFanOut(t *testing.T) {
	n := NewNotifier()

	var a, b int
	n.OnProgress(func(Progress) { a++ })
	cancelB := n.OnProgress(func(Progress) { b++ })

	n.notifyProgress(Progress{Stage: StageUploading, Current: 1, Total: 2})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	cancelB()
	n.notifyProgress(Progress{Stage: StageUploading, Current: 2, Total: 2})
	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b, "cancelled subscriber no longer called")
}

func TestNotifierPercentage(t *testing.T) {
	n := NewNotifier()

	var got Progress
	n.OnProgress(func(p Progress) { got = p })

	n.notifyProgress(Progress{Stage: StageDownloading, Current: 1, Total: 4})
	assert.Equal(t, float64(25), got.Percentage)

	// Zero total must not divide by zero.
	n.notifyProgress(Progress{Stage: StageDownloading, Current: 0, Total: 0})
	assert.Equal(t, float64(0), got.Percentage)
}
