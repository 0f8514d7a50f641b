package reindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTrackerReporting(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 100, 10)
	p.Start()

	p.Update(5)
	assert.Empty(t, out.String(), "below report interval, nothing written")

	p.Update(10)
	assert.Contains(t, out.String(), "10/100")

	p.Increment(90)
	assert.Contains(t, out.String(), "100/100")

	p.Finish()
	assert.Contains(t, out.String(), "(100.0%)")
}

func TestProgressTrackerBeforeStart(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 10, 1)

	p.Update(5)
	p.Increment(2)
	p.Finish()

	assert.Empty(t, out.String())
	assert.Zero(t, p.Elapsed())
}

func TestProgressTrackerCapsAtTotal(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 10, 1)
	p.Start()

	p.Update(50)
	assert.Contains(t, out.String(), "10/10")
}
