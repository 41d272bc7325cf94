package service

import (
	"testing"

	"review-insights-be/pkg/insight/retrieve"

	"github.com/stretchr/testify/assert"
)

func TestAssemblyFloorTightensRetrieval(t *testing.T) {
	cfg := retrieve.Config{SectionThreshold: 0.35, ConfidenceFloor: 0.45}
	assert.Equal(t, 0.45, assemblyFloor(cfg))
}

func TestAssemblyFloorNeverDropsBelowSectionThreshold(t *testing.T) {
	// A misconfigured floor must not loosen what retrieval admitted.
	cfg := retrieve.Config{SectionThreshold: 0.35, ConfidenceFloor: 0.1}
	assert.Equal(t, 0.35, assemblyFloor(cfg))

	cfg = retrieve.Config{SectionThreshold: 0.35}
	assert.Equal(t, 0.35, assemblyFloor(cfg))
}
