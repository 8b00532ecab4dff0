package memory_test

import (
	"testing"

	"github.com/marmos91/shelf/pkg/catalog"
	"github.com/marmos91/shelf/pkg/catalog/catalogtest"
	"github.com/marmos91/shelf/pkg/catalog/memory"
)

func TestConformance(t *testing.T) {
	catalogtest.RunConformanceSuite(t, func(t *testing.T) catalog.Catalog {
		return memory.New()
	})
}
