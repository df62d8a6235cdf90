package cache

import (
	"strings"
	"testing"

	"github.com/Sisa1265/VINF/internal/searcher"
	"github.com/Sisa1265/VINF/pkg/config"
)

func TestBuildKeyNormalizesQuery(t *testing.T) {
	c := New(nil, config.RedisConfig{})

	base := c.buildKey("aspirin pain", searcher.MethodBM25, 5)
	if !strings.HasPrefix(base, keyPrefix) {
		t.Errorf("key %q missing prefix %q", base, keyPrefix)
	}

	// Word order and case do not change the key.
	if got := c.buildKey("pain aspirin", searcher.MethodBM25, 5); got != base {
		t.Errorf("reordered query produced a different key")
	}
	if got := c.buildKey("ASPIRIN Pain", searcher.MethodBM25, 5); got != base {
		t.Errorf("case change produced a different key")
	}

	// Method and limit do.
	if got := c.buildKey("aspirin pain", searcher.MethodTFIDF, 5); got == base {
		t.Errorf("method change did not produce a different key")
	}
	if got := c.buildKey("aspirin pain", searcher.MethodBM25, 10); got == base {
		t.Errorf("limit change did not produce a different key")
	}
}

func TestStatsStartAtZero(t *testing.T) {
	c := New(nil, config.RedisConfig{})
	hits, misses := c.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("fresh cache stats = %d/%d", hits, misses)
	}
}
