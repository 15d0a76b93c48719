package usergen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFields(t *testing.T) {
	g := New(42)
	for range 200 {
		r := g.Next()
		assert.NotEmpty(t, r.Name)
		assert.Contains(t, r.Email, "@")
		assert.GreaterOrEqual(t, r.Age, MinAge)
		assert.LessOrEqual(t, r.Age, MaxAge)
	}
}

func TestDeterministicSeed(t *testing.T) {
	a, b := New(7), New(7)
	for range 10 {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestData(t *testing.T) {
	d := SeedRecord{Name: "Ann Lee", Email: "ann@example.com", Age: 30}.Data()
	assert.Equal(t, map[string]any{"Name": "Ann Lee", "email": "ann@example.com", "age": 30}, d)
}

func TestConcurrentNext(t *testing.T) {
	g := New(0)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				g.Next()
			}
		}()
	}
	wg.Wait()
}

func TestNewDocumentID(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewDocumentID()
		require.Len(t, id, 32)
		assert.False(t, strings.Contains(id, "-"))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
