// Package usergen generates synthetic user records for seeding.
package usergen

import (
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

const (
	MinAge = 18
	MaxAge = 100
)

// SeedRecord is one synthetic user. It lives only for a single insert attempt.
type SeedRecord struct {
	Name  string
	Email string
	Age   int
}

// Data returns the document body. Keys match the attribute names of the
// target users collection.
func (r SeedRecord) Data() map[string]any {
	return map[string]any{
		"Name":  r.Name,
		"email": r.Email,
		"age":   r.Age,
	}
}

// Generator produces SeedRecords. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// New returns a Generator. A zero seed picks a random one.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Next returns a fresh record.
func (g *Generator) Next() SeedRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return SeedRecord{
		Name:  g.faker.Name(),
		Email: g.faker.Email(),
		Age:   g.faker.IntRange(MinAge, MaxAge),
	}
}

// NewDocumentID returns a unique 32-character hex id, valid as an Appwrite
// custom document id and as a primary key for the SQL backends.
func NewDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
