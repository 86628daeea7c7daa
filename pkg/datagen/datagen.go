// Package datagen produces disposable, process-unique test records.
package datagen

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saturnines/gqlprobe/pkg/transport/graphql"
)

var (
	FirstNames = []string{
		"John", "Jane", "Michael", "Sarah", "David", "Emily", "Robert", "Lisa",
		"William", "Jennifer", "James", "Mary", "Richard", "Patricia", "Thomas", "Linda",
	}
	LastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas",
	}
	Genders = []string{"Male", "Female", "Other"}
)

const emailDomain = "testmail.com"

// seq is shared by every Generator in the process.
var seq atomic.Uint64

// Generator is safe for concurrent use. Time-suffixed values carry a
// process-wide sequence number, so two calls never collide even within the
// same millisecond or across generators.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	newUUID func() uuid.UUID
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes vocabulary picks reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithUUIDSource replaces uuid.New.
func WithUUIDSource(newUUID func() uuid.UUID) Option {
	return func(g *Generator) {
		g.newUUID = newUUID
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		newUUID: uuid.New,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) pick(vocab []string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return vocab[g.rng.Intn(len(vocab))]
}

func (g *Generator) token(n int) string {
	s := g.newUUID().String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// TimestampSuffix returns "<unix millis>_<sequence>".
func (g *Generator) TimestampSuffix() string {
	n := seq.Add(1)
	return strconv.FormatInt(g.now().UnixMilli(), 10) + "_" + strconv.FormatUint(n, 10)
}

func (g *Generator) FirstName() string {
	return g.pick(FirstNames) + "_" + g.TimestampSuffix()
}

func (g *Generator) LastName() string {
	return g.pick(LastNames) + "_" + g.TimestampSuffix()
}

func (g *Generator) Gender() string {
	return g.pick(Genders)
}

// Email returns test_<8 hex>@testmail.com.
func (g *Generator) Email() string {
	return "test_" + g.token(8) + "@" + emailDomain
}

// EmailWithPrefix returns <prefix>_<suffix>@testmail.com.
func (g *Generator) EmailWithPrefix(prefix string) string {
	return prefix + "_" + g.TimestampSuffix() + "@" + emailDomain
}

// IPAddress returns a random dotted quad.
func (g *Generator) IPAddress() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("%d.%d.%d.%d", g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256))
}

func (g *Generator) Username() string {
	return "user_" + g.token(8)
}

func (g *Generator) UsernameWithPrefix(prefix string) string {
	return prefix + "_" + g.TimestampSuffix()
}

// Password returns Pass@<12 chars>, which satisfies the usual
// upper/lower/symbol rules.
func (g *Generator) Password() string {
	return "Pass@" + g.token(12)
}

func (g *Generator) UniqueID() string {
	return g.newUUID().String()
}

// IntBetween returns a value in [min, max). It returns min when the range
// is empty.
func (g *Generator) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(max-min) + min
}

// UserData is the payload of a createUser mutation.
type UserData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	IPAddress string `json:"ipaddress"`
}

// User returns a fresh record.
func (g *Generator) User() UserData {
	return UserData{
		FirstName: g.FirstName(),
		LastName:  g.LastName(),
		Email:     g.Email(),
		Gender:    g.Gender(),
		IPAddress: g.IPAddress(),
	}
}

// UserWithPrefix tags the identifying fields with prefix, making records
// from one scenario easy to find on the server.
func (g *Generator) UserWithPrefix(prefix string) UserData {
	return UserData{
		FirstName: prefix + "_" + g.FirstName(),
		LastName:  prefix + "_" + g.LastName(),
		Email:     g.EmailWithPrefix(prefix),
		Gender:    g.Gender(),
		IPAddress: g.IPAddress(),
	}
}

// Arguments returns the createUser arguments in wire order.
func (u UserData) Arguments() []graphql.Arg {
	return []graphql.Arg{
		{Name: "firstName", Value: u.FirstName},
		{Name: "lastName", Value: u.LastName},
		{Name: "gender", Value: u.Gender},
		{Name: "ipaddress", Value: u.IPAddress},
		{Name: "email", Value: u.Email},
	}
}

func (u UserData) String() string {
	return fmt.Sprintf("UserData{firstName=%q, lastName=%q, email=%q, gender=%q, ipaddress=%q}",
		u.FirstName, u.LastName, u.Email, u.Gender, u.IPAddress)
}
