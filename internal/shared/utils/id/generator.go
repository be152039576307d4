package id

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Strategy identifies the identifier generation algorithm to use.
type Strategy int

const (
	// StrategyRandom uses the dash-free hex form of a random (v4) UUID.
	StrategyRandom Strategy = iota
	// StrategyUUIDv7 generates time-ordered identifiers using UUID version 7.
	StrategyUUIDv7
)

const toolCallPrefix = "chatcmpl-tool"

var defaultGenerator = &Generator{strategy: StrategyRandom}

// Generator produces identifiers for tool calls and batch runs.
type Generator struct {
	mu       sync.RWMutex
	strategy Strategy
}

// ParseStrategy maps a configured strategy name (random or uuidv7) to a
// Strategy. The empty name is random.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "random":
		return StrategyRandom, nil
	case "uuidv7":
		return StrategyUUIDv7, nil
	default:
		return StrategyRandom, fmt.Errorf("unknown id strategy %q", name)
	}
}

// SetStrategy configures the generation strategy for the default generator.
func SetStrategy(strategy Strategy) {
	defaultGenerator.setStrategy(strategy)
}

func (g *Generator) setStrategy(strategy Strategy) {
	g.mu.Lock()
	g.strategy = strategy
	g.mu.Unlock()
}

// NewToolCallID returns an id of the form chatcmpl-tool-<hex>.
func NewToolCallID() string {
	return defaultGenerator.newIdentifier(toolCallPrefix)
}

// NewBatchID returns an id for one batch run.
func NewBatchID() string {
	return defaultGenerator.newIdentifier("batch")
}

func (g *Generator) newIdentifier(prefix string) string {
	g.mu.RLock()
	strategy := g.strategy
	g.mu.RUnlock()

	var body string
	switch strategy {
	case StrategyUUIDv7:
		if v7, err := uuid.NewV7(); err == nil {
			body = v7.String()
			break
		}
		fallthrough
	default:
		body = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	return fmt.Sprintf("%s-%s", prefix, body)
}
