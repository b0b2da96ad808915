package broker

import (
	"fmt"
	"sync"
)

// Binding maps one message kind and schema version to the queue all
// messages of that kind are routed to.
type Binding struct {
	Kind    string
	Version string
	Queue   string
	Durable bool
}

func (b Binding) key() string {
	return b.Kind + "/" + b.Version
}

// RoutingTable is the explicit mapping from message kind to destination
// queue. Both processes consult the same table, so routing never depends on
// a runtime type name.
type RoutingTable struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewRoutingTable creates an empty routing table.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{bindings: make(map[string]Binding)}
}

// Bind declares a binding. Declaring an identical binding again is a no-op;
// declaring the same kind and version with different properties returns a
// *TopologyError.
func (t *RoutingTable) Bind(b Binding) error {
	if b.Kind == "" || b.Version == "" {
		return &TopologyError{Queue: b.Queue, Reason: "binding requires kind and version"}
	}
	if b.Queue == "" {
		return &TopologyError{Queue: b.Queue, Reason: "binding requires a queue name"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.bindings[b.key()]
	if ok {
		if existing == b {
			return nil
		}
		return &TopologyError{
			Queue:  existing.Queue,
			Reason: fmt.Sprintf("binding %s already declared with different properties (%+v vs %+v)", b.key(), existing, b),
		}
	}

	t.bindings[b.key()] = b
	return nil
}

// QueueFor resolves the destination queue for a message kind and version.
func (t *RoutingTable) QueueFor(kind, version string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, ok := t.bindings[kind+"/"+version]
	if !ok {
		return "", fmt.Errorf("no queue bound for message kind %s/%s", kind, version)
	}
	return b.Queue, nil
}

// Bindings returns a snapshot of all declared bindings.
func (t *RoutingTable) Bindings() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, b)
	}
	return out
}
