package state

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Manager owns named registers and commits them on the same clock edge.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]Clocked
}

// NewManager constructs a Manager with no registered states.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]Clocked)}
}

// Register installs a register under the provided key.
func (m *Manager) Register(key string, reg Clocked) error {
	if key == "" {
		return fmt.Errorf("state: key must be non-empty")
	}

	if isNil(reg) {
		return fmt.Errorf("state: register for %q must be non-nil", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		return fmt.Errorf("state: key %q already registered", key)
	}

	m.entries[key] = reg

	return nil
}

// Keys lists the registered keys in sorted order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Snapshot returns a deep copy of the current value stored under key.
func (m *Manager) Snapshot(key string) (any, error) {
	m.mu.RLock()
	reg, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("state: key %q is not registered", key)
	}

	copyVal, err := deepCopy(reg.Value())
	if err != nil {
		return nil, fmt.Errorf("state: unable to copy value for %q: %w", key, err)
	}

	return copyVal, nil
}

// CommitAll applies all staged values. It is the clock edge of the cycle.
func (m *Manager) CommitAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, reg := range m.entries {
		reg.Commit()
	}
}

// DiscardAll forgets every staged value without committing it.
func (m *Manager) DiscardAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, reg := range m.entries {
		reg.Discard()
	}
}

func isNil(reg Clocked) bool {
	if reg == nil {
		return true
	}

	v := reflect.ValueOf(reg)

	return v.Kind() == reflect.Ptr && v.IsNil()
}

func deepCopy(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("nil value")
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}

	typ := reflect.TypeOf(value)
	var target reflect.Value
	if typ.Kind() == reflect.Ptr {
		target = reflect.New(typ.Elem())
	} else {
		target = reflect.New(typ)
	}

	dec := gob.NewDecoder(&buf)
	if err := dec.Decode(target.Interface()); err != nil {
		return nil, err
	}

	if typ.Kind() == reflect.Ptr {
		return target.Interface(), nil
	}

	return target.Elem().Interface(), nil
}
