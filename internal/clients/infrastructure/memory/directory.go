// Package memory provides an in-memory client directory for tests.
package memory

import (
	"context"
	"sync"

	clients "energy-process/internal/clients/domain"
)

// Directory is a fixed in-memory clients.Directory.
type Directory struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[string]clients.Client
}

// NewDirectory seeds a directory with the given CUPS codes.
func NewDirectory(cupsCodes ...string) *Directory {
	d := &Directory{nextID: 1, entries: make(map[string]clients.Client)}
	for _, cups := range cupsCodes {
		d.Add(cups, "")
	}
	return d
}

// Add registers a client.
func (d *Directory) Add(cups, name string) clients.Client {
	d.mu.Lock()
	defer d.mu.Unlock()
	client := clients.Client{ID: d.nextID, CUPS: cups, Name: name}
	d.nextID++
	d.entries[cups] = client
	return client
}

func (d *Directory) Exists(_ context.Context, cups string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[cups]
	return ok, nil
}

func (d *Directory) FindByCUPS(_ context.Context, cups string) (*clients.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	client, ok := d.entries[cups]
	if !ok {
		return nil, nil
	}
	return &client, nil
}

var _ clients.Directory = (*Directory)(nil)
