package zwave

import (
	"sync"

	"github.com/nerrad567/catt-bridge/internal/core"
)

// indexEntry is a live name. native is nil for items with no backing value,
// such as controllers.
type indexEntry struct {
	item   core.Item
	native *ValueID
}

// DeviceIndex is the bidirectional map between native value ids and logical
// names.
//
// Both maps sit behind one lock so a reader never sees one side updated
// without the other: byNative[id] == name exactly when byName[name].native
// points at id.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type DeviceIndex struct {
	mu       sync.RWMutex
	byNative map[ValueID]string
	byName   map[string]indexEntry
}

// NewDeviceIndex returns an empty index.
func NewDeviceIndex() *DeviceIndex {
	return &DeviceIndex{
		byNative: make(map[ValueID]string),
		byName:   make(map[string]indexEntry),
	}
}

// Bind records that id is exposed as item under name.
//
// The first binding of a name wins. If name or id is already live, nothing is
// stored and the existing item is returned with false.
//
// Parameters:
//   - id: native value id
//   - name: logical item name
//   - item: item to store
//
// Returns:
//   - core.Item: the item now live under name (or id)
//   - bool: true if this call stored item
func (d *DeviceIndex) Bind(id ValueID, name string, item core.Item) (core.Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.byName[name]; ok {
		return e.item, false
	}
	if existing, ok := d.byNative[id]; ok {
		return d.byName[existing].item, false
	}

	native := id
	d.byNative[id] = name
	d.byName[name] = indexEntry{item: item, native: &native}
	return item, true
}

// BindItem records an item with no native value. Like Bind, the first
// binding of a name wins.
func (d *DeviceIndex) BindItem(name string, item core.Item) (core.Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.byName[name]; ok {
		return e.item, false
	}
	d.byName[name] = indexEntry{item: item}
	return item, true
}

// Lookup returns the item bound to id.
func (d *DeviceIndex) Lookup(id ValueID) (core.Item, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	name, ok := d.byNative[id]
	if !ok {
		return nil, false
	}
	return d.byName[name].item, true
}

// Item returns the item live under name.
func (d *DeviceIndex) Item(name string) (core.Item, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return e.item, true
}

// Items returns a snapshot of every live item keyed by name.
func (d *DeviceIndex) Items() map[string]core.Item {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]core.Item, len(d.byName))
	for name, e := range d.byName {
		out[name] = e.item
	}
	return out
}

// Unbind removes id and its name. It returns the removed item, or false if id
// was not bound.
func (d *DeviceIndex) Unbind(id ValueID) (core.Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, ok := d.byNative[id]
	if !ok {
		return nil, false
	}
	e := d.byName[name]
	delete(d.byNative, id)
	delete(d.byName, name)
	return e.item, true
}

// Len returns the number of live names.
func (d *DeviceIndex) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byName)
}
