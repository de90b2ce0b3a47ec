package zwave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// zwave-js-server protocol constants.
const (
	// apiSchemaVersion is the highest server API schema this driver speaks.
	apiSchemaVersion = 35

	// defaultCommandTimeout bounds the wait for a command result.
	defaultCommandTimeout = 10 * time.Second

	// driverBufferSize is the capacity of the driver notification channel.
	driverBufferSize = 256

	// maxMessageSize caps a single server message; the initial state dump of a
	// large mesh is the biggest thing the server sends.
	maxMessageSize = 32 << 20

	typeVersion = "version"
	typeResult  = "result"
	typeEvent   = "event"
)

// JSDriverOption configures a JSDriver.
type JSDriverOption func(*JSDriver)

// WithDriverLogger sets the driver's logger.
func WithDriverLogger(l Logger) JSDriverOption {
	return func(d *JSDriver) {
		d.logger = l
	}
}

// WithCommandTimeout sets how long a command waits for its result.
func WithCommandTimeout(t time.Duration) JSDriverOption {
	return func(d *JSDriver) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(dialer *websocket.Dialer) JSDriverOption {
	return func(d *JSDriver) {
		if dialer != nil {
			d.dialer = dialer
		}
	}
}

// JSDriver is a Driver speaking the zwave-js-server websocket API.
//
// On connect it reads the server's version greeting, negotiates the API
// schema, and starts listening. Every value in the initial state is emitted
// as NotifyValueAdded, followed by NotifyDriverReady. Values are cached from
// server events so ReadValue never blocks on the network.
//
// Thread Safety: All methods are safe for concurrent use.
type JSDriver struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration

	conn    *websocket.Conn
	writeMu sync.Mutex

	homeID uint32

	mu     sync.RWMutex
	values map[ValueID]any
	wire   map[ValueID]wireValueID
	byKey  map[valueKey]ValueID

	pending   map[string]chan wireMessage
	pendingMu sync.Mutex

	notifications chan DriverNotification
	wg            sync.WaitGroup
	closed        chan struct{}
	closeOnce     sync.Once

	logger Logger
}

var _ Driver = (*JSDriver)(nil)

// valueKey identifies a value on the wire, independent of genre and type.
type valueKey struct {
	nodeID      uint16
	class       CommandClass
	endpoint    uint8
	property    string
	propertyKey string
}

// wireValueID is a zwave-js value id as sent and received. Property and
// PropertyKey may be strings or numbers and are echoed back unchanged.
type wireValueID struct {
	CommandClass int `json:"commandClass"`
	Endpoint     int `json:"endpoint"`
	Property     any `json:"property"`
	PropertyKey  any `json:"propertyKey,omitempty"`
}

// valueMetadata is the subset of zwave-js value metadata the driver uses.
type valueMetadata struct {
	Type      string            `json:"type"`
	Readable  *bool             `json:"readable,omitempty"`
	Writeable *bool             `json:"writeable,omitempty"`
	Label     string            `json:"label,omitempty"`
	Min       *float64          `json:"min,omitempty"`
	Max       *float64          `json:"max,omitempty"`
	Steps     *float64          `json:"steps,omitempty"`
	Unit      string            `json:"unit,omitempty"`
	States    map[string]string `json:"states,omitempty"`
}

// wireValue is one value of the initial node state.
type wireValue struct {
	wireValueID
	PropertyName string         `json:"propertyName,omitempty"`
	Value        any            `json:"value"`
	Metadata     *valueMetadata `json:"metadata,omitempty"`
}

// wireMessage is any message sent by the server.
type wireMessage struct {
	Type             string          `json:"type"`
	MessageID        string          `json:"messageId,omitempty"`
	Success          bool            `json:"success"`
	ErrorCode        string          `json:"errorCode,omitempty"`
	ErrorMessage     string          `json:"zwaveErrorMessage,omitempty"`
	Result           json.RawMessage `json:"result,omitempty"`
	Event            *wireEvent      `json:"event,omitempty"`
	HomeID           uint32          `json:"homeId,omitempty"`
	DriverVersion    string          `json:"driverVersion,omitempty"`
	ServerVersion    string          `json:"serverVersion,omitempty"`
	MaxSchemaVersion int             `json:"maxSchemaVersion,omitempty"`
}

// wireEvent is the payload of an event message.
type wireEvent struct {
	Source string         `json:"source"`
	Event  string         `json:"event"`
	NodeID int            `json:"nodeId,omitempty"`
	Args   *wireValueArgs `json:"args,omitempty"`
}

// wireValueArgs carries a value event. NewValue is set for added and updated
// events, Value for notifications.
type wireValueArgs struct {
	wireValueID
	PropertyName string         `json:"propertyName,omitempty"`
	NewValue     any            `json:"newValue"`
	Value        any            `json:"value"`
	Metadata     *valueMetadata `json:"metadata,omitempty"`
}

// listenResult is the result of start_listening.
type listenResult struct {
	State struct {
		Controller struct {
			HomeID uint32 `json:"homeId"`
		} `json:"controller"`
		Nodes []struct {
			NodeID int         `json:"nodeId"`
			Values []wireValue `json:"values"`
		} `json:"nodes"`
	} `json:"state"`
}

// wireBuffer is how the server serialises a Node.js Buffer.
type wireBuffer struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

func newWireBuffer(b []byte) wireBuffer {
	data := make([]int, len(b))
	for i, c := range b {
		data[i] = int(c)
	}
	return wireBuffer{Type: "Buffer", Data: data}
}

// Connect dials a zwave-js-server and starts listening.
//
// It returns once the version greeting has been read. The initial state is
// requested in the background; consume Notifications to receive it.
//
// Parameters:
//   - ctx: bounds the dial and the greeting
//   - url: websocket URL, e.g. "ws://localhost:3000"
//   - opts: optional settings
//
// Returns:
//   - *JSDriver: connected driver
//   - error: wrapping ErrNotConnected if the server cannot be reached
func Connect(ctx context.Context, url string, opts ...JSDriverOption) (*JSDriver, error) {
	d := &JSDriver{
		url:           url,
		dialer:        websocket.DefaultDialer,
		timeout:       defaultCommandTimeout,
		values:        make(map[ValueID]any),
		wire:          make(map[ValueID]wireValueID),
		byKey:         make(map[valueKey]ValueID),
		pending:       make(map[string]chan wireMessage),
		notifications: make(chan DriverNotification, driverBufferSize),
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %w", ErrNotConnected, url, err)
	}
	conn.SetReadLimit(maxMessageSize)
	d.conn = conn

	greeting, err := d.readGreeting(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	d.homeID = greeting.HomeID
	d.logInfo("connected to zwave-js-server",
		"url", url,
		"server_version", greeting.ServerVersion,
		"driver_version", greeting.DriverVersion,
		"home_id", fmt.Sprintf("%08x", greeting.HomeID))

	schema := apiSchemaVersion
	if greeting.MaxSchemaVersion > 0 && greeting.MaxSchemaVersion < schema {
		schema = greeting.MaxSchemaVersion
	}

	d.wg.Add(2)
	go d.readLoop()
	go d.startListening(schema)

	go func() {
		d.wg.Wait()
		close(d.notifications)
	}()

	return d, nil
}

// readGreeting reads the version message the server sends on connect.
func (d *JSDriver) readGreeting(ctx context.Context) (wireMessage, error) {
	if deadline, ok := ctx.Deadline(); ok {
		//nolint:errcheck // Best-effort deadline on connection setup
		d.conn.SetReadDeadline(deadline)
		//nolint:errcheck // Cleared before the read loop starts
		defer d.conn.SetReadDeadline(time.Time{})
	}

	var msg wireMessage
	if err := d.conn.ReadJSON(&msg); err != nil {
		return msg, fmt.Errorf("%w: reading greeting: %w", ErrNotConnected, err)
	}
	if msg.Type != typeVersion {
		return msg, fmt.Errorf("%w: expected version greeting, got %q", ErrNotConnected, msg.Type)
	}
	return msg, nil
}

// startListening negotiates the schema, requests the full state and emits it.
func (d *JSDriver) startListening(schema int) {
	defer d.wg.Done()

	if _, err := d.command(map[string]any{"command": "set_api_schema", "schemaVersion": schema}); err != nil {
		d.logError("setting zwave-js api schema failed", "error", err)
		return
	}

	raw, err := d.command(map[string]any{"command": "start_listening"})
	if err != nil {
		d.logError("start_listening failed", "error", err)
		return
	}

	var res listenResult
	if err := json.Unmarshal(raw, &res); err != nil {
		d.logError("decoding zwave-js state failed", "error", err)
		return
	}
	if res.State.Controller.HomeID != 0 {
		d.mu.Lock()
		d.homeID = res.State.Controller.HomeID
		d.mu.Unlock()
	}

	count := 0
	for _, node := range res.State.Nodes {
		for _, v := range node.Values {
			id, label := d.learn(node.NodeID, v.wireValueID, v.PropertyName, v.Metadata, v.Value)
			d.setCached(id, v.Value)
			if !d.emit(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: label}) {
				return
			}
			count++
		}
	}
	d.logInfo("zwave-js initial state received", "nodes", len(res.State.Nodes), "values", count)

	d.emit(DriverNotification{Kind: NotifyDriverReady, HomeID: d.currentHomeID()})
}

// readLoop dispatches server messages until the connection drops.
func (d *JSDriver) readLoop() {
	defer d.wg.Done()

	for {
		var msg wireMessage
		if err := d.conn.ReadJSON(&msg); err != nil {
			select {
			case <-d.closed:
			default:
				d.logError("zwave-js-server connection lost", "error", err)
				d.emit(DriverNotification{Kind: NotifyDriverRemoved, HomeID: d.currentHomeID(), Err: err})
			}
			d.conn.Close()
			d.failPending()
			return
		}

		switch msg.Type {
		case typeResult:
			d.resolve(msg)
		case typeEvent:
			if msg.Event != nil {
				d.handleEvent(msg.Event)
			}
		default:
			d.logDebug("ignoring zwave-js message", "type", msg.Type)
		}
	}
}

// handleEvent translates a server event into driver notifications.
func (d *JSDriver) handleEvent(ev *wireEvent) {
	switch ev.Source {
	case "node":
		d.handleNodeEvent(ev)
	case "controller":
		if state, ok := controllerStates[ev.Event]; ok {
			d.emit(DriverNotification{Kind: NotifyControllerCommand, HomeID: d.currentHomeID(), State: state})
		}
	case "driver":
		if ev.Event == "all nodes ready" {
			d.emit(DriverNotification{Kind: NotifyDriverReady, HomeID: d.currentHomeID()})
		}
	}
}

// controllerStates maps controller events to controller item states.
var controllerStates = map[string]string{
	"inclusion started": StateInclude,
	"inclusion stopped": StateIdle,
	"inclusion failed":  StateFailed,
	"exclusion started": StateExclude,
	"exclusion stopped": StateIdle,
	"exclusion failed":  StateFailed,
}

func (d *JSDriver) handleNodeEvent(ev *wireEvent) {
	args := ev.Args
	if args == nil {
		return
	}

	switch ev.Event {
	case "value added":
		id, label := d.learn(ev.NodeID, args.wireValueID, args.PropertyName, args.Metadata, args.NewValue)
		d.setCached(id, args.NewValue)
		d.emit(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: label})

	case "value updated", "value notification":
		v := args.NewValue
		if ev.Event == "value notification" {
			v = args.Value
		}
		id, ok := d.known(ev.NodeID, args.wireValueID)
		if !ok {
			// zwave-js reports an update for a value it never announced the
			// first time the value is read.
			var label string
			id, label = d.learn(ev.NodeID, args.wireValueID, args.PropertyName, args.Metadata, v)
			d.setCached(id, v)
			d.emit(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: label})
			return
		}
		d.setCached(id, v)
		d.emit(DriverNotification{Kind: NotifyValueChanged, ValueID: id})

	case "value removed":
		id, ok := d.forget(ev.NodeID, args.wireValueID)
		if !ok {
			return
		}
		d.emit(DriverNotification{Kind: NotifyValueRemoved, ValueID: id})

	case "metadata updated":
		if args.Metadata != nil {
			if _, ok := d.known(ev.NodeID, args.wireValueID); !ok {
				d.learn(ev.NodeID, args.wireValueID, args.PropertyName, args.Metadata, nil)
			}
		}
	}
}

// learn records a value's identity and returns its id and label. A value seen
// before keeps the id it was first given.
func (d *JSDriver) learn(nodeID int, w wireValueID, propertyName string, meta *valueMetadata, sample any) (ValueID, string) {
	key := keyOf(nodeID, w)
	label := propertyName
	if meta != nil && meta.Label != "" {
		label = meta.Label
	}
	if label == "" {
		label = key.property
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byKey[key]; ok {
		return id, label
	}

	id := ValueID{
		HomeID:       d.homeID,
		NodeID:       key.nodeID,
		CommandClass: key.class,
		Endpoint:     key.endpoint,
		Property:     key.property,
		PropertyKey:  key.propertyKey,
		Genre:        genreOf(key.class),
		Type:         typeFromMetadata(meta, sample),
	}
	d.byKey[key] = id
	d.wire[id] = w
	return id, label
}

func (d *JSDriver) known(nodeID int, w wireValueID) (ValueID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byKey[keyOf(nodeID, w)]
	return id, ok
}

func (d *JSDriver) forget(nodeID int, w wireValueID) (ValueID, bool) {
	key := keyOf(nodeID, w)

	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.byKey[key]
	if !ok {
		return ValueID{}, false
	}
	delete(d.byKey, key)
	delete(d.wire, id)
	delete(d.values, id)
	return id, true
}

func (d *JSDriver) setCached(id ValueID, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[id] = v
}

func (d *JSDriver) currentHomeID() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.homeID
}

// Notifications returns the driver event stream.
func (d *JSDriver) Notifications() <-chan DriverNotification {
	return d.notifications
}

// ReadValue returns the cached value for id, converted to its native Go type.
func (d *JSDriver) ReadValue(id ValueID) (any, error) {
	d.mu.RLock()
	raw, ok := d.values[id]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValue, id)
	}
	return nativeFromWire(id.Type, raw)
}

// WriteValue sets id through node.set_value and waits for the result.
func (d *JSDriver) WriteValue(id ValueID, v any) error {
	d.mu.RLock()
	w, ok := d.wire[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownValue, id)
	}

	payload := v
	if b, isBytes := v.([]byte); isBytes {
		payload = newWireBuffer(b)
	}

	_, err := d.command(map[string]any{
		"command": "node.set_value",
		"nodeId":  id.NodeID,
		"valueId": w,
		"value":   payload,
	})
	return err
}

// AddNode starts inclusion.
func (d *JSDriver) AddNode(homeID uint32) error {
	return d.controllerCommand(homeID, map[string]any{
		"command": "controller.begin_inclusion",
		"options": map[string]any{"strategy": 0},
	})
}

// RemoveNode starts exclusion.
func (d *JSDriver) RemoveNode(homeID uint32) error {
	return d.controllerCommand(homeID, map[string]any{"command": "controller.begin_exclusion"})
}

// CancelCommand stops inclusion and exclusion. Both are stopped since the
// server rejects neither when nothing is running.
func (d *JSDriver) CancelCommand(homeID uint32) error {
	errInc := d.controllerCommand(homeID, map[string]any{"command": "controller.stop_inclusion"})
	errExc := d.controllerCommand(homeID, map[string]any{"command": "controller.stop_exclusion"})
	return errors.Join(errInc, errExc)
}

func (d *JSDriver) controllerCommand(homeID uint32, cmd map[string]any) error {
	if homeID != d.currentHomeID() {
		return fmt.Errorf("%w: home id %08x", ErrNoController, homeID)
	}
	_, err := d.command(cmd)
	return err
}

// HomeIDs returns the single controller the server manages.
func (d *JSDriver) HomeIDs() []uint32 {
	if id := d.currentHomeID(); id != 0 {
		return []uint32{id}
	}
	return nil
}

// Close disconnects from the server. The notification channel is closed once
// both background goroutines have exited.
func (d *JSDriver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.closed)
		d.writeMu.Lock()
		//nolint:errcheck // Best-effort close handshake
		d.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		d.writeMu.Unlock()
		err = d.conn.Close()
	})
	return err
}

// command sends cmd with a fresh message id and waits for its result.
func (d *JSDriver) command(cmd map[string]any) (json.RawMessage, error) {
	id := uuid.NewString()
	cmd["messageId"] = id

	ch := make(chan wireMessage, 1)
	d.pendingMu.Lock()
	d.pending[id] = ch
	d.pendingMu.Unlock()
	defer func() {
		d.pendingMu.Lock()
		delete(d.pending, id)
		d.pendingMu.Unlock()
	}()

	d.writeMu.Lock()
	err := d.conn.WriteJSON(cmd)
	d.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: sending %v: %w", ErrNotConnected, cmd["command"], err)
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: connection closed awaiting %v", ErrNotConnected, cmd["command"])
		}
		if !msg.Success {
			return nil, fmt.Errorf("%w: %v: %s %s", ErrCommandFailed, cmd["command"], msg.ErrorCode, msg.ErrorMessage)
		}
		return msg.Result, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: %v", ErrTimeout, cmd["command"])
	case <-d.closed:
		return nil, fmt.Errorf("%w: driver closed", ErrNotConnected)
	}
}

// resolve hands a result to the command waiting for it.
func (d *JSDriver) resolve(msg wireMessage) {
	d.pendingMu.Lock()
	ch, ok := d.pending[msg.MessageID]
	d.pendingMu.Unlock()
	if !ok {
		d.logDebug("result for unknown message", "message_id", msg.MessageID)
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// failPending releases every waiting command after the connection drops.
func (d *JSDriver) failPending() {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	for id, ch := range d.pending {
		close(ch)
		delete(d.pending, id)
	}
}

// emit delivers n unless the driver is closing. It reports whether n was sent.
func (d *JSDriver) emit(n DriverNotification) bool {
	select {
	case d.notifications <- n:
		return true
	case <-d.closed:
		return false
	}
}

func keyOf(nodeID int, w wireValueID) valueKey {
	return valueKey{
		nodeID:      uint16(nodeID),
		class:       CommandClass(w.CommandClass),
		endpoint:    uint8(w.Endpoint),
		property:    wireString(w.Property),
		propertyKey: wireString(w.PropertyKey),
	}
}

// wireString renders a property or property key, which the server sends as
// either a string or a number.
func wireString(v any) string {
	switch p := v.(type) {
	case nil:
		return ""
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return fmt.Sprint(p)
	}
}

// typeFromMetadata picks the native type of a value from its metadata, or
// from a sample value when the server sent none.
func typeFromMetadata(meta *valueMetadata, sample any) ValueType {
	if meta == nil || meta.Type == "" {
		return typeFromSample(sample)
	}

	switch meta.Type {
	case "boolean":
		if meta.Readable != nil && !*meta.Readable {
			return TypeButton
		}
		return TypeBool
	case "number":
		return numberType(meta)
	case "string":
		return TypeString
	case "buffer":
		return TypeRaw
	default:
		return TypeList
	}
}

// numberType narrows a numeric value to the smallest native type its
// metadata allows.
func numberType(meta *valueMetadata) ValueType {
	if len(meta.States) > 0 {
		return TypeList
	}
	if meta.Unit != "" {
		return TypeDecimal
	}
	if meta.Steps != nil && *meta.Steps != math.Trunc(*meta.Steps) {
		return TypeDecimal
	}
	if meta.Min == nil || meta.Max == nil {
		return TypeInt
	}
	lo, hi := *meta.Min, *meta.Max
	switch {
	case lo >= 0 && hi <= math.MaxUint8:
		return TypeByte
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return TypeShort
	default:
		return TypeInt
	}
}

func typeFromSample(sample any) ValueType {
	switch s := sample.(type) {
	case bool:
		return TypeBool
	case float64:
		if s == math.Trunc(s) {
			return TypeInt
		}
		return TypeDecimal
	case string:
		return TypeString
	case map[string]any:
		if s["type"] == "Buffer" {
			return TypeRaw
		}
		return TypeList
	default:
		return TypeList
	}
}

// nativeFromWire converts a decoded JSON value to the Go type of t.
func nativeFromWire(t ValueType, raw any) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no value yet", ErrUnknownValue)
	}

	switch t {
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case TypeByte, TypeShort, TypeInt, TypeDecimal:
		n, ok := raw.(float64)
		if !ok {
			break
		}
		switch t {
		case TypeByte:
			return uint8(clamp(n, 0, math.MaxUint8)), nil
		case TypeShort:
			return int16(clamp(n, math.MinInt16, math.MaxInt16)), nil
		case TypeInt:
			return int32(clamp(n, math.MinInt32, math.MaxInt32)), nil
		default:
			return float32(n), nil
		}
	case TypeString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case TypeRaw:
		if b, ok := bufferBytes(raw); ok {
			return b, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnimplemented, t)
	}
	return nil, fmt.Errorf("%w: %s value has wire type %T", ErrUnimplemented, t, raw)
}

// bufferBytes decodes {"type":"Buffer","data":[...]}.
func bufferBytes(raw any) ([]byte, bool) {
	m, ok := raw.(map[string]any)
	if !ok || m["type"] != "Buffer" {
		return nil, false
	}
	data, ok := m["data"].([]any)
	if !ok {
		return nil, false
	}
	out := make([]byte, 0, len(data))
	for _, x := range data {
		n, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, byte(n))
	}
	return out, true
}

func (d *JSDriver) getLogger() Logger {
	return d.logger
}

func (d *JSDriver) logDebug(msg string, keysAndValues ...any) {
	if l := d.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

func (d *JSDriver) logInfo(msg string, keysAndValues ...any) {
	if l := d.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (d *JSDriver) logError(msg string, keysAndValues ...any) {
	if l := d.getLogger(); l != nil {
		l.Error(msg, keysAndValues...)
	}
}
