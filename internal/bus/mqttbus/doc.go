// Package mqttbus implements the core.Bus capability over MQTT.
//
// # Topic Layout
//
// Every item owns three topics under a configurable base (default
// "catt/items"):
//
//	{base}/{name}/state    Update: current value as text
//	{base}/{name}/command  Command: requested value as text
//	{base}/{name}/meta     Meta: retained metadata document
//
// core.SubAll subscribes {base}/{name}/#.
//
// # Payloads
//
// Update and Command payloads are the value's text rendering (numbers in
// shortest decimal form, bools as ON/OFF, non-text raw bytes as Base64).
// Inbound payloads go through value.FromRaw, so "42" arrives as a Number and
// "on" as a Bool.
//
// Meta documents carry the keys backend, value_type and ext. They are JSON by
// default, or CBOR with meta_encoding: cbor.
//
// # Failure Policy
//
// Inbound messages on malformed topics (fewer than two levels, unknown suffix)
// and meta documents that fail to decode are logged and dropped. Outbound
// failures are returned wrapped in ErrPublish or ErrSubscribe; every error in
// this package also matches core.ErrBus.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Bus)
//	...
//	bus, err := mqttbus.New(client, mqttbus.Options{
//	    Base:         cfg.Bus.ItemBase,
//	    QoS:          byte(cfg.Bus.QoS),
//	    MetaEncoding: cfg.Bus.MetaEncoding,
//	    Logger:       log,
//	})
package mqttbus
