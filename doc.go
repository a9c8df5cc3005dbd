// Package iio is a client library for the Linux Industrial I/O (IIO)
// subsystem: it enumerates sensor/actuator devices exposed by a local
// kernel or a remote IIOD daemon, reads and writes their attributes,
// streams bulk sample data through buffers, and decodes hardware
// events.
//
// A Context is the entry point: CreateContext dials a backend chosen
// by URI scheme (local:, ip:, usb:, serial:, xml:) and builds the
// immutable object graph of devices, channels, and attributes that
// every other type in this package is a thin, context-scoped handle
// into. Destroying a Context invalidates every handle it ever
// produced.
package iio
