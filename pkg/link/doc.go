// Package link runs the host side of the serial link to a G4 device.
//
// A Supervisor discovers matching ports and runs one Session per port.
// Each Session owns a reader loop, which turns the byte stream into
// decoded messages for a Sink, and a writer loop, which sends queued
// commands at a bounded rate.
package link
