// Package transport provides the stream connectors used by fplug.Controller:
// SerialConnector for the RFCOMM tty of a paired plug and TCPConnector for a
// network bridge.
package transport
