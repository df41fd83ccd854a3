// Package mqtt publishes link events to an MQTT broker and accepts
// commands from it.
//
// All topics are under <prefix><id>/, where prefix comes from the broker
// URL path and id identifies the host running the link. <port> is the
// path escaped port name, e.g. %2Fdev%2FttyACM0:
//
//	meta          retained JSON Meta, cleared when the host goes away
//	state         retained JSON discovery state
//	state/<port>  retained JSON connection state of a port
//	settings      retained protobuf msgs.Settings
//	stats         JSON throughput
//	error         JSON errors
//	error/<port>  JSON errors of a port
//	msg/<port>    protobuf msgs.Message of a port
//	set           protobuf msgs.Setting, consumed by the host
//	cmd           protobuf msgs.Command, consumed by the host
package mqtt
