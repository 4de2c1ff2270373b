/*
Package ws serves the registry's publish event feed over WebSocket.

A Hub is registered as a code.Observer; every settled publish, committed
or rejected, is encoded once and queued for each subscriber. Subscribers
that fall more than the hub's buffer behind are disconnected rather than
slowing publishers down.

# Protocol

On connect the server sends {"type":"system"}. Each event is a code.Event
object with type "published" or "rejected". Clients may send
{"type":"ping"} and receive {"type":"pong"}.
*/
package ws
