/*
File Name:  Ping.go

Ping probe: a single byte written to peer:BASE_PORT+1 and echoed back
verbatim. The value itself carries no meaning; only the round trip does.
*/

package protocol

// PingProbeByte is written by the client and echoed by the server.
const PingProbeByte = 0x01
