// Package protocol implements the F-PLUG wire format.
//
// This package provides functions to build request frames and a Decoder that
// turns the raw byte stream read from the device into typed responses.
//
// # Frame Families
//
// Requests and responses use three frame families:
//
//	ECHONET-Lite: [10][81][TID_L][TID_H][SEOJ(3)][DEOJ(3)][ESV][OPC]([EPC][PDC][EDT...])...
//	Manual:       [10][82][TID_L][TID_H][CODE/TARGET]...
//	Proprietary:  [OP]...
//
// Where:
//   - TID = 16-bit transaction id (little-endian)
//   - SEOJ/DEOJ = source/destination object (class group, class, instance)
//   - ESV = service code (0x62 Get, 0x61 SetC, 0x72/0x71 success, 0x52/0x51 failure)
//
// Sensor reads and plug initialisation use ECHONET-Lite frames. The power and
// environment histories use manual frames whose responses span several device
// packets. LED, cancel-pairing and set-date use single-byte opcodes; the
// device answers them with the opcode | 0x80 and a result byte.
//
// # Command Builders
//
// Use the Build* functions, or BuildCmd, to create request frames:
//
//	frame, err := protocol.BuildTemperatureCmd(tid)
//	frame, err := protocol.BuildPastValuesCmd(tid, at)
//	frame, err := protocol.BuildCmd(protocol.KindSetDate, tid, time.Now())
//
// Builders for kinds that carry a date-time reject the zero time with
// ErrMalformedCommand.
//
// # Decoding
//
// Feed every chunk read from the device to a Decoder:
//
//	dec := protocol.NewDecoder()
//	for _, res := range dec.Feed(chunk) {
//	    if res.Err != nil {
//	        // *ProtocolError, *UnexpectedStatusError or *UnknownFrameError
//	        continue
//	    }
//	    fmt.Println(res.Response.Type, res.Response.Temperature)
//	}
//
// The Decoder never blocks. A partial frame is held until the rest arrives,
// and the manual history responses (72 bytes of hourly power, 120 bytes of
// hourly environment) are reassembled across packets. The header packet of a
// manual response is 16 bytes; its 10 payload bytes start the buffer and the
// following packets are appended from offset 10.
//
// # Error Handling
//
// A failure reported by the device is a *ProtocolError whose message names
// the operation:
//
//	err.Error() // "get humidity failed"
//
// Bytes that match no frame produce an *UnknownFrameError. They are not an
// answer to any request and callers are expected to log and drop them.
package protocol
