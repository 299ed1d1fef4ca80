// Package protocol implements the line protocol spoken by the SegBot
// firmware.
//
// Every exchange is one line out and one line back, newline terminated,
// ASCII. Queries start with '?' and are answered with '?<name>:<int>'.
// Commands start with '!' and are answered with a single line whose
// content carries no meaning, but it must still be read before the
// next line is written:
//
//	?angle                ?angle:<int>
//	?speedLeft            ?speedLeft:<int>
//	?speedRight           ?speedRight:<int>
//	?distance             ?distance:<int>
//	?voltage              ?voltage:<int>
//	!move:<int>           ack
//	!turnLeft:<int>       ack
//	!turnRight:<int>      ack
//	!stop                 ack
//	!servo:<ch>:<pos>     ack
package protocol
