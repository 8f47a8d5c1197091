// Package vm implements the toy fixed-width virtual machine: a 16384-word
// word-addressed Environment, an 18-opcode interpreter, a bank of
// memory-mapped peripherals reached through a DeviceBus, and an Executor
// that drives the interpreter in the background.
//
//	+-----------------------------------------------------------+
//	|                        Environment                        |
//	|  IAR -> [op a1 a2 a3] [op a1 a2 a3] ...    16384 words     |
//	+-----------------------------------------------------------+
//	                              |
//	                    addr >= 16384 ?
//	                              v
//	+-----------------------------------------------------------+
//	|                         DeviceBus                         |
//	|   HexDisplay   LcdDisplay   Keyboard   VGA                |
//	+-----------------------------------------------------------+
//
// Step performs one fetch-decode-execute cycle and is poisoned for its
// duration: a fault leaves the Environment unusable until it is replaced.
// Executor runs Step in a loop under external start/stop control and
// reports redraws and failures on a channel.
package vm
