/* Package main: tinyforth -- a small, self-hosting Forth

Forth programs are small because they are threaded: a compiled word is a list
of references to other words, and running it is little more than following
those references.  Forth is extendable: words defined by the user are
indistinguishable from the primitives built into the runtime, and compiling
words like IF and DOES> are ordinary (if IMMEDIATE) words too.

The runtime is built around a dictionary, a chain of entries linked newest
first.  Each entry has a fixed width name, a back link, a flag byte, and a kind
that decides what executing it does:

	native     run Go code
	compiled   thread through a list of atoms, ending in Exit
	cell       push the address of its data
	sysvar     push the address of a system variable held in its data
	does       push the address of its data, then run shared DOES> code

Compiled bodies are lists of atoms: calls, number and string literals, relative
branches, and Exit.  There is no conditional branch atom; "0= ?SKIP BRANCH" is
what IF compiles, ?SKIP stepping over the branch when the flag is set.

Data lives in a 16-bit cell memory.  The important pointers live at the bottom
of it, where Forth code can get at them without further primitives:

	0  H        next free data cell
	1  LATEST   newest dictionary entry
	2  STATE    non-zero while compiling
	3  'NUMBER  Forth number parser, 0 for the builtin decimal one
	4  CP       size of the code arena

The outer interpreter reads a line at a time from a character device, echoing
and handling backspace itself.  Each token is either executed, or parsed as a
number and pushed; anything else aborts the line.  Every failure, from a stack
underflow to an unknown word, converges on one abort routine: the rest of the
line is discarded, the stacks are reset, and a diagnostic is printed before
the next prompt.

Stack bounds are checked when words are dispatched rather than on every push
and pop.  Both stacks are surrounded by padding, so that whatever slips
through between checks lands in slack space rather than corrupting anything
else; WithBoundsCheckInterval trades check frequency for throughput.

The kernel in kernel.go is written in Forth, and compiled with the runtime's
own compiler when it boots; alternately a VM may boot from a saved Image.
*/
package main
