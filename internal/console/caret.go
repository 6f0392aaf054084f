package console

// Control names the ASCII control bytes.
var Control = [32]string{
	"<NUL>", "<SOH>", "<STX>", "<ETX>", "<EOT>", "<ENQ>", "<ACK>", "<BEL>",
	"<BS>", "<HT>", "<NL>", "<VT>", "<NP>", "<CR>", "<SO>", "<SI>",
	"<DLE>", "<DC1>", "<DC2>", "<DC3>", "<DC4>", "<NAK>", "<SYN>", "<ETB>",
	"<CAN>", "<EM>", "<SUB>", "<ESC>", "<FS>", "<GS>", "<RS>", "<US>",
}

// Byte values with special meaning to line editing.
const (
	BS  = 0x08
	LF  = 0x0a
	CR  = 0x0d
	EOT = 0x04
	SP  = 0x20
	DEL = 0x7f
)

// IsControl returns true for ASCII control bytes, including DEL.
func IsControl(c byte) bool { return c < SP || c == DEL }

// IsSpace returns true for the whitespace bytes that separate tokens.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// CaretForm returns the ^-escaped printable form of a control byte, or "" for
// other bytes.
func CaretForm(c byte) string {
	if IsControl(c) {
		return "^" + string(rune(c^0x40))
	}
	return ""
}

// Name returns the mnemonic of a control byte, or the byte itself quoted.
func Name(c byte) string {
	switch {
	case c < SP:
		return Control[c]
	case c == SP:
		return "<SP>"
	case c == DEL:
		return "<DEL>"
	}
	return "'" + string(rune(c)) + "'"
}
