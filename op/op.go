// Package op holds the CHIP-8 machine layout and the instruction set definition.
package op

import (
	"encoding/binary"
	"time"
)

var Endian = binary.BigEndian

// Memory layout.
const (
	MemSize         = 4 * 1024    // 4Kb.
	AddrMask        = MemSize - 1 // Addresses are 12 bits.
	ProgramStart    = 0x200       // Lowest address a ROM can be loaded at.
	InstructionSize = 2           // Every instruction is a big endian 16 bits word.
	Filler          = 0xFF        // Value of the memory not covered by the font or the ROM.
)

const (
	RegisterCount = 16  // V0 <--> VF
	FlagRegister  = 0xF // VF, carry/borrow/collision.
	RegisterInit  = 0xFF
)

// StackSize is the size of the call stack in bytes.
// Each return address takes 2 bytes, so 32 nested calls.
const StackSize = 0x40

// Display.
const (
	DisplayWidth  = 64
	DisplayHeight = 32
	DisplaySize   = DisplayWidth * DisplayHeight / 8 // 8 pixels per byte.
	DisplayStride = DisplayWidth / 8                 // Bytes per row.
)

// Framebuffer is the packed display, row major, most significant bit is the leftmost pixel.
type Framebuffer [DisplaySize]byte

// Spot reports whether the pixel at x, y is lit.
// Out of range coordinates are unlit.
func (fb *Framebuffer) Spot(x, y int) bool {
	if x < 0 || y < 0 || x >= DisplayWidth || y >= DisplayHeight {
		return false
	}
	return fb[y*DisplayStride+x/8]&(0x80>>(x%8)) != 0
}

const KeyCount = 16

// KeyLayout maps each CHIP-8 key to its position on a QWERTY keyboard.
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  q w e r
//	7 8 9 E      a s d f
//	A 0 B F      z x c v
const KeyLayout = "x123qweasdzc4rfv"

// Timers.
const (
	TimerFrequency = 60
	TimerPeriod    = time.Second / TimerFrequency
)

// Font.
const (
	FontAddr      = 0x000
	FontGlyphSize = 5
)

// Font is the hex digits sprite table, loaded at FontAddr.
var Font = [16 * FontGlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Tokens.
const (
	CommentChars   = "#;"
	LabelChar      = ':'
	SeparatorChar  = ','
	DirectiveChar  = '.'
	IndirectOpen   = '['
	IndirectClose  = ']'
	RegisterChar   = 'v'
	LabelChars     = "abcdefghijklmnopqrstuvwxyz_0123456789"
	NameCmdString  = ".name"
	ByteCmdString  = ".byte"
	WordCmdString  = ".word"
	DirectiveChars = "abcdefghijklmnopqrstuvwxyz"
)
