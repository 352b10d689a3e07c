/*
Copyright 2025 Tim St. Pierre
Drives HD44780 LCD and US2066 OLED character displays over I2C
*/
package chardisplay

import (
	"encoding/binary"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
)

const (
	// Commands
	CMD_Clear_Display        = 0x01
	CMD_Return_Home          = 0x02
	CMD_Entry_Mode           = 0x04
	CMD_Display_Control      = 0x08
	CMD_Cursor_Display_Shift = 0x10
	CMD_Function_Set         = 0x20
	CMD_CGRAM_Set            = 0x40
	CMD_DDRAM_Set            = 0x80

	// Options
	OPT_Left_To_Right  = 0x02 // CMD_Entry_Mode
	OPT_Auto_Shift     = 0x01 // CMD_Entry_Mode
	OPT_Enable_Display = 0x04 // CMD_Display_Control
	OPT_Enable_Cursor  = 0x02 // CMD_Display_Control
	OPT_Enable_Blink   = 0x01 // CMD_Display_Control
	OPT_Display_Shift  = 0x08 // CMD_Cursor_Display_Shift
	OPT_Shift_Right    = 0x04 // CMD_Cursor_Display_Shift 0 = Left
	OPT_8_Bit_Mode     = 0x10 // CMD_Function_Set 0 = 4 bit
	OPT_2_Lines        = 0x08 // CMD_Function_Set 0 = 1 line
	OPT_5x10_Dots      = 0x04 // CMD_Function_Set 0 = 5x8 dots
)

// Family selects which controller protocol a display speaks.
type Family uint8

const (
	// LCD is an HD44780 controller reached through a PCA8574/PCF8574
	// I/O expander backpack. Bytes are delivered as two 4-bit nibbles,
	// each latched with an enable strobe.
	LCD Family = iota + 1
	// OLED is a US2066 controller with native I2C. Bytes are delivered
	// whole, prefixed with a command/data mode-select byte.
	OLED
)

func (f Family) String() string {
	switch f {
	case LCD:
		return "LCD"
	case OLED:
		return "OLED"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Row offsets into DDRAM. Taller displays interleave rows, and the two
// controllers lay out 3-4 row panels differently.
var (
	rowOffsets2     = [2]byte{0x00, 0x40}
	rowOffsets4LCD  = [4]byte{0x00, 0x40, 0x14, 0x54}
	rowOffsets4OLED = [4]byte{0x00, 0x20, 0x40, 0x60}
)

// Dev is a handle to one display on the bus.
//
// The controllers offer no register readback, so Dev keeps a shadow copy
// of the entry-mode, display-control and function-set registers and
// resends the whole register on every bit change.
type Dev struct {
	family Family
	rows   uint8
	cols   uint8

	entryMode      byte
	displayControl byte
	functionSet    byte
	backlight      byte // LCD only, OR-ed into every expander write

	c    conn.Conn
	regs mmr.Dev8
	opts Opts
}

func (d *Dev) String() string {
	return fmt.Sprintf("chardisplay{%s %s}", d.family, d.c)
}

// New returns a device that communicates over I²C and has been run
// through its family's power-on sequence.
//
// Use default options if nil is used.
func New(b i2c.Bus, family Family, opts *Opts) (*Dev, error) {
	if family != LCD && family != OLED {
		return nil, fmt.Errorf("chardisplay: unknown display family %d", uint8(family))
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	addr, err := opts.i2cAddr()
	if err != nil {
		return nil, fmt.Errorf("chardisplay %x: %v", opts.I2CAddr, err)
	}
	rows, err := opts.rowCount()
	if err != nil {
		return nil, fmt.Errorf("chardisplay %x: %v", addr, err)
	}
	c := &i2c.Dev{Bus: b, Addr: addr}
	d := &Dev{
		family: family,
		rows:   rows,
		cols:   opts.colCount(),
		c:      c,
		regs:   mmr.Dev8{Conn: c, Order: binary.LittleEndian},
		opts:   opts.withDefaults(),
	}
	if family == LCD {
		d.backlight = lcdBacklight
		err = d.lcdInit()
	} else {
		err = d.oledInit()
	}
	if err != nil {
		return nil, fmt.Errorf("chardisplay %x: init: %v", addr, err)
	}
	return d, nil
}

// Rows returns the number of character rows the display was configured with.
func (d *Dev) Rows() int {
	return int(d.rows)
}

// Cols returns the number of character columns the display was configured with.
func (d *Dev) Cols() int {
	return int(d.cols)
}

// Family returns the controller family the handle was built for.
func (d *Dev) Family() Family {
	return d.family
}

// WriteChar writes one character at the current cursor position.
func (d *Dev) WriteChar(char byte) error {
	return d.sendData(char)
}

// Write writes each byte in buf at the cursor position, advancing as the
// controller's entry mode dictates. A failed character does not stop the
// rest of the buffer; the first surfaced error is returned.
func (d *Dev) Write(buf []byte) (int, error) {
	var first error
	for _, char := range buf {
		if err := d.sendData(char); err != nil && first == nil {
			first = err
		}
		if d.opts.CharDelay > 0 {
			d.opts.Clock.Sleep(d.opts.CharDelay)
		}
	}
	return len(buf), first
}

// WriteString writes a string at the current cursor position.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Clear blanks the display and returns the cursor to the origin. The
// controller runs an internal clear routine that needs at least 1.53ms,
// so Clear blocks for 2ms after issuing the command.
func (d *Dev) Clear() error {
	err := d.sendCommand(CMD_Clear_Display)
	d.opts.Clock.Sleep(clearSettle)
	return err
}

// Home moves the cursor to row 1, column 1. It deliberately uses a cursor
// move instead of the native return-home command, which flickers visibly
// on OLED panels.
func (d *Dev) Home() error {
	return d.CursorMove(1, 1)
}

// CursorMove moves the cursor to row, col (both 1-indexed). A row beyond
// the display is clamped to the bottom row. The column is trusted.
func (d *Dev) CursorMove(row, col int) error {
	if row > int(d.rows) {
		row = int(d.rows)
	}
	if row < 1 {
		row = 1
	}
	var offset byte
	switch {
	case d.rows <= 2:
		offset = rowOffsets2[row-1]
	case d.family == LCD:
		offset = rowOffsets4LCD[row-1]
	default:
		offset = rowOffsets4OLED[row-1]
	}
	return d.sendCommand(CMD_DDRAM_Set | (byte(col-1) + offset))
}

// DisplayOn turns the display output on.
func (d *Dev) DisplayOn() error {
	return d.setDisplayControl(OPT_Enable_Display, true)
}

// DisplayOff turns the display output off without losing its contents.
func (d *Dev) DisplayOff() error {
	return d.setDisplayControl(OPT_Enable_Display, false)
}

// CursorOn shows the underline cursor.
func (d *Dev) CursorOn() error {
	return d.setDisplayControl(OPT_Enable_Cursor, true)
}

// CursorOff hides the underline cursor.
func (d *Dev) CursorOff() error {
	return d.setDisplayControl(OPT_Enable_Cursor, false)
}

// BlinkOn makes the cursor cell blink.
func (d *Dev) BlinkOn() error {
	return d.setDisplayControl(OPT_Enable_Blink, true)
}

// BlinkOff stops the cursor cell blinking.
func (d *Dev) BlinkOff() error {
	return d.setDisplayControl(OPT_Enable_Blink, false)
}

// DisplayShiftLeft shifts the whole display window one column left. The
// cursor moves with it; that is the controller's doing, not the driver's.
func (d *Dev) DisplayShiftLeft() error {
	return d.sendCommand(CMD_Cursor_Display_Shift | OPT_Display_Shift)
}

// DisplayShiftRight shifts the whole display window one column right.
func (d *Dev) DisplayShiftRight() error {
	return d.sendCommand(CMD_Cursor_Display_Shift | OPT_Display_Shift | OPT_Shift_Right)
}

// CursorShiftLeft moves the cursor one column left.
func (d *Dev) CursorShiftLeft() error {
	return d.sendCommand(CMD_Cursor_Display_Shift)
}

// CursorShiftRight moves the cursor one column right.
func (d *Dev) CursorShiftRight() error {
	return d.sendCommand(CMD_Cursor_Display_Shift | OPT_Shift_Right)
}

// LeftToRight makes writes flow left to right (the power-on default).
func (d *Dev) LeftToRight() error {
	return d.setEntryMode(OPT_Left_To_Right, true)
}

// RightToLeft makes writes flow right to left.
func (d *Dev) RightToLeft() error {
	return d.setEntryMode(OPT_Left_To_Right, false)
}

// AutoShiftOn shifts the whole display on every write instead of moving
// the cursor.
func (d *Dev) AutoShiftOn() error {
	return d.setEntryMode(OPT_Auto_Shift, true)
}

// AutoShiftOff restores normal cursor advancement.
func (d *Dev) AutoShiftOff() error {
	return d.setEntryMode(OPT_Auto_Shift, false)
}

// CreateChar programs one of the 8 CGRAM glyph slots with a 5x8 bitmap,
// one row per byte, top row first. The glyph is displayed by writing the
// slot number as a character.
func (d *Dev) CreateChar(slot byte, glyph [8]byte) error {
	slot &= 0x07
	first := d.sendCommand(CMD_CGRAM_Set | slot<<3)
	for _, row := range glyph {
		if err := d.sendData(row); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Halt blanks the display and powers down what the family allows: the
// backlight on LCDs, the pixel output on OLEDs.
func (d *Dev) Halt() error {
	err := d.Clear()
	if d.family == LCD {
		if e := d.Backlight(false); err == nil {
			err = e
		}
	} else {
		if e := d.DisplayOff(); err == nil {
			err = e
		}
	}
	return err
}

// setDisplayControl flips one bit in the display-control shadow register
// and resends the whole register; the controller has no partial update.
func (d *Dev) setDisplayControl(mask byte, on bool) error {
	if on {
		d.displayControl |= mask
	} else {
		d.displayControl &^= mask
	}
	return d.sendCommand(CMD_Display_Control | d.displayControl)
}

// setEntryMode flips one bit in the entry-mode shadow register and
// resends the whole register.
func (d *Dev) setEntryMode(mask byte, on bool) error {
	if on {
		d.entryMode |= mask
	} else {
		d.entryMode &^= mask
	}
	return d.sendCommand(CMD_Entry_Mode | d.entryMode)
}

func (d *Dev) sendCommand(value byte) error {
	log.Debugf("chardisplay: command %#02x", value)
	if d.family == OLED {
		return d.writeOLED(oledCommandMode, value)
	}
	return d.writeLCD(value, lcdCommand)
}

func (d *Dev) sendData(value byte) error {
	log.Debugf("chardisplay: data %#02x", value)
	if d.family == OLED {
		return d.writeOLED(oledDataMode, value)
	}
	return d.writeLCD(value, lcdData)
}

const clearSettle = 2 * time.Millisecond // datasheet minimum is 1.53ms

var _ conn.Resource = &Dev{}
