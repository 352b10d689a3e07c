/*
Copyright 2025 Tim St. Pierre
Byte-mode protocol for US2066 OLED controllers with native I2C
*/
package chardisplay

import (
	"fmt"
	"time"
)

const (
	oledCommandMode   = 0x80
	oledDataMode      = 0x40
	oledSetBrightness = 0x81
	oledSetFade       = 0x23

	// Fade register modes
	oledFadeOff   = 0x00
	oledFadeOn    = 0x20
	oledFadeBlink = 0x30

	// The US2066 has no busy reporting over I2C; it just needs a short
	// settle time between transactions.
	oledSettle = time.Millisecond
)

// writeOLED sends one logical byte as (mode, value). mode marks the byte
// as a command or display data. The settle wait runs even on a failed
// write so a flaky bus cannot compress the controller's timing.
func (d *Dev) writeOLED(mode, value byte) error {
	err := d.regs.WriteUint8(mode, value)
	d.opts.Clock.Sleep(oledSettle)
	if err != nil {
		return d.opts.OnWriteError(err)
	}
	return nil
}

// SetBrightness sets the OLED segment brightness, 0-255. OLED only.
//
// The register lives behind the extended command set, so the controller
// is unlocked, written, and locked again in one fixed script.
func (d *Dev) SetBrightness(value byte) error {
	if d.family != OLED {
		return errNotOLED("brightness")
	}
	return d.extendedCommand(oledSetBrightness, value)
}

// FadeOff turns the OLED fade feature off. OLED only.
func (d *Dev) FadeOff() error {
	if d.family != OLED {
		return errNotOLED("fade")
	}
	return d.extendedCommand(oledSetFade, oledFadeOff)
}

// FadeOnce fades the display out to off. rate sets the fade interval,
// 0-15. OLED only.
func (d *Dev) FadeOnce(rate byte) error {
	if d.family != OLED {
		return errNotOLED("fade")
	}
	return d.extendedCommand(oledSetFade, oledFadeOn|rate&0x0f)
}

// FadeBlink fades the display out and back in repeatedly. rate sets the
// fade interval, 0-15. OLED only.
func (d *Dev) FadeBlink(rate byte) error {
	if d.family != OLED {
		return errNotOLED("fade")
	}
	return d.extendedCommand(oledSetFade, oledFadeBlink|rate&0x0f)
}

// extendedCommand writes one extended-set register: set RE, set SD,
// write the register and its value, then clear SD and RE. Ten command
// writes, always in this order.
func (d *Dev) extendedCommand(reg, value byte) error {
	var first error
	cmd := func(v byte) {
		if err := d.writeOLED(oledCommandMode, v); err != nil && first == nil {
			first = err
		}
	}

	cmd(0x80) // set RE=1
	cmd(0x2a)

	cmd(0x80) // set SD=1
	cmd(0x79)

	cmd(reg)
	cmd(value)

	cmd(0x80) // set SD=0
	cmd(0x78)

	cmd(0x80) // set RE=0
	cmd(0x28)

	return first
}

// oledInit walks the US2066 through its power-on sequence. Like the LCD
// script this is a fixed protocol script; the RE/SD lock bits gate the
// extended registers and the order must not change.
func (d *Dev) oledInit() error {
	ck := d.opts.Clock
	ck.Sleep(100 * time.Millisecond)

	var first error
	cmd := func(v byte) {
		if err := d.writeOLED(oledCommandMode, v); err != nil && first == nil {
			first = err
		}
	}
	data := func(v byte) {
		if err := d.writeOLED(oledDataMode, v); err != nil && first == nil {
			first = err
		}
	}

	cmd(0x2a) // set RE bit (RE=1, IS=0, SD=0)

	cmd(0x71) // function selection A
	data(0x5c) // enable the internal regulator; works at 3.3V and 5V

	cmd(0x28) // clear RE bit

	cmd(0x08) // sleep mode on while we configure

	cmd(0x2a) // set RE bit
	cmd(0x79) // set SD bit

	cmd(0xd5) // oscillator divider / frequency
	cmd(0x70)

	cmd(0x78) // clear SD bit

	// Extended function set: 5x8 characters, 3/4 line mode on tall panels
	if d.rows > 2 {
		cmd(0x09)
	} else {
		cmd(0x08)
	}

	cmd(0x06) // advanced entry mode: COM0 -> COM31, SEG99 -> SEG0

	cmd(0x72) // function selection B
	data(0x00) // ROM A, CGRAM 8: leaves the custom glyph slots usable

	cmd(0x79) // set SD bit

	cmd(0xda) // SEG pins hardware configuration
	cmd(0x10)

	cmd(0xdc) // function selection C: internal VSL, GPIO pin HiZ
	cmd(0x00)

	cmd(0x81) // contrast
	cmd(0xff)

	cmd(0xd9) // phase length
	cmd(0xf1)

	cmd(0xdb) // VCOMH deselect level
	cmd(0x40)

	cmd(0x78) // clear SD bit
	cmd(0x28) // clear RE and IS

	cmd(0x01) // clear display
	cmd(0x80) // DDRAM address to line 1 start

	ck.Sleep(100 * time.Millisecond)

	d.functionSet = 0
	if d.rows > 1 {
		d.functionSet |= OPT_2_Lines
	}
	cmd(CMD_Function_Set | d.functionSet)

	d.displayControl = OPT_Enable_Display
	cmd(CMD_Display_Control | d.displayControl)

	d.entryMode = OPT_Left_To_Right
	cmd(CMD_Entry_Mode | d.entryMode)

	if err := d.Clear(); err != nil && first == nil {
		first = err
	}
	if err := d.Home(); err != nil && first == nil {
		first = err
	}
	return first
}

func errNotLCD(op string) error {
	return fmt.Errorf("chardisplay: %s needs an LCD backpack", op)
}

func errNotOLED(op string) error {
	return fmt.Errorf("chardisplay: %s needs an OLED controller", op)
}
