/*
Copyright 2025 Tim St. Pierre
Nibble protocol for HD44780 controllers behind a PCA8574 I2C backpack
*/
package chardisplay

import "time"

// Output latch bits on the expander. D4-D7 occupy the high nibble, so a
// command nibble rides in bits 4-7 and the control lines in bits 0-3.
const (
	lcdBacklight = 0x08
	lcdEnable    = 0x04
	lcdRead      = 0x02
	lcdData      = 0x01
	lcdCommand   = 0x00
)

// writeRaw pushes one byte straight to the expander latch.
func (d *Dev) writeRaw(value byte) error {
	if err := d.c.Tx([]byte{value}, nil); err != nil {
		return d.opts.OnWriteError(err)
	}
	return nil
}

// writeLCD sends one logical byte as two nibble strobes, high nibble
// first. rs selects the command or data register and must be OR-ed into
// every write, as must the backlight bit: the backlight shares the
// expander latch, so leaving it out would blink the light on every byte.
func (d *Dev) writeLCD(value, rs byte) error {
	hi := (value & 0xf0) | d.backlight | rs
	lo := ((value << 4) & 0xf0) | d.backlight | rs

	err := d.strobe(hi)
	if e := d.strobe(lo); err == nil {
		err = e
	}
	return err
}

// strobe latches one nibble into the controller. The controller samples
// D4-D7 on the falling edge of the enable line, so the nibble is written
// with enable clear, set, then clear again.
func (d *Dev) strobe(nib byte) error {
	err := d.writeRaw(nib)
	if e := d.writeRaw(nib | lcdEnable); err == nil {
		err = e
	}
	d.pulseWait()
	if e := d.writeRaw(nib); err == nil {
		err = e
	}
	d.pulseWait()
	return err
}

func (d *Dev) pulseWait() {
	if d.opts.PulseDelay > 0 {
		d.opts.Clock.Sleep(d.opts.PulseDelay)
	}
}

// Backlight switches the backpack's backlight line and records the new
// latch bit so every following write carries it. LCD backpacks only.
func (d *Dev) Backlight(on bool) error {
	if d.family != LCD {
		return errNotLCD("backlight control")
	}
	if on {
		d.backlight = lcdBacklight
	} else {
		d.backlight = 0
	}
	return d.writeRaw(d.backlight)
}

// lcdInit walks the HD44780 through its documented power-on sequence.
// The order and the waits are a protocol script from the datasheet:
// three 8-bit-mode entry pulses force the controller into a known state
// from any half-initialized one, then a single pulse drops it to the
// 4-bit interface before the first full command goes out.
func (d *Dev) lcdInit() error {
	ck := d.opts.Clock
	ck.Sleep(100 * time.Millisecond)

	// All expander outputs low, apart from the backlight latch.
	err := d.writeRaw(d.backlight)
	ck.Sleep(time.Second)

	for i := 0; i < 3; i++ {
		if e := d.modePulse(0x30, 4300*time.Microsecond); err == nil {
			err = e
		}
	}
	if e := d.modePulse(0x20, time.Millisecond); err == nil {
		err = e
	}

	d.functionSet = 0
	if d.rows > 1 {
		d.functionSet |= OPT_2_Lines
	}
	if e := d.sendCommand(CMD_Function_Set | d.functionSet); err == nil {
		err = e
	}

	d.displayControl = OPT_Enable_Display
	if e := d.sendCommand(CMD_Display_Control | d.displayControl); err == nil {
		err = e
	}

	d.entryMode = OPT_Left_To_Right
	if e := d.sendCommand(CMD_Entry_Mode | d.entryMode); err == nil {
		err = e
	}

	if e := d.Clear(); err == nil {
		err = e
	}
	if e := d.Home(); err == nil {
		err = e
	}
	return err
}

// modePulse strobes a raw interface-mode nibble during init, before the
// controller can accept full commands.
func (d *Dev) modePulse(mode byte, settle time.Duration) error {
	data := mode | d.backlight
	err := d.writeRaw(data)
	if e := d.writeRaw(data | lcdEnable); err == nil {
		err = e
	}
	d.opts.Clock.Sleep(time.Millisecond)
	if e := d.writeRaw(data); err == nil {
		err = e
	}
	d.opts.Clock.Sleep(settle)
	return err
}
