/*
Copyright 2025 Tim St. Pierre
*/

// Package chardisplay controls character display modules over I2C.
//
// Two controller families are supported behind one API: HD44780 LCDs
// reached through a PCA8574/PCF8574 I/O expander backpack (16x2, 20x4
// and friends), and US2066 OLED character modules with native I2C. The
// family is picked at construction and decides how logical operations
// are encoded on the wire: the LCD path packs every byte into two
// enable-strobed nibbles, the OLED path sends whole bytes behind a
// command/data mode-select byte.
//
// The displays are write-only, so the driver keeps shadow copies of the
// controller registers it changes and resends a whole register whenever
// one of its bits is toggled.
//
// A handle is not safe for concurrent use, and all handles on one bus
// share it: serialize access externally if more than one goroutine
// drives a display.
//
//	bus, _ := i2creg.Open("")
//	lcd, err := chardisplay.New(bus, chardisplay.LCD, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	lcd.Clear()
//	lcd.WriteString("Hello")
//	lcd.CursorMove(2, 1)
//	lcd.WriteString("World")
package chardisplay
