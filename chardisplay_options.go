/*
Copyright 2025 Tim St. Pierre
Options for I2C character displays
*/
package chardisplay

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

type Opts struct {
	// The I²C slave address
	I2CAddr uint16
	// How many rows and columns the display has. Rows must be 1-4.
	Rows uint8
	Cols uint8
	// Extra pause after each character written, for slow displays
	CharDelay time.Duration
	// Extra pause between the steps of a nibble enable strobe. The
	// controller usually latches fine with none; raise it when the bus
	// transport is fast enough to outrun the expander.
	PulseDelay time.Duration
	// Clock used for every controller-mandated wait. Defaults to the
	// wall clock; tests substitute their own.
	Clock clockwork.Clock
	// OnWriteError decides what a failed bus write does. It receives the
	// transport error and whatever it returns is surfaced to the caller.
	// Defaults to SwallowWriteErrors.
	OnWriteError func(error) error
}

var DefaultOpts = Opts{
	I2CAddr: 0x27,
	Rows:    2,
	Cols:    16,
}

// SwallowWriteErrors drops bus write failures and keeps going. This is
// the default: the displays are write-only, so there is nothing to
// recover and a missed byte only costs one garbled cell.
func SwallowWriteErrors(error) error {
	return nil
}

// LogWriteErrors logs bus write failures and keeps going.
func LogWriteErrors(err error) error {
	log.Warnf("chardisplay: bus write failed: %v", err)
	return nil
}

// PropagateWriteErrors returns bus write failures to the caller.
func PropagateWriteErrors(err error) error {
	return err
}

func (o *Opts) i2cAddr() (uint16, error) {
	switch {
	case o.I2CAddr == 0:
		// Default address.
		return 0x27, nil
	case o.I2CAddr <= 0x7f:
		return o.I2CAddr, nil
	default:
		return 0, errors.New("address does not fit in 7 bits")
	}
}

func (o *Opts) rowCount() (uint8, error) {
	switch {
	case o.Rows == 0:
		return 2, nil
	case o.Rows <= 4:
		return o.Rows, nil
	default:
		return 0, errors.New("display rows must be between 1 and 4")
	}
}

func (o *Opts) colCount() uint8 {
	if o.Cols == 0 {
		return 16
	}
	return o.Cols
}

// withDefaults returns a copy with the injectable collaborators filled in.
func (o *Opts) withDefaults() Opts {
	out := *o
	if out.Clock == nil {
		out.Clock = clockwork.NewRealClock()
	}
	if out.OnWriteError == nil {
		out.OnWriteError = SwallowWriteErrors
	}
	return out
}
