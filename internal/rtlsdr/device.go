// Package rtlsdr wraps librtlsdr as a C10 sample producer: configure
// a tuner, then stream interleaved I/Q bytes into a channel until the
// caller's context is canceled.
package rtlsdr

import (
	"context"
	"errors"
	"fmt"

	rtlsdr "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"
)

// BufferChunkSize is the unit librtlsdr's async reader delivers data in.
const BufferChunkSize = 16384

// Device is an opened RTL-SDR tuner streaming raw samples.
type Device struct {
	device   *rtlsdr.Context
	logger   *logrus.Logger
	index    int
	isOpen   bool
	cancelFn context.CancelFunc
}

// Open verifies that device index idx exists; the device itself is
// opened by Configure.
func Open(idx int, logger *logrus.Logger) (*Device, error) {
	count := rtlsdr.GetDeviceCount()
	if count == 0 {
		return nil, errors.New("rtlsdr: no devices found")
	}
	if idx >= count {
		return nil, fmt.Errorf("rtlsdr: device index %d out of range (0-%d)", idx, count-1)
	}
	return &Device{logger: logger, index: idx}, nil
}

// Configure tunes to frequency (Hz) at sampleRate (Hz); gain of 0
// selects automatic gain control, anything else is tenths-of-dB.
func (d *Device) Configure(frequency, sampleRate uint32, gain int) error {
	dev, err := rtlsdr.Open(d.index)
	if err != nil {
		return fmt.Errorf("rtlsdr: open device: %w", err)
	}
	d.device = dev
	d.isOpen = true

	if err := d.device.SetCenterFreq(int(frequency)); err != nil {
		return fmt.Errorf("rtlsdr: set frequency: %w", err)
	}
	if err := d.device.SetSampleRate(int(sampleRate)); err != nil {
		return fmt.Errorf("rtlsdr: set sample rate: %w", err)
	}

	if gain == 0 {
		if err := d.device.SetTunerGainMode(false); err != nil {
			return fmt.Errorf("rtlsdr: set auto gain: %w", err)
		}
	} else {
		if err := d.device.SetTunerGainMode(true); err != nil {
			return fmt.Errorf("rtlsdr: set manual gain mode: %w", err)
		}
		if err := d.device.SetTunerGain(gain); err != nil {
			return fmt.Errorf("rtlsdr: set gain: %w", err)
		}
	}

	if err := d.device.ResetBuffer(); err != nil {
		return fmt.Errorf("rtlsdr: reset buffer: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"device_index": d.index,
		"frequency":    frequency,
		"sample_rate":  sampleRate,
		"gain":         gain,
	}).Info("rtlsdr device configured")
	return nil
}

// Stream pushes raw I/Q chunks into out until ctx is canceled. Chunks
// are dropped (not blocked on) when out is full, matching the async
// callback's non-blocking delivery contract.
func (d *Device) Stream(ctx context.Context, out chan<- []byte) error {
	if !d.isOpen {
		return errors.New("rtlsdr: device not open")
	}

	captureCtx, cancel := context.WithCancel(ctx)
	d.cancelFn = cancel
	bufLen := 16 * BufferChunkSize

	callback := func(data []byte) {
		select {
		case out <- data:
		case <-captureCtx.Done():
		default:
			d.logger.Debug("rtlsdr: dropping chunk, consumer backlogged")
		}
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.WithField("panic", r).Error("rtlsdr: capture goroutine panic")
			}
		}()
		if err := d.device.ReadAsync(callback, nil, 0, bufLen); err != nil {
			d.logger.WithError(err).Error("rtlsdr: async read failed")
		}
	}()

	<-captureCtx.Done()

	if err := d.device.CancelAsync(); err != nil {
		d.logger.WithError(err).Error("rtlsdr: cancel async failed")
	}
	return nil
}

// Close releases the device and stops any in-flight Stream call.
func (d *Device) Close() error {
	if d.cancelFn != nil {
		d.cancelFn()
	}
	if d.device != nil && d.isOpen {
		if err := d.device.Close(); err != nil {
			return fmt.Errorf("rtlsdr: close: %w", err)
		}
		d.isOpen = false
		d.logger.Info("rtlsdr device closed")
	}
	return nil
}
