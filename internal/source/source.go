package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Backend produces raw interleaved I/Q chunks of up to dataLen bytes
// each, pushed to a caller-owned channel until ctx is canceled or the
// backend runs out of input.
type Backend interface {
	Run(ctx context.Context, dataLen int, out chan<- []byte) error
}

// DeviceStreamer is the subset of *rtlsdr.Device a device backend
// needs; kept narrow so tests can substitute a fake.
type DeviceStreamer interface {
	Stream(ctx context.Context, out chan<- []byte) error
}

// DeviceBackend adapts a DeviceStreamer's raw async callback delivery
// into the Backend contract.
type DeviceBackend struct {
	Device DeviceStreamer
}

// Run forwards the device's callback-delivered chunks to out verbatim;
// the device already chunks at its own natural buffer size.
func (d DeviceBackend) Run(ctx context.Context, dataLen int, out chan<- []byte) error {
	return d.Device.Stream(ctx, out)
}

// FileBackend reads a captured I/Q file in dataLen-sized chunks,
// optionally looping back to the start on EOF.
type FileBackend struct {
	Path   string
	Loop   bool
	Logger *logrus.Logger
}

// Run blocks reading Path until ctx is canceled, EOF with Loop=false,
// or a read error.
func (f FileBackend) Run(ctx context.Context, dataLen int, out chan<- []byte) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("source: open capture file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, dataLen)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := io.ReadFull(file, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if !f.Loop {
				return nil
			}
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("source: rewind capture file: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("source: read capture file: %w", err)
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case out <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pump drives a Backend into a Window: every chunk it produces is
// merged in via Window.Fill. Pump returns when the backend returns.
func Pump(ctx context.Context, backend Backend, dataLen int, win *Window) error {
	chunks := make(chan []byte, 4)
	errCh := make(chan error, 1)

	go func() { errCh <- backend.Run(ctx, dataLen, chunks) }()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return <-errCh
			}
			win.Fill(chunk)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
