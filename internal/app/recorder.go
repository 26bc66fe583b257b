package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/emmett/mictap/internal/audio"
	"github.com/emmett/mictap/internal/encode"
	"github.com/emmett/mictap/internal/input"
	"github.com/emmett/mictap/internal/output"
)

// RecorderConfig holds configuration for a recording run
type RecorderConfig struct {
	Session SessionConfig

	// Hotkey toggles recording while running; empty disables the hotkey
	Hotkey string

	// EncodeOutput is a path for the compressed Opus stream; empty
	// disables the encoder
	EncodeOutput string

	// WAVOutput is a path for a WAV dump of the history buffer written
	// on exit; empty disables the dump
	WAVOutput string
}

// Recorder wires a capture session to the console, the optional hotkey, the
// optional streaming encoder and the optional WAV dump
type Recorder struct {
	config    RecorderConfig
	statusOut *output.ConsoleOutput
}

// NewRecorder creates a new Recorder instance
func NewRecorder(config RecorderConfig) *Recorder {
	return &Recorder{
		config:    config,
		statusOut: output.DefaultConsoleOutput(),
	}
}

// Run starts the capture session and blocks until interrupted
func (r *Recorder) Run() error {
	session := NewSession()
	if err := session.Start(r.config.Session); err != nil {
		return err
	}
	defer session.Close()

	cfg := session.Config()
	device := session.Device()
	r.statusOut.Info(fmt.Sprintf("Capturing from %s (%d Hz, %d ch, %d ms chunks)",
		device.Name, cfg.SampleRate, cfg.Channels, cfg.ChunkDurationMs))

	// Optional streaming encoder
	var encoder *encode.Encoder
	var encodeFile *os.File
	var encodedBytes int
	if r.config.EncodeOutput != "" {
		encoder = encode.NewEncoder()
		if err := encoder.Initialize(cfg.SampleRate, cfg.Channels); err != nil {
			return fmt.Errorf("failed to initialize encoder: %w", err)
		}
		defer encoder.Cleanup()

		var err error
		encodeFile, err = os.Create(r.config.EncodeOutput)
		if err != nil {
			return fmt.Errorf("failed to create encode output: %w", err)
		}
		defer encodeFile.Close()
		r.statusOut.Info(fmt.Sprintf("Encoding Opus to %s", r.config.EncodeOutput))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nStopping...")
		cancel()
	}()

	// Optional recording toggle
	if r.config.Hotkey != "" {
		hotkeyMgr := input.NewHotkeyManager(func() {
			session.SetRecording(!session.Recording())
		})
		if err := hotkeyMgr.Start(ctx, r.config.Hotkey); err != nil {
			return fmt.Errorf("failed to start hotkey listener: %w", err)
		}
		defer hotkeyMgr.Stop()
		r.statusOut.Info(fmt.Sprintf("Press %s to toggle recording", r.config.Hotkey))
	}

	r.statusOut.Info("Press Ctrl+C to stop.")

	meter := audio.NewLevelMeter(0.6)
	ticker := time.NewTicker(DrainInterval(cfg.ChunkDurationMs))
	defer ticker.Stop()

	var chunkCount int
	for {
		select {
		case <-ctx.Done():
			r.statusOut.Clear()

			// Pick up anything still queued before shutting down.
			stream := session.Stream()
			chunks := stream.DrainNewChunks()
			chunkCount += len(chunks)
			if encoder != nil {
				if err := r.encodeChunks(encoder, encodeFile, chunks, &encodedBytes); err != nil {
					r.statusOut.Error(err.Error())
				}
				flushed, err := encoder.Flush()
				if err != nil {
					r.statusOut.Error(fmt.Sprintf("Encoder flush failed: %v", err))
				} else if flushed > 0 {
					r.statusOut.Info(fmt.Sprintf("Encoder flushed %d trailing packets", flushed))
				}
			}

			if r.config.WAVOutput != "" {
				if err := r.dumpHistory(stream); err != nil {
					r.statusOut.Error(fmt.Sprintf("WAV dump failed: %v", err))
				}
			}

			r.statusOut.Info(fmt.Sprintf("Captured %d chunks (%d dropped)",
				chunkCount, stream.Dropped()))
			if encoder != nil {
				r.statusOut.Info(fmt.Sprintf("Encoded %d bytes", encodedBytes))
			}
			return nil

		case <-ticker.C:
			stream := session.Stream()
			chunks := stream.DrainNewChunks()
			chunkCount += len(chunks)

			for _, c := range chunks {
				meter.Update(c)
			}
			r.statusOut.Level(meter.Level(), stream.Recording())

			if encoder != nil {
				if err := r.encodeChunks(encoder, encodeFile, chunks, &encodedBytes); err != nil {
					r.statusOut.Error(err.Error())
				}
			}
		}
	}
}

func (r *Recorder) encodeChunks(encoder *encode.Encoder, out *os.File, chunks []audio.Chunk, total *int) error {
	for _, c := range chunks {
		data, err := encoder.Encode(c.Samples())
		if err != nil {
			return fmt.Errorf("encode failed: %w", err)
		}
		if len(data) == 0 {
			continue
		}
		n, err := out.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write encoded audio: %w", err)
		}
		*total += n
	}
	return nil
}

// dumpHistory writes everything in the history buffer, ordered by start
// timestamp, as a WAV file
func (r *Recorder) dumpHistory(stream *audio.StreamContext) error {
	startNs, endNs := stream.AvailableRange()
	if startNs == 0 && endNs == 0 {
		return fmt.Errorf("history buffer is empty")
	}

	chunks := stream.QueryRange(startNs, endNs+1)
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].StartNs < chunks[j].StartNs
	})

	var pcm []byte
	for _, c := range chunks {
		pcm = append(pcm, c.Data...)
	}

	format := stream.Format()
	wav, err := output.EncodeWAV(pcm, format.SampleRate, format.Channels)
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.config.WAVOutput, wav, 0644); err != nil {
		return fmt.Errorf("failed to write WAV file: %w", err)
	}

	r.statusOut.Info(fmt.Sprintf("Wrote %.1f seconds of history to %s",
		float64(endNs-startNs)/float64(time.Second), r.config.WAVOutput))
	return nil
}
