package grpc

import (
	"context"

	"github.com/emmett/mictap/internal/app"
	"github.com/emmett/mictap/internal/audio"
)

// CaptureService implements the gRPC capture service. It never consumes
// the hand-off queue itself; the server's pump does that, and streaming
// handlers subscribe to it.
type CaptureService struct {
	session *app.Session
	pump    *app.Pump
}

// NewCaptureService creates a new capture service
func NewCaptureService(session *app.Session, pump *app.Pump) *CaptureService {
	return &CaptureService{session: session, pump: pump}
}

// ChunkMessage represents one captured chunk on the wire
type ChunkMessage struct {
	Data       []byte
	SampleRate int32
	Channels   int32
	StartNs    int64
	EndNs      int64
}

// RangeRequest selects chunks by start timestamp, [StartNs, EndNs)
type RangeRequest struct {
	StartNs int64
	EndNs   int64
}

// RangeResponse reports the time span the history buffer covers
type RangeResponse struct {
	StartNs int64
	EndNs   int64
}

// ChunkStream is the server-side streaming interface for live chunks
type ChunkStream interface {
	Send(*ChunkMessage) error
	Context() context.Context
}

func toMessage(c audio.Chunk) *ChunkMessage {
	return &ChunkMessage{
		Data:       c.Data,
		SampleRate: int32(c.Format.SampleRate),
		Channels:   int32(c.Format.Channels),
		StartNs:    c.StartNs,
		EndNs:      c.EndNs,
	}
}

// StreamChunks sends every newly captured chunk to the client until the
// stream context is cancelled. Chunks arrive through a pump subscription,
// so any number of concurrent streams observe the same capture.
// This will be updated to use generated proto types once protoc runs.
func (s *CaptureService) StreamChunks(stream ChunkStream) error {
	ctx := stream.Context()
	chunks, cancel := s.pump.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-chunks:
			if !ok {
				return nil
			}
			if err := stream.Send(toMessage(c)); err != nil {
				return err
			}
		}
	}
}

// QueryRange returns history chunks whose start timestamp lies in the
// requested range. EndNs <= 0 means unbounded.
func (s *CaptureService) QueryRange(ctx context.Context, req *RangeRequest) ([]*ChunkMessage, error) {
	endNs := req.EndNs
	if endNs <= 0 {
		endNs = int64(^uint64(0) >> 1)
	}

	chunks := s.session.Stream().QueryRange(req.StartNs, endNs)
	result := make([]*ChunkMessage, 0, len(chunks))
	for _, c := range chunks {
		result = append(result, toMessage(c))
	}
	return result, nil
}

// AvailableRange reports the time span of audio currently held in history
func (s *CaptureService) AvailableRange(ctx context.Context) (*RangeResponse, error) {
	startNs, endNs := s.session.Stream().AvailableRange()
	return &RangeResponse{StartNs: startNs, EndNs: endNs}, nil
}
