package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/mictap/internal/output"
)

type CaptureStatusArgs struct{}

type QueryAudioArgs struct {
	StartNs int64 `json:"start_ns" jsonschema:"required,description=Range start in nanoseconds since the Unix epoch"`
	EndNs   int64 `json:"end_ns,omitempty" jsonschema:"description=Range end (exclusive); 0 means unbounded"`
}

type SetRecordingArgs struct {
	Enabled bool `json:"enabled" jsonschema:"required,description=Whether chunk capture should run"`
}

func (s *Server) handleCaptureStatus(ctx context.Context, req *sdk.CallToolRequest, args CaptureStatusArgs) (*sdk.CallToolResult, any, error) {
	cfg := s.session.Config()
	stream := s.session.Stream()
	startNs, endNs := stream.AvailableRange()

	content := []sdk.Content{
		&sdk.TextContent{Text: fmt.Sprintf("Device: %s (%d Hz, %d channels)",
			cfg.DeviceName, cfg.SampleRate, cfg.Channels)},
		&sdk.TextContent{Text: fmt.Sprintf("Recording: %v, dropped chunks: %d",
			stream.Recording(), stream.Dropped())},
	}
	if startNs == 0 && endNs == 0 {
		content = append(content, &sdk.TextContent{Text: "History: empty"})
	} else {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf(
			"History: %.1f seconds available, %d .. %d ns",
			float64(endNs-startNs)/float64(time.Second), startNs, endNs)})
	}

	return &sdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleQueryAudio(ctx context.Context, req *sdk.CallToolRequest, args QueryAudioArgs) (*sdk.CallToolResult, any, error) {
	endNs := args.EndNs
	if endNs <= 0 {
		endNs = int64(^uint64(0) >> 1)
	}

	stream := s.session.Stream()
	chunks := stream.QueryRange(args.StartNs, endNs)
	if len(chunks) == 0 {
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: "No audio in the requested range"}},
		}, nil, nil
	}

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
		return nil, nil, fmt.Errorf("failed to encode WAV: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: fmt.Sprintf("%d chunks, %d .. %d ns",
				len(chunks), chunks[0].StartNs, chunks[len(chunks)-1].EndNs)},
			&sdk.TextContent{Text: base64.StdEncoding.EncodeToString(wav)},
		},
	}, nil, nil
}

func (s *Server) handleSetRecording(ctx context.Context, req *sdk.CallToolRequest, args SetRecordingArgs) (*sdk.CallToolResult, any, error) {
	s.session.SetRecording(args.Enabled)

	state := "disabled"
	if args.Enabled {
		state = "enabled"
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf("Recording %s", state)}},
	}, nil, nil
}
