package roster

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gmpro/internal/pkg/logx"
)

// Stream message types.
const (
	MessageInitial = "initial"
	MessageUpdate  = "update"
)

// StreamMessage is the JSON payload of one "data:" event of the participant stream.
type StreamMessage struct {
	Type         string        `json:"type"`
	Participants []Participant `json:"participants"`
}

// ErrStreamClosed is returned by Run when the server ends the stream.
var ErrStreamClosed = errors.New("participant stream closed by server")

// Stream applies a server-sent participant stream to a Store. Each initial or update
// message replaces the roster wholesale. A Stream never reconnects.
type Stream struct {
	store  *Store
	client *http.Client
	url    string
	header http.Header
}

// NewStream creates a consumer of url. header is sent with the request and may be nil.
func NewStream(store *Store, client *http.Client, url string, header http.Header) *Stream {
	if client == nil {
		client = http.DefaultClient
	}

	return &Stream{store: store, client: client, url: url, header: header}
}

// Run opens the stream and applies messages until ctx is done or the stream fails. On
// failure the error is recorded in the store and returned. Cancellation returns ctx.Err()
// without touching the store.
func (s *Stream) Run(ctx context.Context) error {
	s.store.SetLoading(true)

	err := s.consume(ctx)
	if ctx.Err() != nil {
		s.store.SetLoading(false)
		return ctx.Err()
	}

	s.store.SetError(err)
	return err
}

func (s *Stream) consume(ctx context.Context) error {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build stream request: %w", err)
	}
	for key, values := range s.header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	r.Header.Set("Accept", "text/event-stream")

	res, err := s.client.Do(r)
	if err != nil {
		return fmt.Errorf("failed to open participant stream: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("participant stream answered %s", res.Status)
	}

	return s.read(res.Body)
}

func (s *Stream) read(body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			// Blank line terminates an event.
			if data.Len() > 0 {
				s.dispatch(data.String())
				data.Reset()
			}
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read participant stream: %w", err)
	}
	return ErrStreamClosed
}

func (s *Stream) dispatch(payload string) {
	var msg StreamMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logx.Warn("Ignoring malformed participant stream message", "error", err.Error())
		return
	}

	switch msg.Type {
	case MessageInitial, MessageUpdate:
		s.store.Replace(msg.Participants)
	default:
		logx.Debug("Ignoring participant stream message", "type", msg.Type)
	}
}
