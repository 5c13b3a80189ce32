package audio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/url"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"assetgen/internal/producer"
)

// maxIdleMessages bounds how many consecutive server messages without audio
// the stream tolerates before giving up.
const maxIdleMessages = 256

type clientMessage struct {
	Setup                 *setupMessage          `json:"setup,omitempty"`
	ClientContent         *clientContent         `json:"clientContent,omitempty"`
	MusicGenerationConfig *musicGenerationConfig `json:"musicGenerationConfig,omitempty"`
	PlaybackControl       string                 `json:"playbackControl,omitempty"`
}

type setupMessage struct {
	Model string `json:"model"`
}

type clientContent struct {
	WeightedPrompts []weightedPrompt `json:"weightedPrompts"`
}

type weightedPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type musicGenerationConfig struct {
	BPM         int      `json:"bpm,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Guidance    *float64 `json:"guidance,omitempty"`
	Density     *float64 `json:"density,omitempty"`
	Brightness  *float64 `json:"brightness,omitempty"`
}

type serverMessage struct {
	SetupComplete  *struct{}       `json:"setupComplete"`
	ServerContent  *serverContent  `json:"serverContent"`
	FilteredPrompt *filteredPrompt `json:"filteredPrompt"`
	Warning        string          `json:"warning"`
}

type serverContent struct {
	AudioChunks []audioChunk `json:"audioChunks"`
}

type audioChunk struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type filteredPrompt struct {
	Text           string `json:"text"`
	FilteredReason string `json:"filteredReason"`
}

// session is one websocket connection to the music endpoint.
type session struct {
	conn   net.Conn
	reader io.Reader
	stop   func() bool
}

func dialSession(ctx context.Context, dialer ws.Dialer, endpoint, apiKey string) (*session, error) {
	target, err := url.Parse(endpoint)
	if err != nil {
		return nil, producer.Wrap(producer.ErrConfiguration, kind, "dial", "parse url", err)
	}
	query := target.Query()
	query.Set("key", apiKey)
	target.RawQuery = query.Encode()

	conn, br, _, err := dialer.Dial(ctx, target.String())
	if err != nil {
		return nil, classify(ctx, "dial", redact(err, apiKey))
	}
	s := &session{conn: conn, reader: conn}
	if br != nil {
		s.reader = br
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	s.stop = context.AfterFunc(ctx, func() { _ = conn.Close() })
	return s, nil
}

func (s *session) send(msg clientMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return producer.Wrap(producer.ErrInvalidParameters, kind, "send", "encode message", err)
	}
	if err := wsutil.WriteClientText(s.conn, payload); err != nil {
		return err
	}
	return nil
}

func (s *session) receive() (serverMessage, error) {
	data, _, err := wsutil.ReadServerData(readWriter{Reader: s.reader, Writer: s.conn})
	if err != nil {
		return serverMessage{}, err
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return serverMessage{}, producer.Wrap(producer.ErrResponse, kind, "receive", "parse message: "+producer.Snippet(string(data), 120), err)
	}
	return msg, nil
}

// awaitSetup discards messages until the server acknowledges the setup.
func (s *session) awaitSetup(ctx context.Context) error {
	for range maxIdleMessages {
		msg, err := s.receive()
		if err != nil {
			return classify(ctx, "setup", err)
		}
		if msg.SetupComplete != nil {
			return nil
		}
	}
	return producer.Wrap(producer.ErrResponse, kind, "setup", "no setup acknowledgement", nil)
}

// chunks yields decoded PCM chunks until the consumer stops or the stream
// fails. A failure is yielded once as (nil, err) and ends the sequence.
func (s *session) chunks(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		idle := 0
		for {
			msg, err := s.receive()
			if err != nil {
				yield(nil, classify(ctx, "stream", err))
				return
			}
			if msg.FilteredPrompt != nil {
				reason := msg.FilteredPrompt.FilteredReason
				if reason == "" {
					reason = "prompt rejected"
				}
				yield(nil, producer.Wrap(producer.ErrResponse, kind, "stream", "filtered prompt: "+reason, nil))
				return
			}
			if msg.ServerContent == nil || len(msg.ServerContent.AudioChunks) == 0 {
				idle++
				if idle >= maxIdleMessages {
					yield(nil, producer.Wrap(producer.ErrResponse, kind, "stream", "server sent no audio", nil))
					return
				}
				continue
			}
			idle = 0
			for _, chunk := range msg.ServerContent.AudioChunks {
				pcm, err := base64.StdEncoding.DecodeString(chunk.Data)
				if err != nil {
					yield(nil, producer.Wrap(producer.ErrResponse, kind, "stream", "invalid base64 audio", err))
					return
				}
				if len(pcm) == 0 {
					continue
				}
				if !yield(pcm, nil) {
					return
				}
			}
		}
	}
}

// close stops playback and closes the connection. Errors are ignored; the
// audio has either been collected or the call already failed.
func (s *session) close() {
	if s == nil || s.conn == nil {
		return
	}
	_ = s.send(clientMessage{PlaybackControl: "STOP"})
	_ = wsutil.WriteClientMessage(s.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	if s.stop != nil {
		s.stop()
	}
	_ = s.conn.Close()
}

type readWriter struct {
	io.Reader
	io.Writer
}

// classify maps a websocket error to a producer marker. A closed stream is a
// short output; the caller knows how much audio arrived.
func classify(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, producer.ErrResponse) || errors.Is(err, producer.ErrConfiguration) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return producer.Wrap(producer.ErrTimeout, kind, operation, "", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return producer.Wrap(producer.ErrTimeout, kind, operation, "", err)
	}
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return producer.Wrap(producer.ErrShortOutput, kind, operation, fmt.Sprintf("server closed stream (%d %s)", closed.Code, closed.Reason), nil)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return producer.Wrap(producer.ErrShortOutput, kind, operation, "stream ended", err)
	}
	var status ws.StatusError
	if errors.As(err, &status) {
		return producer.Wrap(producer.ErrResponse, kind, operation, "handshake rejected", err)
	}
	return producer.Wrap(producer.ErrTransport, kind, operation, "", err)
}

// redact strips the api key from dial errors, which echo the url.
func redact(err error, apiKey string) error {
	if err == nil || apiKey == "" {
		return err
	}
	return &redactedError{err: err, key: apiKey}
}

type redactedError struct {
	err error
	key string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.key, "REDACTED")
}

func (e *redactedError) Unwrap() error { return e.err }
