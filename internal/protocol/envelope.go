// Package protocol implements the bidirectional message stream between
// the server and its peers (the web UI and workers): text frames carry
// typed commands, binary frames carry a length-prefixed, schema-fixed
// envelope of worker control messages.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oklog/ulid/v2"
)

// Variant tags a binary envelope's payload type.
type Variant string

const (
	VariantInitialise     Variant = "initialise"
	VariantWorkerID       Variant = "worker_id"
	VariantEncodeGeneric  Variant = "encode_generic"
	VariantEncode         Variant = "encode"
	VariantEncodeStarted  Variant = "encode_started"
	VariantEncodeFinished Variant = "encode_finished"
	VariantMoveStarted    Variant = "move_started"
	VariantMoveFinished   Variant = "move_finished"
	VariantAnnounce       Variant = "announce"
	VariantClose          Variant = "close"
)

// Envelope is the fixed outer shape of every binary message: a variant
// tag, a correlation id for request/response pairing in logs, and a
// variant-specific JSON payload. The wire format is schema-fixed but
// encoding-agnostic; JSON is used here as the concrete encoding.
type Envelope struct {
	Variant Variant         `json:"variant"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope builds an Envelope with a fresh correlation id and the given
// payload marshaled to JSON.
func NewEnvelope(variant Variant, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol.NewEnvelope: marshaling payload: %w", err)
	}
	return &Envelope{Variant: variant, ID: ulid.Make().String(), Payload: data}, nil
}

// Decode unmarshals the envelope's payload into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("protocol.Envelope.Decode: %w", err)
	}
	return nil
}

// WriteFrame writes a length-prefixed, JSON-encoded envelope to w: a
// four-byte big-endian length header followed by the JSON body. Both
// ends must agree on this framing regardless of the transport (raw TCP
// or a websocket binary frame's payload).
func WriteFrame(w io.Writer, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("protocol.WriteFrame: marshaling envelope: %w", err)
	}
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("protocol.WriteFrame: writing length header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("protocol.WriteFrame: writing body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed envelope from r.
func ReadFrame(r io.Reader) (*Envelope, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header)
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("protocol.ReadFrame: reading body: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("protocol.ReadFrame: unmarshaling envelope: %w", err)
	}
	return &env, nil
}

// InitialisePayload is the Worker→Server first message on a new
// connection. ExistingID is nil for a worker connecting for the first
// time.
type InitialisePayload struct {
	ExistingID *uint64 `json:"existing_id,omitempty"`
	Capacity   int     `json:"capacity"`
}

// WorkerIDPayload is the Server→Worker response assigning (or
// reconfirming) a worker's id.
type WorkerIDPayload struct {
	ID uint64 `json:"id"`
}

// EncodeGenericPayload is a Worker→Server request to enqueue a derived
// Encode work item.
type EncodeGenericPayload struct {
	GenericID       uint64 `json:"generic_id"`
	FileVersionID   uint64 `json:"file_version_id"`
	AddMode         int    `json:"add_mode"`
	EncodeProfileID uint64 `json:"encode_profile_id"`
}

// EncodePayload is a Server→Worker push of a materialized Encode.
type EncodePayload struct {
	GenericID       uint64   `json:"generic_id"`
	EncodeProfileID uint64   `json:"encode_profile_id"`
	SourcePath      string   `json:"source_path"`
	TargetPath      string   `json:"target_path"`
	StagingPath     string   `json:"staging_path"`
	Args            []string `json:"args"`
}

// EncodeStartedPayload reports that a worker has begun transcoding.
type EncodeStartedPayload struct {
	WorkerID  uint64 `json:"worker_id"`
	GenericID uint64 `json:"generic_id"`
}

// EncodeFinishedPayload reports that ffmpeg itself has finished.
type EncodeFinishedPayload struct {
	WorkerID     uint64 `json:"worker_id"`
	GenericID    uint64 `json:"generic_id"`
	ArtifactPath string `json:"artifact_path"`
}

// MoveStartedPayload reports that the worker has begun copying the
// artifact into the shared temp directory.
type MoveStartedPayload struct {
	WorkerID  uint64 `json:"worker_id"`
	GenericID uint64 `json:"generic_id"`
	Source    string `json:"source"`
	Dest      string `json:"dest"`
}

// MoveFinishedPayload triggers server-side adoption: the artifact is now
// sitting at StagingPath, ready for the server to copy into TargetPath.
type MoveFinishedPayload struct {
	WorkerID        uint64 `json:"worker_id"`
	GenericID       uint64 `json:"generic_id"`
	EncodeProfileID uint64 `json:"encode_profile_id"`
	StagingPath     string `json:"staging_path"`
	TargetPath      string `json:"target_path"`
}

// AnnouncePayload is an informational Server→Worker text notice.
type AnnouncePayload struct {
	Text string `json:"text"`
}
