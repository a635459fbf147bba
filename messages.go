package sayna

import (
	"encoding/json"
	"fmt"
)

// envelope is used for initial JSON parsing to determine the message type
// before decoding into the specific message struct.
type envelope struct {
	Type string `json:"type"`
}

// Message type discriminators on the wire.
const (
	typeConfig                  = "config"
	typeSpeak                   = "speak"
	typeClear                   = "clear"
	typeSendMessage             = "send_message"
	typeReady                   = "ready"
	typeSTTResult               = "stt_result"
	typeError                   = "error"
	typeMessage                 = "message"
	typeParticipantDisconnected = "participant_disconnected"
	typeTTSPlaybackComplete     = "tts_playback_complete"
)

// Outgoing messages (client -> server)

// ConfigMessage is the configuration handshake sent immediately after the
// WebSocket connection is established.
type ConfigMessage struct {
	Type      string         `json:"type"`                 // Always "config"
	Audio     bool           `json:"audio"`                // Whether audio streaming is enabled
	STTConfig *STTConfig     `json:"stt_config,omitempty"` // Required when Audio is true
	TTSConfig *TTSConfig     `json:"tts_config,omitempty"` // Required when Audio is true
	LiveKit   *LiveKitConfig `json:"livekit,omitempty"`    // Optional LiveKit room configuration
}

// SpeakMessage requests text-to-speech synthesis over the session.
type SpeakMessage struct {
	Type string `json:"type"` // Always "speak"
	Text string `json:"text"` // Text to synthesize

	// Flush clears pending TTS audio before synthesizing. AllowInterruption
	// lets subsequent speak/clear commands interrupt this speech. Both are
	// omitted from the wire when unset so the server applies its defaults.
	Flush             *bool `json:"flush,omitempty"`
	AllowInterruption *bool `json:"allow_interruption,omitempty"`
}

// ClearMessage clears queued TTS audio and resets LiveKit audio buffers.
type ClearMessage struct {
	Type string `json:"type"` // Always "clear"
}

// SendMessageMessage publishes a data message to the LiveKit room.
type SendMessageMessage struct {
	Type    string         `json:"type"`            // Always "send_message"
	Message string         `json:"message"`         // Message content
	Role    string         `json:"role"`            // Sender role (e.g. "user", "assistant")
	Topic   *string        `json:"topic,omitempty"` // Optional topic identifier
	Debug   map[string]any `json:"debug,omitempty"` // Optional debug metadata
}

// Incoming messages (server -> client)

// ReadyMessage is received once the server has accepted the configuration
// handshake and the voice providers are ready.
type ReadyMessage struct {
	Type string `json:"type"` // Always "ready"

	// LiveKitURL is the LiveKit WebSocket URL configured on the server.
	LiveKitURL string `json:"livekit_url"`

	// Room name and agent participant identity/name, present only when
	// LiveKit was requested in the configuration.
	LiveKitRoomName          *string `json:"livekit_room_name,omitempty"`
	SaynaParticipantIdentity *string `json:"sayna_participant_identity,omitempty"`
	SaynaParticipantName     *string `json:"sayna_participant_name,omitempty"`
}

// STTResultMessage carries a speech-to-text transcription result.
type STTResultMessage struct {
	Type          string  `json:"type"`            // Always "stt_result"
	Transcript    string  `json:"transcript"`      // Transcribed text
	IsFinal       bool    `json:"is_final"`        // Whether this is a final transcription
	IsSpeechFinal bool    `json:"is_speech_final"` // Whether speech has concluded
	Confidence    float64 `json:"confidence"`      // Transcription confidence score (0-1)
}

// ErrorMessage is an error reported by the Sayna server over the session.
type ErrorMessage struct {
	Type    string `json:"type"`    // Always "error"
	Message string `json:"message"` // Error description
}

// SaynaMessage is the data payload of a participant message.
type SaynaMessage struct {
	Message   *string `json:"message,omitempty"` // Message content
	Data      *string `json:"data,omitempty"`    // Additional data payload
	Identity  string  `json:"identity"`          // Participant identity
	Topic     string  `json:"topic"`             // Message topic
	Room      string  `json:"room"`              // Room identifier
	Timestamp int64   `json:"timestamp"`         // Unix timestamp in milliseconds
}

// MessageMessage wraps a message published by a session participant.
type MessageMessage struct {
	Type    string       `json:"type"`    // Always "message"
	Message SaynaMessage `json:"message"` // The message data
}

// Participant identifies a session participant.
type Participant struct {
	Identity  string  `json:"identity"`       // Unique participant identity
	Name      *string `json:"name,omitempty"` // Optional display name
	Room      string  `json:"room"`           // Room identifier
	Timestamp int64   `json:"timestamp"`      // Unix timestamp in milliseconds
}

// ParticipantDisconnectedMessage is received when a participant leaves.
type ParticipantDisconnectedMessage struct {
	Type        string      `json:"type"`        // Always "participant_disconnected"
	Participant Participant `json:"participant"` // The disconnected participant
}

// TTSPlaybackCompleteMessage is received when TTS playback finishes.
type TTSPlaybackCompleteMessage struct {
	Type      string `json:"type"`      // Always "tts_playback_complete"
	Timestamp int64  `json:"timestamp"` // Unix timestamp in milliseconds
}

// Decoding
//
// Each decoder is a pure function: raw JSON in, (message, nil) or
// (zero, *DecodeError) out. Required fields are checked through a shadow
// struct with pointer fields so a missing field is distinguishable from a
// zero value. Unknown fields are ignored.

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

func decodeReady(raw []byte) (ReadyMessage, error) {
	var shadow struct {
		LiveKitURL               *string `json:"livekit_url"`
		LiveKitRoomName          *string `json:"livekit_room_name"`
		SaynaParticipantIdentity *string `json:"sayna_participant_identity"`
		SaynaParticipantName     *string `json:"sayna_participant_name"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return ReadyMessage{}, NewDecodeError(typeReady, err)
	}
	if shadow.LiveKitURL == nil {
		return ReadyMessage{}, NewDecodeError(typeReady, missingField("livekit_url"))
	}
	return ReadyMessage{
		Type:                     typeReady,
		LiveKitURL:               *shadow.LiveKitURL,
		LiveKitRoomName:          shadow.LiveKitRoomName,
		SaynaParticipantIdentity: shadow.SaynaParticipantIdentity,
		SaynaParticipantName:     shadow.SaynaParticipantName,
	}, nil
}

func decodeSTTResult(raw []byte) (STTResultMessage, error) {
	var shadow struct {
		Transcript    *string  `json:"transcript"`
		IsFinal       *bool    `json:"is_final"`
		IsSpeechFinal *bool    `json:"is_speech_final"`
		Confidence    *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return STTResultMessage{}, NewDecodeError(typeSTTResult, err)
	}
	switch {
	case shadow.Transcript == nil:
		return STTResultMessage{}, NewDecodeError(typeSTTResult, missingField("transcript"))
	case shadow.IsFinal == nil:
		return STTResultMessage{}, NewDecodeError(typeSTTResult, missingField("is_final"))
	case shadow.IsSpeechFinal == nil:
		return STTResultMessage{}, NewDecodeError(typeSTTResult, missingField("is_speech_final"))
	case shadow.Confidence == nil:
		return STTResultMessage{}, NewDecodeError(typeSTTResult, missingField("confidence"))
	}
	return STTResultMessage{
		Type:          typeSTTResult,
		Transcript:    *shadow.Transcript,
		IsFinal:       *shadow.IsFinal,
		IsSpeechFinal: *shadow.IsSpeechFinal,
		Confidence:    *shadow.Confidence,
	}, nil
}

func decodeServerError(raw []byte) (ErrorMessage, error) {
	var shadow struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return ErrorMessage{}, NewDecodeError(typeError, err)
	}
	if shadow.Message == nil {
		return ErrorMessage{}, NewDecodeError(typeError, missingField("message"))
	}
	return ErrorMessage{Type: typeError, Message: *shadow.Message}, nil
}

func decodeParticipantMessage(raw []byte) (MessageMessage, error) {
	var shadow struct {
		Message *struct {
			Message   *string `json:"message"`
			Data      *string `json:"data"`
			Identity  *string `json:"identity"`
			Topic     *string `json:"topic"`
			Room      *string `json:"room"`
			Timestamp *int64  `json:"timestamp"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return MessageMessage{}, NewDecodeError(typeMessage, err)
	}
	if shadow.Message == nil {
		return MessageMessage{}, NewDecodeError(typeMessage, missingField("message"))
	}
	inner := shadow.Message
	switch {
	case inner.Identity == nil:
		return MessageMessage{}, NewDecodeError(typeMessage, missingField("message.identity"))
	case inner.Topic == nil:
		return MessageMessage{}, NewDecodeError(typeMessage, missingField("message.topic"))
	case inner.Room == nil:
		return MessageMessage{}, NewDecodeError(typeMessage, missingField("message.room"))
	case inner.Timestamp == nil:
		return MessageMessage{}, NewDecodeError(typeMessage, missingField("message.timestamp"))
	}
	return MessageMessage{
		Type: typeMessage,
		Message: SaynaMessage{
			Message:   inner.Message,
			Data:      inner.Data,
			Identity:  *inner.Identity,
			Topic:     *inner.Topic,
			Room:      *inner.Room,
			Timestamp: *inner.Timestamp,
		},
	}, nil
}

func decodeParticipantDisconnected(raw []byte) (ParticipantDisconnectedMessage, error) {
	var shadow struct {
		Participant *struct {
			Identity  *string `json:"identity"`
			Name      *string `json:"name"`
			Room      *string `json:"room"`
			Timestamp *int64  `json:"timestamp"`
		} `json:"participant"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return ParticipantDisconnectedMessage{}, NewDecodeError(typeParticipantDisconnected, err)
	}
	if shadow.Participant == nil {
		return ParticipantDisconnectedMessage{}, NewDecodeError(typeParticipantDisconnected, missingField("participant"))
	}
	p := shadow.Participant
	switch {
	case p.Identity == nil:
		return ParticipantDisconnectedMessage{}, NewDecodeError(typeParticipantDisconnected, missingField("participant.identity"))
	case p.Room == nil:
		return ParticipantDisconnectedMessage{}, NewDecodeError(typeParticipantDisconnected, missingField("participant.room"))
	case p.Timestamp == nil:
		return ParticipantDisconnectedMessage{}, NewDecodeError(typeParticipantDisconnected, missingField("participant.timestamp"))
	}
	return ParticipantDisconnectedMessage{
		Type: typeParticipantDisconnected,
		Participant: Participant{
			Identity:  *p.Identity,
			Name:      p.Name,
			Room:      *p.Room,
			Timestamp: *p.Timestamp,
		},
	}, nil
}

func decodeTTSPlaybackComplete(raw []byte) (TTSPlaybackCompleteMessage, error) {
	var shadow struct {
		Timestamp *int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return TTSPlaybackCompleteMessage{}, NewDecodeError(typeTTSPlaybackComplete, err)
	}
	if shadow.Timestamp == nil {
		return TTSPlaybackCompleteMessage{}, NewDecodeError(typeTTSPlaybackComplete, missingField("timestamp"))
	}
	return TTSPlaybackCompleteMessage{Type: typeTTSPlaybackComplete, Timestamp: *shadow.Timestamp}, nil
}
