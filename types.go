package sayna

// Pronunciation is a word pronunciation override for text-to-speech.
type Pronunciation struct {
	Word          string `json:"word"`          // The word to be pronounced differently
	Pronunciation string `json:"pronunciation"` // Phonetic pronunciation or alternative spelling
}

// STTConfig describes the speech-to-text pipeline the server should run for
// this session. All fields are required by the server.
type STTConfig struct {
	Provider    string `json:"provider"`    // STT provider (e.g. "deepgram", "google")
	Language    string `json:"language"`    // Language code (e.g. "en-US")
	SampleRate  int    `json:"sample_rate"` // Audio sample rate in Hz (e.g. 16000)
	Channels    int    `json:"channels"`    // 1 for mono, 2 for stereo
	Punctuation bool   `json:"punctuation"` // Include punctuation in transcriptions
	Encoding    string `json:"encoding"`    // Audio encoding (e.g. "linear16", "opus")
	Model       string `json:"model"`       // STT model identifier
}

// TTSConfig describes the text-to-speech pipeline the server should run for
// this session. Provider credentials live on the server, never here.
type TTSConfig struct {
	Provider          string          `json:"provider"`           // TTS provider (e.g. "elevenlabs", "google")
	VoiceID           string          `json:"voice_id"`           // Voice identifier for the selected provider
	SpeakingRate      float64         `json:"speaking_rate"`      // Speech rate multiplier (1.0 = normal)
	AudioFormat       string          `json:"audio_format"`       // Output format (e.g. "mp3", "linear16")
	SampleRate        int             `json:"sample_rate"`        // Audio sample rate in Hz
	ConnectionTimeout int             `json:"connection_timeout"` // Connection timeout in milliseconds
	RequestTimeout    int             `json:"request_timeout"`    // Request timeout in milliseconds
	Model             string          `json:"model"`              // TTS model identifier
	Pronunciations    []Pronunciation `json:"pronunciations"`     // Custom pronunciation overrides
}

// LiveKitConfig requests a LiveKit room for the session.
type LiveKitConfig struct {
	RoomName string `json:"room_name"` // LiveKit room name to join

	// EnableRecording turns on session recording. RecordingFileKey is the
	// storage key for the recording file and is required when recording is
	// enabled.
	EnableRecording  *bool   `json:"enable_recording,omitempty"`
	RecordingFileKey *string `json:"recording_file_key,omitempty"`

	// Identity and display name assigned to the agent participant.
	// The server defaults these to "sayna-ai" / "Sayna AI".
	SaynaParticipantIdentity *string `json:"sayna_participant_identity,omitempty"`
	SaynaParticipantName     *string `json:"sayna_participant_name,omitempty"`

	// ListenParticipants limits which participant identities are monitored.
	// Empty means all participants.
	ListenParticipants []string `json:"listen_participants,omitempty"`
}

// REST API types

// HealthResponse is the response from the GET / health endpoint.
type HealthResponse struct {
	Status string `json:"status"` // Health status (should be "OK")
}

// VoiceDescriptor describes one voice profile offered by a TTS provider.
type VoiceDescriptor struct {
	ID       string `json:"id"`       // Provider-specific voice identifier
	Sample   string `json:"sample"`   // URL to a preview audio sample
	Name     string `json:"name"`     // Human-readable name supplied by the provider
	Accent   string `json:"accent"`   // Detected accent associated with the voice
	Gender   string `json:"gender"`   // Inferred gender label from provider metadata
	Language string `json:"language"` // Primary language for synthesis
}

// LiveKitTokenRequest is the request body for POST /livekit/token.
type LiveKitTokenRequest struct {
	RoomName            string `json:"room_name"`            // LiveKit room to join or create
	ParticipantName     string `json:"participant_name"`     // Display name assigned to the participant
	ParticipantIdentity string `json:"participant_identity"` // Unique identifier for the participant
}

// LiveKitTokenResponse is the response from POST /livekit/token.
type LiveKitTokenResponse struct {
	Token               string `json:"token"`                // JWT granting LiveKit permissions
	RoomName            string `json:"room_name"`            // Echo of the requested room
	ParticipantIdentity string `json:"participant_identity"` // Echo of the requested identity
	LiveKitURL          string `json:"livekit_url"`          // WebSocket endpoint for the LiveKit server
}

// SpeakRequest is the request body for POST /speak.
type SpeakRequest struct {
	Text      string    `json:"text"`       // Text to convert to speech
	TTSConfig TTSConfig `json:"tts_config"` // Provider configuration without API credentials
}

// SIPHook maps a SIP domain pattern to a webhook URL that receives forwarded
// SIP events.
type SIPHook struct {
	Host string `json:"host"` // SIP domain pattern (case-insensitive)
	URL  string `json:"url"`  // HTTPS URL to forward webhook events to
}

// SIPHooksResponse is the response from GET /sip/hooks and POST /sip/hooks.
type SIPHooksResponse struct {
	Hooks []SIPHook `json:"hooks"`
}

// Webhook types

// WebhookSIPParticipant is the participant record in a SIP webhook event.
type WebhookSIPParticipant struct {
	Name     *string `json:"name,omitempty"` // Display name; may be absent
	Identity string  `json:"identity"`       // Unique identity assigned to the participant
	SID      string  `json:"sid"`            // Participant session ID from LiveKit
}

// WebhookSIPRoom is the room record in a SIP webhook event.
type WebhookSIPRoom struct {
	Name string `json:"name"` // Name of the LiveKit room
	SID  string `json:"sid"`  // Room session ID from LiveKit
}

// WebhookSIPOutput is the payload Sayna forwards when a SIP participant joins
// a LiveKit room. Use WebhookReceiver to verify the delivery signature and
// decode this payload.
type WebhookSIPOutput struct {
	Participant     WebhookSIPParticipant `json:"participant"`
	Room            WebhookSIPRoom        `json:"room"`
	FromPhoneNumber string                `json:"from_phone_number"` // Caller number, E.164
	ToPhoneNumber   string                `json:"to_phone_number"`   // Called number, E.164
	RoomPrefix      string                `json:"room_prefix"`       // Room name prefix configured in Sayna
	SIPHost         string                `json:"sip_host"`          // SIP domain from the To header
}
