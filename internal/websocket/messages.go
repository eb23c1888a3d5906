package websocket

// ChunkSize is the fixed size of outbound binary audio chunks.
const ChunkSize = 16384

// TranscriptMessage is sent on the transcribe endpoint for every relayed
// recognition result.
type TranscriptMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
}

// TranscribeErrorMessage reports a failure on the transcribe endpoint.
type TranscribeErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ReplyMessage announces a generated spoken reply; the audio follows as
// binary chunks terminated by an EndMessage.
type ReplyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SpeechRequest is the inbound synthesis request on the speech endpoint.
type SpeechRequest struct {
	Text     string  `json:"text"`
	Voice    string  `json:"voice,omitempty"`
	Language string  `json:"language,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

// SpeechErrorMessage reports a failure on the speech endpoint.
type SpeechErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EndMessage terminates a chunked audio stream.
type EndMessage struct {
	Type string `json:"type"`
}

// InterviewRequest is one inbound message on the interview endpoint.
type InterviewRequest struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Language   string `json:"language,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Content    string `json:"content,omitempty"`
}

// InterviewMessage is one outbound message on the interview endpoint.
type InterviewMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// splitChunks slices payload into consecutive chunks of at most size bytes.
// Chunks reference the payload, no copying.
func splitChunks(payload []byte, size int) [][]byte {
	if len(payload) == 0 || size <= 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for offset := 0; offset < len(payload); offset += size {
		end := offset + size
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[offset:end])
	}
	return chunks
}
