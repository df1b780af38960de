package pion

import (
	"encoding/json"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Signal message types. Every frame is a JSON object with a "type" field.
const (
	msgJoin         = "join"
	msgLeave        = "leave"
	msgOffer        = "offer"
	msgAnswer       = "answer"
	msgCandidate    = "candidate"
	msgMute         = "mute"
	msgPing         = "ping"
	msgPong         = "pong"
	msgRoomState    = "room_state"
	msgMemberJoined = "member_joined"
	msgMemberLeft   = "member_left"
	msgError        = "error"
)

type envelope struct {
	Type string `json:"type"`
}

type joinMsg struct {
	Type  string          `json:"type"`
	Room  string          `json:"room"`
	UID   domain.StreamID `json:"uid"`
	Name  string          `json:"name,omitempty"`
	AppID string          `json:"appId,omitempty"`
}

type sdpMsg struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type candidateMsg struct {
	Type          string  `json:"type"`
	Candidate     string  `json:"candidate"`
	SDPMid        string  `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

type muteMsg struct {
	Type  string          `json:"type"`
	UID   domain.StreamID `json:"uid,omitempty"`
	Kind  string          `json:"kind"`
	Muted bool            `json:"muted"`
}

type roomStateMsg struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Members []domain.Member `json:"members"`
}

type memberMsg struct {
	Type string        `json:"type"`
	User domain.Member `json:"user"`
}

type errorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func encode(v any) (core.Frame, error) {
	return json.Marshal(v)
}

func candidateFrame(ci webrtc.ICECandidateInit) candidateMsg {
	m := candidateMsg{Type: msgCandidate, Candidate: ci.Candidate, SDPMLineIndex: ci.SDPMLineIndex}
	if ci.SDPMid != nil {
		m.SDPMid = *ci.SDPMid
	}
	return m
}

func (m candidateMsg) init() webrtc.ICECandidateInit {
	ci := webrtc.ICECandidateInit{Candidate: m.Candidate, SDPMLineIndex: m.SDPMLineIndex}
	if m.SDPMid != "" {
		mid := m.SDPMid
		ci.SDPMid = &mid
	}
	return ci
}
