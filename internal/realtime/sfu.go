package realtime

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// RTP buffer size (MTU-friendly). Used with sync.Pool to avoid per-packet allocs.
const rtpBufferSize = 1500

var rtpBufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, rtpBufferSize)
		return &b
	},
}

// ErrPublisherBusy means the session's camera/microphone slot is already claimed.
var ErrPublisherBusy = errors.New("publisher slot already claimed")

// SFU manages the WebRTC publisher (broadcaster camera/mic) and subscribers
// (viewers) per live session. It also hands out the single publisher slot a
// camera-sourced session must acquire before going live.
type SFU struct {
	rooms map[uuid.UUID]*sfuRoom
	mu    sync.RWMutex
	log   *zap.Logger
	cfg   webrtc.Configuration
}

type sfuRoom struct {
	sessionID   uuid.UUID
	reserved    bool
	publisher   *webrtc.PeerConnection
	tracks      []*relayTrack
	subscribers map[string]*subscriberPeer
	mu          sync.RWMutex
	log         *zap.Logger
}

type relayTrack struct {
	remote *webrtc.TrackRemote
	locals []*webrtc.TrackLocalStaticRTP
	mu     sync.Mutex
}

type subscriberPeer struct {
	pc *webrtc.PeerConnection
}

// NewSFU creates an SFU with the given ICE (STUN/TURN) configuration.
func NewSFU(log *zap.Logger, iceServers []webrtc.ICEServer) *SFU {
	cfg := webrtc.Configuration{ICEServers: iceServers}
	if len(cfg.ICEServers) == 0 {
		cfg.ICEServers = defaultICE
	}
	return &SFU{
		rooms: make(map[uuid.UUID]*sfuRoom),
		log:   log,
		cfg:   cfg,
	}
}

func (s *SFU) getOrCreateRoom(sessionID uuid.UUID) *sfuRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[sessionID]; ok {
		return r
	}
	r := &sfuRoom{
		sessionID:   sessionID,
		subscribers: make(map[string]*subscriberPeer),
		log:         s.log.With(zap.String("session_id", sessionID.String())),
	}
	s.rooms[sessionID] = r
	return r
}

func (s *SFU) getRoom(sessionID uuid.UUID) *sfuRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[sessionID]
}

// AcquirePublisher claims the single camera/mic publisher slot for a session.
// A second claim fails (device in use). The returned release closes the
// publisher connection and frees the slot; safe to call from every exit path.
func (s *SFU) AcquirePublisher(sessionID uuid.UUID) (func(), error) {
	r := s.getOrCreateRoom(sessionID)
	r.mu.Lock()
	if r.reserved {
		r.mu.Unlock()
		return nil, ErrPublisherBusy
	}
	r.reserved = true
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.ClosePublisher(sessionID)
			r.mu.Lock()
			r.reserved = false
			r.mu.Unlock()
			s.mu.Lock()
			delete(s.rooms, sessionID)
			s.mu.Unlock()
		})
	}
	return release, nil
}

// HandlePublisherOffer handles the SDP offer from the broadcaster. Creates
// the publisher PC and returns the answer via sendToClient.
func (s *SFU) HandlePublisherOffer(sessionID uuid.UUID, clientID string, role string, sdp webrtc.SessionDescription, sendToClient func(event string, payload interface{})) error {
	if role != "broadcaster" && role != "admin" {
		return nil // ignore
	}
	r := s.getOrCreateRoom(sessionID)

	r.mu.Lock()
	if r.publisher != nil {
		old := r.publisher
		r.publisher = nil
		r.tracks = nil
		r.mu.Unlock()
		_ = old.Close()
		r.mu.Lock()
	}

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		r.mu.Unlock()
		return err
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine))
	pc, err := api.NewPeerConnection(s.cfg)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		b, _ := json.Marshal(c.ToJSON())
		sendToClient("webrtc_ice", map[string]interface{}{"target": "publisher", "candidate": json.RawMessage(b)})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		relay := &relayTrack{remote: track}
		r.mu.Lock()
		r.tracks = append(r.tracks, relay)
		r.mu.Unlock()
		r.relayTrackToSubscribers(relay)
		go relay.readAndForward()
	})

	if err := pc.SetRemoteDescription(sdp); err != nil {
		_ = pc.Close()
		r.mu.Unlock()
		return err
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		_ = pc.Close()
		r.mu.Unlock()
		return err
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		_ = pc.Close()
		r.mu.Unlock()
		return err
	}
	r.publisher = pc
	r.mu.Unlock()

	sendToClient("webrtc_publisher_answer", map[string]interface{}{
		"type": answer.Type.String(),
		"sdp":  answer.SDP,
	})
	return nil
}

func (rt *relayTrack) readAndForward() {
	for {
		// Reuse buffer from pool to avoid per-packet allocs and bound memory.
		ptr := rtpBufferPool.Get().(*[]byte)
		buf := *ptr
		n, _, err := rt.remote.Read(buf)
		if err != nil {
			rtpBufferPool.Put(ptr)
			return
		}
		// Copy list of subscribers under lock, then write without holding lock
		// so one slow subscriber doesn't block others.
		rt.mu.Lock()
		locals := make([]*webrtc.TrackLocalStaticRTP, len(rt.locals))
		copy(locals, rt.locals)
		rt.mu.Unlock()
		for _, local := range locals {
			_, _ = local.Write(buf[:n])
		}
		rtpBufferPool.Put(ptr)
	}
}

func (r *sfuRoom) relayTrackToSubscribers(relay *relayTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subscribers {
		if sub.pc == nil {
			continue
		}
		local, err := webrtc.NewTrackLocalStaticRTP(relay.remote.Codec().RTPCodecCapability, relay.remote.ID(), relay.remote.StreamID())
		if err != nil {
			continue
		}
		relay.mu.Lock()
		relay.locals = append(relay.locals, local)
		relay.mu.Unlock()
		_, _ = sub.pc.AddTrack(local)
	}
}

// HandlePublisherICE adds an ICE candidate to the publisher PC.
func (s *SFU) HandlePublisherICE(sessionID uuid.UUID, clientID string, candidate webrtc.ICECandidateInit) error {
	r := s.getRoom(sessionID)
	if r == nil {
		return nil
	}
	r.mu.RLock()
	pc := r.publisher
	r.mu.RUnlock()
	if pc != nil {
		return pc.AddICECandidate(candidate)
	}
	return nil
}

// HandleSubscribe creates a subscriber PC for a viewer and sends the offer.
func (s *SFU) HandleSubscribe(sessionID uuid.UUID, clientID string, sendToClient func(event string, payload interface{})) error {
	r := s.getRoom(sessionID)
	if r == nil {
		sendToClient("webrtc_error", map[string]string{"message": "no_stream"})
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.publisher == nil || len(r.tracks) == 0 {
		sendToClient("webrtc_error", map[string]string{"message": "no_stream"})
		return nil
	}

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return err
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine))
	pc, err := api.NewPeerConnection(s.cfg)
	if err != nil {
		return err
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		b, _ := json.Marshal(c.ToJSON())
		sendToClient("webrtc_ice", map[string]interface{}{"target": "subscriber", "candidate": json.RawMessage(b)})
	})

	for _, relay := range r.tracks {
		local, err := webrtc.NewTrackLocalStaticRTP(relay.remote.Codec().RTPCodecCapability, relay.remote.ID(), relay.remote.StreamID())
		if err != nil {
			continue
		}
		relay.mu.Lock()
		relay.locals = append(relay.locals, local)
		relay.mu.Unlock()
		_, _ = pc.AddTrack(local)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		_ = pc.Close()
		return err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		_ = pc.Close()
		return err
	}
	r.subscribers[clientID] = &subscriberPeer{pc: pc}
	sendToClient("webrtc_subscriber_offer", map[string]interface{}{
		"type": offer.Type.String(),
		"sdp":  offer.SDP,
	})
	return nil
}

// HandleSubscriberAnswer sets the remote description (answer) for the subscriber PC.
func (s *SFU) HandleSubscriberAnswer(sessionID uuid.UUID, clientID string, sdp webrtc.SessionDescription) error {
	r := s.getRoom(sessionID)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	sub, ok := r.subscribers[clientID]
	r.mu.Unlock()
	if !ok || sub.pc == nil {
		return nil
	}
	return sub.pc.SetRemoteDescription(sdp)
}

// HandleSubscriberICE adds an ICE candidate to the subscriber PC.
func (s *SFU) HandleSubscriberICE(sessionID uuid.UUID, clientID string, candidate webrtc.ICECandidateInit) error {
	r := s.getRoom(sessionID)
	if r == nil {
		return nil
	}
	r.mu.RLock()
	sub, ok := r.subscribers[clientID]
	r.mu.RUnlock()
	if !ok || sub.pc == nil {
		return nil
	}
	return sub.pc.AddICECandidate(candidate)
}

// UnregisterClient removes a subscriber and closes their PC. Call when a viewer leaves.
func (s *SFU) UnregisterClient(sessionID uuid.UUID, clientID string) {
	r := s.getRoom(sessionID)
	if r == nil {
		return
	}
	r.mu.Lock()
	if sub, ok := r.subscribers[clientID]; ok {
		delete(r.subscribers, clientID)
		if sub.pc != nil {
			_ = sub.pc.Close()
		}
	}
	r.mu.Unlock()
}

// ClosePublisher closes the publisher PC for a session (broadcaster left or session ended).
func (s *SFU) ClosePublisher(sessionID uuid.UUID) {
	r := s.getRoom(sessionID)
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.publisher != nil {
		_ = r.publisher.Close()
		r.publisher = nil
	}
	r.tracks = nil
	r.mu.Unlock()
}

// ICE config helpers
var defaultICE = []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}

// ParseICEServers builds the ICE server list from configured URLs.
func ParseICEServers(urls []string) []webrtc.ICEServer {
	if len(urls) == 0 {
		return defaultICE
	}
	out := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		out = append(out, webrtc.ICEServer{URLs: []string{u}})
	}
	if len(out) == 0 {
		return defaultICE
	}
	return out
}
