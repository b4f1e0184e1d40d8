// Package relay implements an in-memory relay: the key directory plus a
// store-and-forward envelope mailbox with WebSocket push. It backs the
// relayd development daemon and the collaborator client tests.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sealwire/internal/crypto"
	"sealwire/internal/domain"
)

type mailboxKey struct {
	did    domain.DID
	device domain.DeviceID
}

// subscriber wraps a WebSocket connection with a write lock. gorilla/websocket
// allows one concurrent writer per connection, and a mailbox can be written
// from any number of deliver handlers plus the subscribe-time queue flush.
type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscriber) push(env domain.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(env)
}

// Server holds published bundles and queued envelopes in memory.
type Server struct {
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	bundles  map[domain.DID]map[domain.DeviceID]domain.SignedBundle
	queues   map[mailboxKey][]domain.Envelope
	subs     map[mailboxKey]*subscriber
}

// NewServer returns an empty relay.
func NewServer(log *logrus.Logger) *Server {
	return &Server{
		log: log.WithField("component", "relay"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		bundles: make(map[domain.DID]map[domain.DeviceID]domain.SignedBundle),
		queues:  make(map[mailboxKey][]domain.Envelope),
		subs:    make(map[mailboxKey]*subscriber),
	}
}

// Handler returns the HTTP routes of the relay.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/bundles/{did}/exists", s.handleExists).Methods(http.MethodGet)
	r.HandleFunc("/bundles/{did}/{device}", s.handlePublish).Methods(http.MethodPut)
	r.HandleFunc("/bundles/{did}", s.handleBundleSet).Methods(http.MethodGet)
	r.HandleFunc("/envelopes/{did}/{device}", s.handleDeliver).Methods(http.MethodPost)
	r.HandleFunc("/subscribe/{did}/{device}", s.handleSubscribe)
	return r
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	vars := mux.Vars(r)
	did, device := domain.DID(vars["did"]), domain.DeviceID(vars["device"])

	var signed domain.SignedBundle
	if err := json.NewDecoder(r.Body).Decode(&signed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if signed.Bundle.DID != did || signed.Bundle.DeviceID != device {
		http.Error(w, "bundle does not match path", http.StatusBadRequest)
		return
	}
	payload, err := cbor.Marshal(signed.Bundle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !crypto.VerifyEd25519(signed.Bundle.SigningKey, payload, signed.Signature) {
		http.Error(w, "bad bundle signature", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.bundles[did] == nil {
		s.bundles[did] = make(map[domain.DeviceID]domain.SignedBundle)
	}
	s.bundles[did][device] = signed
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"did": did, "device": device}).Info("bundle published")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBundleSet(w http.ResponseWriter, r *http.Request) {
	did := domain.DID(mux.Vars(r)["did"])

	s.mu.RLock()
	set := make([]domain.DeviceBundlePublic, 0, len(s.bundles[did]))
	for _, signed := range s.bundles[did] {
		set = append(set, signed.Bundle)
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	did := domain.DID(mux.Vars(r)["did"])

	s.mu.RLock()
	exists := len(s.bundles[did]) > 0
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Exists bool `json:"exists"`
	}{exists})
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	vars := mux.Vars(r)
	key := mailboxKey{domain.DID(vars["did"]), domain.DeviceID(vars["device"])}

	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	sub := s.subs[key]
	if sub == nil {
		s.queues[key] = append(s.queues[key], env)
	}
	s.mu.Unlock()

	if sub != nil {
		if err := sub.push(env); err != nil {
			s.log.WithError(err).Warn("push failed, queueing envelope")
			s.mu.Lock()
			s.queues[key] = append(s.queues[key], env)
			s.mu.Unlock()
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := mailboxKey{domain.DID(vars["did"]), domain.DeviceID(vars["device"])}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()
	sub := &subscriber{conn: conn}

	// Flush anything queued while the device was offline, then register for
	// live push. The flush goes through the subscriber's write lock so live
	// delivers arriving mid-flush cannot interleave on the connection.
	s.mu.Lock()
	queued := s.queues[key]
	delete(s.queues, key)
	s.subs[key] = sub
	s.mu.Unlock()

	for _, env := range queued {
		if err := sub.push(env); err != nil {
			s.log.WithError(err).Warn("flush failed")
			break
		}
	}

	// The subscriber never sends; reading detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	if s.subs[key] == sub {
		delete(s.subs, key)
	}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"did": key.did, "device": key.device}).Info("subscriber disconnected")
}
