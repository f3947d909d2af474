package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cornerquad/quadtree"
	"cornerquad/world"
)

// WebSocketClient represents a connected client
type WebSocketClient struct {
	conn     *websocket.Conn
	clientID string
	// Center of the client's query box
	center quadtree.Point
	// Mutex to prevent concurrent writes
	mu sync.Mutex
}

// QueryStats tracks statistics about answered queries
type QueryStats struct {
	TotalQueries    int
	TotalHits       int
	TotalDropped    int
	AvgQueryTime    time.Duration
	AvgHitsPerQuery float64
}

// Server serves world frames over HTTP and WebSocket
type Server struct {
	world   *world.World
	stats   QueryStats
	statsMu sync.Mutex

	clients   map[string]*WebSocketClient
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
}

// clientMessage is sent by WebSocket clients
type clientMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// frameMessage is pushed to WebSocket clients
type frameMessage struct {
	Type string `json:"type"`
	world.Frame
	Time int64 `json:"time"`
}

// NewServer creates a server around w
func NewServer(w *world.World) *Server {
	return &Server{
		world:   w,
		clients: make(map[string]*WebSocketClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.QueryHandler)
	mux.HandleFunc("/api/tree", s.TreeHandler)
	mux.HandleFunc("/ws", s.HandleWebSocket)
	return mux
}

// RunCycle runs one rebuild-and-query cycle and records its statistics
func (s *Server) RunCycle(center quadtree.Point) world.Frame {
	frame := s.world.Cycle(center)

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.TotalQueries++
	s.stats.TotalHits += len(frame.Hits)
	s.stats.TotalDropped += frame.Dropped

	// Update average query time using weighted average
	if s.stats.TotalQueries == 1 {
		s.stats.AvgQueryTime = frame.Elapsed
	} else {
		weight := 0.1 // Weight for new value
		s.stats.AvgQueryTime = time.Duration(
			float64(s.stats.AvgQueryTime)*(1-weight) + float64(frame.Elapsed)*weight,
		)
	}
	s.stats.AvgHitsPerQuery = float64(s.stats.TotalHits) / float64(s.stats.TotalQueries)
	return frame
}

// Stats returns a snapshot of the query statistics
func (s *Server) Stats() QueryStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// PrintStats logs the current statistics
func (s *Server) PrintStats() {
	stats := s.Stats()

	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	log.Printf("--- Query Statistics ---")
	log.Printf("Objects: %d, clients: %d, cycles: %d", s.world.Len(), clients, s.world.Cycles())
	log.Printf("Queries: %d total, %.2f hits/query avg, %d corners dropped",
		stats.TotalQueries, stats.AvgHitsPerQuery, stats.TotalDropped)
	log.Printf("Average Query Time: %v", stats.AvgQueryTime)
}

// Run broadcasts frames and prints statistics until ctx is done. A value on
// reload makes the world re-read its configuration; values on watchErrs are
// logged.
func (s *Server) Run(ctx context.Context, reload <-chan string, watchErrs <-chan error, configPath string) {
	cfg := s.world.Config().Server
	broadcastTicker := time.NewTicker(cfg.BroadcastInterval)
	statsTicker := time.NewTicker(cfg.StatsInterval)
	defer broadcastTicker.Stop()
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping server...")
			return

		case <-broadcastTicker.C:
			s.BroadcastFrames()

		case <-statsTicker.C:
			s.PrintStats()

		case name, ok := <-reload:
			if !ok {
				reload = nil
				continue
			}
			log.Printf("Config changed: %s", name)
			if err := reloadWorld(s.world, configPath); err != nil {
				log.Printf("Config reload failed: %v", err)
				continue
			}
			next := s.world.Config().Server
			if next.BroadcastInterval != cfg.BroadcastInterval {
				broadcastTicker.Reset(next.BroadcastInterval)
			}
			if next.StatsInterval != cfg.StatsInterval {
				statsTicker.Reset(next.StatsInterval)
			}
			if next.Port != cfg.Port {
				log.Printf("Port change to %d takes effect after a restart", next.Port)
			}
			cfg = next

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Printf("Config watch error: %v", err)
		}
	}
}

// reloadWorld reconfigures w from path, keeping the old world on error
func reloadWorld(w *world.World, path string) error {
	cfg, err := world.LoadConfig(path)
	if err != nil {
		return err
	}
	return w.Reconfigure(cfg)
}

// HandleWebSocket handles WebSocket connections
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	cfg := s.world.Config()
	client := &WebSocketClient{
		conn:     conn,
		clientID: fmt.Sprintf("client-%d", time.Now().UnixNano()),
		center:   quadtree.Point{X: cfg.Width / 2, Y: cfg.Height / 2},
	}

	s.clientsMu.Lock()
	s.clients[client.clientID] = client
	s.clientsMu.Unlock()

	log.Printf("New WebSocket client connected: %s", client.clientID)

	// Handle client disconnect
	defer func() {
		conn.Close()
		s.clientsMu.Lock()
		delete(s.clients, client.clientID)
		s.clientsMu.Unlock()
		log.Printf("WebSocket client disconnected: %s", client.clientID)
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Bad message from %s: %v", client.clientID, err)
			continue
		}
		switch msg.Type {
		case "move_query":
			if !finite(msg.X) || !finite(msg.Y) {
				continue
			}
			client.mu.Lock()
			client.center = quadtree.Point{X: msg.X, Y: msg.Y}
			client.mu.Unlock()
		case "regenerate":
			s.world.Regenerate()
			log.Printf("Client %s regenerated %d objects", client.clientID, s.world.Len())
		default:
			continue
		}

		// Send immediate update with the new parameters
		s.SendFrameToClient(client)
	}
}

// writeWait is the time allowed to write a frame to a client.
var writeWait = 2 * time.Second

// SendFrameToClient runs a cycle at the client's query center and sends it
func (s *Server) SendFrameToClient(client *WebSocketClient) {
	client.mu.Lock()
	center := client.center
	client.mu.Unlock()

	frame := s.RunCycle(center)
	jsonMessage, err := json.Marshal(frameMessage{
		Type:  "frame",
		Frame: frame,
		Time:  time.Now().UnixMilli(),
	})
	if err != nil {
		log.Println("Error marshaling frame for client:", err)
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
		// A failed write leaves the connection unusable; closing it ends the
		// read loop, which unregisters the client.
		log.Printf("Error sending to client %s: %v", client.clientID, err)
		client.conn.Close()
	}
}

// BroadcastFrames sends a fresh frame to every connected client
func (s *Server) BroadcastFrames() {
	s.clientsMu.RLock()
	clients := make([]*WebSocketClient, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.RUnlock()

	for _, client := range clients {
		s.SendFrameToClient(client)
	}
}

// QueryHandler runs one cycle at ?x=&y= (default: world center)
func (s *Server) QueryHandler(w http.ResponseWriter, r *http.Request) {
	cfg := s.world.Config()
	query := r.URL.Query()

	x, err := parseCoord(query.Get("x"), cfg.Width/2)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("x: %w", err))
		return
	}
	y, err := parseCoord(query.Get("y"), cfg.Height/2)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("y: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, s.RunCycle(quadtree.Point{X: x, Y: y}))
}

// TreeHandler returns the node boundaries of the last cycle
func (s *Server) TreeHandler(w http.ResponseWriter, r *http.Request) {
	nodes := s.world.TreeRects()
	writeJSON(w, http.StatusOK, struct {
		Nodes []quadtree.Rect `json:"nodes"`
		Count int             `json:"count"`
	}{nodes, len(nodes)})
}

func parseCoord(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, fmt.Errorf("coordinate %q is not finite", s)
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow CORS
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error writing response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
