package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bisttrading/algowire/pkg/order"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (CORS handled by the outer handler)
		return true
	},
}

// Server exposes the WebSocket endpoint and the order entry API.
type Server struct {
	router     *mux.Router
	hub        *Hub
	validator  *order.Validator
	sendBuffer int
	origins    []string
	log        *zap.Logger
}

func NewServer(hub *Hub, validator *order.Validator, sendBuffer int, origins []string, log *zap.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		hub:        hub,
		validator:  validator,
		sendBuffer: sendBuffer,
		origins:    origins,
		log:        log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routing tree wrapped with CORS, for serving or
// for tests.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start starts the hub and serves until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.log.Info("server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// Order entry
// ==============================

// submitOrderRequest is the inbound submission shape (snake_case on
// the wire).
type submitOrderRequest struct {
	UserID      string           `json:"user_id"`
	Symbol      string           `json:"symbol"`
	Side        string           `json:"side"`
	OrderType   string           `json:"order_type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	StopPrice   *decimal.Decimal `json:"stop_price"`
	TimeInForce string           `json:"time_in_force"`
	ExpireTime  *time.Time       `json:"expire_time"`
	OrderID     string           `json:"order_id"`
	SessionID   string           `json:"session_id"`
	AccountID   string           `json:"account_id"`
	PortfolioID string           `json:"portfolio_id"`
	StrategyID  string           `json:"strategy_id"`
	Timestamp   *time.Time       `json:"timestamp"`
	Notes       string           `json:"notes"`
}

type submitOrderResponse struct {
	Status    string `json:"status"` // "accepted" or "rejected"
	OrderID   string `json:"order_id,omitempty"`
	Immediate bool   `json:"immediate,omitempty"`

	Errors order.ValidationErrors `json:"errors,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed_request", err.Error())
		return
	}

	intent := order.Intent{
		UserID:        req.UserID,
		ClientOrderID: req.OrderID,
		Symbol:        req.Symbol,
		Side:          order.Side(req.Side),
		Type:          order.Type(req.OrderType),
		Quantity:      req.Quantity,
		Price:         req.Price,
		StopPrice:     req.StopPrice,
		TimeInForce:   order.TimeInForce(req.TimeInForce),
		ExpireTime:    req.ExpireTime,
		AccountID:     req.AccountID,
		PortfolioID:   req.PortfolioID,
		StrategyID:    req.StrategyID,
		Notes:         req.Notes,
	}

	validated, err := s.validator.Validate(intent)
	if err != nil {
		var structural *order.StructuralError
		if errors.As(err, &structural) {
			// Same severity as a decode failure
			respondError(w, http.StatusBadRequest, "malformed_request", structural.Error())
			return
		}

		var verrs order.ValidationErrors
		if errors.As(err, &verrs) {
			s.log.Debug("order rejected",
				zap.String("user", req.UserID), zap.Int("violations", len(verrs)))
			respondJSON(w, http.StatusUnprocessableEntity, submitOrderResponse{
				Status: "rejected",
				Errors: verrs,
			})
			return
		}

		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	s.log.Info("order accepted",
		zap.String("user", validated.UserID),
		zap.String("symbol", validated.Symbol),
		zap.Bool("immediate", validated.Immediate))

	respondJSON(w, http.StatusOK, submitOrderResponse{
		Status:    "accepted",
		OrderID:   validated.ClientOrderID,
		Immediate: validated.Immediate,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebSocket upgrades the connection and starts the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade error", zap.Error(err))
		return
	}

	client := &Client{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, s.sendBuffer),
		id:            conn.RemoteAddr().String(),
		log:           s.log,
		subscriptions: make(map[string]bool),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}
