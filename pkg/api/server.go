package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/roomsync/pkg/api/handlers"
	"github.com/cbodonnell/roomsync/pkg/api/middleware"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	StateManager state.StateManager
	Status       handlers.Status
}

// NewRouter builds the master status routes.
func NewRouter(stateManager state.StateManager, status handlers.Status) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.NewLoggingMiddleware(), middleware.NewCORSMiddleware())

	router.HandleFunc("/healthz", handlers.HandleHealth()).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/rooms", handlers.HandleListRooms(stateManager)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/rooms/{room}", handlers.HandleGetRoom(stateManager)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/status", handlers.HandleStatus(stateManager, status)).Methods(http.MethodGet, http.MethodOptions)
	return router
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts.StateManager, opts.Status),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
