package shopchat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopchat/agents"
	"shopchat/handlers"
	"shopchat/llm"
	"shopchat/router"
	"shopchat/session"
	"shopchat/store"
)

// Server is the main shopchat instance. Create one with New(), then call
// Start() to run the HTTP server.
type Server struct {
	cfg        Config
	configFile string
	port       int    // explicit override, wins over the config file
	host       string // explicit override, wins over the config file

	client llm.Client
	srv    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listen port (default 8000).
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithHost sets the listen host (default "0.0.0.0").
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithConfigFile sets the path to a shopchat.yaml config file.
func WithConfigFile(path string) Option {
	return func(s *Server) { s.configFile = path }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// WithLLMClient overrides the chat-completion client, bypassing the
// configured OpenAI endpoint. Used by tests.
func WithLLMClient(c llm.Client) Option {
	return func(s *Server) { s.client = c }
}

// New creates a new Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{cfg: DefaultConfig()}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

// Start initializes dependencies, builds routes, and runs the HTTP server.
// It blocks until the server is shut down via signal or Shutdown().
func (s *Server) Start() error {
	if s.configFile != "" {
		cfg, err := LoadConfigFile(s.configFile)
		if err != nil {
			return err
		}
		s.cfg = cfg
	}
	if s.port != 0 {
		s.cfg.Server.Port = s.port
	}
	if s.host != "" {
		s.cfg.Server.Host = s.host
	}

	if s.client == nil {
		var opts []llm.OpenAIOption
		if s.cfg.LLM.RequestTimeout > 0 {
			opts = append(opts, llm.WithTimeout(s.cfg.LLM.RequestTimeout))
		}
		s.client = llm.NewOpenAIClient(s.cfg.LLM.BaseURL, s.cfg.LLM.APIKey, opts...)
	}

	catalog := store.NewCatalog()
	if err := catalog.LoadFile(s.cfg.Catalog.Path); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	slog.Info("catalog loaded", "path", s.cfg.Catalog.Path, "products", catalog.Len())

	baskets := store.NewBasketStore(catalog)
	orders := store.NewOrderStore(catalog, baskets)

	conversations := session.NewStore(s.cfg.Session.ConversationTTL)
	defer conversations.Close()
	tokens := session.NewIssuer(s.cfg.Session.JWTSecret, s.cfg.Session.TokenTTL)

	model := s.cfg.LLM.Model
	agentOpts := agents.Options{
		Client:        s.client,
		Model:         model,
		MaxIterations: s.cfg.Agents.MaxIterations,
	}
	rt := router.New(
		router.NewClassifier(s.client, model),
		agents.NewCartAgent(agentOpts, baskets, orders),
		agents.NewProductSearchAgent(agentOpts, catalog),
		agents.NewGeneralAgent(agentOpts),
	)

	deps := &handlers.Deps{
		Router:        rt,
		Conversations: conversations,
		Tokens:        tokens,
		Catalog:       catalog,
		Baskets:       baskets,
		Orders:        orders,
		EventBus:      handlers.NewEventBus(),
	}

	if s.cfg.Catalog.Watch {
		watcher, err := store.NewCatalogWatcher(s.cfg.Catalog.Path, catalog, func() {
			deps.EventBus.Broadcast(handlers.EventCatalogReloaded)
		})
		if err != nil {
			slog.Warn("catalog watcher disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	mux := http.NewServeMux()

	// Health check (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","products":%d}`+"\n", catalog.Len())
	})

	handlers.RegisterRoutes(mux, deps)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // disable for SSE
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}()

	slog.Info("shopchat starting", "addr", addr, "model", model)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
