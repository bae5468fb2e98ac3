package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chi-middleware/proxy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pelletier/go-toml/v2"

	"github.com/randomouscrap98/wordgrid/crossword"
	"github.com/randomouscrap98/wordgrid/identity"
	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	ConfigFile = "config.toml"
)

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func initConfig(allowRecreate bool) *Config {
	var config Config
	// Read the config. It's OK if it doesn't exist
	configData, err := os.ReadFile(ConfigFile)
	if err != nil {
		if allowRecreate {
			configRaw := GetDefaultConfig_Toml()
			err = os.WriteFile(ConfigFile, []byte(configRaw), 0600)
			if err != nil {
				log.Printf("ERROR: Couldn't write default config: %s\n", err)
			} else {
				log.Printf("Generated default config at %s\n", ConfigFile)
				return initConfig(false)
			}
		} else {
			log.Fatalf("WARN: Couldn't read config file %s: %s", ConfigFile, err)
		}
	} else {
		// If the config exists, it MUST be parsable.
		err = toml.Unmarshal(configData, &config)
		must(err)
	}
	return &config
}

func initRouter(config *Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(proxy.ForwardedHeaders())
	// The session and refresh cookies ride cross-site from the frontend,
	// so cors must allow credentials for the configured origins only.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
	}))
	return r
}

// Initialize and spawn the http server for the given handler and with the given config
func runServer(handler http.Handler, config *Config) *http.Server {
	s := &http.Server{
		Addr:    config.Address,
		Handler: handler,
	}

	go func() {
		log.Printf("Running server in goroutine at %s", s.Addr)
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	return s
}

// Great readup: https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
}

func main() {
	log.Printf("Wordgrid server started\n")
	config := initConfig(true)

	// Context is something we'll cancel to cancel any and all background tasks
	// when the server gets a shutdown signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := initRouter(config)

	// Identity first; the crossword service leans on it for authentication,
	// leaderboards, and the rename fanout hook.
	ictx, err := identity.NewIdentityContext(config.Identity)
	must(err)
	cctx, err := crossword.NewCrosswordContext(config.Crossword, ictx)
	must(err)
	ictx.OnRename = cctx.UpdateAuthorName

	chandler, err := cctx.GetHandler()
	must(err)
	ihandler, err := ictx.GetHandler()
	must(err)
	r.Route("/api", func(api chi.Router) {
		api.Mount("/crosswords", chandler)
		api.Mount("/", ihandler)
	})

	var wg sync.WaitGroup
	services := []WebService{ictx, cctx}
	for _, service := range services {
		wg.Add(1)
		service.RunBackground(ctx, &wg)
	}

	// --- Static files -----
	err = utils.FileServer(r, "/static", config.StaticFiles)
	must(err)
	log.Printf("Hosting static files at %s\n", config.StaticFiles)

	// --- Server ---
	s := runServer(r, config)
	waitForShutdown()

	log.Println("Shutting down...")
	cancel() // Cancel the context to signal goroutines to stop
	wg.Wait()
	log.Println("All background services stopped")

	// Create a context with a timeout to allow for graceful shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(config.ShutdownTime))
	defer cancelShutdown()

	if err := s.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}
