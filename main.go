package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cornerquad/viewer"
	"cornerquad/world"
)

func main() {
	configPath := flag.String("config", "", "YAML config file; reloaded when it changes")
	tui := flag.Bool("tui", false, "run the terminal viewer instead of the server")
	port := flag.Int("port", 0, "HTTP port, overrides the config file")
	flag.Parse()

	cfg := world.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = world.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	w, err := world.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create world: %v", err)
	}

	var (
		reload    <-chan string
		watchErrs <-chan error
	)
	if *configPath != "" {
		watcher, err := newConfigWatcher(*configPath)
		if err != nil {
			log.Fatalf("Failed to watch config: %v", err)
		}
		defer watcher.Close()
		reload, watchErrs = watcher.Events, watcher.Errors
	}

	if *tui {
		runViewer(w, reload, watchErrs, *configPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := NewServer(w)
	httpServer := StartServer(srv, cfg.Server.Port)

	fmt.Println("Serving", w.Len(), "objects in a", cfg.Width, "x", cfg.Height, "world")
	fmt.Println("Press Ctrl+C to stop the server")
	srv.Run(ctx, reload, watchErrs, *configPath)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}

// StartServer starts the HTTP server in the background
func StartServer(srv *Server, port int) *http.Server {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: srv.Handler(),
	}
	log.Printf("Starting HTTP server on %s", httpServer.Addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()
	return httpServer
}

// runViewer runs the terminal viewer until the user quits. Config changes are
// applied to the world and reported in the viewer's status line, as are
// watcher errors.
func runViewer(w *world.World, reload <-chan string, watchErrs <-chan error, configPath string) {
	p := tea.NewProgram(viewer.New(w), tea.WithAltScreen(), tea.WithMouseAllMotion())
	if reload != nil {
		go func() {
			for range reload {
				p.Send(viewer.ReloadMsg{Err: reloadWorld(w, configPath)})
			}
		}()
	}
	if watchErrs != nil {
		go func() {
			for err := range watchErrs {
				p.Send(viewer.ReloadMsg{Err: fmt.Errorf("watch: %w", err)})
			}
		}()
	}
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
