// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freightwise/cargodesk/internal/event"
	"github.com/freightwise/cargodesk/internal/forms"
	"github.com/freightwise/cargodesk/internal/handler"
	"github.com/freightwise/cargodesk/internal/store"
	"github.com/freightwise/cargodesk/internal/wire"
	"github.com/freightwise/cargodesk/internal/wizard"
)

// Config holds server configuration.
type Config struct {
	Port       int
	Store      store.Store
	Sessions   *wizard.Manager
	Validator  wizard.PayloadValidator
	Dispatcher wizard.Dispatcher
	Recorder   event.Recorder
}

// Router builds the chi router with every route registered.
func Router(cfg Config) http.Handler {
	wh := handler.NewWizardHandler(cfg.Sessions, cfg.Validator, cfg.Dispatcher, cfg.Recorder)
	mh := handler.NewMasterHandler(cfg.Store, cfg.Recorder)
	lh := handler.NewLookupHandler(cfg.Store)
	ws := wire.NewHandler(cfg.Sessions, cfg.Validator, cfg.Dispatcher, cfg.Recorder)

	r := chi.NewRouter()
	r.Use(handler.Recovery, handler.Logging)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		// Wizard sessions
		r.Post("/wizards/{type}/sessions", wh.CreateSession)
		r.Get("/wizards", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"types": forms.Types()})
		})
		r.Route("/wizard-sessions/{id}", func(r chi.Router) {
			r.Get("/", wh.GetSession)
			r.Post("/initialize", wh.Initialize)
			r.Post("/fields", wh.SetField)
			r.Post("/items/{list}", wh.AddItem)
			r.Delete("/items/{list}/{index}", wh.RemoveItem)
			r.Post("/items/{list}/{index}/fields", wh.SetItemField)
			r.Post("/next", wh.GoNext)
			r.Post("/prev", wh.GoPrev)
			r.Post("/step/{n}", wh.GoToStep)
			r.Post("/snapshot", wh.Snapshot)
			r.Post("/navigate", wh.Navigate)
			r.Post("/return", wh.Return)
			r.Post("/restore", wh.Restore)
			r.Post("/submit", wh.Submit)
		})

		// Interactive wizard protocol
		r.Get("/wizards/ws", ws.ServeHTTP)

		// Master data
		r.Post("/customers", mh.CreateCustomer)
		r.Get("/customers", mh.ListCustomers)
		r.Get("/customers/{id}", mh.GetCustomer)
		r.Put("/customers/{id}", mh.UpdateCustomer)
		r.Post("/customers/{id}/addresses", mh.CreateAddress)
		r.Get("/customers/{id}/addresses", mh.ListAddresses)
		r.Post("/carriers", mh.CreateCarrier)
		r.Get("/carriers", mh.ListCarriers)
		r.Post("/ports", mh.CreatePort)
		r.Get("/ports", mh.ListPorts)
		r.Post("/agents", mh.CreateAgent)
		r.Get("/agents", mh.ListAgents)

		// CRM
		r.Post("/call-entries", mh.CreateCallEntry)
		r.Get("/call-entries", mh.ListCallEntries)
		r.Get("/call-entries/{id}", mh.GetCallEntry)
		r.Post("/call-entries/{id}/follow-up", mh.FollowUp)
		r.Post("/rate-requests", mh.CreateRateRequest)
		r.Get("/rate-requests", mh.ListRateRequests)
		r.Post("/rate-requests/{id}/transition", mh.TransitionRateRequest)

		// Reference-data lookups
		r.Get("/lookup/{kind}", lh.Search)

		// Audit trail
		r.Get("/submissions", mh.ListSubmissions)
		r.Get("/audit", mh.ListAudit)
	})

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Expired wizard sessions are swept in the background.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("starting server on %s", addr)

	server := &http.Server{
		Addr:    addr,
		Handler: Router(cfg),
	}

	go sweepSessions(ctx, cfg.Sessions)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func sweepSessions(ctx context.Context, sessions *wizard.Manager) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Cleanup()
		}
	}
}

