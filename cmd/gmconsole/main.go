package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gmconsole/internal/api"
	"gmconsole/internal/config"
	"gmconsole/internal/dice"
	"gmconsole/internal/journal"
	"gmconsole/internal/modal"
	"gmconsole/internal/session"
	statesync "gmconsole/internal/sync"
	"gmconsole/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
		log.Fatalf("mkdir journal dir: %v", err)
	}

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer db.Close()

	if err := journal.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout())

	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.API.Timeout())
	if err := client.Ping(pingCtx); err != nil {
		log.Printf("warn: backend not reachable yet: %v", err)
	}
	cancelPing()

	lock := session.NewLock()
	arbiter := modal.NewArbiter()
	roller := dice.New(rand.NewSource(time.Now().UnixNano()))

	app := tui.New(ctx, cfg, tui.Deps{
		Client:  client,
		Lock:    lock,
		Arbiter: arbiter,
		Journal: journal.NewJournal(db),
		Roller:  roller,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())

	poller := statesync.NewPoller(cfg.API.PollInterval(), cfg.API.OfflineAfter, statesync.Fetchers{
		Config: client.Config,
		Auth:   client.AuthStatus,
	}, func(ev statesync.Event) {
		p.Send(tui.SyncMsg{Event: ev})
	})
	app.SetPoller(poller)

	arbiter.AttachHost(func() {
		p.Send(tui.ModalMsg{})
	})
	defer arbiter.DetachHost()

	poller.Start()
	defer poller.Stop()

	go func() {
		// give the bootstrap poll a moment to land before trying the
		// remembered PIN
		time.Sleep(2 * time.Second)
		if cmd := app.TryAutoUnlock(); cmd != nil {
			if msg := cmd(); msg != nil {
				p.Send(msg)
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
