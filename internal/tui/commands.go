package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gmconsole/internal/api"
	"gmconsole/internal/config"
	"gmconsole/internal/dice"
	"gmconsole/internal/modal"
	"gmconsole/internal/secrets"
	"gmconsole/internal/session"
)

// loaders

func (a *App) loadVoices() tea.Cmd {
	return func() tea.Msg {
		voices, err := a.client.Voices(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return voicesMsg(voices)
	}
}

func (a *App) loadTracks() tea.Cmd {
	return func() tea.Msg {
		tracks, err := a.client.Tracks(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return tracksMsg(tracks)
	}
}

func (a *App) loadHeroes() tea.Cmd {
	return func() tea.Msg {
		heroes, err := a.client.Characters(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return heroesMsg(heroes)
	}
}

func (a *App) loadCampaigns() tea.Cmd {
	return func() tea.Msg {
		campaigns, err := a.client.Campaigns(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return campaignsMsg(campaigns)
	}
}

func (a *App) loadServices() tea.Cmd {
	return func() tea.Msg {
		services, err := a.client.Services(a.ctx)
		if err != nil {
			// keep the built-in service list when the endpoint is missing
			return nil
		}
		return servicesMsg(services)
	}
}

func (a *App) loadEnv() tea.Cmd {
	return func() tea.Msg {
		vars, err := a.client.EnvAll(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return envMsg(vars)
	}
}

func (a *App) loadLogs(svc string) tea.Cmd {
	return func() tea.Msg {
		text, err := a.client.ServiceLogs(a.ctx, svc)
		if err != nil {
			return errMsg{err}
		}
		return logsMsg{service: svc, text: text}
	}
}

func (a *App) logTick() tea.Cmd {
	svc := a.logService
	return tea.Tick(a.cfg.API.LogPollInterval(), func(time.Time) tea.Msg {
		text, err := a.client.ServiceLogs(a.ctx, svc)
		if err != nil {
			return errMsg{err}
		}
		return logsMsg{service: svc, text: text}
	})
}

func (a *App) loadRolls() tea.Cmd {
	return func() tea.Msg {
		rolls, err := a.journal.RecentRolls(a.ctx, 20)
		if err != nil {
			return errMsg{err}
		}
		return rollsMsg(rolls)
	}
}

func (a *App) loadEvents() tea.Cmd {
	return func() tea.Msg {
		events, err := a.journal.RecentEvents(a.ctx, 5)
		if err != nil {
			return errMsg{err}
		}
		return eventsMsg(events)
	}
}

// session lock

// lockNowCmd locks immediately on the operator's side, then tells the
// backend. The local transition never waits on the network.
func (a *App) lockNowCmd() tea.Cmd {
	if !a.lock.LockNow() {
		a.status = "no PIN configured; nothing to lock"
		return nil
	}
	a.status = "session locked"
	return func() tea.Msg {
		if err := a.client.Lock(a.ctx); err != nil {
			return statusMsg("locked locally; backend not notified: " + err.Error())
		}
		return nil
	}
}

// unlockCmd collects a PIN and submits it. Only a backend-confirmed check
// transitions the session to unlocked.
func (a *App) unlockCmd() tea.Cmd {
	return func() tea.Msg {
		pin, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "Unlock session",
			Message:     "Enter the operator PIN.",
			Placeholder: "PIN",
		})
		if !ok || pin == "" {
			return nil
		}
		if err := a.client.Unlock(a.ctx, pin); err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return lockDeniedMsg{}
			}
			return errMsg{err}
		}
		a.lock.Unlocked()
		if a.cfg.API.RememberPin {
			if err := secrets.StorePin(pin); err != nil {
				return statusMsg("unlocked; PIN not remembered: " + err.Error())
			}
		}
		return unlockedMsg{}
	}
}

// toggleRememberPinCmd flips the remember-PIN preference and persists it.
// Turning it off also forgets any stored PIN.
func (a *App) toggleRememberPinCmd() tea.Cmd {
	a.cfg.API.RememberPin = !a.cfg.API.RememberPin
	cfg := a.cfg
	return func() tea.Msg {
		if err := config.Save(cfg); err != nil {
			return errMsg{err}
		}
		if !cfg.API.RememberPin {
			_ = secrets.DeletePin()
			return statusMsg("PIN no longer remembered")
		}
		return statusMsg("PIN will be remembered after the next unlock")
	}
}

// TryAutoUnlock attempts an unlock with a remembered PIN. Returned as a
// command so startup can batch it; silent on any failure.
func (a *App) TryAutoUnlock() tea.Cmd {
	if !a.cfg.API.RememberPin {
		return nil
	}
	return func() tea.Msg {
		pin, err := secrets.FetchPin()
		if err != nil {
			return nil
		}
		if a.lock.State() != session.StateLocked {
			return nil
		}
		if err := a.client.Unlock(a.ctx, pin); err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				_ = secrets.DeletePin()
			}
			return nil
		}
		a.lock.Unlocked()
		return unlockedMsg{}
	}
}

// audio registry

func (a *App) saveAudioCmd() tea.Cmd {
	return func() tea.Msg {
		err := a.audio.Save(a.ctx, a.client.SaveAudio)
		if err != nil {
			return errMsg{fmt.Errorf("save audio registry: %w", err)}
		}
		return statusMsg("audio registry saved")
	}
}

// heroes

func (a *App) openHeroCmd(id string) tea.Cmd {
	return func() tea.Msg {
		hero, err := a.client.Character(a.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return heroMsg(hero)
	}
}

func (a *App) createHeroCmd() tea.Cmd {
	return func() tea.Msg {
		name, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "New hero",
			Message:     "Character name.",
			Placeholder: "name",
		})
		if !ok || strings.TrimSpace(name) == "" {
			return nil
		}
		class, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "New hero",
			Message:     "Class (fighter, wizard, ...).",
			Placeholder: "class",
		})
		if !ok {
			return nil
		}
		_, err := a.client.CreateCharacter(a.ctx, api.Character{
			Name:      strings.TrimSpace(name),
			ClassName: strings.TrimSpace(class),
			Level:     1,
		})
		if err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "heroes", note: "hero created"}
	}
}

// deleteHeroCmd confirms, deletes, and on a referenced-sheet conflict asks
// again before forcing.
func (a *App) deleteHeroCmd(hero api.Character) tea.Cmd {
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Delete hero",
			Message: fmt.Sprintf("Delete %s? This cannot be undone.", hero.Name),
			Danger:  true,
		})
		if !ok {
			return nil
		}
		err := a.client.DeleteCharacter(a.ctx, hero.ID, false)
		if errors.Is(err, api.ErrConflict) {
			force := a.arbiter.Confirm(a.ctx, modal.Options{
				Title:   "Hero still referenced",
				Message: fmt.Sprintf("%s appears in campaign content. Force delete?", hero.Name),
				Danger:  true,
			})
			if !force {
				return nil
			}
			err = a.client.DeleteCharacter(a.ctx, hero.ID, true)
		}
		if err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "heroes", note: "hero deleted"}
	}
}

func (a *App) editHeroNotesCmd() tea.Cmd {
	bind := a.heroBind
	hero := bind.Local()
	return func() tea.Msg {
		notes, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:   "Edit notes",
			Message: "Notes for " + hero.Name + ".",
			Initial: hero.Notes,
		})
		if !ok {
			return nil
		}
		bind.Edit(func(h *api.Character) { h.Notes = notes })
		return statusMsg("notes updated (unsaved)")
	}
}

func (a *App) saveHeroCmd() tea.Cmd {
	bind := a.heroBind
	return func() tea.Msg {
		if err := bind.Save(a.ctx, a.client.SaveCharacter); err != nil {
			return errMsg{fmt.Errorf("save hero: %w", err)}
		}
		return changedMsg{what: "heroes", note: "hero saved"}
	}
}

// closeHeroCmd asks before discarding unsaved sheet edits.
func (a *App) closeHeroCmd() tea.Cmd {
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Discard changes",
			Message: "The sheet has unsaved edits. Discard them?",
			Danger:  true,
		})
		if !ok {
			return nil
		}
		return heroClosedMsg{}
	}
}

// vault

func (a *App) addEnvCmd() tea.Cmd {
	return func() tea.Msg {
		key, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "New variable",
			Message:     "Variable name.",
			Placeholder: "KEY",
		})
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil
		}
		value, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "New variable",
			Message:     "Value for " + key + ".",
			Placeholder: "value",
		})
		if !ok {
			return nil
		}
		if err := a.client.SetEnv(a.ctx, key, value); err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "env", note: key + " saved"}
	}
}

func (a *App) editEnvCmd(v api.EnvVar) tea.Cmd {
	return func() tea.Msg {
		value, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:   "Edit variable",
			Message: "Value for " + v.Key + ".",
			Initial: v.Value,
		})
		if !ok {
			return nil
		}
		if err := a.client.SetEnv(a.ctx, v.Key, value); err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "env", note: v.Key + " saved"}
	}
}

func (a *App) deleteEnvCmd(key string) tea.Cmd {
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Delete variable",
			Message: "Delete " + key + "?",
			Danger:  true,
		})
		if !ok {
			return nil
		}
		if err := a.client.DeleteEnv(a.ctx, key); err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "env", note: key + " deleted"}
	}
}

// overview

func (a *App) activateCampaignCmd(c api.Campaign) tea.Cmd {
	if c.Active {
		a.status = c.Name + " is already active"
		return nil
	}
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Switch campaign",
			Message: "Activate " + c.Name + "? The stack reloads its content.",
		})
		if !ok {
			return nil
		}
		if err := a.client.ActivateCampaign(a.ctx, c.ID); err != nil {
			return errMsg{err}
		}
		_ = a.journal.AddEvent(a.ctx, "campaign", "activated "+c.Name)
		if a.poller != nil {
			a.poller.Refresh()
		}
		return changedMsg{what: "campaigns", note: c.Name + " activated"}
	}
}

func (a *App) deleteCampaignCmd(c api.Campaign) tea.Cmd {
	if c.Active {
		a.status = "cannot delete the active campaign"
		return nil
	}
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Delete campaign",
			Message: "Delete " + c.Name + " and all its content?",
			Danger:  true,
		})
		if !ok {
			return nil
		}
		if err := a.client.DeleteCampaign(a.ctx, c.ID); err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "campaigns", note: c.Name + " deleted"}
	}
}

// restartServiceCmd confirms twice: restarts interrupt a live session.
func (a *App) restartServiceCmd(svc string) tea.Cmd {
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Restart " + svc,
			Message: "Restart the " + svc + " service?",
			Danger:  true,
		})
		if !ok {
			return nil
		}
		ok = a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Restart " + svc,
			Message: "Players will notice the interruption. Really restart?",
			Danger:  true,
		})
		if !ok {
			return nil
		}
		if err := a.client.RestartService(a.ctx, svc); err != nil {
			return errMsg{err}
		}
		_ = a.journal.AddEvent(a.ctx, "control", "restarted "+svc)
		return statusMsg(svc + " restarting")
	}
}

func (a *App) restartAllCmd() tea.Cmd {
	services := a.services
	return func() tea.Msg {
		ok := a.arbiter.Confirm(a.ctx, modal.Options{
			Title:   "Restart all services",
			Message: "Restart every stack service? The whole table goes dark for a moment.",
			Danger:  true,
		})
		if !ok {
			return nil
		}
		for _, svc := range services {
			if err := a.client.RestartService(a.ctx, svc); err != nil {
				return errMsg{fmt.Errorf("restart %s: %w", svc, err)}
			}
		}
		return statusMsg("all services restarting")
	}
}

// dice

// rollCmd evaluates and persists a roll, then triggers the history reload.
// The reload must not run concurrently with the insert or it can miss the
// new entry.
func (a *App) rollCmd(expr string, mode dice.Mode) tea.Cmd {
	return func() tea.Msg {
		spec, err := dice.Parse(expr)
		if err != nil {
			return errMsg{err}
		}
		spec.Mode = mode
		roll := a.roller.Roll(spec)
		if _, err := a.journal.AddRoll(a.ctx, roll); err != nil {
			return errMsg{err}
		}
		return changedMsg{what: "rolls", note: describeRoll(roll)}
	}
}

func describeRoll(r dice.Roll) string {
	out := fmt.Sprintf("%s = %d", r.Spec.String(), r.Total)
	if r.Critical {
		out += "  NAT 20!"
	}
	if r.Fumble {
		out += "  nat 1..."
	}
	return out
}
