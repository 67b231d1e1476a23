package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gmconsole/internal/api"
	"gmconsole/internal/dice"
	"gmconsole/internal/modal"
	"gmconsole/internal/session"
)

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	activeTab   = lipgloss.NewStyle().Bold(true).Reverse(true)
	dangerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dirtyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func (a *App) View() string {
	body := a.renderHeader() + "\n"

	if a.lock.Gated(exemptTab(a.tab)) {
		body += a.renderLocked()
	} else {
		switch a.tab {
		case tabAudio:
			body += a.renderAudio()
		case tabHeroes:
			body += a.renderHeroes()
		case tabVault:
			body += a.renderVault()
		case tabLogs:
			body += a.renderLogs()
		case tabDice:
			body += a.renderDice()
		default:
			body += a.renderOverview()
		}
	}

	if req := a.arbiter.Active(); req != nil {
		body += "\n\n" + a.renderDialog(req)
	} else if a.picker != nil {
		body += "\n\n" + a.renderPicker()
	}
	if a.status != "" {
		body += "\n" + a.status
	}
	return body
}

func (a *App) renderHeader() string {
	var tabs []string
	for i, t := range tabOrder {
		label := fmt.Sprintf("%d:%s", i+1, t)
		if t == a.tab {
			label = activeTab.Render(label)
		}
		tabs = append(tabs, label)
	}
	header := strings.Join(tabs, "  ")

	header += "   " + a.conn.String()
	switch a.lock.State() {
	case session.StateLocked:
		header += "  " + dangerStyle.Render("LOCKED")
	case session.StateUnlocked:
		header += "  unlocked"
	}
	if a.audio.Dirty() {
		header += "  " + dirtyStyle.Render("● unsaved audio")
	}
	return header
}

func (a *App) renderLocked() string {
	out := titleStyle.Render("Session locked") + "\n"
	out += "This tab holds campaign secrets and is unavailable while locked.\n"
	out += "[u] Unlock  [tab] Other tabs  [q] Quit"
	return out
}

func (a *App) renderOverview() string {
	title := titleStyle.Render("RealmQuest Console")
	out := title + "\n"
	out += fmt.Sprintf("Active campaign: %s    LLM: %s    Art: %s\n\n", orDash(a.doc.ActiveCampaign), orDash(a.doc.LLMProvider), orDash(a.doc.ArtStyle))

	out += paneTitle("Campaigns", a.overviewPane == paneCampaigns) + "\n"
	if len(a.campaigns) == 0 {
		out += "  (no campaigns)\n"
	}
	for i, c := range a.campaigns {
		marker := " "
		if a.overviewPane == paneCampaigns && i == a.campaignCursor {
			marker = "▶"
		}
		active := ""
		if c.Active {
			active = " (active)"
		}
		out += fmt.Sprintf("%s %s%s\n", marker, c.Name, active)
	}

	out += "\n" + paneTitle("Services", a.overviewPane == paneServices) + "\n"
	for i, svc := range a.services {
		marker := " "
		if a.overviewPane == paneServices && i == a.serviceCursor {
			marker = "▶"
		}
		state := ""
		if running, ok := a.svcRunning[svc]; ok {
			if running {
				state = "  up"
			} else {
				state = "  " + dangerStyle.Render("down")
			}
		}
		out += fmt.Sprintf("%s %s%s\n", marker, svc, state)
	}

	if len(a.events) > 0 {
		out += "\nRecent actions:\n"
		for _, e := range a.events {
			out += fmt.Sprintf("  %s  %-8s %s\n", e.LoggedAt.Format("15:04"), e.Source, e.Message)
		}
	}

	out += "\n[enter] Activate/Restart  [del] Delete campaign  [A] Restart all  [L] Lock  [P] Remember PIN  [R] Refresh  [q] Quit"
	return out
}

func (a *App) renderAudio() string {
	title := titleStyle.Render("Audio Registry")
	if a.audio.Dirty() {
		title += dirtyStyle.Render("  (unsaved)")
	}
	out := title + "\n"

	reg := a.audio.Local()
	rows := a.audioRows()
	for i, row := range rows {
		marker := " "
		if i == a.audioCursor {
			marker = "▶"
		}
		switch row.kind {
		case rowDMName:
			out += fmt.Sprintf("%s DM name       %s\n", marker, orDash(reg.DMName))
		case rowDMVoice:
			out += fmt.Sprintf("%s DM voice      %s\n", marker, a.voiceLabel(reg.DMVoice))
		case rowArchetype:
			arch := reg.Archetypes[row.index]
			out += fmt.Sprintf("%s %-13s %s\n", marker, arch.Label, a.voiceLabel(arch.VoiceID))
		case rowSoundscape:
			sc := reg.Soundscapes[row.index]
			out += fmt.Sprintf("%s %-13s %s\n", marker, sc.Label, a.trackLabel(sc.TrackID))
		}
	}
	out += "\n[enter] Edit  [a] Add archetype  [t] Add soundscape  [del] Remove row  [s] Save  [R] Refresh  [q] Quit"
	return out
}

func (a *App) renderHeroes() string {
	if a.heroBind != nil {
		return a.renderHeroSheet(a.heroBind.Local(), a.heroBind.Dirty())
	}
	title := titleStyle.Render("Heroes")
	out := title + "\n"
	if len(a.heroes) == 0 {
		out += "(no characters in the active campaign)\n"
	}
	for i, h := range a.heroes {
		marker := " "
		if i == a.heroCursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %-20s lv%-2d %-10s %s\n", marker, h.Name, h.Level, h.ClassName, h.Race)
	}
	out += "\n[enter] Open  [n] New  [del] Delete  [r] Reload  [q] Quit"
	return out
}

func (a *App) renderHeroSheet(h api.Character, dirty bool) string {
	title := titleStyle.Render(h.Name)
	if dirty {
		title += dirtyStyle.Render("  (unsaved)")
	}
	out := title + "\n"
	out += fmt.Sprintf("Level %d %s %s\n", h.Level, h.Race, h.ClassName)
	out += fmt.Sprintf("HP %d/%d   AC %d   Speed %d\n", h.HP, h.HPMax, h.AC, h.Speed)
	if len(h.Stats) > 0 {
		keys := make([]string, 0, len(h.Stats))
		for k := range h.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ToUpper(k), h.Stats[k]))
		}
		out += strings.Join(parts, "  ") + "\n"
	}
	if h.Notes != "" {
		out += "\nNotes: " + h.Notes + "\n"
	}
	out += "\n[e] Edit notes  [+/-] Adjust HP  [s] Save  [esc] Back  [q] Quit"
	return out
}

func (a *App) renderVault() string {
	title := titleStyle.Render("Vault")
	out := title + "\n"
	if len(a.envVars) == 0 {
		out += "(no variables)\n"
	}
	for i, v := range a.envVars {
		marker := " "
		if i == a.envCursor {
			marker = "▶"
		}
		value := strings.Repeat("*", min(len(v.Value), 16))
		if a.showVals {
			value = v.Value
		}
		out += fmt.Sprintf("%s %-28s %s\n", marker, v.Key, value)
	}
	out += "\n[n] New  [enter] Edit  [del] Delete  [v] Toggle values  [r] Reload  [L] Lock  [q] Quit"
	return out
}

func (a *App) renderLogs() string {
	title := titleStyle.Render("Logs: " + a.logService)
	out := title + "\n"
	if len(a.logLines) == 0 {
		out += "(waiting for logs...)\n"
	}
	for _, line := range a.logLines {
		out += line + "\n"
	}
	out += "[←/→] Service  [r] Refresh now  [q] Quit"
	return out
}

func (a *App) renderDice() string {
	title := titleStyle.Render("Dice")
	out := title + "\n"
	mode := ""
	switch a.diceMode {
	case dice.ModeAdvantage:
		mode = "  [advantage]"
	case dice.ModeDisadvantage:
		mode = "  [disadvantage]"
	}
	out += fmt.Sprintf("Roll: %s%s\n", a.diceInput, mode)
	out += "[enter] Roll  [ctrl+a] Advantage  [ctrl+d] Disadvantage  [q] Quit\n\n"
	out += "Recent:\n"
	if len(a.rolls) == 0 {
		out += "  (no rolls yet)\n"
	}
	for _, r := range a.rolls {
		out += fmt.Sprintf("  %s  %-12s = %-4d %v\n", r.RolledAt.Format("15:04:05"), r.Spec, r.Total, r.Results)
	}
	return out
}

func (a *App) renderDialog(req *modal.Request) string {
	title := req.Title
	if req.Danger {
		title = dangerStyle.Render(title)
	} else {
		title = titleStyle.Render(title)
	}
	out := title + "\n"
	if req.Message != "" {
		out += req.Message + "\n"
	}
	switch req.Kind {
	case modal.KindConfirm:
		out += "[y] Yes  [n] No"
	case modal.KindPrompt:
		out += a.modalInput.View() + "\n[enter] OK  [esc] Cancel"
	}
	return out
}

func (a *App) renderPicker() string {
	p := a.picker
	out := titleStyle.Render(p.title) + "\n"
	out += "filter: " + p.query + "\n"
	items := p.filtered()
	if len(items) > 10 {
		items = items[:10]
	}
	for i, it := range items {
		marker := " "
		if i == p.cursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %s\n", marker, it.label)
	}
	out += "[enter] Select  [esc] Cancel"
	return out
}

func (a *App) voiceLabel(id string) string {
	for _, v := range a.voices {
		if v.ID == id {
			return v.Name
		}
	}
	return orDash(id)
}

func (a *App) trackLabel(id string) string {
	for _, t := range a.tracks {
		if t.ID == id {
			return t.Name
		}
	}
	return orDash(id)
}

func paneTitle(label string, active bool) string {
	if active {
		return activeTab.Render(label)
	}
	return label
}

func orDash(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
