package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"gmconsole/internal/api"
	"gmconsole/internal/modal"
)

// audioRow addresses one editable field of the audio registry.
type audioRow struct {
	kind  audioRowKind
	index int // archetype/soundscape position
}

type audioRowKind int

const (
	rowDMName audioRowKind = iota
	rowDMVoice
	rowArchetype
	rowSoundscape
)

func (a *App) audioRows() []audioRow {
	reg := a.audio.Local()
	rows := []audioRow{{kind: rowDMName}, {kind: rowDMVoice}}
	for i := range reg.Archetypes {
		rows = append(rows, audioRow{kind: rowArchetype, index: i})
	}
	for i := range reg.Soundscapes {
		rows = append(rows, audioRow{kind: rowSoundscape, index: i})
	}
	return rows
}

func (a *App) openAudioEditor(row audioRow) (tea.Model, tea.Cmd) {
	switch row.kind {
	case rowDMName:
		return a, a.editDMNameCmd()
	case rowDMVoice:
		a.picker = &picker{
			title: "DM voice",
			items: voiceItems(a.voices),
			onPick: func(id string) {
				a.audio.Edit(func(reg *api.AudioRegistry) { reg.DMVoice = id })
			},
		}
	case rowArchetype:
		idx := row.index
		reg := a.audio.Local()
		if idx >= len(reg.Archetypes) {
			return a, nil
		}
		a.picker = &picker{
			title: "Voice for " + reg.Archetypes[idx].Label,
			items: voiceItems(a.voices),
			onPick: func(id string) {
				a.audio.Edit(func(reg *api.AudioRegistry) {
					if idx < len(reg.Archetypes) {
						reg.Archetypes[idx].VoiceID = id
					}
				})
			},
		}
	case rowSoundscape:
		idx := row.index
		reg := a.audio.Local()
		if idx >= len(reg.Soundscapes) {
			return a, nil
		}
		a.picker = &picker{
			title: "Track for " + reg.Soundscapes[idx].Label,
			items: trackItems(a.tracks),
			onPick: func(id string) {
				a.audio.Edit(func(reg *api.AudioRegistry) {
					if idx < len(reg.Soundscapes) {
						reg.Soundscapes[idx].TrackID = id
					}
				})
			},
		}
	}
	return a, nil
}

func (a *App) handlePickerKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := a.picker
	switch m.String() {
	case "esc":
		a.picker = nil
		return a, nil
	case "up", "ctrl+k":
		if p.cursor > 0 {
			p.cursor--
		}
		return a, nil
	case "down", "ctrl+j":
		if p.cursor < len(p.filtered())-1 {
			p.cursor++
		}
		return a, nil
	case "enter":
		items := p.filtered()
		if p.cursor < len(items) {
			p.onPick(items[p.cursor].id)
		}
		a.picker = nil
		return a, nil
	}
	switch m.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		if len(p.query) > 0 {
			p.query = p.query[:len(p.query)-1]
			p.cursor = 0
		}
	case tea.KeySpace:
		p.query += " "
		p.cursor = 0
	case tea.KeyRunes:
		p.query += string(m.Runes)
		p.cursor = 0
	}
	return a, nil
}

// addArchetypeCmd creates a new speaker archetype row. The row exists only
// locally until the registry is saved; the dirty guard keeps it alive
// across polls.
func (a *App) addArchetypeCmd() tea.Cmd {
	return func() tea.Msg {
		label, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "New archetype",
			Message:     "Speaker label (e.g. Gruff Dwarf).",
			Placeholder: "label",
		})
		if !ok || label == "" {
			return nil
		}
		a.audio.Edit(func(reg *api.AudioRegistry) {
			reg.Archetypes = append(reg.Archetypes, api.Archetype{
				ID:    uuid.NewString(),
				Label: label,
			})
		})
		return statusMsg(label + " added (unsaved)")
	}
}

func (a *App) addSoundscapeCmd() tea.Cmd {
	return func() tea.Msg {
		label, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "New soundscape",
			Message:     "Game state label (e.g. Combat).",
			Placeholder: "label",
		})
		if !ok || label == "" {
			return nil
		}
		a.audio.Edit(func(reg *api.AudioRegistry) {
			reg.Soundscapes = append(reg.Soundscapes, api.Soundscape{
				ID:    uuid.NewString(),
				Label: label,
			})
		})
		return statusMsg(label + " added (unsaved)")
	}
}

// removeAudioRow deletes the archetype or soundscape under the cursor from
// the local copy. The fixed DM rows cannot be removed.
func (a *App) removeAudioRow(row audioRow) {
	switch row.kind {
	case rowArchetype:
		a.audio.Edit(func(reg *api.AudioRegistry) {
			if row.index < len(reg.Archetypes) {
				reg.Archetypes = append(reg.Archetypes[:row.index], reg.Archetypes[row.index+1:]...)
			}
		})
	case rowSoundscape:
		a.audio.Edit(func(reg *api.AudioRegistry) {
			if row.index < len(reg.Soundscapes) {
				reg.Soundscapes = append(reg.Soundscapes[:row.index], reg.Soundscapes[row.index+1:]...)
			}
		})
	default:
		a.status = "only archetype and soundscape rows can be removed"
		return
	}
	if a.audioCursor >= len(a.audioRows()) {
		a.audioCursor = 0
	}
	a.status = "row removed (unsaved)"
}

func (a *App) editDMNameCmd() tea.Cmd {
	current := a.audio.Local().DMName
	return func() tea.Msg {
		name, ok := a.arbiter.Prompt(a.ctx, modal.Options{
			Title:       "DM name",
			Message:     "Display name used by the dungeon master voice.",
			Placeholder: "name",
			Initial:     current,
		})
		if !ok || name == "" {
			return nil
		}
		a.audio.Edit(func(reg *api.AudioRegistry) { reg.DMName = name })
		return statusMsg("DM name set (unsaved)")
	}
}

func voiceItems(voices []api.Voice) []pickItem {
	items := make([]pickItem, 0, len(voices))
	for _, v := range voices {
		items = append(items, pickItem{id: v.ID, label: v.Name})
	}
	return items
}

func trackItems(tracks []api.Track) []pickItem {
	items := make([]pickItem, 0, len(tracks))
	for _, t := range tracks {
		items = append(items, pickItem{id: t.ID, label: t.Name})
	}
	return items
}
