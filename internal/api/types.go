package api

// ConfigDoc is the authoritative system configuration reported by the backend.
// The console never mutates it directly; editable sub-documents go through a
// dirty-tracked binding and an explicit save call.
type ConfigDoc struct {
	ActiveCampaign string        `json:"active_campaign"`
	LLMProvider    string        `json:"llm_provider"`
	ArtStyle       string        `json:"art_style"`
	AudioRegistry  AudioRegistry `json:"audio_registry"`
}

// AudioRegistry maps narrative roles and game states to audio assets.
type AudioRegistry struct {
	DMName      string       `json:"dm_name"`
	DMVoice     string       `json:"dm_voice"`
	Archetypes  []Archetype  `json:"archetypes"`
	Soundscapes []Soundscape `json:"soundscapes"`
}

// Archetype maps a speaker stereotype to a synth voice.
type Archetype struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	VoiceID string `json:"voice_id"`
}

// Soundscape maps a game state to a background track.
type Soundscape struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	TrackID string `json:"track_id"`
}

// AuthStatus is the backend's report of the PIN lock.
type AuthStatus struct {
	HasPin bool `json:"has_pin"`
	Locked bool `json:"locked"`
}

// EnvVar is one backend environment variable.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Voice is a selectable synth voice.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a selectable audio track.
type Track struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Campaign is a loadable campaign cartridge.
type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// Character is a player character sheet.
type Character struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	ClassName string         `json:"class_name"`
	Race      string         `json:"race"`
	Level     int            `json:"level"`
	HP        int            `json:"hp"`
	HPMax     int            `json:"hp_max"`
	AC        int            `json:"ac"`
	Speed     int            `json:"speed"`
	Stats     map[string]int `json:"stats"`
	Notes     string         `json:"notes"`
}

// ServiceStatus is one stack service row on the overview.
type ServiceStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Running bool   `json:"running"`
}
