package domain

import (
	"time"
)

type RoomID string
type ViewerID string
type ConnID string

// Viewer field names reported in UpdatedFields lists. Receivers key off
// these instead of inferring "unchanged" from zero values.
const (
	FieldOnline     = "online"
	FieldPause      = "pause"
	FieldFullScreen = "fullscreen"
	FieldTimeLine   = "timeline"
	FieldSpeed      = "speed"
	FieldSeason     = "season"
	FieldEpisode    = "episode"
	FieldMuted      = "muted"
	FieldUserName   = "username"
	FieldPhotoKey   = "photo_key"
	FieldSettings   = "settings"
)

// Settings controls whether *other* viewers may target this viewer with the
// corresponding action. Checked at command time, never stored per pair.
type Settings struct {
	Beep     bool `json:"beep"`
	Screamer bool `json:"screamer"`
}

type Viewer struct {
	ID         ViewerID       `json:"id"`
	UserName   string         `json:"username"`
	PhotoKey   *string        `json:"photo_key,omitempty"`
	Online     bool           `json:"online"`
	FullScreen bool           `json:"fullscreen"`
	OnPause    bool           `json:"pause"`
	TimeLine   time.Duration  `json:"timeline"`
	Muted      bool           `json:"muted"`
	Speed      float64        `json:"speed"`
	Season     *int           `json:"season,omitempty"`
	Episode    *int           `json:"episode,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Statistic  map[string]int `json:"statistic,omitempty"`
	Settings   Settings       `json:"settings"`
}

// ViewerProfile is the identity-provider slice of a viewer used on Connect.
type ViewerProfile struct {
	ID       ViewerID
	UserName string
	PhotoKey *string
}

// PlayerUpdate is a partial player-state update. Nil means "not supplied";
// a supplied field always counts as changed, even when the value is re-sent
// unchanged, because the client's intent is "state = X", not "transition".
type PlayerUpdate struct {
	OnPause    *bool          `json:"pause,omitempty"`
	FullScreen *bool          `json:"fullscreen,omitempty"`
	TimeLine   *time.Duration `json:"timeline,omitempty"`
	Speed      *float64       `json:"speed,omitempty"`
	Season     *int           `json:"season,omitempty"`
	Episode    *int           `json:"episode,omitempty"`
	Muted      *bool          `json:"muted,omitempty"`
}

// Room is the aggregate root for one shared viewing session. Revision is the
// optimistic-concurrency token maintained by the repository; mutations never
// touch it.
type Room struct {
	ID        RoomID               `json:"id"`
	FilmID    string               `json:"film_id"`
	IsSerial  bool                 `json:"is_serial"`
	OwnerID   ViewerID             `json:"owner_id"`
	Viewers   map[ViewerID]*Viewer `json:"viewers"`
	Revision  int64                `json:"revision"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewRoom creates an empty room owned by the first connecting viewer. The
// caller follows up with Connect for the owner, which emits the Join.
func NewRoom(id RoomID, filmID string, isSerial bool, ownerID ViewerID) *Room {
	return &Room{
		ID:        id,
		FilmID:    filmID,
		IsSerial:  isSerial,
		OwnerID:   ownerID,
		Viewers:   make(map[ViewerID]*Viewer),
		CreatedAt: time.Now().UTC(),
	}
}

func newViewer(p ViewerProfile) *Viewer {
	return &Viewer{
		ID:        p.ID,
		UserName:  p.UserName,
		PhotoKey:  p.PhotoKey,
		Online:    true,
		Speed:     1.0,
		Statistic: make(map[string]int),
		Settings:  Settings{Beep: true, Screamer: true},
	}
}

func (r *Room) addViewer(p ViewerProfile) *Viewer {
	v := newViewer(p)
	r.Viewers[p.ID] = v
	return v
}

// Viewer returns the viewer entry or ErrViewerNotFound.
func (r *Room) Viewer(id ViewerID) (*Viewer, error) {
	v, ok := r.Viewers[id]
	if !ok {
		return nil, ErrViewerNotFound
	}
	return v, nil
}

// Connect is idempotent. A true Absent->Online transition emits Join;
// Offline->Online flips the flag and emits an online field update; re-entry
// while already online only merges the profile and emits nothing.
func (r *Room) Connect(p ViewerProfile) []Event {
	v, ok := r.Viewers[p.ID]
	if !ok {
		v = r.addViewer(p)
		return []Event{composeJoin(r.ID, v)}
	}

	v.UserName = p.UserName
	if p.PhotoKey != nil {
		v.PhotoKey = p.PhotoKey
	}
	if v.Online {
		return nil
	}
	v.Online = true
	return []Event{composeViewerFields(r.ID, v, []string{FieldOnline})}
}

// Disconnect marks the viewer offline but keeps the entry so the viewer
// stays visible (greyed out) and can reconnect. Absent viewers are a silent
// no-op.
func (r *Room) Disconnect(id ViewerID) []Event {
	v, ok := r.Viewers[id]
	if !ok || !v.Online {
		return nil
	}
	v.Online = false
	return []Event{composeViewerFields(r.ID, v, []string{FieldOnline})}
}

// Leave removes the viewer permanently. The room survives even when the
// owner leaves; OwnerID keeps referencing the departed member.
func (r *Room) Leave(id ViewerID) []Event {
	if _, ok := r.Viewers[id]; !ok {
		return nil
	}
	delete(r.Viewers, id)
	return []Event{composeLeave(r.ID, id)}
}

// Kick removes the target permanently. Owner-only.
func (r *Room) Kick(initiator, target ViewerID) ([]Event, error) {
	if initiator != r.OwnerID {
		return nil, ErrPermissionDenied
	}
	if _, ok := r.Viewers[target]; !ok {
		return nil, ErrViewerNotFound
	}
	delete(r.Viewers, target)
	return []Event{composeKick(r.ID, initiator, target)}, nil
}

// ApplyPlayerUpdate applies the supplied fields and returns the names of
// every field the caller set, in declaration order.
func (r *Room) ApplyPlayerUpdate(id ViewerID, upd PlayerUpdate) ([]string, []Event, error) {
	v, ok := r.Viewers[id]
	if !ok {
		return nil, nil, ErrViewerNotFound
	}
	if err := upd.validate(r.IsSerial); err != nil {
		return nil, nil, err
	}

	var changed []string
	if upd.OnPause != nil {
		v.OnPause = *upd.OnPause
		changed = append(changed, FieldPause)
	}
	if upd.FullScreen != nil {
		v.FullScreen = *upd.FullScreen
		changed = append(changed, FieldFullScreen)
	}
	if upd.TimeLine != nil {
		v.TimeLine = *upd.TimeLine
		changed = append(changed, FieldTimeLine)
	}
	if upd.Speed != nil {
		v.Speed = *upd.Speed
		changed = append(changed, FieldSpeed)
	}
	if upd.Season != nil {
		v.Season = upd.Season
		changed = append(changed, FieldSeason)
	}
	if upd.Episode != nil {
		v.Episode = upd.Episode
		changed = append(changed, FieldEpisode)
	}
	if upd.Muted != nil {
		v.Muted = *upd.Muted
		changed = append(changed, FieldMuted)
	}

	if len(changed) == 0 {
		return nil, nil, nil
	}
	return changed, []Event{composePlayerUpdate(r.ID, v, changed)}, nil
}

func (u PlayerUpdate) validate(isSerial bool) error {
	if u.Speed != nil && *u.Speed <= 0 {
		return validationError("speed must be > 0, got %v", *u.Speed)
	}
	if u.TimeLine != nil && *u.TimeLine < 0 {
		return validationError("timeline must be >= 0, got %v", *u.TimeLine)
	}
	if !isSerial && (u.Season != nil || u.Episode != nil) {
		return validationError("season/episode only apply to serials")
	}
	return nil
}

// Beep is a pure notification: no aggregate state changes. The target's own
// settings decide whether others may beep them.
func (r *Room) Beep(initiator, target ViewerID) ([]Event, error) {
	t, ok := r.Viewers[target]
	if !ok {
		return nil, ErrViewerNotFound
	}
	if _, ok := r.Viewers[initiator]; !ok {
		return nil, ErrViewerNotFound
	}
	if !t.Settings.Beep {
		return nil, ErrPermissionDenied
	}
	return []Event{composeTargeted(EventBeep, r.ID, initiator, target)}, nil
}

// Scream mirrors Beep gated by Settings.Screamer.
func (r *Room) Scream(initiator, target ViewerID) ([]Event, error) {
	t, ok := r.Viewers[target]
	if !ok {
		return nil, ErrViewerNotFound
	}
	if _, ok := r.Viewers[initiator]; !ok {
		return nil, ErrViewerNotFound
	}
	if !t.Settings.Screamer {
		return nil, ErrPermissionDenied
	}
	return []Event{composeTargeted(EventScream, r.ID, initiator, target)}, nil
}

// UpdateSettings replaces the caller's own settings.
func (r *Room) UpdateSettings(id ViewerID, s Settings) ([]Event, error) {
	v, ok := r.Viewers[id]
	if !ok {
		return nil, ErrViewerNotFound
	}
	v.Settings = s
	return []Event{composeViewerFields(r.ID, v, []string{FieldSettings})}, nil
}
