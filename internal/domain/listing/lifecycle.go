package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manager applies the state rules to listings. It holds no listing data and
// never touches storage; callers persist whatever it returns.
type Manager struct {
	now func() time.Time
}

func NewManager() *Manager {
	return &Manager{now: time.Now}
}

func NewManagerWithClock(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{now: now}
}

func (m *Manager) clock() time.Time {
	// microseconds, the precision Postgres keeps for timestamptz
	if m == nil || m.now == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return m.now().UTC().Truncate(time.Microsecond)
}

// Create builds a new listing owned by ownerID. The state defaults to private;
// an explicit initial state must be a known one.
func (m *Manager) Create(ownerID uuid.UUID, in Listing, initialState string) (Listing, error) {
	if ownerID == uuid.Nil {
		return Listing{}, ErrUnauthorized
	}

	st := StatePrivate
	if strings.TrimSpace(initialState) != "" {
		parsed, err := ParseState(initialState)
		if err != nil {
			return Listing{}, err
		}
		st = parsed
	}

	now := m.clock()
	out := in
	out.ID = uuid.New()
	out.OwnerID = ownerID
	out.State = st
	out.ApplicationCount = 0
	out.CreatedAt = now
	out.UpdatedAt = now
	trimFields(&out)
	if out.RolesNeeded == nil {
		out.RolesNeeded = map[string]int{}
	}
	if out.Requirements == nil {
		out.Requirements = map[string]any{}
	}
	if out.Schedule == nil {
		out.Schedule = []string{}
	}

	if err := out.validate(); err != nil {
		return Listing{}, err
	}
	return out, nil
}

// CheckView hides listings the requester may not see behind ErrNotFound, so
// a private listing looks the same as a missing one. A nil requester is
// anonymous.
func (m *Manager) CheckView(l Listing, requester *uuid.UUID) error {
	isOwner := requester != nil && l.IsOwnedBy(*requester)
	if !CanView(l.State, isOwner) {
		return ErrNotFound
	}
	return nil
}

// ChangeState moves a listing to newState. Only the owner may do this, from
// any state to any state.
func (m *Manager) ChangeState(l Listing, requestedBy uuid.UUID, newState string) (Listing, error) {
	if !l.IsOwnedBy(requestedBy) {
		return Listing{}, ErrUnauthorized
	}
	st, err := ParseState(newState)
	if err != nil {
		return Listing{}, err
	}
	l.State = st
	l.UpdatedAt = m.clock()
	return l, nil
}

func (m *Manager) AuthorizeEdit(l Listing, requestedBy uuid.UUID) error {
	if !l.IsOwnedBy(requestedBy) {
		return ErrUnauthorized
	}
	caps, err := CapabilitiesFor(l.State)
	if err != nil {
		return err
	}
	if !caps.CanEdit {
		return fmt.Errorf("%w: listing in state %s cannot be edited", ErrInvalidState, l.State)
	}
	return nil
}

// ApplyEdit authorizes and applies a partial edit. A state in the patch goes
// through ParseState like any other state change.
func (m *Manager) ApplyEdit(l Listing, requestedBy uuid.UUID, p Patch) (Listing, error) {
	if err := m.AuthorizeEdit(l, requestedBy); err != nil {
		return Listing{}, err
	}

	out := l
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.ContentType != nil {
		out.ContentType = *p.ContentType
	}
	if p.ContentName != nil {
		out.ContentName = *p.ContentName
	}
	if p.DataCenter != nil {
		out.DataCenter = *p.DataCenter
	}
	if p.Server != nil {
		out.Server = *p.Server
	}
	if p.RolesNeeded != nil {
		out.RolesNeeded = p.RolesNeeded
	}
	if p.Schedule != nil {
		out.Schedule = p.Schedule
	}
	if p.Requirements != nil {
		out.Requirements = p.Requirements
	}
	if p.VoiceChat != nil {
		out.VoiceChat = *p.VoiceChat
	}
	if p.AdditionalInfo != nil {
		out.AdditionalInfo = *p.AdditionalInfo
	}
	if p.State != nil {
		st, err := ParseState(*p.State)
		if err != nil {
			return Listing{}, err
		}
		out.State = st
	}
	trimFields(&out)

	if err := out.validate(); err != nil {
		return Listing{}, err
	}
	out.UpdatedAt = m.clock()
	return out, nil
}

// AuthorizeApply checks whether requester may apply. The state check comes
// first, then the owner and duplicate checks.
func (m *Manager) AuthorizeApply(l Listing, requester uuid.UUID, alreadyApplied bool) error {
	caps, err := CapabilitiesFor(l.State)
	if err != nil {
		return err
	}
	if !caps.CanApply {
		return fmt.Errorf("%w: listing in state %s is not accepting applications", ErrInvalidState, l.State)
	}
	if l.IsOwnedBy(requester) {
		return fmt.Errorf("%w: owner cannot apply to their own listing", ErrConflict)
	}
	if alreadyApplied {
		return fmt.Errorf("%w: already applied to this listing", ErrConflict)
	}
	return nil
}

func (m *Manager) AuthorizeDelete(l Listing, requestedBy uuid.UUID) error {
	if !l.IsOwnedBy(requestedBy) {
		return ErrUnauthorized
	}
	return nil
}

func trimFields(l *Listing) {
	l.Title = strings.TrimSpace(l.Title)
	l.Description = strings.TrimSpace(l.Description)
	l.ContentType = strings.TrimSpace(l.ContentType)
	l.ContentName = strings.TrimSpace(l.ContentName)
	l.DataCenter = strings.TrimSpace(l.DataCenter)
	l.Server = strings.TrimSpace(l.Server)
	l.VoiceChat = strings.TrimSpace(l.VoiceChat)
	l.AdditionalInfo = strings.TrimSpace(l.AdditionalInfo)
}
