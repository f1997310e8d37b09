// Package session drives one site of a collaborative editing session. It
// owns the site's document, history and lamport clock, and connects them to
// the editor view and the transport.
//
// A Session is not safe for concurrent use. Local edits and remote changes
// must be delivered from a single goroutine.
package session

import (
	"unicode/utf8"

	"github.com/burntcarrot/linepad/commons"
	"github.com/burntcarrot/linepad/crdt"
	"github.com/burntcarrot/linepad/history"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultMaxChars is the document size above which growing edits are rejected.
const DefaultMaxChars = 2500

// Origin tells where an edit comes from.
type Origin string

const (
	OriginInput  Origin = "+input"
	OriginDelete Origin = "+delete"
	OriginPaste  Origin = "paste"
	OriginUndo   Origin = "undo"
	OriginRedo   Origin = "redo"

	// Edits made by the session itself. They are already in the document.
	OriginRemote   Origin = "ignore_remote"
	OriginUndoRedo Origin = "undo_redo"
	OriginSetValue Origin = "setValue"
)

// Edit is a change made in the editor view.
type Edit struct {
	Change crdt.LocalChange
	// Removed is the text replaced by the edit.
	Removed string
	Origin  Origin
}

// View is the editor the session renders to.
type View interface {
	// Apply replaces a range of the rendered text.
	Apply(change crdt.LocalChange)
	CursorPos() crdt.Pos
	SetCursorPos(pos crdt.Pos)
	// LimitExceeded is called when the document crosses the size limit.
	LimitExceeded(exceeded bool)
	// ShowCursors shows the cursors of the other users.
	ShowCursors(presences []commons.Presence)
}

// Transport sends local activity to the other sites.
type Transport interface {
	SendChange(change crdt.RemoteChange, lamport int) error
	SendCursor(pos crdt.Pos) error
}

var ErrNotInitialized = errors.New("session is not initialized")

// Options configures a Session.
type Options struct {
	MaxChars int
	History  history.Options
	Logger   logrus.FieldLogger
}

// Session is the controller of one site.
type Session struct {
	doc     *crdt.Document
	history *history.History
	site    int
	lamport int

	view      View
	transport Transport
	logger    logrus.FieldLogger

	maxChars   int
	exceeded   bool
	prevCursor *crdt.Pos
}

// New returns a session. It must be initialized with Init before edits are
// accepted.
func New(view View, transport Transport, opts Options) *Session {
	s := &Session{
		history:   history.New(opts.History),
		view:      view,
		transport: transport,
		logger:    opts.Logger,
		maxChars:  opts.MaxChars,
	}
	if s.maxChars <= 0 {
		s.maxChars = DefaultMaxChars
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	return s
}

// Init loads the snapshot received on join and returns the document content.
func (s *Session) Init(chars []crdt.Char, site int) string {
	s.doc = crdt.New()
	s.doc.Init(chars)
	s.site = site
	s.lamport = 0

	s.logger.WithFields(logrus.Fields{"site": site, "characters": len(chars)}).Info("session initialized")
	return s.doc.String()
}

// Site returns the site assigned to this session.
func (s *Session) Site() int { return s.site }

// Lamport returns the current lamport clock.
func (s *Session) Lamport() int { return s.lamport }

// Document returns the replica. It must not be modified.
func (s *Session) Document() *crdt.Document { return s.doc }

// Admit decides whether an edit is allowed by the document size limit.
// Edits that shrink the document, and initial loads, are always allowed.
func (s *Session) Admit(edit Edit) bool {
	count := 1
	if s.doc != nil {
		count += s.doc.Len()
	}
	delta := utf8.RuneCountInString(edit.Change.Text) - utf8.RuneCountInString(edit.Removed)

	exceeded := count+delta > s.maxChars
	if exceeded != s.exceeded {
		s.view.LimitExceeded(exceeded)
	}
	s.exceeded = exceeded

	return !(delta > 0 && exceeded && edit.Origin != OriginSetValue)
}

// OnLocalEdit integrates an edit made in the view. The view has already
// applied the edit.
func (s *Session) OnLocalEdit(edit Edit) error {
	if s.doc == nil {
		return ErrNotInitialized
	}

	var err error
	switch edit.Origin {
	case OriginRemote, OriginUndoRedo, OriginSetValue:
	case OriginUndo:
		err = s.Undo()
	case OriginRedo:
		err = s.Redo()
	default:
		err = s.applyLocal(edit)
	}

	cursor := s.view.CursorPos()
	s.prevCursor = &cursor
	return err
}

func (s *Session) applyLocal(edit Edit) error {
	s.lamport++
	changes, err := crdt.LocalToRemote(s.doc, s.lamport, s.site, edit.Change)
	if err != nil {
		s.logger.WithError(err).WithField("change", edit.Change).Error("failed to apply local edit")
		return err
	}

	s.history.OnChanges(changes)
	return s.send(changes)
}

// OnRemoteChange applies a change received from another site.
func (s *Session) OnRemoteChange(change crdt.RemoteChange, lamport int) error {
	if s.doc == nil {
		return ErrNotInitialized
	}

	s.lamport = max(s.lamport, lamport) + 1
	if _, err := s.apply(change); err != nil {
		return err
	}

	cursor := s.view.CursorPos()
	s.prevCursor = &cursor
	return nil
}

// Undo reverts the last batch of local edits.
func (s *Session) Undo() error {
	if s.doc == nil {
		return ErrNotInitialized
	}
	s.lamport++
	return s.applyUndoRedo(s.history.MakeUndoChanges(s.lamport))
}

// Redo reapplies the last undone batch.
func (s *Session) Redo() error {
	if s.doc == nil {
		return ErrNotInitialized
	}
	s.lamport++
	return s.applyUndoRedo(s.history.MakeRedoChanges(s.lamport))
}

func (s *Session) applyUndoRedo(changes []crdt.RemoteChange) error {
	if changes == nil {
		return nil
	}

	var last *crdt.LocalChange
	for _, change := range changes {
		local, err := s.apply(change)
		if err != nil {
			return err
		}
		if local != nil {
			last = local
		}
	}

	if last != nil {
		if last.Text == "" {
			s.view.SetCursorPos(last.From)
		} else {
			s.view.SetCursorPos(crdt.Pos{Line: last.To.Line, Ch: last.To.Ch + 1})
		}
	}
	return s.send(changes)
}

// apply updates the document and the view with a change that did not come
// from the view.
func (s *Session) apply(change crdt.RemoteChange) (*crdt.LocalChange, error) {
	local, err := crdt.RemoteToLocal(s.doc, change)
	if err != nil {
		s.logger.WithError(err).Error("failed to apply change")
		return nil, err
	}
	if local != nil {
		s.view.Apply(*local)
	}
	return local, nil
}

func (s *Session) send(changes []crdt.RemoteChange) error {
	for _, change := range changes {
		if err := s.transport.SendChange(change, s.lamport); err != nil {
			return errors.Wrap(err, "send change")
		}
	}
	return nil
}

// OnLocalCursor must be called whenever the view's cursor may have moved.
// Moves that are not caused by an edit close the current undo batch.
func (s *Session) OnLocalCursor(pos crdt.Pos) error {
	if s.prevCursor != nil && *s.prevCursor != pos {
		s.history.OnCursorMove()
	}
	s.prevCursor = &pos

	return errors.Wrap(s.transport.SendCursor(pos), "send cursor")
}

// OnPresence shows the cursors of the other sites.
func (s *Session) OnPresence(presences []commons.Presence) {
	others := make([]commons.Presence, 0, len(presences))
	for _, p := range presences {
		if p.Site != s.site {
			others = append(others, p)
		}
	}
	s.view.ShowCursors(others)
}
