package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"employee-import/common"
	"employee-import/employees"
	"employee-import/parsers"

	"github.com/google/uuid"
)

// State is the position of an import session in its lifecycle
type State string

const (
	StateUpload    State = "upload"
	StatePreview   State = "preview"
	StateImporting State = "importing"
	StateComplete  State = "complete"
)

var (
	ErrInvalidTransition  = errors.New("invalid import session transition")
	ErrSessionNotFound    = errors.New("import session not found")
	ErrUnsupportedFormat  = errors.New("file must be .csv, .xlsx or .ndjson")
	ErrImportNotPermitted = errors.New("role is not allowed to import employees")
)

// Summary counts the rows of a previewed file
type Summary struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Malformed int `json:"malformed"`
}

// Session is one import dialog: upload -> preview -> importing -> complete.
// preview -> upload (Reset) is the only backward step. Validated rows live
// only in memory for the lifetime of the session.
type Session struct {
	ID        string
	Tenant    common.TenantContext
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	fileName string
	rows     []*common.RecordValidationResult
	result   *CommitResult
	lastSeen time.Time
}

func NewSession(tenant common.TenantContext) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Tenant:    tenant,
		CreatedAt: now,
		state:     StateUpload,
		lastSeen:  now,
	}
}

// ParseFile picks a parser by file extension and validates every row
func ParseFile(fileName string, content []byte) ([]*common.RecordValidationResult, error) {
	var (
		result *parsers.ParseResult
		err    error
	)

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		result, err = parsers.Parse(string(content), employees.ImportSchema)
	case ".xlsx":
		result, err = parsers.ParseXLSX(bytes.NewReader(content), employees.ImportSchema)
	case ".ndjson", ".jsonl":
		result, err = parsers.ParseNDJSON(bytes.NewReader(content), employees.ImportSchema)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return employees.ValidateRecords(result.Records), nil
}

// Load parses and validates a file and moves the session to preview.
// A structural error leaves the session in upload with no rows.
func (s *Session) Load(fileName string, content []byte) error {
	if !s.Tenant.CanImport() {
		return ErrImportNotPermitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUpload {
		return fmt.Errorf("%w: load from %s", ErrInvalidTransition, s.state)
	}

	rows, err := ParseFile(fileName, content)
	if err != nil {
		return err
	}

	s.fileName = fileName
	s.rows = rows
	s.state = StatePreview
	return nil
}

// Reset discards the previewed file and returns to upload
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreview {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, s.state)
	}

	s.fileName = ""
	s.rows = nil
	s.state = StateUpload
	return nil
}

// Commit runs the committer over the previewed rows. The session stays in
// preview when there is nothing to import; otherwise it always reaches
// complete. There is no cancellation once importing has started.
func (s *Session) Commit(ctx context.Context, store Store, opts CommitOptions) (*CommitResult, error) {
	s.mu.Lock()
	if s.state != StatePreview {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: commit from %s", ErrInvalidTransition, state)
	}
	rows := s.rows
	if countValid(rows) == 0 {
		s.mu.Unlock()
		return nil, ErrNothingToImport
	}
	s.state = StateImporting
	s.mu.Unlock()

	result, err := Commit(ctx, store, s.Tenant, rows, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StatePreview
		return nil, err
	}
	s.result = result
	s.state = StateComplete
	return result, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// Rows returns the validated rows in file order
func (s *Session) Rows() []*common.RecordValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*common.RecordValidationResult(nil), s.rows...)
}

// Result returns the commit result once the session is complete
func (s *Session) Result() *CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: len(s.rows)}
	for _, r := range s.rows {
		if r.IsValid() {
			sum.Valid++
		} else {
			sum.Invalid++
		}
		if r.Malformed {
			sum.Malformed++
		}
	}
	return sum
}

func countValid(rows []*common.RecordValidationResult) int {
	n := 0
	for _, r := range rows {
		if r.IsValid() {
			n++
		}
	}
	return n
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports whether the session can be evicted: untouched since
// cutoff and not importing
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateImporting && s.lastSeen.Before(cutoff)
}

// DefaultSessionTTL is how long an untouched session is kept
const DefaultSessionTTL = 30 * time.Minute

// SessionRegistry keeps open sessions in memory. Sessions nobody has read
// for longer than the TTL are evicted, which discards their rows and outcome.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add registers a session and evicts idle ones
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	s.touch(r.now())
	r.sessions[s.ID] = s
}

// Get returns the session if it belongs to the company and refreshes its TTL
func (r *SessionRegistry) Get(companyID, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || s.Tenant.CompanyID != companyID {
		return nil, ErrSessionNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Remove closes a session; an importing session cannot be removed
func (r *SessionRegistry) Remove(companyID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.Tenant.CompanyID != companyID {
		return ErrSessionNotFound
	}
	if s.State() == StateImporting {
		return fmt.Errorf("%w: close while importing", ErrInvalidTransition)
	}
	delete(r.sessions, id)
	return nil
}

// Prune evicts idle sessions and returns how many were removed
func (r *SessionRegistry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pruneLocked()
}

func (r *SessionRegistry) pruneLocked() int {
	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run prunes on every tick until ctx is done
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(); n > 0 {
				common.GetLogger().WithField("evicted", n).Debug("idle import sessions evicted")
			}
		}
	}
}
