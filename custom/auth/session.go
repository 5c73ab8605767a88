package auth

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"pos_system/custom/apperr"
	"pos_system/model"
)

// Session is an immutable per-request snapshot of the acting staff
// member. It is built once at the boundary and passed down; nothing in
// the engine reads ambient auth state.
type Session struct {
	StaffID  uint
	Username string
	Role     string
}

type Evaluator struct {
	db            *gorm.DB
	staffIDHeader string
}

func NewEvaluator(db *gorm.DB, staffIDHeader string) *Evaluator {
	if staffIDHeader == "" {
		staffIDHeader = "X-Staff-ID"
	}
	return &Evaluator{db: db, staffIDHeader: staffIDHeader}
}

// SessionFromRequest resolves the staff id header to an active staff
// record. Credential verification happens upstream; this only maps an
// authenticated id to a role snapshot.
func (e *Evaluator) SessionFromRequest(r *http.Request) (*Session, error) {
	rawID := r.Header.Get(e.staffIDHeader)
	if rawID == "" {
		return nil, apperr.Authorization("missing %s header", e.staffIDHeader)
	}
	staffID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return nil, apperr.Authorization("invalid %s header", e.staffIDHeader)
	}
	staff := model.Staff{}
	if err := e.db.Where("id = ?", uint(staffID)).First(&staff).Error; err != nil {
		return nil, apperr.Authorization("unknown staff id %d", staffID)
	}
	if !staff.IsActive {
		return nil, apperr.Authorization("staff account %s is inactive", staff.Username)
	}
	return &Session{StaffID: staff.ID, Username: staff.Username, Role: staff.Role}, nil
}

// Authorize resolves the session and checks both the route table and
// the operation capability.
func (e *Evaluator) Authorize(r *http.Request, route, capability string) (*Session, error) {
	session, err := e.SessionFromRequest(r)
	if err != nil {
		return nil, err
	}
	if !CanAccessRoute(session.Role, route) {
		return nil, apperr.Authorization("role %s may not access %s", session.Role, route)
	}
	if !CanPerform(session.Role, capability) {
		return nil, apperr.Authorization("role %s lacks capability %s", session.Role, capability)
	}
	return session, nil
}
