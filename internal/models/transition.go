package models

// Move represents a transition requested by one of the two actors
type Move string

const (
	MoveApprove            Move = "approve"
	MoveReject             Move = "reject"
	MoveProposeAlternative Move = "propose_alternative"
	MoveApproveReschedule  Move = "approve_reschedule"
	MoveRejectReschedule   Move = "reject_reschedule"
	MoveComplete           Move = "complete"
	MoveNoShow             Move = "no_show"
	MoveCancel             Move = "cancel"
)

// TransitionRule describes a single legal move of the lesson state machine
type TransitionRule struct {
	From  LessonStatus
	To    LessonStatus
	Roles []Role
}

// transitionRules is the authoritative transition table. Every status
// mutation goes through this table; there is no other mutation path.
var transitionRules = map[Move]TransitionRule{
	MoveApprove:            {From: StatusRequested, To: StatusScheduled, Roles: []Role{RoleTeacher}},
	MoveReject:             {From: StatusRequested, To: StatusRejected, Roles: []Role{RoleTeacher}},
	MoveProposeAlternative: {From: StatusRequested, To: StatusPendingStudentApproval, Roles: []Role{RoleTeacher}},
	MoveApproveReschedule:  {From: StatusPendingStudentApproval, To: StatusScheduled, Roles: []Role{RoleStudent}},
	MoveRejectReschedule:   {From: StatusPendingStudentApproval, To: StatusCancelled, Roles: []Role{RoleStudent}},
	MoveComplete:           {From: StatusScheduled, To: StatusCompleted, Roles: []Role{RoleTeacher}},
	MoveNoShow:             {From: StatusScheduled, To: StatusNoShow, Roles: []Role{RoleTeacher}},
	MoveCancel:             {From: StatusScheduled, To: StatusCancelled, Roles: []Role{RoleTeacher, RoleStudent}},
}

// RuleFor returns the transition rule for a move
func (m Move) RuleFor() (TransitionRule, bool) {
	rule, ok := transitionRules[m]
	return rule, ok
}

// AllowsRole reports whether the rule permits the given role to make the move
func (r TransitionRule) AllowsRole(role Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}
