package model

import "errors"

var ErrScopeRequired = errors.New("access scope is required")

// AccessScope is the caller's identity triple as supplied by the identity
// provider. Repositories apply it as the first, non-overridable filter on
// every read that touches report-derived data: drivers see their own rows,
// settlement users see their settlement's rows, admins see everything.
type AccessScope struct {
	UserID       int64
	Role         Role
	SettlementID *int64
}

func AdminScope() AccessScope {
	return AccessScope{Role: RoleAdmin}
}

func DriverScope(userID int64) AccessScope {
	return AccessScope{UserID: userID, Role: RoleDriver}
}

func SettlementScope(userID, settlementID int64) AccessScope {
	return AccessScope{UserID: userID, Role: RoleSettlementUser, SettlementID: &settlementID}
}

func (s AccessScope) Validate() error {
	switch s.Role {
	case RoleAdmin:
		return nil
	case RoleDriver:
		if s.UserID == 0 {
			return ErrScopeRequired
		}
		return nil
	case RoleSettlementUser:
		if s.SettlementID == nil {
			return ErrScopeRequired
		}
		return nil
	default:
		return ErrScopeRequired
	}
}
