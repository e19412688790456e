package repository

import (
	"github.com/greenwaste/collection-gateway/internal/model"
	"gorm.io/gorm"
)

// scopeReports narrows q to the rows the caller is allowed to see. It must be
// applied before any caller-supplied filter on every read path that touches
// report-derived data; the column prefix allows use on joined queries.
func scopeReports(q *gorm.DB, scope model.AccessScope, prefix string) *gorm.DB {
	switch scope.Role {
	case model.RoleAdmin:
		return q
	case model.RoleDriver:
		return q.Where(prefix+"driver_id = ?", scope.UserID)
	case model.RoleSettlementUser:
		if scope.SettlementID == nil {
			// An unassigned settlement user sees nothing rather than
			// everything.
			return q.Where("1 = 0")
		}
		return q.Where(prefix+"settlement_id = ?", *scope.SettlementID)
	default:
		return q.Where("1 = 0")
	}
}
