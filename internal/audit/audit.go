package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
	"gorm.io/gorm"
)

// LogAction records an audit log entry
func LogAction(db *gorm.DB, accountID uuid.UUID, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	log := models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now(),
	}

	return db.Create(&log).Error
}

// Audit actions constants
const (
	ActionRegister            = "register"
	ActionLogin               = "login"
	ActionApproveRegistration = "approve_registration"
	ActionRejectRegistration  = "reject_registration"
	ActionCreateRestaurant    = "create_restaurant"
	ActionUpdateRestaurant    = "update_restaurant"
	ActionDeleteRestaurant    = "delete_restaurant"
	ActionCreatePlan          = "create_plan"
	ActionUpdatePlan          = "update_plan"
	ActionDeletePlan          = "delete_plan"
	ActionUpdateAccount       = "update_account"
	ActionDeleteAccount       = "delete_account"
	ActionResetPassword       = "reset_password"
	ActionCreateMenuItem      = "create_menu_item"
	ActionUpdateMenuItem      = "update_menu_item"
	ActionDeleteMenuItem      = "delete_menu_item"
	ActionCreateTable         = "create_table"
	ActionUpdateTable         = "update_table"
	ActionDeleteTable         = "delete_table"
	ActionUpdateOrder         = "update_order"
)
