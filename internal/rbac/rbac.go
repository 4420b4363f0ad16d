package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

var enforcer *casbin.Enforcer

// InitEnforcer initializes the Casbin enforcer
func InitEnforcer(db *gorm.DB, logger *slog.Logger) error {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	// Load model from embedded string
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	// Load policies from database
	if err := e.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	enforcer = e
	logger.Info("RBAC enforcer initialized")
	return nil
}

// IsPlatformOwner checks if the account holds the platform-owner policy
func IsPlatformOwner(accountID uuid.UUID) (bool, error) {
	return enforcer.Enforce(accountID.String(), "platform", "manage")
}

// MakePlatformOwner grants the platform-owner policy to an account
func MakePlatformOwner(accountID uuid.UUID) error {
	_, err := enforcer.AddPolicy(accountID.String(), "platform", "manage")
	if err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// RevokePlatformOwner removes the platform-owner policy from an account
func RevokePlatformOwner(accountID uuid.UUID) error {
	_, err := enforcer.RemovePolicy(accountID.String(), "platform", "manage")
	if err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// CanManageRestaurant checks if the account may manage a restaurant's
// menu, tables, and orders.
func CanManageRestaurant(accountID uuid.UUID, restaurantID uuid.UUID) (bool, error) {
	return enforcer.Enforce(accountID.String(), fmt.Sprintf("restaurant:%s", restaurantID.String()), "manage")
}

// GrantRestaurantAccess grants manage access to a restaurant
func GrantRestaurantAccess(accountID uuid.UUID, restaurantID uuid.UUID) error {
	_, err := enforcer.AddPolicy(accountID.String(), fmt.Sprintf("restaurant:%s", restaurantID.String()), "manage")
	if err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// RevokeRestaurantAccess revokes manage access to a restaurant
func RevokeRestaurantAccess(accountID uuid.UUID, restaurantID uuid.UUID) error {
	_, err := enforcer.RemovePolicy(accountID.String(), fmt.Sprintf("restaurant:%s", restaurantID.String()), "manage")
	if err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// GetManagedRestaurantIDs returns all restaurant IDs the account can manage
func GetManagedRestaurantIDs(accountID uuid.UUID) ([]uuid.UUID, error) {
	policies, err := enforcer.GetFilteredPolicy(0, accountID.String())
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0)
	for _, policy := range policies {
		if len(policy) >= 2 && len(policy[1]) > 11 && policy[1][:11] == "restaurant:" {
			if id, err := uuid.Parse(policy[1][11:]); err == nil {
				ids = append(ids, id)
			}
		}
	}

	return ids, nil
}
