package database

import (
	"fmt"
	"log"

	"chatter-service/config"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
)

var Enforcer *casbin.Enforcer

func CasbinConnect() {
	// Initialize casbin adapter
	adapter, err := gormadapter.NewAdapterByDB(Postgres)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize casbin adapter: %v", err))
	}

	// Load model configuration file and policy store adapter
	e, err := casbin.NewEnforcer(config.Default("CASBIN_MODEL", "config/restful_rbac_model.conf"), adapter)
	if err != nil {
		panic(fmt.Sprintf("failed to create casbin enforcer: %v", err))
	}

	// Add default policy
	if hasPolicy, _ := e.HasPolicy("admin", "/v1/admin*", "(GET)|(POST)|(PUT)|(DELETE)"); !hasPolicy {
		if _, err := e.AddPolicy("admin", "/v1/admin*", "(GET)|(POST)|(PUT)|(DELETE)"); err != nil {
			panic(fmt.Sprintf("failed to add admin policy: %v", err))
		}
	}

	if err := e.LoadPolicy(); err != nil {
		panic(fmt.Sprintf("failed to load casbin policy: %v", err))
	}
	Enforcer = e
	log.Printf("Casbin policy loaded")
}

// AssignRole groups a user under a role; a no-op until CasbinConnect ran.
func AssignRole(userID string, role string) error {
	if Enforcer == nil {
		return nil
	}
	_, err := Enforcer.AddGroupingPolicy(userID, role)
	return err
}
