package database

import (
	"github.com/hinsy/accounts-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateIndexes adds the indexes the list and auth paths lean on beyond what
// AutoMigrate generates. Safe to run repeatedly.
func CreateIndexes(db *gorm.DB) error {
	indexes := []string{
		// The admin list filters on activation state.
		"CREATE INDEX IF NOT EXISTS idx_users_is_active ON users(is_active);",

		// Role filtering joins through the pivot from the role side.
		"CREATE INDEX IF NOT EXISTS idx_user_roles_role_id ON user_roles(role_id);",

		// Default list ordering.
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC);",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.GetLogger().Warn("Failed to create index",
				zap.String("statement", stmt),
				zap.Error(err),
			)
			return err
		}
	}

	logger.GetLogger().Debug("Database indexes ensured", zap.Int("count", len(indexes)))
	return nil
}
