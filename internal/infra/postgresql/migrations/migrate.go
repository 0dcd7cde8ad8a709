package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/labmanhq/labman/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_users_and_groups",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.UserModel{}, &repository.GroupModel{}, &repository.UserGroupModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_user_groups_group_id ON user_groups (group_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&repository.UserGroupModel{},
					&repository.GroupModel{},
					&repository.UserModel{},
				)
			},
		},
		{
			ID: "000002_create_meetings",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.MeetingModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_meetings_meeting_time ON meetings (meeting_time)`,
					`CREATE INDEX IF NOT EXISTS idx_meetings_created_by ON meetings (created_by)`,
					`CREATE INDEX IF NOT EXISTS idx_meetings_group_id ON meetings (group_id) WHERE group_id IS NOT NULL`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.MeetingModel{})
			},
		},
		{
			ID: "000003_create_meeting_responses",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.MeetingResponseModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_responses_meeting_id ON meeting_responses (meeting_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.MeetingResponseModel{})
			},
		},
		{
			ID: "000004_create_email_failures",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.EmailFailureModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_email_failures_created_at ON email_failures (created_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EmailFailureModel{})
			},
		},
		{
			ID: "000005_create_audit_logs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.AuditLogModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AuditLogModel{})
			},
		},
	})

	return m.Migrate()
}
