package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns []string
}

// queryIndexes are the composite indexes behind the list and unread queries.
// Single-column indexes live on the model tags.
var queryIndexes = []index{
	{"tasks", "idx_tasks_assignee_deadline", []string{"assigned_to", "deadline"}},
	{"tasks", "idx_tasks_assigner_deadline", []string{"assigned_by", "deadline"}},
	{"team_members", "idx_team_members_user_id", []string{"user_id"}},
	{"chat_messages", "idx_chat_recipient_read_admin", []string{"recipient_id", "read_by_admin"}},
	{"chat_messages", "idx_chat_recipient_read_employee", []string{"recipient_id", "read_by_employee"}},
}

// AddIndexes creates the query indexes that do not exist yet
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	migrator := db.Migrator()

	for _, idx := range queryIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{
			"index": idx.name,
			"table": idx.table,
		}).Info("Created index")
	}

	return nil
}
