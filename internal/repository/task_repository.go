package repository

import (
	"context"

	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Assignee", "Assigner", "Comments").Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Comments" {
			query = query.Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("task_comments.created_at ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.AssignedBy != nil {
		query = query.Where("tasks.assigned_by = ?", *filter.AssignedBy)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.DueBefore != nil {
		query = query.Where("tasks.deadline < ?", *filter.DueBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("tasks.deadline ASC").
		Order("tasks.created_at DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("Assignee").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateFields performs a partial update. Concurrent writers are not
// coordinated; the last write of each column wins.
func (r *GormTaskRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

// Delete hard deletes a task and its comments
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.Task{}).Error
	})
}

// ListByAssignee returns every task assigned to the user with only the id
// and assignment columns loaded
func (r *GormTaskRepository) ListByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Select("id", "assigned_to", "assigned_by").
		Where("assigned_to = ?", userID).
		Find(&tasks).Error
	return tasks, err
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(ctx context.Context, comment *models.TaskComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}
