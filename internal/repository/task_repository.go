package repository

import (
	"github.com/jellyworks/team-tasks-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a task, its initial assignments and any jelly point award
// atomically
func (r *GormTaskRepository) Create(task *models.Task, assigneeIDs []uint64, pointsAward int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		if err := upsertAssignments(tx, task.ID, assigneeIDs); err != nil {
			return err
		}

		return awardPoints(tx, assigneeIDs, pointsAward)
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByTitle finds a task by its unique title with optional preloading
func (r *GormTaskRepository) FindByTitle(title string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("title = ?", title).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// TitleExists reports whether a task title is already taken by another task
func (r *GormTaskRepository) TitleExists(title string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.Model(&models.Task{}).Where("title = ?", title)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.TeamIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).Where("tasks.team_id IN ?", filter.TeamIDs)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID).
			Where("task_assignments.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}
	if filter.TitleSearch != "" {
		query = query.Where("tasks.title LIKE ?", "%"+filter.TitleSearch+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(orderClause(filter.SortBy))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Team").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// orderClause maps a sort key to a deterministic ORDER BY expression.
// Priority sorts HIGH first; status sorts incomplete work first.
func orderClause(sortBy string) string {
	switch sortBy {
	case SortByPriority:
		return "CASE tasks.priority WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 ELSE 2 END, tasks.due_date ASC"
	case SortByStatus:
		return "CASE tasks.status WHEN 'TODO' THEN 0 WHEN 'IN_PROGRESS' THEN 1 ELSE 2 END, tasks.due_date ASC"
	case SortByTitle:
		return "tasks.title ASC"
	default:
		return "tasks.due_date ASC"
	}
}

// SaveWithAssignees persists the task, replaces its assignee set and awards
// jelly points to the assignees when pointsAward > 0, all in one transaction
func (r *GormTaskRepository) SaveWithAssignees(task *models.Task, assigneeIDs []uint64, pointsAward int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}

		// Drop assignments not in the new set, then upsert the rest.
		removeQuery := tx.Where("task_id = ?", task.ID)
		if len(assigneeIDs) > 0 {
			removeQuery = removeQuery.Where("user_id NOT IN ?", assigneeIDs)
		}
		if err := removeQuery.Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		if err := upsertAssignments(tx, task.ID, assigneeIDs); err != nil {
			return err
		}

		return awardPoints(tx, assigneeIDs, pointsAward)
	})
}

// awardPoints increments each user's running jelly point total.
func awardPoints(tx *gorm.DB, userIDs []uint64, points int) error {
	if points <= 0 || len(userIDs) == 0 {
		return nil
	}

	return tx.Model(&models.User{}).
		Where("id IN ?", userIDs).
		UpdateColumn("jelly_points", gorm.Expr("jelly_points + ?", points)).Error
}

// upsertAssignments creates assignment rows, reviving soft-deleted ones.
func upsertAssignments(tx *gorm.DB, taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// Delete deletes a task and its assignments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// CountTeamMembersByIDs counts how many of the given user IDs are members of the team
func (r *GormTaskRepository) CountTeamMembersByIDs(userIDs []uint64, teamID uint64) (int64, error) {
	var count int64

	err := r.db.Model(&models.User{}).
		Joins("JOIN team_members ON users.id = team_members.user_id").
		Where("team_members.team_id = ? AND users.id IN ?", teamID, userIDs).
		Count(&count).Error

	return count, err
}
