package repository

import (
	"github.com/jellyworks/team-tasks-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithCreator creates a team and its first membership atomically
func (r *GormTeamRepository) CreateWithCreator(team *models.Team, creator *models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}

		creator.TeamID = team.ID
		return tx.Create(creator).Error
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Save(team).Error
}

// Delete deletes a team, its memberships and all of its tasks in a transaction
func (r *GormTeamRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteTeamTx(tx, id)
	})
}

// deleteTeamTx removes a team and everything it owns inside an open transaction.
func deleteTeamTx(tx *gorm.DB, teamID uint64) error {
	var taskIDs []uint64
	if err := tx.Model(&models.Task{}).Where("team_id = ?", teamID).Pluck("id", &taskIDs).Error; err != nil {
		return err
	}

	if len(taskIDs) > 0 {
		if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
		return err
	}

	return tx.Delete(&models.Team{}, teamID).Error
}

// AddMember adds a member to a team
func (r *GormTeamRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a team
func (r *GormTeamRepository) RemoveMember(teamID, userID uint64) error {
	return r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error
}

// RemoveMemberAndReap removes a member and deletes the team with its tasks
// when the membership set becomes empty. Returns whether the team was deleted.
func (r *GormTeamRepository) RemoveMemberAndReap(teamID, userID uint64) (bool, error) {
	deleted := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ? AND user_id = ?", teamID, userID).
			Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", teamID).
			Count(&remaining).Error; err != nil {
			return err
		}

		if remaining > 0 {
			return nil
		}

		deleted = true
		return deleteTeamTx(tx, teamID)
	})

	return deleted, err
}

// FindMember finds a specific team member
func (r *GormTeamRepository) FindMember(teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a team
func (r *GormTeamRepository) ListMembers(teamID uint64) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.Preload("User").
		Where("team_id = ?", teamID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUserID lists all teams a user is a member of
func (r *GormTeamRepository) ListMembershipsByUserID(userID uint64) ([]models.TeamMember, error) {
	var memberships []models.TeamMember
	if err := r.db.Preload("Team").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
