package repository

import (
	"github.com/aonuma/task-tracker-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByIdentifier finds a user whose username or email matches identifier
	FindByIdentifier(identifier string) (*models.User, error)

	// ExistsByUsernameOrEmail reports whether a user with either value exists
	ExistsByUsernameOrEmail(username, email string) (bool, error)
}

// TaskFilter holds filtering options for listing visible tasks
type TaskFilter struct {
	// OwnerID and CollaboratorEmail together form the visibility predicate:
	// a task matches when it is owned by OwnerID or lists CollaboratorEmail
	// as a collaborator.
	OwnerID           uint64
	CollaboratorEmail string

	// Priority, when non-nil, restricts to an exact, case-sensitive match.
	Priority *string

	// Search, when non-nil, restricts to tasks whose title or description
	// contains the text, case-insensitively.
	Search *string
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// ListVisible retrieves tasks matching the filter, ordered by due date
	// ascending with NULL due dates last.
	ListVisible(filter TaskFilter) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete permanently removes a task
	Delete(id uint64) error
}
