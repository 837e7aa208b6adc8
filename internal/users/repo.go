package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads several users at once.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var out []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateColumns applies a column map to the given user.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

// FindMatchingDonors returns available donors with the exact blood group and
// pincode. The candidate set is frozen into the request at creation time.
func (r *Repository) FindMatchingDonors(ctx context.Context, bloodGroup enums.BloodGroup, pincode string) ([]models.User, error) {
	var donors []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_available = ? AND blood_group = ? AND pincode = ?",
			enums.RoleDonor, true, bloodGroup, pincode).
		Find(&donors).Error
	if err != nil {
		return nil, err
	}
	return donors, nil
}

// CountByRole returns the number of users holding the given role.
func (r *Repository) CountByRole(ctx context.Context, role enums.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

// CountDonorsByBloodGroup aggregates donor counts keyed by blood group.
func (r *Repository) CountDonorsByBloodGroup(ctx context.Context) (map[enums.BloodGroup]int64, error) {
	type row struct {
		BloodGroup enums.BloodGroup
		Total      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("blood_group, COUNT(*) AS total").
		Where("role = ? AND blood_group IS NOT NULL", enums.RoleDonor).
		Group("blood_group").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.BloodGroup]int64, len(rows))
	for _, r := range rows {
		out[r.BloodGroup] = r.Total
	}
	return out, nil
}

// ListHospitalsByVerification returns hospitals in the given review state.
func (r *Repository) ListHospitalsByVerification(ctx context.Context, status enums.VerificationStatus) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND verification_status = ?", enums.RoleHospital, status).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListHospitalsByPincode returns hospitals serving the given pincode.
func (r *Repository) ListHospitalsByPincode(ctx context.Context, pincode string) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND pincode = ?", enums.RoleHospital, pincode).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
