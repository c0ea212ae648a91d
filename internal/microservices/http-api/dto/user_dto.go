package dto

import "titlehub/internal/microservices/http-api/models"

// CreateUserDTO used by admins for POST /users and PUT /users/:username
type CreateUserDTO struct {
	Username  string `json:"username" binding:"required,max=150,not_me,username"`
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Bio       string `json:"bio" binding:"max=500"`
	Role      string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

// UpdateUserDTO used for PATCH on /users/:username and /users/me
type UpdateUserDTO struct {
	Username  *string `json:"username,omitempty" binding:"omitempty,max=150,not_me,username"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty" binding:"omitempty,max=500"`
	Role      *string `json:"role,omitempty" binding:"omitempty,oneof=user moderator admin"`
}

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func (d CreateUserDTO) ToModel() models.User {
	role := models.Role(d.Role)
	if role == "" {
		role = models.RoleUser
	}
	return models.User{
		Username:  d.Username,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Bio:       d.Bio,
		Role:      role,
	}
}

// ToUpdate treats a PUT body as a patch of every field. An omitted role
// resets to user.
func (d CreateUserDTO) ToUpdate() UpdateUserDTO {
	role := d.Role
	if role == "" {
		role = string(models.RoleUser)
	}
	return UpdateUserDTO{
		Username:  &d.Username,
		Email:     &d.Email,
		FirstName: &d.FirstName,
		LastName:  &d.LastName,
		Bio:       &d.Bio,
		Role:      &role,
	}
}

func (d UpdateUserDTO) ApplyTo(u *models.User) {
	if d.Username != nil {
		u.Username = *d.Username
	}
	if d.Email != nil {
		u.Email = *d.Email
	}
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		u.LastName = *d.LastName
	}
	if d.Bio != nil {
		u.Bio = *d.Bio
	}
	if d.Role != nil {
		u.Role = models.Role(*d.Role)
	}
}

func FromUserModel(u models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}

func FromUserModels(list []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, FromUserModel(u))
	}
	return out
}
