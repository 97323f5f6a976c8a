package httpapi

import (
	"time"

	"github.com/mirajehossain/usersvc/internal/user"
)

// apiResponse is the JSON envelope every endpoint returns.
type apiResponse struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type healthDTO struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Age      *int   `json:"age,omitempty"`
}

func (r createUserRequest) toParams() user.CreateParams {
	return user.CreateParams{
		Username: r.Username,
		Email:    r.Email,
		FullName: r.FullName,
		Age:      r.Age,
	}
}

type updateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Age      *int    `json:"age,omitempty"`
}

func (r updateUserRequest) toParams() user.UpdateParams {
	return user.UpdateParams{
		Username: r.Username,
		Email:    r.Email,
		FullName: r.FullName,
		Age:      r.Age,
	}
}

type userDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Age       *int   `json:"age,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type userListDTO struct {
	Users []userDTO `json:"users"`
	Total int       `json:"total"`
}

type statisticsDTO struct {
	TotalUsers   int      `json:"total_users"`
	UsersWithAge int      `json:"users_with_age"`
	AverageAge   *float64 `json:"average_age,omitempty"`
}

func toUserDTO(u user.User) userDTO {
	return userDTO{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Age:       u.Age,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toUserListDTO(users []user.User) userListDTO {
	out := userListDTO{Users: make([]userDTO, 0, len(users)), Total: len(users)}
	for _, u := range users {
		out.Users = append(out.Users, toUserDTO(u))
	}
	return out
}

func toStatisticsDTO(s user.Statistics) statisticsDTO {
	return statisticsDTO{
		TotalUsers:   s.TotalUsers,
		UsersWithAge: s.UsersWithAge,
		AverageAge:   s.AverageAge,
	}
}
