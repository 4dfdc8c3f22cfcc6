package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

// User is the identity projection this service needs: a display name and a
// roll number for readable analytics rows. The record of truth lives in
// Casdoor; this service only reads it.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	RollNo string   `json:"rollNo,omitempty"`
	Role   UserRole `json:"role"`
}
