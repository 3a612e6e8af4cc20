package model

// Role is the access level stored on a user.
type Role string

const (
	RoleCustomer       Role = "customer"
	RoleProductManager Role = "productmanager"
	RoleSalesManager   Role = "salesmanager"
)

// User is a registered account.
type User struct {
	ID          int64  `json:"userid" db:"userid"`
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
	HomeAddress string `json:"homeaddress" db:"homeaddress"`
	Role        Role   `json:"role" db:"role"`
}
