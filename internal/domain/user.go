package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleShipper  Role = "shipper"
	RoleAdmin    Role = "admin"
)

// User is the read-side view of the user directory the order core needs:
// identity, contact snapshot fields, role and the balance account.
type User struct {
	ID        uint
	Fullname  string
	Email     string
	Phone     *string
	Role      Role
	Balance   float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
