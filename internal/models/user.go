package models

type UserRole string

const (
	UserRoleMember  UserRole = "member"
	UserRoleManager UserRole = "manager"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleMember, UserRoleManager, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// CanManageUsers reports whether the role grants any access to the
// user-management surface.
func (r UserRole) CanManageUsers() bool {
	return r == UserRoleManager || r == UserRoleAdmin
}

type User struct {
	BaseModel
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string  `json:"-" gorm:"type:text"`
	Name         string   `json:"name" gorm:"type:varchar(100);not null"`
	Image        *string  `json:"image,omitempty" gorm:"type:text"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'member'"`

	Posts          []Post          `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Comments       []Comment       `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Likes          []Like          `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Messages       []Message       `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	LinkedAccounts []LinkedAccount `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// PublicProjection is the shape returned by user-management mutations:
// never the password hash, never the linked accounts.
func (u *User) PublicProjection() map[string]interface{} {
	return map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}
