package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table       string
	ID          string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Role        string
	IsVerified  string
	IsActive    string
	LastLoginAt string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	ID:          "id",
	Email:       "email",
	Password:    "passwordhash",
	FirstName:   "firstname",
	LastName:    "lastname",
	Phone:       "phone",
	Role:        "role",
	IsVerified:  "isverified",
	IsActive:    "isactive",
	LastLoginAt: "lastloginat",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FirstName, t.LastName, t.Phone, t.Role,
		t.IsVerified, t.IsActive, t.LastLoginAt, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
