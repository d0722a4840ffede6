package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"uniqueIndex;not null"     json:"name"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Task struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string `gorm:"not null"                 json:"title"`
	Completed bool   `gorm:"not null;default:false"   json:"completed"`
	OwnerID   uint   `gorm:"index;not null"           json:"owner_id"`
	Owner     *User  `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (Task) TableName() string {
	return "tasks"
}

// All lists the models the schema is migrated from, parents first.
func All() []any {
	return []any{&User{}, &Task{}}
}
