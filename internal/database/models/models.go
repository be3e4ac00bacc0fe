package models

// All lists every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectMember{},
		&Sprint{},
		&Board{},
		&BoardMember{},
		&BoardInvitation{},
		&List{},
		&Card{},
		&Comment{},
		&Attendance{},
		&LeaveRequest{},
		&Salary{},
		&OfficeExpense{},
		&Review{},
	}
}
