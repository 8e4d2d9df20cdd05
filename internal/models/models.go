package models

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserStanding{},
		&Post{},
		&Comment{},
		&Vote{},
		&Report{},
		&KarmaLog{},
		&UserBadge{},
	}
}
