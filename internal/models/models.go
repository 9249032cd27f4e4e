package models

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Contact{},
		&Campaign{},
		&MembershipPlan{},
		&Membership{},
		&Order{},
		&OrderItem{},
		&Transaction{},
		&EmailTemplate{},
		&EmailSend{},
		&Topic{},
		&Subscription{},
		&Setting{},
		&ProcessorEventLog{},
	}
}
