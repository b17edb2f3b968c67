package models

type Skill struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string `json:"name" gorm:"not null;uniqueIndex"`
	Category string `json:"category,omitempty" gorm:"index"`
}

func (Skill) TableName() string {
	return "skills"
}

type Municipality struct {
	ID              string   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string   `json:"name" gorm:"not null;uniqueIndex"`
	BudgetAllocated *float64 `json:"budget_allocated"`
	BudgetSpent     *float64 `json:"budget_spent"`
	Active          bool     `json:"active" gorm:"not null;default:true"`
}

func (Municipality) TableName() string {
	return "municipalities"
}
