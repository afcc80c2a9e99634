package model

/**
 * @file: model_team.go
 * @description: team table model
 */

// Team is the reporting unit. Size is the canonical participation
// denominator; the core never stores individual membership.
type Team struct {
	BaseModel
	TeamID string `gorm:"column:team_id;uniqueIndex" json:"teamId"`
	OrgID  string `gorm:"column:org_id;index" json:"orgId"`
	Name   string `gorm:"column:name" json:"name"`
	Size   int    `gorm:"column:size" json:"size"`
}

func (Team) TableName() string {
	return "t_team"
}

// DeletedTeamLabel is shown when historic rows reference a removed team.
const DeletedTeamLabel = "(deleted team)"
