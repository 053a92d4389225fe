package domain

import (
	"time"
)

type SysConfig struct {
	ID        int64     `json:"id,string" form:"id"`
	Sort      int       `json:"sort" form:"sort"`
	Type      string    `gorm:"index" json:"type" form:"type"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysConfig) TableName() string {
	return "sys_config"
}

// Activity log status tags
const (
	LogStatusSuccess  = "success"
	LogStatusUpdated  = "updated"
	LogStatusModified = "modified"
	LogStatusDeleted  = "deleted"
)

// ActivityLog records an admin action. Append-only; details may carry HTML.
type ActivityLog struct {
	ID         int64     `json:"id,string"`
	OperatorID int64     `gorm:"index" json:"operator_id,string"`
	Operator   string    `json:"operator"`
	OperatorIP string    `json:"operator_ip"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	Status     string    `gorm:"index" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName Specify table name
func (ActivityLog) TableName() string {
	return "sys_activity_log"
}
