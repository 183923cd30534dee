package model

// Profile 是用户资料表中与推送相关的部分，用户表本身由认证服务维护。
type Profile struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FCMToken string `gorm:"column:fcm_token;type:varchar(512)" json:"fcmToken"`
}

func (Profile) TableName() string {
	return "profiles"
}
