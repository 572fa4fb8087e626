package models

// 交易类型
const (
	TransactionRoomPurchase = "room_purchase"
	TransactionRewardClaim  = "reward_claim"
	TransactionTrapPenalty  = "trap_penalty"
	TransactionDeposit      = "deposit"
	TransactionWithdrawal   = "withdrawal"
)

// Transaction 余额流水表
type Transaction struct {
	BaseModel
	UserID          uint    `gorm:"not null;index" json:"user_id"`
	TransactionType string  `gorm:"size:30;not null;index" json:"transaction_type"`
	Amount          float64 `gorm:"not null" json:"amount"` // 正数入账，负数出账
	BalanceAfter    float64 `gorm:"not null" json:"balance_after"`

	// 关联对象（奖励、房间等）
	ReferenceType string `gorm:"size:30" json:"reference_type,omitempty"`
	ReferenceID   uint   `json:"reference_id,omitempty"`

	Description string `gorm:"size:255" json:"description,omitempty"`
}

// TableName 指定Transaction表名
func (Transaction) TableName() string {
	return "transactions"
}
