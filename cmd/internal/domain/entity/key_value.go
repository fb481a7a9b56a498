package entity

// KeyValue is a single durable store entry. Value holds JSON.
type KeyValue struct {
	Key       string `gorm:"column:store_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt int64  `gorm:"not null"`
}
