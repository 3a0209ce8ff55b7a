package model

import (
	"fmt"
	"time"
)

type Provider string

const (
	ProviderApple  Provider = "APPLE"
	ProviderGoogle Provider = "GOOGLE"
)

// Providers 允许创建订阅的渠道
var Providers = []Provider{ProviderApple, ProviderGoogle}

// FindProviderByName 按名称精确匹配渠道（区分大小写）
func FindProviderByName(name string) (Provider, bool) {
	for _, p := range Providers {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// MustProvider 用于已通过校验的名称，未知名称直接 panic
func MustProvider(name string) Provider {
	p, ok := FindProviderByName(name)
	if !ok {
		panic(fmt.Sprintf("unknown provider %q", name))
	}
	return p
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusCanceled Status = "CANCELED"
	StatusExpired  Status = "EXPIRED"
)

type Subscription struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"not null;uniqueIndex:idx_subscriptions_user_provider,priority:1" json:"user_id"`
	Name           string    `gorm:"size:128;not null" json:"name"`
	Provider       Provider  `gorm:"size:20;not null;uniqueIndex:idx_subscriptions_user_provider,priority:2" json:"provider"`
	ExpirationDate time.Time `gorm:"not null;index" json:"expiration_date"`
	Status         Status    `gorm:"size:20;not null;index" json:"status"` // ACTIVE, CANCELED, EXPIRED
}

func (Subscription) TableName() string {
	return "subscriptions"
}
