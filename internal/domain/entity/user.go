package entity

import "time"

// User ro'yxatdan o'tgan mijoz
type User struct {
	ID           int64
	TelegramID   int64
	FullName     string
	Phone        string
	Address      string
	TelegramLink string
	ShortCode    string
	CreatedAt    time.Time
}
