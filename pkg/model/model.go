package model

import (
	"math/rand"
	"time"
)

type Base struct {
	ID        int       `json:"id"` // int/serial used for simplicity, in prod env uuid is more preferrable
	CreatedAt time.Time `json:"created_at"`
}

func randAlphaNum(n int) string {
	const alphaNum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

	b := make([]byte, n)
	for i := range b {
		b[i] = alphaNum[rand.Intn(len(alphaNum))] // nolint:gosec
	}

	return string(b)
}
