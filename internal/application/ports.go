package application

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Mailer delivers a single e-mail.
type Mailer interface {
	SendEmail(ctx context.Context, toAddress, toName, subject, body string) error
}

// SMSSender delivers a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// CarCache is a read-through cache for car details.
type CarCache interface {
	GetCar(ctx context.Context, id uuid.UUID) (*CarDTO, bool)
	SetCar(ctx context.Context, car *CarDTO)
	InvalidateCar(ctx context.Context, id uuid.UUID)
}

// ImageUpload is a file received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ImageStore persists uploaded images and returns a public reference.
type ImageStore interface {
	Put(ctx context.Context, folder string, upload ImageUpload) (string, error)
	Remove(ctx context.Context, ref string) error
}

// nopCarCache never hits.
type nopCarCache struct{}

func (nopCarCache) GetCar(context.Context, uuid.UUID) (*CarDTO, bool) { return nil, false }
func (nopCarCache) SetCar(context.Context, *CarDTO)                  {}
func (nopCarCache) InvalidateCar(context.Context, uuid.UUID)         {}

// NopCarCache returns a CarCache that caches nothing.
func NopCarCache() CarCache { return nopCarCache{} }

// clock returns the current time. Services keep one so tests can pin "today".
type clock func() time.Time
