package application

import (
	"context"
	"strings"
	"testing"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carRequest(registration string) CarRequest {
	return CarRequest{
		Name:               "Suzuki Wagon R",
		Model:              "2019",
		FuelType:           "petrol",
		Transmission:       "automatic",
		Seats:              4,
		RegistrationNumber: registration,
		DailyRateCents:     650000,
	}
}

func png(name string) ImageUpload {
	return ImageUpload{Filename: name, ContentType: "image/png", Size: 1024, Reader: strings.NewReader("png")}
}

func TestCarService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())

	created, err := env.carSvc.CreateCar(ctx, carRequest("cab-1234"))
	require.NoError(t, err)
	assert.True(t, created.IsAvailable)
	assert.Equal(t, domain.CurrencyLKR, created.Currency)

	_, err = env.carSvc.CreateCar(ctx, carRequest("CAB-1234"))
	assert.True(t, domain.IsConflict(err))

	bad := carRequest("CAB-9999")
	bad.FuelType = "steam"
	_, err = env.carSvc.CreateCar(ctx, bad)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))

	other, err := env.carSvc.CreateCar(ctx, carRequest("CAB-5678"))
	require.NoError(t, err)
	_, err = env.carSvc.UpdateCar(ctx, other.ID, carRequest("CAB-1234"))
	assert.True(t, domain.IsConflict(err))

	req := carRequest("CAB-5678")
	req.DailyRateCents = 700000
	updated, err := env.carSvc.UpdateCar(ctx, other.ID, req)
	require.NoError(t, err)
	assert.Equal(t, int64(700000), updated.DailyRateCents)
	assert.Equal(t, other.Version+1, updated.Version)
}

func TestCarService_DisabledCarsAreHidden(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	created, err := env.carSvc.CreateCar(ctx, carRequest("CAB-1234"))
	require.NoError(t, err)

	_, err = env.carSvc.SetAvailability(ctx, created.ID, false)
	require.NoError(t, err)

	_, err = env.carSvc.GetCar(ctx, created.ID, false)
	assert.True(t, domain.IsNotFound(err))
	got, err := env.carSvc.GetCar(ctx, created.ID, true)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	public, err := env.carSvc.ListCars(ctx, CarQuery{}, false, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, public.Total)
	all, err := env.carSvc.ListCars(ctx, CarQuery{}, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)

	pickup, ret := day(12), day(10)
	_, err = env.carSvc.ListCars(ctx, CarQuery{PickupDate: &pickup, ReturnDate: &ret}, false, 1, 20)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func TestCarService_DeleteBlockedByBookings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	busy := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")
	env.book(t, nimal, busy.ID(), day(10), day(12))

	err := env.carSvc.DeleteCar(ctx, busy.ID())
	assert.True(t, domain.IsConflict(err))

	idle, err := env.carSvc.CreateCar(ctx, carRequest("CAB-4321"))
	require.NoError(t, err)
	withImage, err := env.carSvc.UploadImage(ctx, idle.ID, ImageKindPhoto, png("front.png"))
	require.NoError(t, err)

	require.NoError(t, env.carSvc.DeleteCar(ctx, idle.ID))
	assert.Contains(t, env.images.removed, withImage.ImageURL)
	_, err = env.carSvc.GetCar(ctx, idle.ID, true)
	assert.True(t, domain.IsNotFound(err))
}

func TestCarService_UploadImage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	created, err := env.carSvc.CreateCar(ctx, carRequest("CAB-1234"))
	require.NoError(t, err)

	first, err := env.carSvc.UploadImage(ctx, created.ID, ImageKindPhoto, png("a.png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ImageURL, "/uploads/cars/image/"))

	second, err := env.carSvc.UploadImage(ctx, created.ID, ImageKindPhoto, png("b.png"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ImageURL, second.ImageURL)
	assert.Equal(t, []string{first.ImageURL}, env.images.removed)

	logo, err := env.carSvc.UploadImage(ctx, created.ID, ImageKindLogo, png("logo.png"))
	require.NoError(t, err)
	assert.Equal(t, second.ImageURL, logo.ImageURL)
	assert.NotEmpty(t, logo.LogoURL)

	pdf := png("doc.pdf")
	pdf.ContentType = "application/pdf"
	_, err = env.carSvc.UploadImage(ctx, created.ID, ImageKindPhoto, pdf)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))

	big := png("huge.png")
	big.Size = 6 << 20
	_, err = env.carSvc.UploadImage(ctx, created.ID, ImageKindPhoto, big)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))

	_, err = env.carSvc.UploadImage(ctx, created.ID, ImageKind("banner"), png("x.png"))
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}
